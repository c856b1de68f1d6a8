package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/aethernet/internal/ai"
	"github.com/aethernet/internal/ai/cohere"
	"github.com/aethernet/internal/ai/google"
	"github.com/aethernet/internal/ai/huggingface"
	"github.com/aethernet/internal/ai/local"
	"github.com/aethernet/internal/ai/mistral"
	"github.com/aethernet/internal/api"
	"github.com/aethernet/internal/chat"
	"github.com/aethernet/internal/config"
	"github.com/aethernet/internal/credentials"
	"github.com/aethernet/internal/dispatch"
	"github.com/aethernet/internal/logging"
)

// ServeCommand returns the CLI command for starting the relay server
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the Aethernet relay server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the relay server (overrides config)",
			},
		},
		Action: func(c *cli.Context) error {
			// Missing .env is fine; keys can come from config or real env.
			godotenv.Load()

			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if c.IsSet("port") {
				cfg.Server.Port = c.Int("port")
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logging.Setup(cfg.Log.Level, cfg.Log.Pretty)

			creds := credentials.NewStore()
			cfg.SeedCredentials(creds)

			registry := buildRegistry(cfg, creds)
			store := chat.NewStore()
			dispatcher := dispatch.New(store, registry)

			server := api.NewServer(api.Config{
				Port:           cfg.Server.Port,
				AllowedOrigins: cfg.Server.AllowedOrigins,
			}, store, dispatcher, registry, creds, adapterFactory(cfg))

			return server.Start()
		},
	}
}

// buildRegistry wires one adapter per supported provider. A provider with
// no key stays registered; its calls fail fast with a missing-credential
// error instead of disabling the route.
func buildRegistry(cfg *config.Config, creds *credentials.Store) *ai.Registry {
	registry := ai.NewRegistry()
	for _, kind := range supportedKinds() {
		if adapter, ok := newAdapter(cfg, kind, creds); ok {
			registry.Register(adapter)
		}
	}
	return registry
}

// adapterFactory returns the factory the API uses to build throwaway
// adapters for key validation.
func adapterFactory(cfg *config.Config) api.AdapterFactory {
	return func(kind chat.ProviderKind, creds *credentials.Store) (ai.Adapter, bool) {
		return newAdapter(cfg, kind, creds)
	}
}

func supportedKinds() []chat.ProviderKind {
	return []chat.ProviderKind{
		chat.ProviderGoogle,
		chat.ProviderMistral,
		chat.ProviderCohere,
		chat.ProviderHuggingFace,
		chat.ProviderLocal,
	}
}

func newAdapter(cfg *config.Config, kind chat.ProviderKind, creds *credentials.Store) (ai.Adapter, bool) {
	pc := cfg.Provider(kind)

	switch kind {
	case chat.ProviderGoogle:
		var opts []google.Option
		if pc.BaseURL != "" {
			opts = append(opts, google.WithBaseURL(pc.BaseURL))
		}
		return google.New(creds, opts...), true
	case chat.ProviderMistral:
		var opts []mistral.Option
		if pc.BaseURL != "" {
			opts = append(opts, mistral.WithBaseURL(pc.BaseURL))
		}
		return mistral.New(creds, opts...), true
	case chat.ProviderCohere:
		var opts []cohere.Option
		if pc.BaseURL != "" {
			opts = append(opts, cohere.WithBaseURL(pc.BaseURL))
		}
		return cohere.New(creds, opts...), true
	case chat.ProviderHuggingFace:
		var opts []huggingface.Option
		if pc.BaseURL != "" {
			opts = append(opts, huggingface.WithBaseURL(pc.BaseURL))
		}
		return huggingface.New(creds, opts...), true
	case chat.ProviderLocal:
		var opts []local.Option
		if pc.BaseURL != "" {
			opts = append(opts, local.WithServerURL(pc.BaseURL))
		}
		return local.New(opts...), true
	default:
		return nil, false
	}
}
