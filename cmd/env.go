package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/aethernet/internal/chat"
	"github.com/aethernet/internal/config"
	"github.com/aethernet/internal/credentials"
)

// EnvCommand returns the command that reports which provider credentials
// are configured. A missing key is a warning, never a startup failure:
// that provider's calls simply fail with a missing-credential error.
func EnvCommand() *cli.Command {
	return &cli.Command{
		Name:  "env",
		Usage: "Check which provider credentials are configured",
		Action: func(c *cli.Context) error {
			godotenv.Load()

			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			result := CheckProviderKeys(cfg)
			PrintKeyCheck(result)
			return nil
		},
	}
}

// KeyCheckResult holds the result of the credential check
type KeyCheckResult struct {
	Present map[chat.ProviderKind]string // Providers with a key (masked values)
	Missing []chat.ProviderKind          // Key-requiring providers without one
	Port    int
}

// CheckProviderKeys inspects the loaded configuration for provider keys
func CheckProviderKeys(cfg *config.Config) *KeyCheckResult {
	result := &KeyCheckResult{
		Present: make(map[chat.ProviderKind]string),
		Missing: []chat.ProviderKind{},
		Port:    cfg.Server.Port,
	}

	kinds := []chat.ProviderKind{
		chat.ProviderGoogle,
		chat.ProviderMistral,
		chat.ProviderCohere,
		chat.ProviderHuggingFace,
	}

	for _, kind := range kinds {
		key := cfg.Provider(kind).APIKey
		if key == "" {
			result.Missing = append(result.Missing, kind)
		} else {
			result.Present[kind] = credentials.Mask(key)
		}
	}

	return result
}

// PrintKeyCheck prints the credential check results
func PrintKeyCheck(result *KeyCheckResult) {
	fmt.Println("=== Credential Check ===")
	fmt.Printf("Relay port: %d\n", result.Port)
	fmt.Println("")

	if len(result.Present) > 0 {
		fmt.Println("✓ Configured providers:")
		for kind, masked := range result.Present {
			fmt.Printf("   - %s = %s\n", kind, masked)
		}
		fmt.Println("")
	}

	for _, kind := range result.Missing {
		fmt.Printf("⚠ Warning: no key for %s; its endpoint will answer with a missing-credential error\n", kind)
	}

	if len(result.Missing) == 0 {
		fmt.Println("✓ All key-requiring providers are configured")
	}

	fmt.Println("========================")
	_ = os.Stdout.Sync()
}
