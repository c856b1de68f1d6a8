package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/aethernet/internal/chat"
	"github.com/aethernet/internal/credentials"
)

// ProviderConfig holds the per-provider settings: credential, default
// model and an optional base URL override for self-hosted backends.
type ProviderConfig struct {
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`
}

// Config represents the application configuration
type Config struct {
	Server struct {
		Port           int      `koanf:"port"`
		AllowedOrigins []string `koanf:"allowed_origins"`
	} `koanf:"server"`

	Log struct {
		Level  string `koanf:"level"`
		Pretty bool   `koanf:"pretty"`
	} `koanf:"log"`

	Providers map[string]ProviderConfig `koanf:"providers"`
}

// legacyKeyEnvVars are bare environment variable names accepted for
// provider keys. They take effect when no key is configured through the
// file or the prefixed form.
var legacyKeyEnvVars = map[string]chat.ProviderKind{
	"GEMINI_KEY":  chat.ProviderGoogle,
	"MISTRAL_KEY": chat.ProviderMistral,
	"COHERE_KEY":  chat.ProviderCohere,
	"HF_KEY":      chat.ProviderHuggingFace,
}

// LoadConfig loads the configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	k.Load(confmap.Provider(map[string]interface{}{
		"server.port":            4000,
		"server.allowed_origins": []string{"http://localhost:3000", "http://localhost:5173"},
		"log.level":              "info",
	}, "."), nil)

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./aethernet.toml", "$HOME/.aethernet.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix AETHERNET_
	k.Load(env.Provider("AETHERNET_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(s), "_", ".", -1)
	}), nil)

	// Unmarshal into Config struct
	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if config.Providers == nil {
		config.Providers = make(map[string]ProviderConfig)
	}

	// Legacy bare key variables (GEMINI_KEY etc.) fill in missing keys.
	for name, kind := range legacyKeyEnvVars {
		val := os.Getenv(name)
		if val == "" {
			continue
		}
		pc := config.Providers[string(kind)]
		if pc.APIKey == "" {
			pc.APIKey = val
			config.Providers[string(kind)] = pc
		}
	}

	return &config, nil
}

// SeedCredentials copies configured API keys into the credential store.
// A provider with no key is simply left unconfigured; its calls fail with
// a missing-credential error instead of crashing startup.
func (c *Config) SeedCredentials(store *credentials.Store) {
	for name, pc := range c.Providers {
		if pc.APIKey != "" {
			store.Set(chat.ProviderKind(name), pc.APIKey)
		}
	}
}

// Provider returns the settings block for a provider kind, zero-valued
// when unset.
func (c *Config) Provider(kind chat.ProviderKind) ProviderConfig {
	return c.Providers[string(kind)]
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	// Create sample configuration
	sampleConfig := `# Aethernet Configuration

[server]
port = 4000
allowed_origins = ["http://localhost:3000", "http://localhost:5173"]

[log]
level = "info"
pretty = true

[providers.google]
api_key = "your-gemini-api-key"
model = "gemini-2.0-flash"

[providers.mistral]
api_key = "your-mistral-api-key"
model = "mistral-medium"

[providers.cohere]
api_key = "your-cohere-api-key"
model = "command-r-plus"

[providers.huggingface]
api_key = "your-huggingface-api-key"
model = "HuggingFaceH4/zephyr-7b-beta"

[providers.local]
base_url = "http://localhost:11434"
model = "llama3"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", config.Server.Port)
	}

	if len(config.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin is required")
	}

	return nil
}
