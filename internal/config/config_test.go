package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aethernet/internal/chat"
	"github.com/aethernet/internal/credentials"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotNil(t, cfg.Providers)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aethernet.toml")
	content := `
[server]
port = 8080

[log]
level = "debug"
pretty = true

[providers.mistral]
api_key = "file-key"
model = "mistral-large"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)

	pc := cfg.Provider(chat.ProviderMistral)
	assert.Equal(t, "file-key", pc.APIKey)
	assert.Equal(t, "mistral-large", pc.Model)

	// File settings override defaults but untouched defaults survive.
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.Server.AllowedOrigins)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("AETHERNET_SERVER_PORT", "9000")
	t.Setenv("AETHERNET_LOG_LEVEL", "warn")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfigLegacyKeyEnvVars(t *testing.T) {
	t.Setenv("GEMINI_KEY", "legacy-gemini")
	t.Setenv("HF_KEY", "legacy-hf")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "legacy-gemini", cfg.Provider(chat.ProviderGoogle).APIKey)
	assert.Equal(t, "legacy-hf", cfg.Provider(chat.ProviderHuggingFace).APIKey)
	assert.Empty(t, cfg.Provider(chat.ProviderMistral).APIKey)
}

func TestLoadConfigFileKeyBeatsLegacyEnv(t *testing.T) {
	t.Setenv("MISTRAL_KEY", "legacy-key")

	path := filepath.Join(t.TempDir(), "aethernet.toml")
	content := `
[providers.mistral]
api_key = "file-key"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.Provider(chat.ProviderMistral).APIKey)
}

func TestSeedCredentials(t *testing.T) {
	cfg := &Config{
		Providers: map[string]ProviderConfig{
			"google":  {APIKey: "g-key"},
			"mistral": {},
		},
	}

	store := credentials.NewStore()
	cfg.SeedCredentials(store)

	key, ok := store.Get(chat.ProviderGoogle)
	require.True(t, ok)
	assert.Equal(t, "g-key", key)

	_, ok = store.Get(chat.ProviderMistral)
	assert.False(t, ok, "empty keys stay unconfigured")
}

func TestValidate(t *testing.T) {
	good, err := LoadConfig("")
	require.NoError(t, err)
	assert.NoError(t, Validate(good))

	bad := *good
	bad.Server.Port = 0
	assert.Error(t, Validate(&bad))

	bad = *good
	bad.Server.Port = 70000
	assert.Error(t, Validate(&bad))

	bad = *good
	bad.Server.AllowedOrigins = nil
	assert.Error(t, Validate(&bad))
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aethernet.toml")
	require.NoError(t, InitConfig(path))

	// A second init refuses to clobber the existing file.
	assert.Error(t, InitConfig(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "gemini-2.0-flash", cfg.Provider(chat.ProviderGoogle).Model)
}
