package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, 120, cfg.TimeoutSeconds)
	require.NotNil(t, cfg.Embedding)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".loom", "config.json")

	cfg := DefaultUserConfig()
	cfg.Provider = "openai"
	cfg.Model = "gpt-4o-mini"
	cfg.OpenAIAPIKey = "sk-test"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", loaded.Provider)
	assert.Equal(t, "gpt-4o-mini", loaded.Model)
	assert.Equal(t, "sk-test", loaded.OpenAIAPIKey)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOOM_PROVIDER", "ollama")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OLLAMA_HOST", "http://box:11434")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Provider)
	assert.Equal(t, "g-key", cfg.GeminiAPIKey)
	assert.Equal(t, "http://box:11434", cfg.OllamaHost)
	assert.Equal(t, "g-key", cfg.Embedding.GenAIAPIKey, "embedding picks up the Gemini key")
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"provider": "openai"}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, 120, cfg.TimeoutSeconds)
	assert.NotNil(t, cfg.Logging)
}

func TestAPIKeyFor(t *testing.T) {
	cfg := &UserConfig{GeminiAPIKey: "g", OpenAIAPIKey: "o"}
	assert.Equal(t, "g", cfg.APIKeyFor("gemini"))
	assert.Equal(t, "o", cfg.APIKeyFor("openai"))
	assert.Empty(t, cfg.APIKeyFor("ollama"))
}
