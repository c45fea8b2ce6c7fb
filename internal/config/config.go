// Package config loads and saves the user configuration file.
// Resolution order for every setting: config file, then environment
// variable, then built-in default.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// UserConfig is the persisted configuration, stored as JSON at
// .loom/config.json in the workspace or under the home directory.
type UserConfig struct {
	// Provider selects the chat model backend: gemini, openai, ollama.
	Provider string `json:"provider,omitempty"`

	// Model overrides the provider's default model.
	Model string `json:"model,omitempty"`

	// BaseURL overrides the provider endpoint (gateways, proxies).
	BaseURL string `json:"base_url,omitempty"`

	// API keys per provider.
	GeminiAPIKey string `json:"gemini_api_key,omitempty"`
	OpenAIAPIKey string `json:"openai_api_key,omitempty"`

	// OllamaHost is the local Ollama endpoint.
	OllamaHost string `json:"ollama_host,omitempty"`

	// TimeoutSeconds bounds a single model call.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`

	// TemplatesDir holds user template corpus files.
	TemplatesDir string `json:"templates_dir,omitempty"`

	// StorePath is the sqlite document/session store location.
	StorePath string `json:"store_path,omitempty"`

	Embedding *EmbeddingConfig `json:"embedding,omitempty"`
	Logging   *LoggingConfig   `json:"logging,omitempty"`
}

// DefaultUserConfig returns the built-in defaults.
func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Provider:       "gemini",
		TimeoutSeconds: 120,
		OllamaHost:     "http://localhost:11434",
		Embedding:      DefaultEmbeddingConfig(),
		Logging:        DefaultLoggingConfig(),
	}
}

// DefaultUserConfigPath returns the config location: workspace
// .loom/config.json when present, else ~/.loom/config.json.
func DefaultUserConfigPath() string {
	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, ".loom", "config.json")
		if _, err := os.Stat(local); err == nil {
			return local
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".loom", "config.json")
	}
	return filepath.Join(home, ".loom", "config.json")
}

// Load reads the config file at path, applies env overrides, and fills
// defaults. A missing file is not an error: defaults plus env apply.
func Load(path string) (*UserConfig, error) {
	cfg := DefaultUserConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.fillDefaults()
	return cfg, nil
}

// Save writes the config as JSON, creating the parent directory.
func (c *UserConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func (c *UserConfig) applyEnvOverrides() {
	if v := os.Getenv("LOOM_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("LOOM_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.GeminiAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAIAPIKey = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		c.OllamaHost = v
	}
	if c.Embedding != nil {
		c.Embedding.applyEnvOverrides()
	}
}

func (c *UserConfig) fillDefaults() {
	if c.Provider == "" {
		c.Provider = "gemini"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 120
	}
	if c.OllamaHost == "" {
		c.OllamaHost = "http://localhost:11434"
	}
	if c.Embedding == nil {
		c.Embedding = DefaultEmbeddingConfig()
	}
	if c.Logging == nil {
		c.Logging = DefaultLoggingConfig()
	}
}

// APIKeyFor returns the key configured for a provider, if any.
func (c *UserConfig) APIKeyFor(provider string) string {
	switch provider {
	case "gemini":
		return c.GeminiAPIKey
	case "openai":
		return c.OpenAIAPIKey
	}
	return ""
}
