package llm

import (
	"fmt"
	"os"
	"time"

	"loom/internal/config"
)

// Provider names accepted in configuration.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// ProviderConfig holds the resolved provider and its settings.
type ProviderConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// DetectProvider resolves the active provider: the user config file
// first, then environment variables (GEMINI_API_KEY, OPENAI_API_KEY,
// then a reachable-looking OLLAMA_HOST).
func DetectProvider(cfg *config.UserConfig) (*ProviderConfig, error) {
	if cfg != nil && cfg.Provider != "" {
		pc := &ProviderConfig{
			Provider: cfg.Provider,
			APIKey:   cfg.APIKeyFor(cfg.Provider),
			Model:    cfg.Model,
			BaseURL:  cfg.BaseURL,
			Timeout:  time.Duration(cfg.TimeoutSeconds) * time.Second,
		}
		if cfg.Provider == ProviderOllama {
			pc.BaseURL = cfg.OllamaHost
			return pc, nil
		}
		if pc.APIKey != "" {
			return pc, nil
		}
		// Configured provider without a key: fall through to env scan.
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return &ProviderConfig{Provider: ProviderGemini, APIKey: key}, nil
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return &ProviderConfig{Provider: ProviderOpenAI, APIKey: key}, nil
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		return &ProviderConfig{Provider: ProviderOllama, BaseURL: host}, nil
	}

	return nil, fmt.Errorf("no provider configured; set provider in config or one of GEMINI_API_KEY, OPENAI_API_KEY, OLLAMA_HOST")
}

// NewClientFromConfig builds a client for the resolved provider.
func NewClientFromConfig(pc *ProviderConfig) (Client, error) {
	switch pc.Provider {
	case ProviderGemini:
		cfg := DefaultGeminiConfig(pc.APIKey)
		if pc.BaseURL != "" {
			cfg.BaseURL = pc.BaseURL
		}
		if pc.Model != "" {
			cfg.Model = pc.Model
		}
		if pc.Timeout > 0 {
			cfg.Timeout = pc.Timeout
		}
		return NewGeminiClientWithConfig(cfg), nil

	case ProviderOpenAI:
		cfg := DefaultOpenAIConfig(pc.APIKey)
		if pc.BaseURL != "" {
			cfg.BaseURL = pc.BaseURL
		}
		if pc.Model != "" {
			cfg.Model = pc.Model
		}
		if pc.Timeout > 0 {
			cfg.Timeout = pc.Timeout
		}
		return NewOpenAIClientWithConfig(cfg), nil

	case ProviderOllama:
		return NewOllamaClient(pc.BaseURL, pc.Model), nil

	default:
		return nil, fmt.Errorf("unknown provider: %s (valid: gemini, openai, ollama)", pc.Provider)
	}
}

// NewClientFromEnv loads the default config file and builds a client.
func NewClientFromEnv() (Client, error) {
	cfg, err := config.Load(config.DefaultUserConfigPath())
	if err != nil {
		return nil, err
	}
	pc, err := DetectProvider(cfg)
	if err != nil {
		return nil, err
	}
	return NewClientFromConfig(pc)
}
