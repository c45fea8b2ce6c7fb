package config

import "os"

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	// Provider: "ollama" (local) or "genai" (Gemini API).
	Provider string `json:"provider,omitempty"`

	OllamaEndpoint string `json:"ollama_endpoint,omitempty"`
	OllamaModel    string `json:"ollama_model,omitempty"`

	GenAIAPIKey string `json:"genai_api_key,omitempty"`
	GenAIModel  string `json:"genai_model,omitempty"`

	// TaskType hints the GenAI embedder: SEMANTIC_SIMILARITY,
	// RETRIEVAL_QUERY, RETRIEVAL_DOCUMENT, ...
	TaskType string `json:"task_type,omitempty"`
}

// DefaultEmbeddingConfig defaults to a local Ollama backend so the
// embedding demos work without an API key.
func DefaultEmbeddingConfig() *EmbeddingConfig {
	return &EmbeddingConfig{
		Provider:       "ollama",
		OllamaEndpoint: "http://localhost:11434",
		OllamaModel:    "embeddinggemma",
		GenAIModel:     "gemini-embedding-001",
		TaskType:       "SEMANTIC_SIMILARITY",
	}
}

func (e *EmbeddingConfig) applyEnvOverrides() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && e.GenAIAPIKey == "" {
		e.GenAIAPIKey = v
	}
	if v := os.Getenv("LOOM_EMBEDDING_PROVIDER"); v != "" {
		e.Provider = v
	}
}
