// Package llm provides a common client interface over hosted chat model
// providers: Google Gemini, OpenAI-compatible APIs, and local Ollama.
package llm

import (
	"context"
	"errors"

	"loom/internal/prompt"
)

// Client is the common interface for chat model providers.
type Client interface {
	// Complete sends a bare prompt and returns the reply text.
	Complete(ctx context.Context, promptText string) (string, error)

	// CompleteWithSystem sends a prompt with a system message.
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Chat sends a full message history and returns the reply.
	Chat(ctx context.Context, messages []prompt.Message) (*Reply, error)

	// SetModel changes the model used for completions.
	SetModel(model string)

	// GetModel returns the current model.
	GetModel() string
}

// StructuredClient is implemented by providers that can enforce a JSON
// schema on the reply at the API level. Callers without a structured
// client fall back to prompt-side format instructions.
type StructuredClient interface {
	// ChatStructured sends messages with a JSON schema the reply must
	// satisfy. The schema is a plain JSON-schema object.
	ChatStructured(ctx context.Context, messages []prompt.Message, schema map[string]any) (*Reply, error)
}

// Reply is a chat model's answer.
type Reply struct {
	Content      string
	Model        string
	FinishReason string
	Usage        Usage
}

// Usage reports token accounting for a single call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ErrNoAPIKey is returned when a provider client is used without a key.
var ErrNoAPIKey = errors.New("API key not configured")

// ErrEmptyReply is returned when the provider answers with no content.
var ErrEmptyReply = errors.New("no completion returned")

// splitSystem separates a leading system message from the rest of the
// history. Providers place the system prompt in different fields.
func splitSystem(messages []prompt.Message) (string, []prompt.Message) {
	if len(messages) > 0 && messages[0].Role == prompt.RoleSystem {
		return messages[0].Content, messages[1:]
	}
	return "", messages
}
