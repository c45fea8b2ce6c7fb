package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"loom/internal/prompt"
)

// OllamaClient implements Client for a local Ollama server. No API key
// is needed.
type OllamaClient struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

// OllamaConfig holds configuration for the Ollama client.
type OllamaConfig struct {
	Endpoint string
	Model    string
	Timeout  time.Duration
}

// DefaultOllamaConfig returns sensible defaults.
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		Endpoint: "http://localhost:11434",
		Model:    "llama3.2",
		Timeout:  5 * time.Minute, // Local models can be slow on first load
	}
}

// NewOllamaClient creates an Ollama client.
func NewOllamaClient(endpoint, model string) *OllamaClient {
	cfg := DefaultOllamaConfig()
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if model != "" {
		cfg.Model = model
	}
	return &OllamaClient{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`

	PromptEvalCount int `json:"prompt_eval_count"`
	EvalCount       int `json:"eval_count"`
}

// Complete sends a prompt and returns the completion.
func (c *OllamaClient) Complete(ctx context.Context, promptText string) (string, error) {
	return c.CompleteWithSystem(ctx, "", promptText)
}

// CompleteWithSystem sends a prompt with a system message.
func (c *OllamaClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	msgs := make([]prompt.Message, 0, 2)
	if systemPrompt != "" {
		msgs = append(msgs, prompt.SystemMessage(systemPrompt))
	}
	msgs = append(msgs, prompt.UserMessage(userPrompt))

	reply, err := c.Chat(ctx, msgs)
	if err != nil {
		return "", err
	}
	return reply.Content, nil
}

// Chat sends a full message history.
func (c *OllamaClient) Chat(ctx context.Context, messages []prompt.Message) (*Reply, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("no messages to send")
	}

	wire := make([]ollamaMessage, 0, len(messages))
	for _, m := range messages {
		wire = append(wire, ollamaMessage{Role: string(m.Role), Content: m.Content})
	}

	reqBody := ollamaChatRequest{
		Model:    c.model,
		Messages: wire,
		Stream:   false,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	content := strings.TrimSpace(apiResp.Message.Content)
	if content == "" {
		return nil, ErrEmptyReply
	}

	return &Reply{
		Content:      content,
		Model:        apiResp.Model,
		FinishReason: "stop",
		Usage: Usage{
			PromptTokens:     apiResp.PromptEvalCount,
			CompletionTokens: apiResp.EvalCount,
			TotalTokens:      apiResp.PromptEvalCount + apiResp.EvalCount,
		},
	}, nil
}

// SetModel changes the model used for completions.
func (c *OllamaClient) SetModel(model string) {
	c.model = model
}

// GetModel returns the current model.
func (c *OllamaClient) GetModel() string {
	return c.model
}
