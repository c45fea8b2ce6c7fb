package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loom/internal/prompt"
)

func newOpenAITestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultOpenAIConfig("sk-test")
	cfg.BaseURL = srv.URL
	cfg.Timeout = 5 * time.Second
	return NewOpenAIClientWithConfig(cfg)
}

const openAIReplyJSON = `{
	"id": "chatcmpl-1",
	"model": "gpt-4o-mini",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "Dusra is a delivery."}, "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 20, "completion_tokens": 6, "total_tokens": 26}
}`

func TestOpenAIChat(t *testing.T) {
	var captured openAIRequest
	client := newOpenAITestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(openAIReplyJSON))
	})

	reply, err := client.Chat(context.Background(), []prompt.Message{
		prompt.SystemMessage("You are a helpful cricket expert"),
		prompt.UserMessage("Explain in simple terms, what is Dusra"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Dusra is a delivery.", reply.Content)
	assert.Equal(t, 26, reply.Usage.TotalTokens)

	// System prompt stays a leading system message on this wire format.
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)
}

func TestOpenAIChatStructured(t *testing.T) {
	var captured openAIRequest
	client := newOpenAITestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(openAIReplyJSON))
	})

	schema := map[string]any{"type": "object"}
	_, err := client.ChatStructured(context.Background(),
		[]prompt.Message{prompt.UserMessage("as JSON please")}, schema)
	require.NoError(t, err)

	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, "json_schema", captured.ResponseFormat["type"])
}

func TestOpenAIErrorEnvelope(t *testing.T) {
	client := newOpenAITestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": {"message": "model overloaded", "type": "server_error"}}`))
	})

	_, err := client.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestOpenAIHTTPError(t *testing.T) {
	client := newOpenAITestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "bad key"}}`))
	})

	_, err := client.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestOpenAINoAPIKey(t *testing.T) {
	client := NewOpenAIClient("")
	_, err := client.Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestOpenAINoChoices(t *testing.T) {
	client := newOpenAITestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	})

	_, err := client.Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrEmptyReply)
}
