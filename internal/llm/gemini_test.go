package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loom/internal/prompt"
)

func newGeminiTestClient(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultGeminiConfig("test-key")
	cfg.BaseURL = srv.URL
	cfg.Timeout = 5 * time.Second
	return NewGeminiClientWithConfig(cfg)
}

func geminiReplyJSON(text string) string {
	return `{
		"candidates": [{"content": {"parts": [{"text": "` + text + `"}], "role": "model"}, "finishReason": "STOP"}],
		"usageMetadata": {"promptTokenCount": 7, "candidatesTokenCount": 11, "totalTokenCount": 18}
	}`
}

func TestGeminiChat(t *testing.T) {
	var captured geminiRequest
	client := newGeminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Contains(t, r.URL.Path, "gemini-2.5-flash:generateContent")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(geminiReplyJSON("Five lines on football.")))
	})

	reply, err := client.Chat(context.Background(), []prompt.Message{
		prompt.SystemMessage("You are a poet"),
		prompt.UserMessage("Tell me a poem of 5 lines on Football"),
		prompt.AssistantMessage("Which style?"),
		prompt.UserMessage("Any style"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Five lines on football.", reply.Content)
	assert.Equal(t, "STOP", reply.FinishReason)
	assert.Equal(t, 18, reply.Usage.TotalTokens)

	// System prompt travels as systemInstruction, not a contents entry.
	require.NotNil(t, captured.SystemInstruction)
	assert.Equal(t, "You are a poet", captured.SystemInstruction.Parts[0].Text)
	require.Len(t, captured.Contents, 3)
	assert.Equal(t, "user", captured.Contents[0].Role)
	assert.Equal(t, "model", captured.Contents[1].Role)
	assert.Equal(t, "user", captured.Contents[2].Role)
}

func TestGeminiChatStructured(t *testing.T) {
	var captured geminiRequest
	client := newGeminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(geminiReplyJSON(`{\"name\": \"Delhi\"}`)))
	})

	schema := map[string]any{"type": "object"}
	_, err := client.ChatStructured(context.Background(),
		[]prompt.Message{prompt.UserMessage("capital of India as JSON")}, schema)
	require.NoError(t, err)

	assert.Equal(t, "application/json", captured.GenerationConfig.ResponseMimeType)
	assert.Equal(t, "object", captured.GenerationConfig.ResponseSchema["type"])
}

func TestGeminiRetryOn429(t *testing.T) {
	var calls atomic.Int32
	client := newGeminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(geminiReplyJSON("ok")))
	})

	got, err := client.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGeminiBadRequestIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newGeminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"code": 400, "message": "bad field"}}`))
	})

	_, err := client.Complete(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeminiAPIError(t *testing.T) {
	client := newGeminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": {"code": 403, "message": "key revoked", "status": "PERMISSION_DENIED"}}`))
	})

	_, err := client.Complete(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key revoked")
}

func TestGeminiEmptyCandidates(t *testing.T) {
	client := newGeminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	})

	_, err := client.Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestGeminiNoAPIKey(t *testing.T) {
	client := NewGeminiClient("")
	_, err := client.Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
