package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkanlabs/docchat/internal/core/ports/driven"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := NewLLMService(LLMConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)
	return svc
}

func drain(chunks <-chan driven.StreamChunk) (tokens []string, errs []error) {
	for chunk := range chunks {
		if chunk.Err != nil {
			errs = append(errs, chunk.Err)
			continue
		}
		tokens = append(tokens, chunk.Token)
	}
	return tokens, errs
}

func TestChat(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		require.NotEmpty(t, req.Messages)

		fmt.Fprint(w, `{"choices":[{"message":{"content":"the answer"},"finish_reason":"stop"}]}`)
	})

	answer, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "user", Content: "question"},
	}, driven.ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
}

func TestChat_APIError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"message":"rate limited","type":"rate_limit_error"}}`)
	})

	_, err := svc.Chat(context.Background(), nil, driven.ChatOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestChatStream_TokensThenDone(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	chunks, err := svc.ChatStream(context.Background(), []driven.ChatMessage{
		{Role: "user", Content: "greet"},
	}, driven.ChatOptions{})
	require.NoError(t, err)

	tokens, errs := drain(chunks)
	assert.Equal(t, []string{"Hel", "lo"}, tokens)
	assert.Empty(t, errs)
}

func TestChatStream_MalformedChunk(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n")
		fmt.Fprint(w, "data: {not json\n\n")
	})

	chunks, err := svc.ChatStream(context.Background(), nil, driven.ChatOptions{})
	require.NoError(t, err)

	tokens, errs := drain(chunks)
	assert.Equal(t, []string{"ok"}, tokens)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "decode stream chunk")
}

func TestChatStream_HTTPErrorFailsBeforeStreaming(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	})

	_, err := svc.ChatStream(context.Background(), nil, driven.ChatOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
