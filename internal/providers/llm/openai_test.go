package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mokshitpuri/pharmalist-dbversion/internal/config"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/core"
)

func completionBody(content string) string {
	return `{"choices":[{"message":{"content":` + jsonString(content) + `}}]}`
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func newTestOpenAI(url string) *OpenAI {
	return NewOpenAI(&config.OpenAIConfig{
		APIKey:  "test-key",
		Model:   "gpt-3.5-turbo",
		BaseURL: url,
	})
}

func TestOpenAI_Complete(t *testing.T) {
	var gotReq struct {
		Model       string `json:"model"`
		Temperature float64
		MaxTokens   int `json:"max_tokens"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(completionBody("SELECT 1")))
	}))
	defer server.Close()

	provider := newTestOpenAI(server.URL)
	got, err := provider.Complete(context.Background(), "generate sql", core.CompleteOptions{
		Temperature: 0,
		MaxTokens:   400,
	})

	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", got)
	assert.Equal(t, "gpt-3.5-turbo", gotReq.Model)
	assert.Equal(t, 400, gotReq.MaxTokens)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Equal(t, "generate sql", gotReq.Messages[0].Content)
}

func TestOpenAI_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	provider := newTestOpenAI(server.URL)
	_, err := provider.Complete(context.Background(), "generate sql", core.CompleteOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAI_ServerErrorIsRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream timeout", http.StatusBadGateway)
			return
		}
		w.Write([]byte(completionBody("ok")))
	}))
	defer server.Close()

	provider := newTestOpenAI(server.URL)
	got, err := provider.Complete(context.Background(), "generate sql", core.CompleteOptions{})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	provider := newTestOpenAI(server.URL)
	_, err := provider.Complete(context.Background(), "generate sql", core.CompleteOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty choices")
}

func TestOpenAI_MalformedBodyIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	provider := newTestOpenAI(server.URL)
	_, err := provider.Complete(context.Background(), "generate sql", core.CompleteOptions{})

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
