package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ollamaServer(t *testing.T, status int, body string, seen *ollamaRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaChat_SendsNonStreamingRequest(t *testing.T) {
	var seen ollamaRequest
	srv := ollamaServer(t, http.StatusOK, `{"message":{"role":"assistant","content":"답변"}}`, &seen)
	c := NewOllamaClient(srv.URL+"/", "", Options{MaxTokens: 1024, Temperature: 0.2, MinP: 0.1}, time.Second)

	text, err := c.Chat(context.Background(), []Message{System("규칙"), User("질문")})

	require.NoError(t, err)
	assert.Equal(t, "답변", text)
	assert.Equal(t, DefaultOllamaModel, seen.Model)
	assert.False(t, seen.Stream)
	assert.Equal(t, []Message{{Role: "system", Content: "규칙"}, {Role: "user", Content: "질문"}}, seen.Messages)
	assert.Equal(t, 1024, seen.Options.NumPredict)
	assert.InDelta(t, 0.2, seen.Options.Temperature, 1e-9)
	assert.InDelta(t, 0.1, seen.Options.MinP, 1e-9)
}

func TestOllamaChat_IgnoresUnknownFields(t *testing.T) {
	body := `{"model":"m","created_at":"2025-01-01T00:00:00Z","message":{"role":"assistant","content":"ok","images":null,"thinking":"..."},"done":true,"total_duration":123,"eval_count":4}`
	srv := ollamaServer(t, http.StatusOK, body, nil)

	text, err := NewOllamaClient(srv.URL, "m", Options{}, time.Second).Chat(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}

func TestOllamaChat_ResponseErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"no message", 200, `{"done":true}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrNoMessage)
		}},
		{"null content", 200, `{"message":{"role":"assistant"}}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrEmptyContent)
		}},
		{"blank content", 200, `{"message":{"content":"  \n"}}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrEmptyContent)
		}},
		{"not json", 200, `<html>gateway</html>`, func(t *testing.T, err error) {
			var de *DecodeError
			assert.True(t, errors.As(err, &de))
		}},
		{"server error", 503, `overloaded`, func(t *testing.T, err error) {
			assert.True(t, IsRetryable(err))
		}},
		{"rate limited", 429, `slow down`, func(t *testing.T, err error) {
			assert.True(t, IsRetryable(err))
		}},
		{"model missing", 404, `{"error":"model not found"}`, func(t *testing.T, err error) {
			assert.False(t, IsRetryable(err))
			assert.Contains(t, err.Error(), "404")
		}},
		{"error field", 200, `{"error":"out of memory"}`, func(t *testing.T, err error) {
			assert.Contains(t, err.Error(), "out of memory")
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := ollamaServer(t, tc.status, tc.body, nil)
			_, err := NewOllamaClient(srv.URL, "m", Options{}, time.Second).Chat(context.Background(), nil)
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestOllamaChat_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewOllamaClient(url, "m", Options{}, time.Second).Chat(context.Background(), nil)

	require.Error(t, err)
	assert.False(t, IsRetryable(err))
	var de *DecodeError
	assert.False(t, errors.As(err, &de))
}
