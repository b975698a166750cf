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
)

func TestClaudeChat_LiftsSystemMessages(t *testing.T) {
	var seen anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&seen))
		_, _ = w.Write([]byte(`{"id":"msg_1","content":[{"type":"text","text":"첫째 "},{"type":"text","text":"둘째"}],"usage":{"input_tokens":3}}`))
	}))
	defer srv.Close()

	c := NewClaudeClient("key", "", Options{MaxTokens: 256}, time.Second).WithBaseURL(srv.URL)
	text, err := c.Chat(context.Background(), []Message{System("규칙"), User("질문")})

	require.NoError(t, err)
	assert.Equal(t, "첫째 둘째", text)
	assert.Equal(t, "규칙", seen.System)
	assert.Equal(t, []Message{{Role: "user", Content: "질문"}}, seen.Messages)
	assert.Equal(t, 256, seen.MaxTokens)
	assert.Equal(t, DefaultAnthropicModel, seen.Model)
}

func TestClaudeChat_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"no content", 200, `{"id":"x"}`, ErrNoMessage},
		{"empty text", 200, `{"content":[{"type":"text","text":""}]}`, ErrEmptyContent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewClaudeClient("key", "m", Options{}, time.Second).WithBaseURL(srv.URL).Chat(context.Background(), nil)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestClaudeChat_OverloadedIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(529)
	}))
	defer srv.Close()

	_, err := NewClaudeClient("key", "m", Options{}, time.Second).WithBaseURL(srv.URL).Chat(context.Background(), nil)
	assert.True(t, IsRetryable(err))
}
