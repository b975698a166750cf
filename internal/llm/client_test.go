package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "gpt"}, quietLogger())
	require.Error(t, err)

	_, err = New(Config{Provider: "anthropic"}, quietLogger())
	require.Error(t, err, "anthropic needs a key")
}

func TestClient_RecordsStats(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"message":{"content":"답"}}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, Model: "m", Timeout: time.Second, MaxRetries: 0}, quietLogger())
	require.NoError(t, err)
	defer c.Close()

	text, err := c.Chat(context.Background(), []Message{User("질문")})
	require.NoError(t, err)
	assert.Equal(t, "답", text)

	_, err = c.Chat(context.Background(), []Message{User("질문")})
	require.Error(t, err)

	snap := c.Stats()
	assert.Equal(t, 1, snap.Count)
	assert.Equal(t, 1, snap.Errors)
	assert.Equal(t, "m", c.Model())
}

func TestWithRateLimit_CancelledWait(t *testing.T) {
	l := WithRateLimit(&scripted{}, 0.001, 1)
	_, err := l.Chat(context.Background(), nil)
	require.NoError(t, err, "first call uses the burst token")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Chat(ctx, nil)
	assert.Error(t, err)
}

func TestWithRateLimit_DisabledWhenNonPositive(t *testing.T) {
	next := &scripted{}
	l := WithRateLimit(next, 0, 0)
	for range 5 {
		_, err := l.Chat(context.Background(), nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 5, next.calls)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 2, EstimateTokens("제1조"))
	assert.Equal(t, 3, MessageTokens([]Message{User("ab"), User("개인정보")}))
}
