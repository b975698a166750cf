// Package llm talks to chat-completion providers. Only the generated text of a
// response is used; every other field a provider returns is ignored.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func System(content string) Message { return Message{Role: "system", Content: content} }
func User(content string) Message   { return Message{Role: "user", Content: content} }

// Completer issues one synchronous chat completion and returns the generated text.
type Completer interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Options are the generation parameters sent with every request.
type Options struct {
	MaxTokens   int
	Temperature float64
	MinP        float64
}

var (
	// ErrNoMessage means the response envelope had no message at all.
	ErrNoMessage = errors.New("response has no message")
	// ErrEmptyContent means the message was present but carried no text.
	ErrEmptyContent = errors.New("response content is empty")
)

// DecodeError wraps a response body that could not be parsed.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decode response: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
