package llm

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3

// Retrying re-issues a call that failed with a RetryableError, sleeping
// Backoff between attempts. Other errors return immediately.
type Retrying struct {
	next    Completer
	retries int
	log     *slog.Logger
	backoff func(attempt int) time.Duration
}

// WithRetry wraps next. retries is the number of extra attempts after the
// first; a negative value selects MaxRetries.
func WithRetry(next Completer, retries int, log *slog.Logger) *Retrying {
	if retries < 0 {
		retries = MaxRetries
	}
	return &Retrying{next: next, retries: retries, log: log, backoff: Backoff}
}

func (r *Retrying) Chat(ctx context.Context, messages []Message) (string, error) {
	var (
		text string
		err  error
	)
	for attempt := 0; ; attempt++ {
		text, err = r.next.Chat(ctx, messages)
		if err == nil || !IsRetryable(err) || attempt >= r.retries {
			return text, err
		}
		r.log.Warn("retryable llm error", "attempt", attempt, "error", err)
		select {
		case <-time.After(r.backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}
