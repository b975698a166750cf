package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limited holds every call to a token bucket so a burst of questions cannot
// flood a single local model server.
type Limited struct {
	next    Completer
	limiter *rate.Limiter
}

// WithRateLimit wraps next. A non-positive rps disables limiting.
func WithRateLimit(next Completer, rps float64, burst int) *Limited {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &Limited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (l *Limited) Chat(ctx context.Context, messages []Message) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	return l.next.Chat(ctx, messages)
}
