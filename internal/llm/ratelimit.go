package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

type limitedProvider struct {
	next    Provider
	limiter *rate.Limiter
}

// RateLimited wraps p so that opening a stream waits for a token from a
// process-wide bucket. A non-positive rps returns p unchanged.
func RateLimited(p Provider, rps float64, burst int) Provider {
	if rps <= 0 {
		return p
	}
	if burst < 1 {
		burst = 1
	}
	return &limitedProvider{next: p, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (l *limitedProvider) StreamText(ctx context.Context, req *Request) (Stream[string], error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return l.next.StreamText(ctx, req)
}

func (l *limitedProvider) StreamContent(ctx context.Context, req *Request) (Stream[ContentEvent], error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return l.next.StreamContent(ctx, req)
}
