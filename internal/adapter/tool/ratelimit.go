package tool

import (
	"context"

	"golang.org/x/time/rate"

	"legalmind/internal/domain"
)

// RateLimitedBackend wraps a SearchBackend with a token-bucket limiter so
// bursty agent runs cannot hammer the search service. Wait blocks until a
// token is available or ctx expires.
type RateLimitedBackend struct {
	inner   SearchBackend
	limiter *rate.Limiter
}

// NewRateLimitedBackend allows ratePerSec sustained queries with the given
// burst.
func NewRateLimitedBackend(inner SearchBackend, ratePerSec float64, burst int) *RateLimitedBackend {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedBackend{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
	}
}

func (b *RateLimitedBackend) Name() string { return b.inner.Name() }

func (b *RateLimitedBackend) Search(ctx context.Context, scope SearchScope, query string, count int) ([]SearchResult, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, domain.NewDomainError("RateLimitedBackend.Search", domain.ErrRateLimited, err.Error())
	}
	return b.inner.Search(ctx, scope, query, count)
}
