package cache

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"legalmind/internal/domain"
)

// l1MaxTTL caps how long the in-process tier holds an entry; the remote tier
// carries the full TTL.
const l1MaxTTL = 5 * time.Minute

// RemoteStore is the shared second cache tier, typically Redis. A nil-safe
// no-op implementation is provided by NopRemote.
type RemoteStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// NopRemote is a RemoteStore that stores nothing.
type NopRemote struct{}

func (NopRemote) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (NopRemote) Set(context.Context, string, string, time.Duration) error { return nil }

// Tiered layers the in-process LRU over a shared remote store. Remote
// failures degrade to cache misses; the caller never sees a remote error.
type Tiered struct {
	l1     *Memory
	l2     RemoteStore
	group  singleflight.Group
	logger *slog.Logger
}

func NewTiered(l1 *Memory, l2 RemoteStore, logger *slog.Logger) *Tiered {
	if l2 == nil {
		l2 = NopRemote{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tiered{l1: l1, l2: l2, logger: logger}
}

// Get checks L1 then L2. An L2 hit is backfilled into L1 with a capped TTL.
func (t *Tiered) Get(ctx context.Context, key string) (string, bool) {
	if v, ok := t.l1.Get(key); ok {
		return v, true
	}
	v, ok, err := t.l2.Get(ctx, key)
	if err != nil {
		t.logger.Warn("remote cache read failed", "key", key, "error", err)
		return "", false
	}
	if !ok {
		return "", false
	}
	t.l1.Set(key, v, l1MaxTTL)
	return v, true
}

// Set writes both tiers. L1 holds the entry for at most l1MaxTTL.
func (t *Tiered) Set(ctx context.Context, key, value string, ttl time.Duration) {
	l1TTL := ttl
	if l1TTL > l1MaxTTL {
		l1TTL = l1MaxTTL
	}
	t.l1.Set(key, value, l1TTL)
	if err := t.l2.Set(ctx, key, value, ttl); err != nil {
		t.logger.Warn("remote cache write failed", "key", key, "error", err)
	}
}

// GetOrSet returns the cached value or computes it with fn. Concurrent
// callers for the same key share one fn invocation.
func (t *Tiered) GetOrSet(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) (string, error)) (string, error) {
	if v, ok := t.Get(ctx, key); ok {
		return v, nil
	}
	v, err, _ := t.group.Do(key, func() (any, error) {
		// Another caller may have filled the cache while we queued.
		if cached, ok := t.Get(ctx, key); ok {
			return cached, nil
		}
		computed, err := fn(ctx)
		if err != nil {
			return "", err
		}
		t.Set(ctx, key, computed, ttl)
		return computed, nil
	})
	if err != nil {
		return "", domain.WrapOp("Tiered.GetOrSet", err)
	}
	return v.(string), nil
}
