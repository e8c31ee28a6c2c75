package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeRemote struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
	setErr error
	gets   int
	sets   int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{data: make(map[string]string)}
}

func (r *fakeRemote) Get(_ context.Context, key string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	if r.getErr != nil {
		return "", false, r.getErr
	}
	v, ok := r.data[key]
	return v, ok, nil
}

func (r *fakeRemote) Set(_ context.Context, key, value string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets++
	if r.setErr != nil {
		return r.setErr
	}
	r.data[key] = value
	return nil
}

func TestTieredBackfillsL1FromRemote(t *testing.T) {
	remote := newFakeRemote()
	remote.data["k"] = "v"
	tc := NewTiered(NewMemory(10), remote, nil)

	ctx := context.Background()
	if v, ok := tc.Get(ctx, "k"); !ok || v != "v" {
		t.Fatalf("expected remote hit, got %q ok=%v", v, ok)
	}
	// Second read must come from L1.
	if v, ok := tc.Get(ctx, "k"); !ok || v != "v" {
		t.Fatalf("expected L1 hit, got %q ok=%v", v, ok)
	}
	if remote.gets != 1 {
		t.Fatalf("expected a single remote read, got %d", remote.gets)
	}
}

func TestTieredRemoteErrorsDegradeToMiss(t *testing.T) {
	remote := newFakeRemote()
	remote.getErr = errors.New("connection refused")
	remote.setErr = errors.New("connection refused")
	tc := NewTiered(NewMemory(10), remote, nil)

	ctx := context.Background()
	if _, ok := tc.Get(ctx, "k"); ok {
		t.Fatal("remote error should read as a miss")
	}

	// A failing remote write must not prevent the L1 write.
	tc.Set(ctx, "k", "v", time.Minute)
	if v, ok := tc.Get(ctx, "k"); !ok || v != "v" {
		t.Fatalf("expected L1 hit despite remote failure, got %q ok=%v", v, ok)
	}
}

func TestTieredGetOrSetComputesOnce(t *testing.T) {
	tc := NewTiered(NewMemory(10), nil, nil)
	ctx := context.Background()

	var calls atomic.Int32
	compute := func(context.Context) (string, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return "computed", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := tc.GetOrSet(ctx, "shared", time.Minute, compute)
			if err != nil || v != "computed" {
				t.Errorf("GetOrSet = %q, %v", v, err)
			}
		}()
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected one computation, got %d", got)
	}
	if v, ok := tc.Get(ctx, "shared"); !ok || v != "computed" {
		t.Fatalf("computed value should be cached, got %q ok=%v", v, ok)
	}
}

func TestTieredGetOrSetRecomputesAfterTTL(t *testing.T) {
	tc := NewTiered(NewMemory(10), nil, nil)
	ctx := context.Background()

	var calls atomic.Int32
	compute := func(context.Context) (string, error) {
		calls.Add(1)
		return "v", nil
	}

	ttl := 50 * time.Millisecond
	for i := 0; i < 2; i++ {
		if _, err := tc.GetOrSet(ctx, "k", ttl, compute); err != nil {
			t.Fatal(err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls within the TTL share one computation, got %d", got)
	}

	time.Sleep(80 * time.Millisecond)
	if _, err := tc.GetOrSet(ctx, "k", ttl, compute); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expired entry must be recomputed, got %d calls", got)
	}
}

func TestTieredGetOrSetPropagatesError(t *testing.T) {
	tc := NewTiered(NewMemory(10), nil, nil)
	ctx := context.Background()

	wantErr := errors.New("backend down")
	_, err := tc.GetOrSet(ctx, "k", time.Minute, func(context.Context) (string, error) {
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped backend error, got %v", err)
	}
	if _, ok := tc.Get(ctx, "k"); ok {
		t.Fatal("failed computation must not be cached")
	}
}
