package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"legalmind/internal/domain"
)

func delta(text string) domain.StreamEvent {
	return domain.StreamEvent{
		Type:  domain.StreamEventTokenDelta,
		Delta: &domain.TokenDelta{Text: text},
	}
}

func TestMergerPreservesRegistrationOrder(t *testing.T) {
	sink := &collectSink{}
	m := newMerger(context.Background(), sink)

	first := m.producer()
	second := m.producer()

	// The second producer writes before the first; its events must still
	// come out after the first producer's.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = second.Send(context.Background(), delta("b1"))
		_ = second.Send(context.Background(), delta("b2"))
		second.Close()
	}()
	go func() {
		defer wg.Done()
		_ = first.Send(context.Background(), delta("a1"))
		_ = first.Send(context.Background(), delta("a2"))
		first.Close()
	}()
	wg.Wait()

	if err := m.close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var got []string
	for _, ev := range sink.all() {
		got = append(got, ev.Delta.Text)
	}
	want := []string{"a1", "a2", "b1", "b2"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: expected %s, got %s (full: %v)", i, want[i], got[i], got)
		}
	}
}

func TestMergerEmitIsOrderedWithProducers(t *testing.T) {
	sink := &collectSink{}
	m := newMerger(context.Background(), sink)

	if err := m.emit(context.Background(), delta("before")); err != nil {
		t.Fatalf("emit: %v", err)
	}
	p := m.producer()
	_ = p.Send(context.Background(), delta("middle"))
	p.Close()
	if err := m.emit(context.Background(), delta("after")); err != nil {
		t.Fatalf("emit: %v", err)
	}

	if err := m.close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	events := sink.all()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, want := range []string{"before", "middle", "after"} {
		if events[i].Delta.Text != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, events[i].Delta.Text)
		}
	}
}

type failingSink struct {
	mu    sync.Mutex
	sent  int
	after int
}

func (s *failingSink) Send(context.Context, domain.StreamEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent++
	if s.sent > s.after {
		return errors.New("sink broken")
	}
	return nil
}

func TestMergerReportsFirstSinkError(t *testing.T) {
	sink := &failingSink{after: 1}
	m := newMerger(context.Background(), sink)

	p := m.producer()
	_ = p.Send(context.Background(), delta("ok"))
	_ = p.Send(context.Background(), delta("fails"))
	_ = p.Send(context.Background(), delta("discarded"))
	p.Close()

	if err := m.close(); err == nil {
		t.Fatal("expected sink error from close")
	}
}

func TestProducerCloseIsIdempotent(t *testing.T) {
	sink := &collectSink{}
	m := newMerger(context.Background(), sink)
	p := m.producer()
	p.Close()
	p.Close() // must not panic
	if err := m.close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestProducerSendAfterCloseReturnsError(t *testing.T) {
	sink := &collectSink{}
	m := newMerger(context.Background(), sink)

	p := m.producer()
	_ = p.Send(context.Background(), delta("live"))
	p.Close()

	// A timed-out agent attempt can outlive the orchestrator's Close and
	// keep writing; those writes must error out, not panic.
	err := p.Send(context.Background(), delta("late"))
	if !errors.Is(err, domain.ErrStreamClosed) {
		t.Fatalf("expected closed-stream error, got %v", err)
	}

	if err := m.close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	events := sink.all()
	if len(events) != 1 || events[0].Delta.Text != "live" {
		t.Fatalf("late event must not be delivered, got %v", events)
	}
}

func TestProducerCloseRacesWithSend(t *testing.T) {
	sink := &collectSink{}
	m := newMerger(context.Background(), sink)
	p := m.producer()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if err := p.Send(context.Background(), delta("x")); err != nil {
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		p.Close()
	}()
	wg.Wait()

	if err := m.close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
