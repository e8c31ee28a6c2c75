package orchestrator

import (
	"context"
	"sync"

	"legalmind/internal/domain"
)

const producerBuffer = 64

// merger serializes events from several producers into one ordered sink.
// Producers are drained strictly in registration order: a single writer
// goroutine forwards the active producer's events until that producer
// closes, then moves to the next. Queued producers may keep computing in the
// background; their events buffer until their turn.
type merger struct {
	sink  domain.StreamSink
	queue chan *producer
	done  chan struct{}

	mu  sync.Mutex
	err error
}

func newMerger(ctx context.Context, sink domain.StreamSink) *merger {
	m := &merger{
		sink:  sink,
		queue: make(chan *producer, 16),
		done:  make(chan struct{}),
	}
	go m.drain(ctx)
	return m
}

func (m *merger) drain(ctx context.Context) {
	defer close(m.done)
	for p := range m.queue {
		for ev := range p.ch {
			if m.failed() != nil {
				continue // discard, first error already recorded
			}
			if err := m.sink.Send(ctx, ev); err != nil {
				m.fail(err)
			}
		}
	}
}

// producer registers the next slot in the output order. The caller must
// close the returned producer once its stream is exhausted or the writer
// stalls forever.
func (m *merger) producer() *producer {
	p := &producer{m: m, ch: make(chan domain.StreamEvent, producerBuffer)}
	m.queue <- p
	return p
}

// emit sends a single event through the ordered queue.
func (m *merger) emit(ctx context.Context, ev domain.StreamEvent) error {
	p := m.producer()
	err := p.Send(ctx, ev)
	p.Close()
	return err
}

// close waits for every queued producer to drain and reports the first sink
// error, if any.
func (m *merger) close() error {
	close(m.queue)
	<-m.done
	return m.failed()
}

func (m *merger) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err == nil {
		m.err = err
	}
}

func (m *merger) failed() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// producer is one registered slot in the merger's output order. It
// implements domain.StreamSink for the agent runner. Send and Close
// synchronize on the same mutex: an abandoned agent attempt may still hold
// the producer after the orchestrator has closed it, and its late sends must
// come back as errors, not reach a closed channel.
type producer struct {
	m      *merger
	ch     chan domain.StreamEvent
	mu     sync.Mutex
	closed bool
}

func (p *producer) Send(ctx context.Context, ev domain.StreamEvent) error {
	if err := p.m.failed(); err != nil {
		return domain.WrapOp("producer.Send", domain.ErrStreamClosed)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return domain.WrapOp("producer.Send", domain.ErrStreamClosed)
	}
	select {
	case p.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close marks the producer exhausted so the writer can advance. Safe to call
// more than once and concurrently with Send.
func (p *producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.ch)
}
