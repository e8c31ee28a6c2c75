package tracing

import (
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"legalmind/internal/domain"
)

// Recorder accumulates one orchestration turn into an AgentTrace. It is
// created at the start of a turn, fed from the orchestrator as phases
// complete, and finalized exactly once into the store. All methods are safe
// for concurrent use; parallel agents record into the same recorder.
type Recorder struct {
	mu        sync.Mutex
	trace     domain.AgentTrace
	started   time.Time
	finalized bool
	store     *Store
}

// NewRecorder starts a trace for one chat turn. store may be nil, in which
// case Finalize only returns the trace without persisting it.
func NewRecorder(store *Store, chatID string) *Recorder {
	now := time.Now()
	return &Recorder{
		trace: domain.AgentTrace{
			TraceID:   ulid.Make().String(),
			ChatID:    chatID,
			Timestamp: now,
		},
		started: now,
		store:   store,
	}
}

// TraceID returns the identifier assigned at construction.
func (r *Recorder) TraceID() string {
	return r.trace.TraceID
}

// RecordIntent stores the classification outcome.
func (r *Recorder) RecordIntent(intent domain.Intent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trace.Intent = domain.TraceIntent{
		Classified: intent.Kind,
		Confidence: intent.Confidence,
		Layer:      intent.Layer,
	}
}

// RecordRouting stores the routing decision.
func (r *Recorder) RecordRouting(decision domain.RoutingDecision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trace.Routing = domain.TraceRouting{
		SelectedAgents: append([]domain.AgentType(nil), decision.SelectedAgents...),
		Reason:         decision.Reason,
	}
}

// RecordExecution appends one agent's outcome. start is the wall-clock start
// of the execution; the end time is derived from the result duration.
func (r *Recorder) RecordExecution(start time.Time, result domain.AgentResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trace.Execution = append(r.trace.Execution, domain.AgentExecution{
		AgentName: result.AgentName,
		StartTime: start,
		EndTime:   start.Add(result.Duration),
		ToolCalls: result.ToolCalls,
		Tokens:    result.Tokens,
		Status:    result.Status,
		Error:     result.Error,
	})
	r.trace.TotalTokens = r.trace.TotalTokens.Add(result.Tokens)
}

// Finalize seals the trace, persists it, and returns it. Calling Finalize
// again returns the already-sealed trace without re-inserting it.
func (r *Recorder) Finalize() domain.AgentTrace {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return r.trace
	}
	r.finalized = true
	r.trace.TotalDuration = time.Since(r.started)
	// Parallel agents record in completion order; the sealed trace lists
	// executions by when they actually started.
	sort.SliceStable(r.trace.Execution, func(i, j int) bool {
		return r.trace.Execution[i].StartTime.Before(r.trace.Execution[j].StartTime)
	})
	if r.store != nil {
		r.store.Put(r.trace)
	}
	return r.trace
}
