package tracing

import (
	"testing"
	"time"

	"legalmind/internal/domain"
)

func TestRecorderBuildsTrace(t *testing.T) {
	s := NewStore(10)
	r := NewRecorder(s, "chat-1")

	if r.TraceID() == "" {
		t.Fatal("recorder should assign a trace ID at construction")
	}

	r.RecordIntent(domain.Intent{
		Kind:       domain.IntentCaseAnalysis,
		Confidence: 0.9,
		Layer:      domain.LayerRule,
	})
	r.RecordRouting(domain.RoutingDecision{
		SelectedAgents: []domain.AgentType{domain.AgentCaseAnalysis},
		Reason:         "primary agent for case_analysis",
	})
	start := time.Now()
	r.RecordExecution(start, domain.AgentResult{
		AgentName: domain.AgentCaseAnalysis,
		Status:    domain.StatusCompleted,
		Duration:  150 * time.Millisecond,
		Tokens:    domain.TokenUsage{Input: 10, Output: 20},
	})
	r.RecordExecution(start, domain.AgentResult{
		AgentName: domain.AgentLegalAdvisor,
		Status:    domain.StatusCompleted,
		Tokens:    domain.TokenUsage{Input: 5, Output: 5},
	})

	tr := r.Finalize()

	if tr.ChatID != "chat-1" {
		t.Fatalf("expected chat-1, got %s", tr.ChatID)
	}
	if tr.Intent.Classified != domain.IntentCaseAnalysis || tr.Intent.Layer != domain.LayerRule {
		t.Fatalf("unexpected intent record: %+v", tr.Intent)
	}
	if len(tr.Routing.SelectedAgents) != 1 {
		t.Fatalf("expected 1 routed agent, got %d", len(tr.Routing.SelectedAgents))
	}
	if len(tr.Execution) != 2 {
		t.Fatalf("expected 2 executions, got %d", len(tr.Execution))
	}
	if got := tr.Execution[0].EndTime; !got.Equal(start.Add(150 * time.Millisecond)) {
		t.Fatalf("end time not derived from duration: %s", got)
	}
	want := domain.TokenUsage{Input: 15, Output: 25}
	if tr.TotalTokens != want {
		t.Fatalf("expected total tokens %+v, got %+v", want, tr.TotalTokens)
	}

	stored, err := s.Get(tr.TraceID)
	if err != nil {
		t.Fatalf("finalized trace should be persisted: %v", err)
	}
	if stored.TraceID != tr.TraceID {
		t.Fatalf("stored trace mismatch: %s vs %s", stored.TraceID, tr.TraceID)
	}
}

func TestRecorderFinalizeOrdersExecutionsByStart(t *testing.T) {
	r := NewRecorder(nil, "chat-1")
	base := time.Now()

	// Recorded out of start order, as parallel agents settle.
	r.RecordExecution(base.Add(time.Second), domain.AgentResult{
		AgentName: domain.AgentCaseAnalysis, Status: domain.StatusCompleted,
	})
	r.RecordExecution(base, domain.AgentResult{
		AgentName: domain.AgentLegalResearch, Status: domain.StatusCompleted,
	})

	tr := r.Finalize()
	if tr.Execution[0].AgentName != domain.AgentLegalResearch {
		t.Fatalf("expected the earlier start first, got %s", tr.Execution[0].AgentName)
	}
	if tr.Execution[1].AgentName != domain.AgentCaseAnalysis {
		t.Fatalf("expected the later start second, got %s", tr.Execution[1].AgentName)
	}
}

func TestRecorderFinalizeIsIdempotent(t *testing.T) {
	s := NewStore(10)
	r := NewRecorder(s, "chat-1")

	first := r.Finalize()
	second := r.Finalize()

	if first.TraceID != second.TraceID {
		t.Fatalf("finalize should return the same trace: %s vs %s", first.TraceID, second.TraceID)
	}
	if first.TotalDuration != second.TotalDuration {
		t.Fatal("second finalize must not recompute the duration")
	}
	if s.Len() != 1 {
		t.Fatalf("finalize twice must persist once, store has %d", s.Len())
	}
}

func TestRecorderWithoutStore(t *testing.T) {
	r := NewRecorder(nil, "chat-1")
	tr := r.Finalize()
	if tr.ChatID != "chat-1" {
		t.Fatalf("expected chat-1, got %s", tr.ChatID)
	}
}
