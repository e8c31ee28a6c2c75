package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"legalmind/internal/domain"
	"legalmind/internal/infra/tracer"
	"legalmind/internal/usecase/routing"
	"legalmind/internal/usecase/tracing"
)

// fallbackApology is returned when every selected agent failed.
const fallbackApology = "I was unable to complete the analysis of your question this time. " +
	"Please try again, or rephrase the question."

// Config holds orchestration behavior switches.
type Config struct {
	// EnableParallel runs all but the last agent of a collaboration plan
	// concurrently. When false, every plan executes sequentially.
	EnableParallel bool
	// ChatModel is the model used for the no-agent fallback path.
	ChatModel string
}

// AgentExecutor runs one agent to completion; failures are encoded in the
// result status. Satisfied by agent.Executor.
type AgentExecutor interface {
	Execute(ctx context.Context, agentType domain.AgentType, actx domain.AgentContext, sink domain.StreamSink) domain.AgentResult
}

// Deps holds injected dependencies for the orchestrator.
type Deps struct {
	Executor AgentExecutor
	Registry *routing.Registry
	Traces   *tracing.Store // nil disables trace persistence
	Chat     domain.Provider
	Logger   *slog.Logger
}

// Response is the complete outcome of one orchestrated turn.
type Response struct {
	Text           string
	AgentResults   []domain.AgentResult
	Routing        domain.RoutingDecision
	TraceID        string
	TotalDuration  time.Duration
	TotalTokens    domain.TokenUsage
	PartialFailure bool
}

// Orchestrator drives a routing plan to completion: it invokes the selected
// agents, threads results forward, merges live output into one ordered sink,
// and aggregates the final answer.
type Orchestrator struct {
	deps Deps
	cfg  Config
}

func New(deps Deps, cfg Config) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Orchestrator{deps: deps, cfg: cfg}
}

// Orchestrate runs the plan without live streaming.
func (o *Orchestrator) Orchestrate(ctx context.Context, actx domain.AgentContext, plan domain.RoutingDecision) (Response, error) {
	return o.run(ctx, actx, plan, nil)
}

// OrchestrateStream runs the plan while forwarding live events to sink. The
// returned Response carries the same aggregate the sink has already seen
// incrementally.
func (o *Orchestrator) OrchestrateStream(ctx context.Context, actx domain.AgentContext, plan domain.RoutingDecision, sink domain.StreamSink) (Response, error) {
	return o.run(ctx, actx, plan, sink)
}

func (o *Orchestrator) run(ctx context.Context, actx domain.AgentContext, plan domain.RoutingDecision, sink domain.StreamSink) (Response, error) {
	ctx, span := tracer.StartSpan(ctx, "orchestrator.run",
		trace.WithAttributes(
			tracer.StringAttr("chat.id", actx.ChatID),
			tracer.StringAttr("intent", string(plan.Intent.Kind)),
			tracer.IntAttr("agents", len(plan.SelectedAgents)),
		),
	)
	defer span.End()

	recorder := tracing.NewRecorder(o.deps.Traces, actx.ChatID)
	recorder.RecordIntent(plan.Intent)
	recorder.RecordRouting(plan)

	var m *merger
	if sink != nil {
		m = newMerger(ctx, sink)
		routingEv := domain.StreamEvent{
			Type: domain.StreamEventRouting,
			Routing: &domain.RoutingEvent{
				Intent:         plan.Intent.Kind,
				Confidence:     plan.Intent.Confidence,
				SelectedAgents: plan.SelectedAgents,
				Reason:         plan.Reason,
				TraceID:        recorder.TraceID(),
			},
		}
		if err := m.emit(ctx, routingEv); err != nil {
			m.close()
			return Response{}, domain.WrapOp("Orchestrator.run", err)
		}
	}

	resp, runErr := o.execute(ctx, actx, plan, recorder, m)

	agentTrace := recorder.Finalize()
	resp.Routing = plan
	resp.TraceID = agentTrace.TraceID
	resp.TotalDuration = agentTrace.TotalDuration
	// The fallback chat path accounts its own usage; agent paths take the
	// totals accumulated on the trace.
	if resp.TotalTokens == (domain.TokenUsage{}) {
		resp.TotalTokens = agentTrace.TotalTokens
	}

	if m != nil {
		if err := m.close(); err != nil && runErr == nil {
			runErr = domain.WrapOp("Orchestrator.run", err)
		}
	}

	if runErr != nil {
		tracer.RecordError(span, runErr)
	} else {
		tracer.SetOK(span)
	}
	o.deps.Logger.Info("turn complete",
		"trace_id", resp.TraceID,
		"intent", plan.Intent.Kind,
		"agents", len(plan.SelectedAgents),
		"partial_failure", resp.PartialFailure,
		"duration", resp.TotalDuration,
	)
	return resp, runErr
}

func (o *Orchestrator) execute(ctx context.Context, actx domain.AgentContext, plan domain.RoutingDecision, recorder *tracing.Recorder, m *merger) (Response, error) {
	if len(plan.SelectedAgents) == 0 {
		return o.fallbackChat(ctx, actx, m)
	}

	var results []domain.AgentResult
	var err error
	if o.cfg.EnableParallel && len(plan.SelectedAgents) > 1 {
		results, err = o.runParallelThenFinal(ctx, actx, plan.SelectedAgents, recorder, m)
	} else {
		results, err = o.runSequential(ctx, actx, plan.SelectedAgents, recorder, m)
	}

	resp := Response{AgentResults: results}
	resp.Text, resp.PartialFailure = o.summarizeResults(results)
	return resp, err
}

// fallbackChat answers off-topic messages with the plain chat model over the
// raw history.
func (o *Orchestrator) fallbackChat(ctx context.Context, actx domain.AgentContext, m *merger) (Response, error) {
	messages := append([]domain.Message(nil), actx.Messages...)
	messages = append(messages, domain.Message{
		Role:      domain.RoleUser,
		Content:   actx.UserMessage,
		Timestamp: time.Now(),
	})
	req := domain.GenerateRequest{
		Messages: messages,
		Model:    o.cfg.ChatModel,
	}

	sp, canStream := o.deps.Chat.(domain.StreamingProvider)
	if m == nil || !canStream {
		resp, err := o.deps.Chat.Generate(ctx, req)
		if err != nil {
			return Response{}, domain.WrapOp("Orchestrator.fallbackChat", err)
		}
		if m != nil && resp.Text != "" {
			ev := domain.StreamEvent{
				Type:  domain.StreamEventTokenDelta,
				Delta: &domain.TokenDelta{Text: resp.Text},
			}
			if err := m.emit(ctx, ev); err != nil {
				return Response{}, domain.WrapOp("Orchestrator.fallbackChat", err)
			}
		}
		return Response{Text: resp.Text, TotalTokens: resp.Usage}, nil
	}

	deltas, err := sp.GenerateStream(ctx, req)
	if err != nil {
		return Response{}, domain.WrapOp("Orchestrator.fallbackChat", err)
	}
	p := m.producer()
	defer p.Close()

	var text strings.Builder
	var usage domain.TokenUsage
	for delta := range deltas {
		if delta.Text != "" {
			text.WriteString(delta.Text)
			ev := domain.StreamEvent{
				Type:  domain.StreamEventTokenDelta,
				Delta: &domain.TokenDelta{Text: delta.Text},
			}
			if sendErr := p.Send(ctx, ev); sendErr != nil {
				return Response{}, domain.WrapOp("Orchestrator.fallbackChat", sendErr)
			}
		}
		if delta.Usage != nil {
			usage = *delta.Usage
		}
	}
	if ctx.Err() != nil {
		return Response{}, ctx.Err()
	}
	return Response{Text: text.String(), TotalTokens: usage}, nil
}

// runSequential executes agents one after another, threading each completed
// result into the next agent's context. Failed agents are recorded but do
// not stop the chain or feed downstream context.
func (o *Orchestrator) runSequential(ctx context.Context, actx domain.AgentContext, agents []domain.AgentType, recorder *tracing.Recorder, m *merger) ([]domain.AgentResult, error) {
	results := make([]domain.AgentResult, 0, len(agents))
	for _, a := range agents {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		if err := o.emitStatus(ctx, m, a, domain.StatusRunning, ""); err != nil {
			return results, err
		}

		var agentSink domain.StreamSink
		var p *producer
		if m != nil {
			p = m.producer()
			agentSink = p
		}
		start := time.Now()
		res := o.deps.Executor.Execute(ctx, a, actx, agentSink)
		if p != nil {
			p.Close()
		}
		recorder.RecordExecution(start, res)
		results = append(results, res)

		if err := o.emitStatus(ctx, m, a, res.Status, res.Error); err != nil {
			return results, err
		}
		if res.Status == domain.StatusCompleted {
			actx = actx.WithResult(res)
		} else {
			o.deps.Logger.Warn("agent failed in chain",
				"agent", a, "status", res.Status, "error", res.Error)
		}
	}
	return results, nil
}

// runParallelThenFinal runs every agent except the last concurrently with an
// all-settled join, then feeds the completed results to the final agent. The
// background agents are awaited, not streamed; only the final agent's tokens
// go to the sink.
func (o *Orchestrator) runParallelThenFinal(ctx context.Context, actx domain.AgentContext, agents []domain.AgentType, recorder *tracing.Recorder, m *merger) ([]domain.AgentResult, error) {
	pre := agents[:len(agents)-1]
	final := agents[len(agents)-1]

	for _, a := range pre {
		if err := o.emitStatus(ctx, m, a, domain.StatusRunning, ""); err != nil {
			return nil, err
		}
	}

	type timedResult struct {
		start time.Time
		res   domain.AgentResult
	}
	settled := make([]timedResult, len(pre))
	var wg sync.WaitGroup
	for i, a := range pre {
		wg.Add(1)
		go func(i int, a domain.AgentType) {
			defer wg.Done()
			start := time.Now()
			settled[i] = timedResult{start: start, res: o.deps.Executor.Execute(ctx, a, actx, nil)}
		}(i, a)
	}
	wg.Wait()

	results := make([]domain.AgentResult, 0, len(agents))
	finalCtx := actx
	for _, tr := range settled {
		recorder.RecordExecution(tr.start, tr.res)
		results = append(results, tr.res)
		if err := o.emitStatus(ctx, m, tr.res.AgentName, tr.res.Status, tr.res.Error); err != nil {
			return results, err
		}
		if tr.res.Status == domain.StatusCompleted {
			finalCtx = finalCtx.WithResult(tr.res)
		}
	}
	if ctx.Err() != nil {
		return results, ctx.Err()
	}

	if err := o.emitStatus(ctx, m, final, domain.StatusRunning, ""); err != nil {
		return results, err
	}
	var agentSink domain.StreamSink
	var p *producer
	if m != nil {
		p = m.producer()
		agentSink = p
	}
	start := time.Now()
	res := o.deps.Executor.Execute(ctx, final, finalCtx, agentSink)
	if p != nil {
		p.Close()
	}
	recorder.RecordExecution(start, res)
	results = append(results, res)
	if err := o.emitStatus(ctx, m, final, res.Status, res.Error); err != nil {
		return results, err
	}
	return results, nil
}

func (o *Orchestrator) emitStatus(ctx context.Context, m *merger, a domain.AgentType, status domain.AgentStatus, errMsg string) error {
	if m == nil {
		return nil
	}
	ev := domain.StreamEvent{
		Type:  domain.StreamEventAgentStatus,
		Agent: &domain.AgentStatusEvent{Agent: a, Status: status, Error: errMsg},
	}
	if err := m.emit(ctx, ev); err != nil {
		return domain.WrapOp("Orchestrator.emitStatus", err)
	}
	return nil
}

// summarizeResults folds the completed results into the answer text. One
// completed result with content is returned verbatim; several are joined
// under display name headings; none yields the fixed apology. The partial
// flag tracks status alone: a completed agent with empty content contributes
// nothing to the text but is not a failure.
func (o *Orchestrator) summarizeResults(results []domain.AgentResult) (string, bool) {
	partial := false
	var completed []domain.AgentResult
	for _, r := range results {
		if r.Status != domain.StatusCompleted {
			partial = true
			continue
		}
		if r.Content != "" {
			completed = append(completed, r)
		}
	}

	switch len(completed) {
	case 0:
		return fallbackApology, partial
	case 1:
		return completed[0].Content, partial
	}

	sections := make([]string, 0, len(completed))
	for _, r := range completed {
		name := string(r.AgentName)
		if o.deps.Registry != nil {
			name = o.deps.Registry.DisplayName(r.AgentName)
		}
		sections = append(sections, fmt.Sprintf("### %s\n\n%s", name, r.Content))
	}
	return strings.Join(sections, "\n\n---\n\n"), partial
}
