package agent

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"legalmind/internal/domain"
	"legalmind/internal/infra/tracer"
	"legalmind/internal/usecase/routing"
)

// ExecutorConfig bounds every agent execution.
type ExecutorConfig struct {
	Timeout    time.Duration // default per-agent deadline, overridden by profile MaxDuration
	MaxRetries int           // additional attempts after the first
}

func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{Timeout: 60 * time.Second, MaxRetries: 1}
}

// Executor runs one agent to completion with a deadline and retries. It
// never returns an error: every failure mode is encoded in the result's
// status so the orchestrator can aggregate partial outcomes.
type Executor struct {
	runner   *Runner
	registry *routing.Registry
	cfg      ExecutorConfig
	logger   *slog.Logger
}

func NewExecutor(runner *Runner, registry *routing.Registry, cfg ExecutorConfig, logger *slog.Logger) *Executor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultExecutorConfig().Timeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{runner: runner, registry: registry, cfg: cfg, logger: logger}
}

// Execute runs the named agent. The returned result is StatusCompleted on
// success; otherwise StatusTimeout when the last attempt hit the deadline,
// StatusError in every other case.
func (e *Executor) Execute(ctx context.Context, agentType domain.AgentType, actx domain.AgentContext, sink domain.StreamSink) domain.AgentResult {
	ctx, span := tracer.StartSpan(ctx, "agent.execute",
		trace.WithAttributes(tracer.StringAttr("agent.type", string(agentType))),
	)
	defer span.End()

	start := time.Now()
	result := domain.AgentResult{AgentName: agentType, Status: domain.StatusError}

	profile, err := e.registry.Get(agentType)
	if err != nil {
		result.Error = err.Error()
		result.Duration = time.Since(start)
		tracer.RecordError(span, err)
		return result
	}

	timeout := e.cfg.Timeout
	if profile.MaxDuration > 0 {
		timeout = profile.MaxDuration
	}

	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			result.Error = ctx.Err().Error()
			break
		}
		if attempt > 0 {
			e.logger.Info("retrying agent",
				"agent", agentType,
				"attempt", attempt,
				"last_error", result.Error,
			)
			span.AddEvent("agent.retry", trace.WithAttributes(tracer.IntAttr("attempt", attempt)))
		}

		out, timedOut, runErr := e.attempt(ctx, profile, actx, sink, timeout)
		result.ToolCalls = append(result.ToolCalls, out.ToolCalls...)
		result.Tokens = result.Tokens.Add(out.Tokens)

		if runErr == nil {
			result.Content = out.Content
			result.Status = domain.StatusCompleted
			result.Error = ""
			break
		}

		result.Error = runErr.Error()
		if timedOut {
			result.Status = domain.StatusTimeout
		} else {
			result.Status = domain.StatusError
		}

		// Credential and quota failures will not heal on retry.
		if domain.IsFatalProviderError(runErr) {
			e.logger.Error("agent failed with non-retryable error", "agent", agentType, "error", runErr)
			break
		}
	}

	result.Duration = time.Since(start)
	if result.Status == domain.StatusCompleted {
		tracer.SetOK(span)
	} else {
		tracer.RecordError(span, errors.New(result.Error))
	}
	return result
}

// attempt races one run of the agent against the deadline. The losing run
// keeps its goroutine until the runner observes the cancelled context; the
// buffered channel lets it finish without blocking.
func (e *Executor) attempt(ctx context.Context, profile routing.AgentProfile, actx domain.AgentContext, sink domain.StreamSink, timeout time.Duration) (runOutcome, bool, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type attemptResult struct {
		out runOutcome
		err error
	}
	done := make(chan attemptResult, 1)
	go func() {
		out, err := e.runner.run(runCtx, profile, actx, sink)
		done <- attemptResult{out: out, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.out, false, res.err
	case <-timer.C:
		cancel()
		err := domain.NewDomainError("Executor.attempt", domain.ErrTimeout,
			string(profile.Type)+" exceeded "+timeout.String())
		return runOutcome{}, true, err
	case <-ctx.Done():
		return runOutcome{}, false, ctx.Err()
	}
}
