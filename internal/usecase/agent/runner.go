package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"legalmind/internal/domain"
	"legalmind/internal/infra/tracer"
	"legalmind/internal/usecase/routing"
)

const defaultMaxIterations = 10

// ToolResolver resolves a named tool bundle into the executor an agent may
// use. Bundles scope each agent to its own tools.
type ToolResolver interface {
	Bundle(name string) (domain.ToolExecutor, error)
}

// RunnerDeps holds injected dependencies for the runner.
type RunnerDeps struct {
	Provider      domain.Provider
	Tools         ToolResolver
	Registry      *routing.Registry
	Logger        *slog.Logger
	MaxIterations int
}

// Runner performs one attempt of one agent: it builds the prompt from the
// agent context, loops through generate and tool execution, and returns the
// final content. Retries and timeouts live in the Executor.
type Runner struct {
	deps RunnerDeps
}

func NewRunner(deps RunnerDeps) *Runner {
	if deps.MaxIterations <= 0 {
		deps.MaxIterations = defaultMaxIterations
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Runner{deps: deps}
}

// runOutcome is what a single attempt produces before the executor assigns
// the final status.
type runOutcome struct {
	Content   string
	ToolCalls []domain.ToolCallRecord
	Tokens    domain.TokenUsage
}

// run executes the agent loop once. sink may be nil for non-streamed runs.
func (r *Runner) run(ctx context.Context, profile routing.AgentProfile, actx domain.AgentContext, sink domain.StreamSink) (runOutcome, error) {
	ctx, span := tracer.StartSpan(ctx, "agent.run",
		trace.WithAttributes(tracer.StringAttr("agent.type", string(profile.Type))),
	)
	defer span.End()

	tools, err := r.deps.Tools.Bundle(profile.ToolBundle)
	if err != nil {
		tracer.RecordError(span, err)
		return runOutcome{}, domain.WrapOp("Runner.run", err)
	}

	messages := buildMessages(r.deps.Registry, profile, actx)

	var out runOutcome
	for i := 0; i < r.deps.MaxIterations; i++ {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		span.AddEvent("agent.iteration", trace.WithAttributes(tracer.IntAttr("iteration", i)))

		req := domain.GenerateRequest{
			SystemPrompt: profile.SystemPrompt,
			Messages:     messages,
			Tools:        tools.Schemas(),
			MaxTokens:    profile.MaxTokens,
			Model:        profile.Model,
		}

		text, toolCalls, usage, genErr := r.generate(ctx, profile, req, sink)
		if genErr != nil {
			tracer.RecordError(span, genErr)
			return out, genErr
		}
		out.Tokens = out.Tokens.Add(usage)

		r.deps.Logger.Debug("agent iteration",
			"agent", profile.Type,
			"iteration", i,
			"tool_calls", len(toolCalls),
			"tokens", usage.Input+usage.Output,
		)

		if len(toolCalls) == 0 {
			out.Content = text
			tracer.SetOK(span)
			return out, nil
		}

		messages = append(messages, domain.Message{
			Role:      domain.RoleAssistant,
			Content:   text,
			ToolCalls: toolCalls,
			Timestamp: time.Now(),
		})
		for _, call := range toolCalls {
			record, msg := r.executeTool(ctx, tools, call)
			out.ToolCalls = append(out.ToolCalls, record)
			messages = append(messages, msg)
		}
	}

	err = domain.NewDomainError("Runner.run", domain.ErrMaxIterations,
		fmt.Sprintf("%s after %d iterations", profile.Type, r.deps.MaxIterations))
	tracer.RecordError(span, err)
	return out, err
}

// generate calls the provider, streaming deltas to the sink when both the
// provider and the caller support it.
func (r *Runner) generate(ctx context.Context, profile routing.AgentProfile, req domain.GenerateRequest, sink domain.StreamSink) (string, []domain.ToolCall, domain.TokenUsage, error) {
	sp, canStream := r.deps.Provider.(domain.StreamingProvider)
	if sink == nil || !canStream {
		resp, err := r.deps.Provider.Generate(ctx, req)
		if err != nil {
			return "", nil, domain.TokenUsage{}, err
		}
		if sink != nil && resp.Text != "" {
			if err := sink.Send(ctx, domain.StreamEvent{
				Type:  domain.StreamEventTokenDelta,
				Delta: &domain.TokenDelta{Agent: profile.Type, Text: resp.Text},
			}); err != nil {
				return "", nil, domain.TokenUsage{}, err
			}
		}
		return resp.Text, resp.ToolCalls, resp.Usage, nil
	}

	deltas, err := sp.GenerateStream(ctx, req)
	if err != nil {
		return "", nil, domain.TokenUsage{}, err
	}

	var (
		text      strings.Builder
		toolCalls []domain.ToolCall
		usage     domain.TokenUsage
	)
	for delta := range deltas {
		if delta.Text != "" {
			text.WriteString(delta.Text)
			if err := sink.Send(ctx, domain.StreamEvent{
				Type:  domain.StreamEventTokenDelta,
				Delta: &domain.TokenDelta{Agent: profile.Type, Text: delta.Text},
			}); err != nil {
				return "", nil, domain.TokenUsage{}, err
			}
		}
		toolCalls = append(toolCalls, delta.ToolCalls...)
		if delta.Usage != nil {
			usage = *delta.Usage
		}
	}
	if ctx.Err() != nil {
		return "", nil, domain.TokenUsage{}, ctx.Err()
	}
	return text.String(), toolCalls, usage, nil
}

// executeTool runs one tool call. Tool failures become tool messages the
// model can react to, not run failures.
func (r *Runner) executeTool(ctx context.Context, tools domain.ToolExecutor, call domain.ToolCall) (domain.ToolCallRecord, domain.Message) {
	ctx, span := tracer.StartSpan(ctx, "agent.execute_tool",
		trace.WithAttributes(tracer.StringAttr("tool.name", call.Name)),
	)
	defer span.End()

	start := time.Now()
	record := domain.ToolCallRecord{Tool: call.Name, Input: string(call.Arguments)}

	content := ""
	tool, err := tools.Get(call.Name)
	if err == nil {
		var result *domain.ToolResult
		result, err = tool.Execute(ctx, call.Arguments)
		if result != nil {
			content = result.Content
			if err == nil && result.IsError {
				err = domain.NewDomainError("Runner.executeTool", domain.ErrInvalidInput, result.Content)
			}
		}
	}
	record.Duration = time.Since(start)
	record.Output = content

	if err != nil {
		tracer.RecordError(span, err)
		record.Error = err.Error()
		if content == "" {
			content = err.Error()
		}
		r.deps.Logger.Warn("tool call failed", "tool", call.Name, "error", err)
	} else {
		tracer.SetOK(span)
	}

	return record, domain.Message{
		Role:      domain.RoleTool,
		Name:      call.Name,
		Content:   content,
		ToolCalls: []domain.ToolCall{{ID: call.ID, Name: call.Name}},
		Timestamp: time.Now(),
	}
}

// buildMessages assembles the conversation an agent sees: prior chat
// history, then the user message with earlier specialist findings folded in.
func buildMessages(reg *routing.Registry, profile routing.AgentProfile, actx domain.AgentContext) []domain.Message {
	messages := make([]domain.Message, 0, len(actx.Messages)+1)
	messages = append(messages, actx.Messages...)

	prompt := actx.UserMessage
	if len(actx.PreviousResults) > 0 {
		var b strings.Builder
		b.WriteString(prompt)
		b.WriteString("\n\nFindings from other specialists:\n")
		for _, res := range actx.PreviousResults {
			if res.Status != domain.StatusCompleted || res.Content == "" {
				continue
			}
			name := string(res.AgentName)
			if reg != nil {
				name = reg.DisplayName(res.AgentName)
			}
			fmt.Fprintf(&b, "\n## %s\n%s\n", name, res.Content)
		}
		prompt = b.String()
	}

	messages = append(messages, domain.Message{
		Role:      domain.RoleUser,
		Content:   prompt,
		Timestamp: time.Now(),
	})
	return messages
}
