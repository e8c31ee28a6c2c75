package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/oklog/ulid/v2"

	"legalmind/internal/adapter/cache"
	"legalmind/internal/adapter/llm"
	"legalmind/internal/adapter/tool"
	"legalmind/internal/domain"
	"legalmind/internal/infra/config"
	"legalmind/internal/infra/logger"
	"legalmind/internal/infra/tracer"
	"legalmind/internal/usecase/agent"
	"legalmind/internal/usecase/intent"
	"legalmind/internal/usecase/orchestrator"
	"legalmind/internal/usecase/routing"
	"legalmind/internal/usecase/tracing"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownTracer(context.Background())

	// LLM provider, breaker-wrapped so one outage fails fast everywhere.
	provider := llm.NewCircuitBreakerProvider(
		llm.NewOpenAIProvider(cfg.Provider, log),
		llm.CircuitBreakerConfig{},
		log,
	)

	// Tool stack: rate-limited search behind the tiered cache.
	var backend tool.SearchBackend = tool.NewHTTPBackend(cfg.Tools.SearchBaseURL, log)
	backend = tool.NewRateLimitedBackend(backend, cfg.Tools.SearchRatePerSec, cfg.Tools.SearchBurst)
	searchCache := cache.NewTiered(cache.NewMemory(cfg.Cache.MaxEntries), nil, log)
	bundles, err := tool.DefaultBundles(backend, searchCache, cfg.Tools.DiscoveryTTL, log)
	if err != nil {
		return fmt.Errorf("init tool bundles: %w", err)
	}

	registry := routing.DefaultRegistry()
	router := routing.NewRouter(registry, log)
	classifier := intent.NewClassifier(provider, intent.Config{
		RuleConfidenceThreshold: cfg.Classifier.RuleConfidenceThreshold,
		EnableLLM:               cfg.Classifier.EnableLLM,
		LLMTimeout:              cfg.Classifier.LLMTimeout,
	}, log)

	runner := agent.NewRunner(agent.RunnerDeps{
		Provider:      provider,
		Tools:         bundles,
		Registry:      registry,
		Logger:        log,
		MaxIterations: cfg.Orchestrator.MaxIterations,
	})
	executor := agent.NewExecutor(runner, registry, agent.ExecutorConfig{
		Timeout:    cfg.Orchestrator.AgentTimeout,
		MaxRetries: cfg.Orchestrator.MaxRetries,
	}, log)

	traces := tracing.NewStore(cfg.TraceStore.MaxSize)
	orch := orchestrator.New(orchestrator.Deps{
		Executor: executor,
		Registry: registry,
		Traces:   traces,
		Chat:     provider,
		Logger:   log,
	}, orchestrator.Config{
		EnableParallel: cfg.Orchestrator.EnableParallel,
		ChatModel:      cfg.Provider.ChatModel,
	})
	pipeline := orchestrator.NewPipeline(classifier, router, orch)

	return repl(ctx, pipeline, traces)
}

// repl reads messages from stdin and streams answers to stdout, one turn at
// a time. "/stats" prints trace store aggregates, "/quit" exits.
func repl(ctx context.Context, pipeline *orchestrator.Pipeline, traces *tracing.Store) error {
	chatID := ulid.Make().String()
	var history []domain.Message

	fmt.Println("legalmind ready. Ask a legal question, or /quit to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit", line == "/exit":
			return nil
		case line == "/stats":
			printStats(traces)
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		sink := domain.StreamSinkFunc(func(_ context.Context, ev domain.StreamEvent) error {
			switch ev.Type {
			case domain.StreamEventRouting:
				fmt.Printf("[routing] intent=%s confidence=%.2f agents=%v\n",
					ev.Routing.Intent, ev.Routing.Confidence, ev.Routing.SelectedAgents)
			case domain.StreamEventAgentStatus:
				if ev.Agent.Error != "" {
					fmt.Printf("[%s] %s: %s\n", ev.Agent.Agent, ev.Agent.Status, ev.Agent.Error)
				} else {
					fmt.Printf("[%s] %s\n", ev.Agent.Agent, ev.Agent.Status)
				}
			case domain.StreamEventTokenDelta:
				fmt.Print(ev.Delta.Text)
			}
			return nil
		})

		resp, err := pipeline.RespondStream(ctx, orchestrator.Request{
			ChatID:  chatID,
			Message: line,
			History: history,
		}, sink)
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		history = append(history,
			domain.Message{Role: domain.RoleUser, Content: line},
			domain.Message{Role: domain.RoleAssistant, Content: resp.Text},
		)
		if resp.PartialFailure {
			fmt.Println("(some specialists did not finish; the answer may be incomplete)")
		}
	}
}

func printStats(traces *tracing.Store) {
	stats := traces.GetStats()
	fmt.Printf("traces: %d, avg duration: %s, avg tokens: %.0f\n",
		stats.TotalTraces, stats.AvgDuration, stats.AvgTokens)
	for agent, n := range stats.AgentUsage {
		fmt.Printf("  %s: %d runs\n", agent, n)
	}
	for kind, n := range stats.IntentDist {
		fmt.Printf("  intent %s: %d\n", kind, n)
	}
}
