package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"legalmind/internal/adapter/cache"
	"legalmind/internal/domain"
)

const (
	defaultSearchCount = 5
	maxSearchCount     = 20
)

type searchParams struct {
	Query string `json:"query"`
	Count int    `json:"count,omitempty"`
}

var searchParamsSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"query": {
			"type": "string",
			"description": "The search query",
			"minLength": 1
		},
		"count": {
			"type": "integer",
			"description": "Maximum number of results (default 5)",
			"minimum": 1,
			"maximum": 20
		}
	},
	"required": ["query"]
}`)

// SearchTool exposes one scoped corpus search to the model. Results are
// served through the tiered cache; identical queries within the TTL never
// reach the backend twice.
type SearchTool struct {
	name        string
	description string
	scope       SearchScope
	kind        cache.SearchKind
	backend     SearchBackend
	cache       *cache.Tiered // nil disables caching
	logger      *slog.Logger
}

// NewWebSearchTool searches the open web for current legal news and
// commentary.
func NewWebSearchTool(backend SearchBackend, c *cache.Tiered, logger *slog.Logger) *SearchTool {
	return &SearchTool{
		name:        "web_search",
		description: "Search the web for current information, news, and commentary relevant to a legal question.",
		scope:       ScopeWeb,
		kind:        cache.KindNews,
		backend:     backend,
		cache:       c,
		logger:      logger,
	}
}

// NewRegulationSearchTool searches the statute and regulation corpus.
func NewRegulationSearchTool(backend SearchBackend, c *cache.Tiered, logger *slog.Logger) *SearchTool {
	return &SearchTool{
		name:        "regulation_search",
		description: "Search statutes, regulations, and administrative rules by topic, citation, or keyword.",
		scope:       ScopeRegulation,
		kind:        cache.KindRegulation,
		backend:     backend,
		cache:       c,
		logger:      logger,
	}
}

// NewCaseSearchTool searches the decided-case corpus.
func NewCaseSearchTool(backend SearchBackend, c *cache.Tiered, logger *slog.Logger) *SearchTool {
	return &SearchTool{
		name:        "case_search",
		description: "Search decided cases and precedents by facts, legal issue, or citation.",
		scope:       ScopeCase,
		kind:        cache.KindCase,
		backend:     backend,
		cache:       c,
		logger:      logger,
	}
}

func (t *SearchTool) Name() string        { return t.name }
func (t *SearchTool) Description() string { return t.description }

func (t *SearchTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.name,
		Description: t.description,
		Parameters:  searchParamsSchema,
	}
}

func (t *SearchTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	var p searchParams
	if err := json.Unmarshal(params, &p); err != nil {
		return &domain.ToolResult{IsError: true, Content: fmt.Sprintf("invalid parameters: %v", err)}, nil
	}
	if strings.TrimSpace(p.Query) == "" {
		return &domain.ToolResult{IsError: true, Content: "query must not be empty"}, nil
	}
	if p.Count <= 0 {
		p.Count = defaultSearchCount
	}
	if p.Count > maxSearchCount {
		p.Count = maxSearchCount
	}

	run := func(ctx context.Context) (string, error) {
		results, err := t.backend.Search(ctx, t.scope, p.Query, p.Count)
		if err != nil {
			return "", err
		}
		return formatResults(p.Query, results), nil
	}

	var (
		content string
		err     error
	)
	if t.cache != nil {
		key := cache.Key(t.kind, p.Query, fmt.Sprintf("count=%d", p.Count))
		content, err = t.cache.GetOrSet(ctx, key, cache.TTLFor(t.kind), run)
	} else {
		content, err = run(ctx)
	}
	if err != nil {
		t.logger.Warn("search failed", "tool", t.name, "query", p.Query, "error", err)
		return &domain.ToolResult{IsError: true, Content: fmt.Sprintf("search failed: %v", err)}, nil
	}
	return &domain.ToolResult{Content: content}, nil
}

func formatResults(query string, results []SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for %q.", query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Results for %q:\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, r.Title)
		if r.Date != "" {
			fmt.Fprintf(&b, "   Date: %s\n", r.Date)
		}
		if r.URL != "" {
			fmt.Fprintf(&b, "   URL: %s\n", r.URL)
		}
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", r.Snippet)
		}
	}
	return b.String()
}
