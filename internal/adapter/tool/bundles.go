package tool

import (
	"log/slog"
	"sync"
	"time"

	"legalmind/internal/adapter/cache"
	"legalmind/internal/domain"
)

const defaultDiscoveryTTL = time.Minute

// Bundles groups tools into named sets, one per agent profile. Schema
// listings are cached with a short TTL since they are read on every model
// call but change only when a bundle is redefined.
type Bundles struct {
	mu           sync.RWMutex
	registries   map[string]*Registry
	schemaCache  map[string]schemaCacheEntry
	discoveryTTL time.Duration
	logger       *slog.Logger
}

type schemaCacheEntry struct {
	schemas   []domain.ToolSchema
	expiresAt time.Time
}

func NewBundles(discoveryTTL time.Duration, logger *slog.Logger) *Bundles {
	if discoveryTTL <= 0 {
		discoveryTTL = defaultDiscoveryTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bundles{
		registries:   make(map[string]*Registry),
		schemaCache:  make(map[string]schemaCacheEntry),
		discoveryTTL: discoveryTTL,
		logger:       logger,
	}
}

// Define creates or replaces the named bundle with the given tools.
func (b *Bundles) Define(name string, tools ...domain.Tool) error {
	reg := NewRegistry(b.logger)
	for _, t := range tools {
		if err := reg.Register(t); err != nil {
			return domain.WrapOp("Bundles.Define", err)
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registries[name] = reg
	delete(b.schemaCache, name)
	return nil
}

// Bundle returns the executor for the named bundle.
func (b *Bundles) Bundle(name string) (domain.ToolExecutor, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	reg, ok := b.registries[name]
	if !ok {
		return nil, domain.NewDomainError("Bundles.Bundle", domain.ErrNotFound, name)
	}
	return &bundleExecutor{name: name, reg: reg, owner: b}, nil
}

func (b *Bundles) schemas(name string, reg *Registry) []domain.ToolSchema {
	b.mu.RLock()
	entry, ok := b.schemaCache[name]
	b.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.schemas
	}

	schemas := reg.Schemas()
	b.mu.Lock()
	b.schemaCache[name] = schemaCacheEntry{
		schemas:   schemas,
		expiresAt: time.Now().Add(b.discoveryTTL),
	}
	b.mu.Unlock()
	return schemas
}

// bundleExecutor adapts one bundle's registry to domain.ToolExecutor.
type bundleExecutor struct {
	name  string
	reg   *Registry
	owner *Bundles
}

func (e *bundleExecutor) Get(name string) (domain.Tool, error) { return e.reg.Get(name) }
func (e *bundleExecutor) Schemas() []domain.ToolSchema { return e.owner.schemas(e.name, e.reg) }

// DefaultBundles wires the standard bundle per agent: research and analysis
// get their corpus search plus the web, the advisor gets everything, and
// drafting gets regulations plus the template tool. Every bundle carries a
// handover tool scoped to its owner.
func DefaultBundles(backend SearchBackend, c *cache.Tiered, discoveryTTL time.Duration, logger *slog.Logger) (*Bundles, error) {
	web := NewWebSearchTool(backend, c, logger)
	regulation := NewRegulationSearchTool(backend, c, logger)
	cases := NewCaseSearchTool(backend, c, logger)
	template := NewDocumentTemplateTool()

	b := NewBundles(discoveryTTL, logger)
	defs := []struct {
		owner domain.AgentType
		tools []domain.Tool
	}{
		{domain.AgentLegalResearch, []domain.Tool{web, regulation}},
		{domain.AgentCaseAnalysis, []domain.Tool{web, cases}},
		{domain.AgentLegalAdvisor, []domain.Tool{web, regulation, cases}},
		{domain.AgentDocumentDraft, []domain.Tool{regulation, template}},
	}
	for _, d := range defs {
		tools := append(d.tools, NewHandoverTool(d.owner, logger))
		if err := b.Define(string(d.owner), tools...); err != nil {
			return nil, err
		}
	}
	return b, nil
}
