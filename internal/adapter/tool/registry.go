package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"legalmind/internal/domain"
)

// Registry holds named tools.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]domain.Tool
	logger *slog.Logger
}

// NewRegistry creates an empty tool registry.
// If logger is non-nil, tools are wrapped with schema validation on Register;
// compilation errors are logged and the tool is registered unwrapped.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]domain.Tool),
		logger: logger,
	}
}

// Register adds a tool. Returns error if name already registered.
func (r *Registry) Register(t domain.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return domain.NewDomainError("Registry.Register", domain.ErrDuplicate, name)
	}

	if r.logger != nil {
		wrapped, err := WithSchemaValidation(t)
		if err != nil {
			r.logger.Warn("schema validation disabled for tool",
				"tool", name, "error", err)
		} else {
			t = wrapped
		}
	}

	r.tools[name] = t
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (domain.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return nil, domain.NewDomainError("Registry.Get", domain.ErrToolNotFound, name)
	}
	return t, nil
}

// List returns all registered tools sorted by name.
func (r *Registry) List() []domain.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]domain.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// Schemas returns all tool schemas for LLM function-calling, sorted by name.
func (r *Registry) Schemas() []domain.ToolSchema {
	schemas := make([]domain.ToolSchema, 0)
	for _, t := range r.List() {
		schemas = append(schemas, t.Schema())
	}
	return schemas
}

// Merge copies every tool from other into r. Name collisions are resolved by
// re-registering the incoming tool under "<prefix>_<name>".
func (r *Registry) Merge(other *Registry, prefix string) error {
	for _, t := range other.List() {
		err := r.Register(t)
		if err == nil {
			continue
		}
		renamed := &renamedTool{inner: t, name: fmt.Sprintf("%s_%s", prefix, t.Name())}
		if err := r.Register(renamed); err != nil {
			return domain.WrapOp("Registry.Merge", err)
		}
		if r.logger != nil {
			r.logger.Warn("tool name collision", "tool", t.Name(), "renamed", renamed.name)
		}
	}
	return nil
}

// renamedTool exposes an existing tool under a different name.
type renamedTool struct {
	inner domain.Tool
	name  string
}

func (t *renamedTool) Name() string { return t.name }
func (t *renamedTool) Description() string { return t.inner.Description() }
func (t *renamedTool) Schema() domain.ToolSchema {
	s := t.inner.Schema()
	s.Name = t.name
	return s
}
func (t *renamedTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return t.inner.Execute(ctx, params)
}
