package tool

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"legalmind/internal/domain"
)

type stubTool struct {
	name   string
	params json.RawMessage
	result string
}

func (t *stubTool) Name() string        { return t.name }
func (t *stubTool) Description() string { return "stub" }
func (t *stubTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{Name: t.name, Description: "stub", Parameters: t.params}
}
func (t *stubTool) Execute(context.Context, json.RawMessage) (*domain.ToolResult, error) {
	return &domain.ToolResult{Content: t.result}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(&stubTool{name: "a"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	err := r.Register(&stubTool{name: "a"})
	if !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Get("missing")
	if !errors.Is(err, domain.ErrToolNotFound) {
		t.Fatalf("expected tool-not-found, got %v", err)
	}
}

func TestRegistryListSorted(t *testing.T) {
	r := NewRegistry(nil)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(&stubTool{name: name}); err != nil {
			t.Fatal(err)
		}
	}
	tools := r.List()
	want := []string{"alpha", "mid", "zeta"}
	for i, w := range want {
		if tools[i].Name() != w {
			t.Fatalf("expected %s at %d, got %s", w, i, tools[i].Name())
		}
	}
}

func TestRegistryMergePrefixesCollisions(t *testing.T) {
	a := NewRegistry(nil)
	b := NewRegistry(nil)
	if err := a.Register(&stubTool{name: "search", result: "mine"}); err != nil {
		t.Fatal(err)
	}
	if err := b.Register(&stubTool{name: "search", result: "theirs"}); err != nil {
		t.Fatal(err)
	}
	if err := b.Register(&stubTool{name: "extra"}); err != nil {
		t.Fatal(err)
	}

	if err := a.Merge(b, "other"); err != nil {
		t.Fatalf("merge: %v", err)
	}

	orig, err := a.Get("search")
	if err != nil {
		t.Fatal(err)
	}
	res, _ := orig.Execute(context.Background(), nil)
	if res.Content != "mine" {
		t.Fatalf("collision must keep the existing tool, got %q", res.Content)
	}

	renamed, err := a.Get("other_search")
	if err != nil {
		t.Fatalf("collision should register under prefix: %v", err)
	}
	if renamed.Schema().Name != "other_search" {
		t.Fatalf("renamed tool schema must carry the new name, got %s", renamed.Schema().Name)
	}
	if _, err := a.Get("extra"); err != nil {
		t.Fatalf("non-colliding tool should merge as-is: %v", err)
	}
}

func TestRegistryWrapsWithSchemaValidation(t *testing.T) {
	r := NewRegistry(discardLogger())
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {"query": {"type": "string"}},
		"required": ["query"]
	}`)
	if err := r.Register(&stubTool{name: "validated", params: schema, result: "ok"}); err != nil {
		t.Fatal(err)
	}

	tool, err := r.Get("validated")
	if err != nil {
		t.Fatal(err)
	}

	res, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("missing required field should fail validation")
	}

	res, err = tool.Execute(context.Background(), json.RawMessage(`{"query": "overtime"}`))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError || res.Content != "ok" {
		t.Fatalf("valid input should reach the inner tool, got %+v", res)
	}
}
