package tool

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"legalmind/internal/domain"
)

// validatedTool guards a tool's Execute behind the tool's own declared
// parameter schema. Model-produced arguments that fail validation come back
// as tool error results the model can correct, never as run failures.
type validatedTool struct {
	domain.Tool
	schema *jsonschema.Schema
}

// WithSchemaValidation compiles the tool's parameter schema and wraps Execute
// with input validation against it. A tool that declares no parameters is
// returned unchanged. Returns an error when the schema does not compile.
func WithSchemaValidation(t domain.Tool) (domain.Tool, error) {
	raw := t.Schema().Parameters
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return t, nil
	}

	resource := t.Name() + ".schema.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resource, bytes.NewReader(raw)); err != nil {
		return nil, domain.WrapOp("WithSchemaValidation", err)
	}
	schema, err := compiler.Compile(resource)
	if err != nil {
		return nil, domain.WrapOp("WithSchemaValidation", err)
	}
	return &validatedTool{Tool: t, schema: schema}, nil
}

func (v *validatedTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	var decoded any
	if err := json.Unmarshal(params, &decoded); err != nil {
		return &domain.ToolResult{
			IsError: true,
			Content: "parameters are not valid JSON: " + err.Error(),
		}, nil
	}
	if err := v.schema.Validate(decoded); err != nil {
		return &domain.ToolResult{
			IsError: true,
			Content: "parameters rejected by schema: " + err.Error(),
		}, nil
	}
	return v.Tool.Execute(ctx, params)
}
