package mcp

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ToolHandler runs a tool with already validated arguments.
// Business failures are reported through CallToolResult.IsError, never by panicking.
type ToolHandler func(ctx context.Context, args map[string]interface{}) CallToolResult

// ServerTool pairs a tool definition with the handler that implements it
type ServerTool struct {
	Tool    Tool
	Handler ToolHandler
}

// Registry is the fixed, ordered set of tools a server exposes.
// It is built once and only read afterwards, so it is safe for concurrent use.
type Registry struct {
	tools *orderedmap.OrderedMap[string, ServerTool]
}

// NewRegistry builds a registry in the given order.
// Tool names must be non-empty and unique, and every tool needs a handler.
func NewRegistry(tools ...ServerTool) (*Registry, error) {
	m := orderedmap.New[string, ServerTool]()
	for _, t := range tools {
		if t.Tool.Name == "" {
			return nil, fmt.Errorf("tool name cannot be empty")
		}
		if t.Handler == nil {
			return nil, fmt.Errorf("tool %q has no handler", t.Tool.Name)
		}
		if _, exists := m.Get(t.Tool.Name); exists {
			return nil, fmt.Errorf("duplicate tool name %q", t.Tool.Name)
		}
		if t.Tool.InputSchema == nil {
			t.Tool.InputSchema = &jsonschema.Schema{Type: "object"}
		}
		m.Set(t.Tool.Name, t)
	}
	return &Registry{tools: m}, nil
}

// List returns the tool definitions in registration order
func (r *Registry) List() []Tool {
	tools := make([]Tool, 0, r.tools.Len())
	for pair := r.tools.Oldest(); pair != nil; pair = pair.Next() {
		tools = append(tools, pair.Value.Tool)
	}
	return tools
}

// Lookup returns the tool registered under name
func (r *Registry) Lookup(name string) (ServerTool, bool) {
	return r.tools.Get(name)
}

// Len returns the number of registered tools
func (r *Registry) Len() int {
	return r.tools.Len()
}

// missingRequired returns the first required property absent from args.
// A JSON null counts as absent.
func missingRequired(schema *jsonschema.Schema, args map[string]interface{}) (string, bool) {
	if schema == nil {
		return "", false
	}
	for _, name := range schema.Required {
		if v, ok := args[name]; !ok || v == nil {
			return name, true
		}
	}
	return "", false
}
