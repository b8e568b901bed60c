package mcp

import (
	"context"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(text string) ToolHandler {
	return func(context.Context, map[string]interface{}) CallToolResult {
		return TextResult(text)
	}
}

func TestNewRegistry(t *testing.T) {
	t.Run("keeps registration order", func(t *testing.T) {
		r, err := NewRegistry(
			ServerTool{Tool: Tool{Name: "b"}, Handler: echoHandler("b")},
			ServerTool{Tool: Tool{Name: "a"}, Handler: echoHandler("a")},
			ServerTool{Tool: Tool{Name: "c"}, Handler: echoHandler("c")},
		)
		require.NoError(t, err)
		require.Equal(t, 3, r.Len())

		var names []string
		for _, tool := range r.List() {
			names = append(names, tool.Name)
		}
		assert.Equal(t, []string{"b", "a", "c"}, names)
		assert.Equal(t, r.List(), r.List())
	})

	t.Run("defaults input schema", func(t *testing.T) {
		r, err := NewRegistry(ServerTool{Tool: Tool{Name: "noargs"}, Handler: echoHandler("")})
		require.NoError(t, err)
		assert.Equal(t, &jsonschema.Schema{Type: "object"}, r.List()[0].InputSchema)
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		_, err := NewRegistry(
			ServerTool{Tool: Tool{Name: "dup"}, Handler: echoHandler("1")},
			ServerTool{Tool: Tool{Name: "dup"}, Handler: echoHandler("2")},
		)
		assert.ErrorContains(t, err, "duplicate tool name")
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewRegistry(ServerTool{Handler: echoHandler("")})
		assert.Error(t, err)
	})

	t.Run("rejects missing handler", func(t *testing.T) {
		_, err := NewRegistry(ServerTool{Tool: Tool{Name: "nohandler"}})
		assert.ErrorContains(t, err, "no handler")
	})

	t.Run("lookup", func(t *testing.T) {
		r, err := NewRegistry(ServerTool{Tool: Tool{Name: "x"}, Handler: echoHandler("x")})
		require.NoError(t, err)

		tool, ok := r.Lookup("x")
		require.True(t, ok)
		assert.Equal(t, "x", tool.Handler(context.Background(), nil).Text())

		_, ok = r.Lookup("X")
		assert.False(t, ok, "tool names are case-sensitive")
	})
}

func TestMissingRequired(t *testing.T) {
	schema := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"asset_id", "other"},
	}

	tests := []struct {
		name        string
		args        map[string]interface{}
		wantMissing string
		wantOK      bool
	}{
		{name: "nil args", args: nil, wantMissing: "asset_id", wantOK: true},
		{name: "first missing", args: map[string]interface{}{"other": 1}, wantMissing: "asset_id", wantOK: true},
		{name: "null value", args: map[string]interface{}{"asset_id": nil, "other": 1}, wantMissing: "asset_id", wantOK: true},
		{name: "second missing", args: map[string]interface{}{"asset_id": "x"}, wantMissing: "other", wantOK: true},
		{name: "all present", args: map[string]interface{}{"asset_id": "", "other": false, "extra": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			missing, ok := missingRequired(schema, tt.args)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantMissing, missing)
		})
	}

	_, ok := missingRequired(nil, nil)
	assert.False(t, ok)
}
