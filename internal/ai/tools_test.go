package ai

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookupParams struct {
	OrderID int    `json:"order_id" jsonschema:"required"`
	Note    string `json:"note,omitempty"`
}

func TestRegister_ReflectsSchema(t *testing.T) {
	r := NewToolRegistry()
	Register(r, "lookup", "Look up an order.", func(_ context.Context, p lookupParams) (any, error) {
		return map[string]int{"order_id": p.OrderID}, nil
	})

	def, ok := r.Get("lookup")
	require.True(t, ok)
	assert.Equal(t, "object", def.InputSchema["type"])
	assert.Equal(t, []any{"order_id"}, def.InputSchema["required"])
	assert.Equal(t, false, def.InputSchema["additionalProperties"])
	assert.NotContains(t, def.InputSchema, "$schema")

	props, ok := def.InputSchema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "order_id")
	assert.Contains(t, props, "note")

	out, err := def.Handler(context.Background(), json.RawMessage(`{"order_id":7}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"order_id":7}`, out)
}

func TestRegister_EmptyParams(t *testing.T) {
	r := NewToolRegistry()
	Register(r, "ping", "Ping.", func(_ context.Context, _ struct{}) (any, error) { return "pong", nil })

	def, _ := r.Get("ping")
	assert.Equal(t, map[string]any{}, def.InputSchema["properties"])

	for _, args := range []string{"", "null", "{}"} {
		out, err := def.Handler(context.Background(), json.RawMessage(args))
		require.NoError(t, err, args)
		assert.Equal(t, "pong", out)
	}
}

func TestToolRegistry_Conversions(t *testing.T) {
	var executed int
	r := testRegistry(&executed)

	names := []string{}
	for _, d := range r.All() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"echo", "explode"}, names)

	oa := r.ToOpenAITools()
	require.Len(t, oa, 2)
	assert.Equal(t, "echo", oa[0].OfFunction.Name)

	g := r.ToGenAITools()
	require.Len(t, g, 1)
	require.Len(t, g[0].FunctionDeclarations, 2)
	assert.Equal(t, "explode", g[0].FunctionDeclarations[1].Name)

	assert.Nil(t, NewToolRegistry().ToGenAITools())
}
