package ai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedModel replays replies in order and records every conversation it was sent.
// Once the script is exhausted it repeats the last reply.
type scriptedModel struct {
	replies []*ModelReply
	err     error
	seen    [][]Turn
}

func (m *scriptedModel) Generate(_ context.Context, _ string, turns []Turn, _ *ToolRegistry) (*ModelReply, error) {
	m.seen = append(m.seen, turns)
	if m.err != nil {
		return nil, m.err
	}
	i := len(m.seen) - 1
	if i >= len(m.replies) {
		i = len(m.replies) - 1
	}
	return m.replies[i], nil
}

func call(id, name, args string) ToolCall {
	return ToolCall{ID: id, Name: name, Args: json.RawMessage(args)}
}

type echoParams struct {
	Word string `json:"word"`
}

func testRegistry(executed *int) *ToolRegistry {
	r := NewToolRegistry()
	Register(r, "echo", "Echo a word.", func(_ context.Context, p echoParams) (any, error) {
		*executed++
		return "echo:" + p.Word, nil
	})
	Register(r, "explode", "Always fails.", func(_ context.Context, _ echoParams) (any, error) {
		*executed++
		return nil, errors.New("database unavailable")
	})
	return r
}

var userAsks = []Turn{{Role: RoleUser, Text: "How many orders are pending?"}}

func TestDispatcher_TextOnFirstTurn(t *testing.T) {
	model := &scriptedModel{replies: []*ModelReply{{Text: "Three orders are pending."}}}
	var executed int
	d := NewDispatcher(model, testRegistry(&executed), "sys", nil)

	res, err := d.Run(context.Background(), userAsks)
	require.NoError(t, err)
	assert.Equal(t, "Three orders are pending.", res.Text)
	assert.Equal(t, 1, res.Iterations)
	assert.False(t, res.Exhausted)
	assert.Zero(t, executed)
}

func TestDispatcher_ToolResultFedBack(t *testing.T) {
	model := &scriptedModel{replies: []*ModelReply{
		{Calls: []ToolCall{call("c1", "echo", `{"word":"hi"}`)}},
		{Text: "done"},
	}}
	var executed int
	d := NewDispatcher(model, testRegistry(&executed), "sys", nil)

	res, err := d.Run(context.Background(), userAsks)
	require.NoError(t, err)
	assert.Equal(t, "done", res.Text)
	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, 1, executed)

	second := model.seen[1]
	require.Len(t, second, 3)
	assert.Equal(t, RoleModel, second[1].Role)
	assert.Equal(t, RoleTool, second[2].Role)
	assert.Equal(t, []ToolResult{{CallID: "c1", Name: "echo", Output: "echo:hi"}}, second[2].Results)

	require.Len(t, res.ToolCalls, 1)
	assert.False(t, res.ToolCalls[0].Failed)
}

func TestDispatcher_StopsAfterMaxIterations(t *testing.T) {
	model := &scriptedModel{replies: []*ModelReply{
		{Text: "checking", Calls: []ToolCall{call("c", "echo", `{"word":"again"}`)}},
	}}
	var executed int
	d := NewDispatcher(model, testRegistry(&executed), "sys", nil)

	res, err := d.Run(context.Background(), userAsks)
	require.NoError(t, err)
	assert.Len(t, model.seen, MaxIterations)
	assert.Equal(t, MaxIterations, res.Iterations)
	assert.True(t, res.Exhausted)
	assert.Equal(t, "checking", res.Text)
	// The last reply's calls are not executed.
	assert.Equal(t, MaxIterations-1, executed)
}

func TestDispatcher_UnknownToolContinuesLoop(t *testing.T) {
	model := &scriptedModel{replies: []*ModelReply{
		{Calls: []ToolCall{call("c1", "delete_everything", `{}`)}},
		{Text: "I can't do that."},
	}}
	var executed int
	d := NewDispatcher(model, testRegistry(&executed), "sys", nil)

	res, err := d.Run(context.Background(), userAsks)
	require.NoError(t, err)
	assert.Equal(t, "I can't do that.", res.Text)
	assert.Equal(t, "unknown function: delete_everything", model.seen[1][2].Results[0].Output)
	assert.True(t, res.ToolCalls[0].Failed)
}

func TestDispatcher_ToolErrorBecomesResult(t *testing.T) {
	model := &scriptedModel{replies: []*ModelReply{
		{Calls: []ToolCall{call("c1", "explode", `{}`), call("c2", "echo", `{"word":"ok"}`)}},
		{Text: "The database is down."},
	}}
	var executed int
	d := NewDispatcher(model, testRegistry(&executed), "sys", nil)

	res, err := d.Run(context.Background(), userAsks)
	require.NoError(t, err)
	assert.Equal(t, 2, executed)

	results := model.seen[1][2].Results
	require.Len(t, results, 2)
	assert.Equal(t, "error executing explode: database unavailable", results[0].Output)
	assert.Equal(t, "echo:ok", results[1].Output)
	assert.Equal(t, "The database is down.", res.Text)
}

func TestDispatcher_BadArgumentsBecomeResult(t *testing.T) {
	model := &scriptedModel{replies: []*ModelReply{
		{Calls: []ToolCall{call("c1", "echo", `{"word": 12}`)}},
		{Text: "sorry"},
	}}
	var executed int
	d := NewDispatcher(model, testRegistry(&executed), "sys", nil)

	_, err := d.Run(context.Background(), userAsks)
	require.NoError(t, err)
	assert.Zero(t, executed)
	assert.Contains(t, model.seen[1][2].Results[0].Output, "error executing echo: invalid arguments")
}

func TestDispatcher_PanicBecomesResult(t *testing.T) {
	r := NewToolRegistry()
	Register(r, "boom", "Panics.", func(_ context.Context, _ struct{}) (any, error) {
		panic("nil map")
	})
	model := &scriptedModel{replies: []*ModelReply{
		{Calls: []ToolCall{call("c1", "boom", ``)}},
		{Text: "ok"},
	}}

	_, err := NewDispatcher(model, r, "sys", nil).Run(context.Background(), userAsks)
	require.NoError(t, err)
	assert.Equal(t, "error executing boom: panic: nil map", model.seen[1][2].Results[0].Output)
}

func TestDispatcher_ModelErrorFailsRun(t *testing.T) {
	boom := errors.New("quota exceeded")
	model := &scriptedModel{err: boom}
	var executed int

	_, err := NewDispatcher(model, testRegistry(&executed), "sys", nil).Run(context.Background(), userAsks)
	assert.ErrorIs(t, err, boom)
}

func TestDispatcher_HistoryIsNotMutated(t *testing.T) {
	history := make([]Turn, 1, 8)
	history[0] = Turn{Role: RoleUser, Text: "hi"}
	model := &scriptedModel{replies: []*ModelReply{
		{Calls: []ToolCall{call("c1", "echo", `{"word":"x"}`)}},
		{Text: "done"},
	}}
	var executed int

	_, err := NewDispatcher(model, testRegistry(&executed), "sys", nil).Run(context.Background(), history)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, Turn{}, history[:2][1])
}
