package ai

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
)

// MaxIterations bounds the number of model calls per Run.
const MaxIterations = 5

// ToolExecutionError is a tool failure. It never escapes Run: its text becomes the
// tool's result and the loop continues.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("error executing %s: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// ToolCallRecord is one executed (or rejected) tool call, kept for transcripts.
type ToolCallRecord struct {
	Name     string        `json:"name" bson:"name"`
	Args     string        `json:"args" bson:"args"`
	Output   string        `json:"output" bson:"output"`
	Failed   bool          `json:"failed" bson:"failed"`
	Duration time.Duration `json:"duration_ns" bson:"duration_ns"`
}

// RunResult is the outcome of one Run.
type RunResult struct {
	// Text is the latest model text. It may be empty when the loop was exhausted.
	Text       string
	Iterations int
	// Exhausted is true when the last permitted model call still requested tools.
	Exhausted bool
	ToolCalls []ToolCallRecord
}

// Dispatcher runs the bounded tool-calling loop between a Model and a ToolRegistry.
type Dispatcher struct {
	model         Model
	tools         *ToolRegistry
	system        string
	maxIterations int
	log           *zap.Logger
}

func NewDispatcher(model Model, tools *ToolRegistry, system string, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		model:         model,
		tools:         tools,
		system:        system,
		maxIterations: MaxIterations,
		log:           log,
	}
}

// Run sends history to the model and executes requested tools until the model answers
// in text or MaxIterations model calls have been made. Tool failures and unknown tool
// names are fed back to the model as results. Only a model error fails the run.
//
// When the final permitted reply still requests tools those calls are not executed;
// the reply's text is returned with Exhausted set.
func (d *Dispatcher) Run(ctx context.Context, history []Turn) (*RunResult, error) {
	if len(history) == 0 {
		return nil, errors.New("empty conversation history")
	}

	turns := slices.Clone(history)
	res := &RunResult{}

	for i := 1; i <= d.maxIterations; i++ {
		reply, err := d.model.Generate(ctx, d.system, turns, d.tools)
		if err != nil {
			return nil, fmt.Errorf("model call %d: %w", i, err)
		}
		res.Iterations = i
		res.Text = reply.Text

		if len(reply.Calls) == 0 {
			return res, nil
		}
		if i == d.maxIterations {
			res.Exhausted = true
			d.log.Warn("tool loop exhausted",
				zap.Int("iterations", i),
				zap.Int("pending_calls", len(reply.Calls)),
			)
			break
		}

		turns = append(turns, Turn{Role: RoleModel, Text: reply.Text, Calls: reply.Calls, Raw: reply.Raw})
		results := make([]ToolResult, 0, len(reply.Calls))
		for _, call := range reply.Calls {
			rec := d.execute(ctx, call)
			res.ToolCalls = append(res.ToolCalls, rec)
			results = append(results, ToolResult{CallID: call.ID, Name: call.Name, Output: rec.Output})
		}
		turns = append(turns, Turn{Role: RoleTool, Results: results})
	}

	return res, nil
}

func (d *Dispatcher) execute(ctx context.Context, call ToolCall) ToolCallRecord {
	rec := ToolCallRecord{Name: call.Name, Args: string(call.Args)}

	def, ok := d.tools.Get(call.Name)
	if !ok {
		d.log.Warn("model requested unknown tool", zap.String("tool", call.Name))
		rec.Output = "unknown function: " + call.Name
		rec.Failed = true
		return rec
	}

	start := time.Now()
	out, err := safeCall(ctx, def.Handler, call)
	rec.Duration = time.Since(start)
	if err != nil {
		te := &ToolExecutionError{Tool: call.Name, Err: err}
		d.log.Warn("tool failed", zap.String("tool", call.Name), zap.Error(err))
		rec.Output = te.Error()
		rec.Failed = true
		return rec
	}

	d.log.Debug("tool executed", zap.String("tool", call.Name), zap.Duration("duration", rec.Duration))
	rec.Output = out
	return rec
}

// safeCall turns a handler panic into an error.
func safeCall(ctx context.Context, h ToolHandler, call ToolCall) (out string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return h(ctx, call.Args)
}
