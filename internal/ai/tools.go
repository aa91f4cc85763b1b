package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/responses"
	"google.golang.org/genai"
)

// ToolHandler executes a tool. It receives the raw JSON arguments produced by the model
// and returns the text fed back to the model as the tool's result.
type ToolHandler func(ctx context.Context, args json.RawMessage) (string, error)

// ToolDefinition describes a single tool in the registry.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any // JSON Schema for the tool's input parameters
	Handler     ToolHandler
}

// ToolRegistry maps tool names to handlers. Each name maps to exactly one handler;
// registering a name twice replaces the earlier definition.
type ToolRegistry struct {
	tools map[string]ToolDefinition
}

// NewToolRegistry creates an empty ToolRegistry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]ToolDefinition)}
}

// Add puts a tool into the registry. Prefer Register for typed parameters.
func (r *ToolRegistry) Add(t ToolDefinition) {
	r.tools[t.Name] = t
}

// Register adds a tool whose parameters decode into P. The parameter schema is
// reflected from P, so the model sees the same field names and required markers the
// handler decodes. The handler's result is sent as-is when it is a string and as JSON
// otherwise.
func Register[P any](r *ToolRegistry, name, description string, fn func(ctx context.Context, params P) (any, error)) {
	r.Add(ToolDefinition{
		Name:        name,
		Description: description,
		InputSchema: schemaFor[P](),
		Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
			var params P
			if len(args) > 0 && string(args) != "null" {
				if err := json.Unmarshal(args, &params); err != nil {
					return "", fmt.Errorf("invalid arguments: %w", err)
				}
			}
			out, err := fn(ctx, params)
			if err != nil {
				return "", err
			}
			if s, ok := out.(string); ok {
				return s, nil
			}
			b, err := json.Marshal(out)
			if err != nil {
				return "", fmt.Errorf("failed to encode result: %w", err)
			}
			return string(b), nil
		},
	})
}

// Get returns the ToolDefinition for a given tool name, and whether it was found.
func (r *ToolRegistry) Get(name string) (ToolDefinition, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// All returns all registered tools sorted by name.
func (r *ToolRegistry) All() []ToolDefinition {
	out := make([]ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ToOpenAITools converts the registry to the OpenAI Responses API tool format.
func (r *ToolRegistry) ToOpenAITools() []responses.ToolUnionParam {
	all := r.All()
	out := make([]responses.ToolUnionParam, 0, len(all))
	for _, t := range all {
		out = append(out, responses.ToolUnionParam{
			OfFunction: &responses.FunctionToolParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  t.InputSchema,
			},
		})
	}
	return out
}

// ToGenAITools converts the registry to a single Gemini tool holding every declaration.
func (r *ToolRegistry) ToGenAITools() []*genai.Tool {
	all := r.All()
	if len(all) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(all))
	for _, t := range all {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:                 t.Name,
			Description:          t.Description,
			ParametersJsonSchema: t.InputSchema,
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func schemaFor[P any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v P
	b, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		panic(fmt.Sprintf("ai: reflect schema for %T: %v", v, err))
	}
	var schema map[string]any
	if err := json.Unmarshal(b, &schema); err != nil {
		panic(fmt.Sprintf("ai: decode schema for %T: %v", v, err))
	}
	delete(schema, "$schema")
	delete(schema, "$id")
	if _, ok := schema["properties"]; !ok {
		schema["properties"] = map[string]any{}
	}
	return schema
}
