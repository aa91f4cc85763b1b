package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiModel talks to Gemini through the Google Gen AI SDK.
type GeminiModel struct {
	client *genai.Client
	model  string
}

func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiModel{client: client, model: model}, nil
}

func (m *GeminiModel) Generate(ctx context.Context, system string, turns []Turn, tools *ToolRegistry) (*ModelReply, error) {
	contents, err := toGenAIContents(turns)
	if err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{Tools: tools.ToGenAITools()}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		reason := "no candidates"
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason = "prompt blocked: " + string(resp.PromptFeedback.BlockReason)
		}
		return nil, fmt.Errorf("gemini returned no content (%s)", reason)
	}

	reply := &ModelReply{Text: resp.Text(), Raw: resp.Candidates[0].Content}
	for _, fc := range resp.FunctionCalls() {
		args, err := json.Marshal(fc.Args)
		if err != nil {
			return nil, fmt.Errorf("encode arguments for %s: %w", fc.Name, err)
		}
		reply.Calls = append(reply.Calls, ToolCall{ID: fc.ID, Name: fc.Name, Args: args})
	}
	return reply, nil
}

func toGenAIContents(turns []Turn) ([]*genai.Content, error) {
	out := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case RoleUser:
			out = append(out, genai.NewContentFromText(t.Text, genai.RoleUser))

		case RoleModel:
			if raw, ok := t.Raw.(*genai.Content); ok && raw != nil {
				out = append(out, raw)
				continue
			}
			var parts []*genai.Part
			if t.Text != "" {
				parts = append(parts, genai.NewPartFromText(t.Text))
			}
			for _, c := range t.Calls {
				var args map[string]any
				if len(c.Args) > 0 {
					if err := json.Unmarshal(c.Args, &args); err != nil {
						return nil, fmt.Errorf("decode arguments for %s: %w", c.Name, err)
					}
				}
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{ID: c.ID, Name: c.Name, Args: args}})
			}
			if len(parts) > 0 {
				out = append(out, genai.NewContentFromParts(parts, genai.RoleModel))
			}

		case RoleTool:
			parts := make([]*genai.Part, 0, len(t.Results))
			for _, r := range t.Results {
				parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       r.CallID,
					Name:     r.Name,
					Response: map[string]any{"output": r.Output},
				}})
			}
			out = append(out, genai.NewContentFromParts(parts, genai.RoleUser))

		default:
			return nil, fmt.Errorf("unsupported role %q", t.Role)
		}
	}
	return out, nil
}
