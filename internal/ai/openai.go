package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

// OpenAIModel talks to the OpenAI Responses API.
type OpenAIModel struct {
	client *openai.Client
	model  string
}

func NewOpenAIModel(apiKey, model string) (*OpenAIModel, error) {
	if apiKey == "" {
		return nil, errors.New("openai API key is required")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIModel{client: &client, model: model}, nil
}

func (m *OpenAIModel) Generate(ctx context.Context, system string, turns []Turn, tools *ToolRegistry) (*ModelReply, error) {
	input, err := toOpenAIInput(turns)
	if err != nil {
		return nil, err
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(m.model),
		Input: responses.ResponseNewParamsInputUnion{OfInputItemList: input},
		Tools: tools.ToOpenAITools(),
	}
	if system != "" {
		params.Instructions = openai.String(system)
	}

	resp, err := m.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	reply := &ModelReply{Text: resp.OutputText()}
	for _, item := range resp.Output {
		if item.Type != "function_call" {
			continue
		}
		fc := item.AsFunctionCall()
		reply.Calls = append(reply.Calls, ToolCall{ID: fc.CallID, Name: fc.Name, Args: json.RawMessage(fc.Arguments)})
	}
	return reply, nil
}

func toOpenAIInput(turns []Turn) (responses.ResponseInputParam, error) {
	items := make(responses.ResponseInputParam, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case RoleUser:
			items = append(items, responses.ResponseInputItemParamOfMessage(t.Text, responses.EasyInputMessageRoleUser))
		case RoleModel:
			if t.Text != "" {
				items = append(items, responses.ResponseInputItemParamOfMessage(t.Text, responses.EasyInputMessageRoleAssistant))
			}
			for _, c := range t.Calls {
				args := string(c.Args)
				if args == "" {
					args = "{}"
				}
				items = append(items, responses.ResponseInputItemParamOfFunctionCall(args, c.ID, c.Name))
			}
		case RoleTool:
			for _, r := range t.Results {
				items = append(items, responses.ResponseInputItemParamOfFunctionCallOutput(r.CallID, r.Output))
			}
		default:
			return nil, fmt.Errorf("unsupported role %q", t.Role)
		}
	}
	return items, nil
}
