// Package openai provides an ai.Service implementation backed by the
// OpenAI Chat Completions API via github.com/openai/openai-go, mirroring
// the narrow-client-interface and options pattern used by the Anthropic
// adapter so either provider can be wired in behind the same ai.Service
// boundary.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/agentexec/core/internal/ai"
	"github.com/agentexec/core/internal/model"
	"github.com/agentexec/core/internal/tools"
)

// ChatClient captures the subset of the openai-go client used by the
// adapter, so callers can substitute a test double.
type ChatClient interface {
	New(ctx context.Context, body sdk.ChatCompletionNewParams, opts ...option.RequestOption) (*sdk.ChatCompletion, error)
}

// Options configures the adapter's defaults.
type Options struct {
	DefaultModel    string
	MaxOutputTokens int
	Temperature     float64
}

// Client implements ai.Service on top of OpenAI Chat Completions.
type Client struct {
	chat         ChatClient
	defaultModel string
	maxTokens    int
	temperature  float64
}

var _ ai.Service = (*Client)(nil)

// New builds an OpenAI-backed Service from an explicit ChatClient.
func New(chat ChatClient, opts Options) (*Client, error) {
	if chat == nil {
		return nil, errors.New("openai: chat client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("openai: default model identifier is required")
	}
	maxTokens := opts.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Client{
		chat:         chat,
		defaultModel: opts.DefaultModel,
		maxTokens:    maxTokens,
		temperature:  opts.Temperature,
	}, nil
}

// NewFromAPIKey constructs a client using the default openai-go HTTP
// transport, authenticating with apiKey via option helpers.
func NewFromAPIKey(apiKey, defaultModel string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	sc := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&sc.Chat.Completions, Options{DefaultModel: defaultModel})
}

// DefaultProvider identifies this Service as "openai".
func (c *Client) DefaultProvider() string { return "openai" }

// DefaultModel returns the configured default model identifier.
func (c *Client) DefaultModel() string { return c.defaultModel }

// DefaultMaxOutputTokens returns the configured completion token cap.
func (c *Client) DefaultMaxOutputTokens() int { return c.maxTokens }

// ListAvailableToolsForAgent returns no tools: this adapter has no
// agent-scoped catalogue, and the Planned strategy takes its catalogue only
// from this method.
func (c *Client) ListAvailableToolsForAgent(ctx context.Context, agentName string) ([]tools.Spec, error) {
	return nil, nil
}

// GeneratePlan asks the model to choose between a direct response and a set
// of tool calls.
func (c *Client) GeneratePlan(ctx context.Context, history []model.Message, catalogue []tools.Spec) (ai.Plan, error) {
	params, err := c.buildParams(history, encodeToolSpecs(catalogue))
	if err != nil {
		return ai.Plan{}, err
	}

	resp, err := c.chat.New(ctx, params)
	if err != nil {
		return ai.Plan{}, fmt.Errorf("openai chat completion: %w", err)
	}
	return decodePlan(resp)
}

// GenerateResponse asks the model to synthesize a final textual reply.
func (c *Client) GenerateResponse(ctx context.Context, history []model.Message) (string, error) {
	params, err := c.buildParams(history, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.chat.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	return extractText(resp), nil
}

func (c *Client) buildParams(history []model.Message, toolParams []sdk.ChatCompletionToolParam) (sdk.ChatCompletionNewParams, error) {
	if len(history) == 0 {
		return sdk.ChatCompletionNewParams{}, errors.New("openai: history is required")
	}

	msgs := make([]sdk.ChatCompletionMessageParamUnion, 0, len(history))
	for _, m := range history {
		text := concatTextParts(m)
		if text == "" {
			continue
		}
		if m.Role == model.RoleAgent {
			msgs = append(msgs, sdk.AssistantMessage(text))
		} else {
			msgs = append(msgs, sdk.UserMessage(text))
		}
	}

	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(c.defaultModel),
		Messages: msgs,
	}
	if c.maxTokens > 0 {
		params.MaxTokens = sdk.Int(int64(c.maxTokens))
	}
	if c.temperature > 0 {
		params.Temperature = sdk.Float(c.temperature)
	}
	if len(toolParams) > 0 {
		params.Tools = toolParams
	}
	return params, nil
}

func concatTextParts(m model.Message) string {
	text := ""
	for _, p := range m.Parts {
		if p.Kind == model.PartKindText {
			text += p.Text
		}
	}
	return text
}

func encodeToolSpecs(catalogue []tools.Spec) []sdk.ChatCompletionToolParam {
	out := make([]sdk.ChatCompletionToolParam, 0, len(catalogue))
	for _, spec := range catalogue {
		var schema map[string]any
		_ = json.Unmarshal(spec.Schema, &schema)
		out = append(out, sdk.ChatCompletionToolParam{
			Function: sdk.FunctionDefinitionParam{
				Name:        string(spec.Name),
				Description: sdk.String(spec.Description),
				Parameters:  schema,
			},
		})
	}
	return out
}

func extractText(resp *sdk.ChatCompletion) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Message.Content
}

func decodePlan(resp *sdk.ChatCompletion) (ai.Plan, error) {
	if len(resp.Choices) == 0 {
		return ai.Plan{}, errors.New("openai: empty completion")
	}
	msg := resp.Choices[0].Message

	var steps []ai.PlannedStep
	for _, call := range msg.ToolCalls {
		var args map[string]any
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				return ai.Plan{}, fmt.Errorf("openai: decode tool args: %w", err)
			}
		}
		steps = append(steps, ai.PlannedStep{ToolName: tools.Name(call.Function.Name), Args: args})
	}
	if len(steps) > 0 {
		return ai.Plan{Steps: steps}, nil
	}
	return ai.Plan{DirectResponse: msg.Content}, nil
}
