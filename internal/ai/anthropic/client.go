// Package anthropic provides an ai.Service implementation backed by the
// Anthropic Claude Messages API, grounded on the model gateway's Anthropic
// adapter: a narrow MessagesClient interface so tests can substitute a
// fake, translation between the engine's history/tool types and the SDK's
// wire types, and a single default model/token-budget configuration.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/agentexec/core/internal/ai"
	"github.com/agentexec/core/internal/model"
	"github.com/agentexec/core/internal/tools"
)

// MessagesClient captures the subset of the Anthropic SDK used by the
// adapter, so callers can pass either a real client or a test double.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Options configures the adapter's defaults.
type Options struct {
	DefaultModel     string
	MaxOutputTokens  int
	Temperature      float64
}

// Client implements ai.Service on top of Anthropic Claude Messages.
type Client struct {
	msg          MessagesClient
	defaultModel string
	maxTokens    int
	temperature  float64
}

var _ ai.Service = (*Client)(nil)

// New builds an Anthropic-backed Service from an explicit MessagesClient.
func New(msg MessagesClient, opts Options) (*Client, error) {
	if msg == nil {
		return nil, errors.New("anthropic: messages client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("anthropic: default model identifier is required")
	}
	maxTokens := opts.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Client{
		msg:          msg,
		defaultModel: opts.DefaultModel,
		maxTokens:    maxTokens,
		temperature:  opts.Temperature,
	}, nil
}

// NewFromAPIKey constructs a client using the default Anthropic HTTP
// transport, authenticating with apiKey via the SDK's option helpers.
func NewFromAPIKey(apiKey, defaultModel string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	sc := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&sc.Messages, Options{DefaultModel: defaultModel})
}

// DefaultProvider identifies this Service as "anthropic".
func (c *Client) DefaultProvider() string { return "anthropic" }

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
// of tool calls, given the task history so far and the tools on offer.
func (c *Client) GeneratePlan(ctx context.Context, history []model.Message, catalogue []tools.Spec) (ai.Plan, error) {
	params, err := c.buildParams(history, encodeToolSpecs(catalogue))
	if err != nil {
		return ai.Plan{}, err
	}

	msg, err := c.msg.New(ctx, params)
	if err != nil {
		return ai.Plan{}, fmt.Errorf("anthropic messages.new: %w", err)
	}
	return decodePlan(msg)
}

// GenerateResponse asks the model to synthesize a final textual reply given
// the task's full history, including tool results already recorded in it.
func (c *Client) GenerateResponse(ctx context.Context, history []model.Message) (string, error) {
	params, err := c.buildParams(history, nil)
	if err != nil {
		return "", err
	}

	msg, err := c.msg.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages.new: %w", err)
	}
	return extractText(msg), nil
}

func (c *Client) buildParams(history []model.Message, toolParams []sdk.ToolUnionParam) (sdk.MessageNewParams, error) {
	if len(history) == 0 {
		return sdk.MessageNewParams{}, errors.New("anthropic: history is required")
	}

	msgs := make([]sdk.MessageParam, 0, len(history))
	for _, m := range history {
		blocks := make([]sdk.ContentBlockParamUnion, 0, len(m.Parts))
		for _, p := range m.Parts {
			if p.Kind == model.PartKindText && p.Text != "" {
				blocks = append(blocks, sdk.NewTextBlock(p.Text))
			}
		}
		if len(blocks) == 0 {
			continue
		}
		if m.Role == model.RoleAgent {
			msgs = append(msgs, sdk.NewAssistantMessage(blocks...))
		} else {
			msgs = append(msgs, sdk.NewUserMessage(blocks...))
		}
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.defaultModel),
		MaxTokens: int64(c.maxTokens),
		Messages:  msgs,
	}
	if c.temperature > 0 {
		params.Temperature = sdk.Float(c.temperature)
	}
	if len(toolParams) > 0 {
		params.Tools = toolParams
	}
	return params, nil
}

func encodeToolSpecs(catalogue []tools.Spec) []sdk.ToolUnionParam {
	out := make([]sdk.ToolUnionParam, 0, len(catalogue))
	for _, spec := range catalogue {
		schema := sdk.ToolInputSchemaParam{}
		if len(spec.Schema) > 0 {
			var m map[string]any
			if err := json.Unmarshal(spec.Schema, &m); err == nil {
				schema.ExtraFields = m
			}
		}
		u := sdk.ToolUnionParamOfTool(schema, string(spec.Name))
		if u.OfTool != nil {
			u.OfTool.Description = sdk.String(spec.Description)
		}
		out = append(out, u)
	}
	return out
}

func extractText(msg *sdk.Message) string {
	text := ""
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text
}

// decodePlan inspects the model's response for tool_use blocks; if none are
// present, the response text becomes a direct response.
func decodePlan(msg *sdk.Message) (ai.Plan, error) {
	var steps []ai.PlannedStep
	for _, block := range msg.Content {
		if block.Type != "tool_use" {
			continue
		}
		var args map[string]any
		if len(block.Input) > 0 {
			if err := json.Unmarshal(block.Input, &args); err != nil {
				return ai.Plan{}, fmt.Errorf("anthropic: decode tool args: %w", err)
			}
		}
		steps = append(steps, ai.PlannedStep{ToolName: tools.Name(block.Name), Args: args})
	}
	if len(steps) > 0 {
		return ai.Plan{Steps: steps}, nil
	}
	return ai.Plan{DirectResponse: extractText(msg)}, nil
}
