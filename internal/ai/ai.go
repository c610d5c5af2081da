// Package ai declares the model-provider boundary the execution engine
// plans and synthesizes responses against. Concrete providers live in
// ai/anthropic and ai/openai; ai/ratelimit wraps any Service with
// token-bucket pacing.
package ai

import (
	"context"

	"github.com/agentexec/core/internal/model"
	"github.com/agentexec/core/internal/tools"
)

// PlannedStep is a single tool the planner chose to run, with its arguments
// still carrying unresolved `{{tool_N.field}}` placeholders for earlier
// steps' outputs.
type PlannedStep struct {
	ToolName tools.Name     `json:"toolName"`
	Args     map[string]any `json:"args"`
}

// Plan is the planner's output for one turn: either a direct textual
// response, or an ordered list of tool calls to execute before responding.
type Plan struct {
	DirectResponse string        `json:"directResponse,omitempty"`
	Steps          []PlannedStep `json:"steps,omitempty"`
	// TerminalOnSuccess is carried with the plan but not read by the
	// Planned strategy, which stops early only after a tool whose
	// tools.Spec sets TerminalOnSuccess succeeds.
	TerminalOnSuccess bool `json:"terminalOnSuccess,omitempty"`
}

// HasTools reports whether the plan chose to call tools rather than
// respond directly.
func (p Plan) HasTools() bool {
	return len(p.Steps) > 0
}

// Service is the model-provider boundary: given the running task's history
// and the tool catalogue available to the agent, decide what to do next and
// later synthesize the final reply from tool results.
type Service interface {
	// DefaultProvider names the provider backing this Service instance,
	// e.g. "anthropic" or "openai".
	DefaultProvider() string
	// DefaultModel is the model identifier used when a request does not
	// override it.
	DefaultModel() string
	// DefaultMaxOutputTokens bounds completion length when a request does
	// not override it.
	DefaultMaxOutputTokens() int

	// ListAvailableToolsForAgent returns the tool catalogue the planner
	// should consider for agentName.
	ListAvailableToolsForAgent(ctx context.Context, agentName string) ([]tools.Spec, error)

	// GeneratePlan decides the next step for a task given its history so
	// far: either a direct response or a set of tool calls.
	GeneratePlan(ctx context.Context, history []model.Message, catalogue []tools.Spec) (Plan, error)

	// GenerateResponse synthesizes the final reply once all planned tool
	// calls (or a direct-response plan) have been resolved.
	GenerateResponse(ctx context.Context, history []model.Message) (string, error)
}
