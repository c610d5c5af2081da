package model

import (
	"strconv"
	"time"

	"github.com/agentexec/core/internal/ids"
)

// StepType identifies the kind of work an ExecutionStep represents.
type StepType string

const (
	StepTypeUnderstanding  StepType = "understanding"
	StepTypePlanning       StepType = "planning"
	StepTypeSkillUsage     StepType = "skill_usage"
	StepTypeToolExecution  StepType = "tool_execution"
	StepTypeCompletion     StepType = "completion"
)

// IsInstant reports whether steps of this type can complete synchronously,
// with no separate in-progress phase. It is false only for tool execution.
// The Planned strategy still records its Planning step InProgress until the
// plan returns.
func (t StepType) IsInstant() bool {
	return t != StepTypeToolExecution
}

// StepStatus is the lifecycle state of an ExecutionStep.
type StepStatus string

const (
	StepStatusPending    StepStatus = "pending"
	StepStatusInProgress StepStatus = "in_progress"
	StepStatusCompleted  StepStatus = "completed"
	StepStatusFailed     StepStatus = "failed"
)

// PlannedTool is a single tool invocation chosen by the planner, with the
// arguments exactly as planned: `{{tool_N.field}}` placeholders are not yet
// substituted.
type PlannedTool struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// StepContent carries the type-specific payload of an ExecutionStep. Exactly
// the fields relevant to the step's Type are populated.
type StepContent struct {
	// Title is a short human-readable label, e.g. "Understanding request".
	Title string `json:"title"`
	// Tools lists the tools chosen for a tool_execution step.
	Tools []PlannedTool `json:"tools,omitempty"`
	// ToolName and ToolArgs are populated for a single-tool execution step.
	ToolName string         `json:"toolName,omitempty"`
	ToolArgs map[string]any `json:"toolArgs,omitempty"`
	// Summary is populated for a multi-tool execution step, e.g. "3 tools".
	Summary string `json:"summary,omitempty"`
	// Result carries the textual outcome once the step completes.
	Result string `json:"result,omitempty"`
}

// NewUnderstandingContent builds the content for an understanding step.
func NewUnderstandingContent() StepContent {
	return StepContent{Title: "Understanding request"}
}

// NewPlanningContent builds the content for a planning step.
func NewPlanningContent() StepContent {
	return StepContent{Title: "Planning approach"}
}

// NewToolExecutionContent builds the content for a tool execution step,
// choosing the single-tool or aggregated-summary shape based on the number
// of tools planned.
func NewToolExecutionContent(tools []PlannedTool) StepContent {
	if len(tools) == 1 {
		return StepContent{
			Title:    "Executing tool",
			Tools:    tools,
			ToolName: tools[0].Name,
			ToolArgs: tools[0].Args,
		}
	}
	return StepContent{
		Title:   "Executing tools",
		Tools:   tools,
		Summary: toolCountSummary(len(tools)),
	}
}

func toolCountSummary(n int) string {
	if n == 1 {
		return "1 tool"
	}
	return strconv.Itoa(n) + " tools"
}

// NewCompletionContent builds the content for the final completion step.
func NewCompletionContent() StepContent {
	return StepContent{Title: "Finalizing response"}
}

// ExecutionStep is a single recorded phase of the engine's control loop,
// surfaced to clients via the broadcaster so they can watch a task progress
// in real time.
type ExecutionStep struct {
	StepId     ids.StepId   `json:"stepId"`
	TaskId     ids.TaskId   `json:"taskId"`
	Type       StepType     `json:"type"`
	Status     StepStatus   `json:"status"`
	Content    StepContent  `json:"content"`
	StartedAt  time.Time    `json:"startedAt"`
	EndedAt    *time.Time   `json:"endedAt,omitempty"`
	// DurationMs is the wall-clock time from StartedAt to EndedAt, in
	// milliseconds. Populated once the step reaches a terminal status
	// (Completed or Failed); nil while Pending or InProgress.
	DurationMs *int64 `json:"durationMs,omitempty"`
}
