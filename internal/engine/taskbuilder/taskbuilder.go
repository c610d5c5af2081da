// Package taskbuilder assembles the final Task record from a strategy's
// result: synthetic per-iteration history messages, the final synthesized
// reply, and any artifacts a tool result advertised, grounded on the
// original service's task assembly step.
package taskbuilder

import (
	"encoding/json"
	"fmt"

	"github.com/agentexec/core/internal/ids"
	"github.com/agentexec/core/internal/model"
	"github.com/agentexec/core/internal/tools"
)

// ToolCallRecord is one resolved tool invocation and its outcome, as
// produced by the Planned strategy's execution phase.
type ToolCallRecord struct {
	CallID   ids.AiToolCallId
	ToolName tools.Name
	Args     map[string]any
	Result   tools.Result
}

// Outcome is what the Planned strategy hands to the task builder once it
// has finished: either a direct response, or a single iteration of
// tool calls plus the synthesized final reply.
type Outcome struct {
	UserMessage  model.Message
	DirectText   string
	ToolCalls    []ToolCallRecord
	FinalText    string
	State        model.TaskState
}

// Build assembles the final Task from outcome, taskID, and contextID. It
// implements the exact message/metadata shapes the original service uses:
// an "Executing {N} tool(s)..." agent message, a "Tool '{name}' result:
// {text}" user message per call, and a final agent message flagged
// final_synthesis. Artifacts are emitted only for tool results whose
// structured content advertised an artifact id.
func Build(taskID ids.TaskId, contextID ids.ContextId, outcome Outcome) *model.Task {
	task := &model.Task{TaskId: taskID, ContextId: contextID}
	task.AppendHistory(outcome.UserMessage)

	if len(outcome.ToolCalls) == 0 {
		task.AppendHistory(finalMessage(taskID, contextID, outcome.DirectText))
		task.SetStatus(stateOrDefault(outcome.State), nil)
		return task
	}

	task.AppendHistory(executingMessage(taskID, contextID, outcome.ToolCalls))
	for i, call := range outcome.ToolCalls {
		task.AppendHistory(toolResultMessage(taskID, contextID, call))
		if artifactID, ok := call.Result.ArtifactID(); ok {
			task.Artifacts = append(task.Artifacts, buildArtifact(taskID, contextID, call, artifactID, i))
		}
	}
	task.AppendHistory(finalMessage(taskID, contextID, outcome.FinalText))
	task.SetStatus(stateOrDefault(outcome.State), nil)
	return task
}

func stateOrDefault(s model.TaskState) model.TaskState {
	if s == "" {
		return model.TaskStateCompleted
	}
	return s
}

func executingMessage(taskID ids.TaskId, contextID ids.ContextId, calls []ToolCallRecord) model.Message {
	type callRef struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	refs := make([]callRef, len(calls))
	for i, c := range calls {
		refs[i] = callRef{ID: string(c.CallID), Name: string(c.ToolName)}
	}

	return model.Message{
		MessageId: ids.NewMessageId(),
		TaskId:    taskID,
		ContextId: contextID,
		Role:      model.RoleAgent,
		Parts:     []model.Part{model.NewTextPart(fmt.Sprintf("Executing %d tool(s)...", len(calls)))},
		Metadata: map[string]any{
			"iteration":  1,
			"tool_calls": refs,
		},
	}
}

func toolResultMessage(taskID ids.TaskId, contextID ids.ContextId, call ToolCallRecord) model.Message {
	return model.Message{
		MessageId: ids.NewMessageId(),
		TaskId:    taskID,
		ContextId: contextID,
		Role:      model.RoleUser,
		Parts:     []model.Part{model.NewTextPart(fmt.Sprintf("Tool '%s' result: %s", call.ToolName, call.Result.Text))},
		Metadata: map[string]any{
			"iteration":    1,
			"tool_results": true,
		},
	}
}

func finalMessage(taskID ids.TaskId, contextID ids.ContextId, text string) model.Message {
	return model.Message{
		MessageId: ids.NewMessageId(),
		TaskId:    taskID,
		ContextId: contextID,
		Role:      model.RoleAgent,
		Parts:     []model.Part{model.NewTextPart(text)},
		Metadata: map[string]any{
			"iteration":       1,
			"final_synthesis": true,
		},
	}
}

func buildArtifact(taskID ids.TaskId, contextID ids.ContextId, call ToolCallRecord, artifactID string, index int) model.Artifact {
	status := "success"
	if call.Result.IsError {
		status = "error"
	}

	data := map[string]any{
		"call_id":   string(call.CallID),
		"tool_name": string(call.ToolName),
		"output":    call.Result.StructuredContent,
		"status":    status,
	}
	raw, _ := json.Marshal(data)

	return model.Artifact{
		ArtifactId: ids.ArtifactId(artifactID),
		Parts:      []model.Part{model.NewDataPart(raw)},
		Metadata: map[string]any{
			"kind":              "tool_execution",
			"context_id":        string(contextID),
			"task_id":           string(taskID),
			"mcp_execution_id":  string(call.CallID),
			"tool_name":         string(call.ToolName),
			"execution_index":   index,
		},
	}
}
