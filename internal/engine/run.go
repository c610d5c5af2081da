package engine

import (
	"context"
	"fmt"

	"github.com/agentexec/core/internal/engine/taskbuilder"
	"github.com/agentexec/core/internal/model"
	"github.com/agentexec/core/internal/repo"
)

// Run executes strategy over messages and assembles the resulting Task,
// persisting it through taskRepo. userMessage is the inbound message that
// started (or continued) this task; it becomes the first history entry.
func Run(
	ctx context.Context,
	ec ExecutionContext,
	strategy Strategy,
	userMessage model.Message,
	messages []model.Message,
	taskRepo repo.TaskRepository,
) (*model.Task, error) {
	result, err := strategy.Execute(ctx, ec, messages)
	if err != nil {
		failed := taskbuilder.Build(ec.TaskId, ec.ContextId, taskbuilder.Outcome{
			UserMessage: userMessage,
			DirectText:  "",
			FinalText:   err.Error(),
			State:       model.TaskStateFailed,
		})
		if saveErr := taskRepo.SaveTask(ctx, failed); saveErr != nil {
			return nil, fmt.Errorf("engine: execute failed (%w) and save failed task failed: %v", err, saveErr)
		}
		return failed, err
	}

	state := model.TaskStateCompleted
	if result.Canceled {
		state = model.TaskStateCanceled
	}

	outcome := taskbuilder.Outcome{
		UserMessage: userMessage,
		DirectText:  result.Text,
		FinalText:   result.Text,
		ToolCalls:   toRecords(result.ToolCalls),
		State:       state,
	}

	task := taskbuilder.Build(ec.TaskId, ec.ContextId, outcome)
	if err := taskRepo.SaveTask(ctx, task); err != nil {
		return nil, fmt.Errorf("engine: save task: %w", err)
	}
	return task, nil
}

func toRecords(outcomes []ToolCallOutcome) []taskbuilder.ToolCallRecord {
	records := make([]taskbuilder.ToolCallRecord, len(outcomes))
	for i, o := range outcomes {
		records[i] = taskbuilder.ToolCallRecord{CallID: o.CallID, ToolName: o.Name, Args: o.Args, Result: o.Result}
	}
	return records
}
