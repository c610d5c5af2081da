package engine

import (
	"context"
	"testing"

	"github.com/agentexec/core/internal/ai"
	"github.com/agentexec/core/internal/model"
	"github.com/agentexec/core/internal/repo/memory"
)

func TestRunAssemblesDirectResponseTask(t *testing.T) {
	fa := &fakeAI{plan: ai.Plan{DirectResponse: "Hi there"}}
	ec := ExecutionContext{
		TaskId:    "task-5",
		ContextId: "ctx-1",
		AIService: fa,
		StepRepo:  memory.NewStepStore(),
		EventSink: NopSink{},
	}
	taskRepo := memory.NewTaskStore()
	user := userMessage("Hello")

	task, err := Run(context.Background(), ec, Planned{}, user, []model.Message{user}, taskRepo)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if task.Status.State != model.TaskStateCompleted {
		t.Fatalf("expected completed state, got %v", task.Status.State)
	}
	if len(task.History) != 2 {
		t.Fatalf("expected user+agent history, got %d entries", len(task.History))
	}

	stored, err := taskRepo.GetTask(context.Background(), "task-5")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if stored.TaskId != "task-5" {
		t.Fatalf("unexpected stored task id %q", stored.TaskId)
	}
}
