package memory

import (
	"context"
	"testing"

	"github.com/agentexec/core/internal/ids"
	"github.com/agentexec/core/internal/model"
	"github.com/agentexec/core/internal/repo"
)

func TestTaskStoreSaveGet(t *testing.T) {
	s := NewTaskStore()
	ctx := context.Background()
	taskID := ids.NewTaskId()

	task := &model.Task{TaskId: taskID, ContextId: "ctx-1"}
	if err := s.SaveTask(ctx, task); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.GetTask(ctx, taskID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ContextId != "ctx-1" {
		t.Fatalf("unexpected context id %q", got.ContextId)
	}

	if _, err := s.GetTask(ctx, ids.NewTaskId()); err != repo.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTaskStoreListByContext(t *testing.T) {
	s := NewTaskStore()
	ctx := context.Background()

	_ = s.SaveTask(ctx, &model.Task{TaskId: ids.NewTaskId(), ContextId: "ctx-a"})
	_ = s.SaveTask(ctx, &model.Task{TaskId: ids.NewTaskId(), ContextId: "ctx-a"})
	_ = s.SaveTask(ctx, &model.Task{TaskId: ids.NewTaskId(), ContextId: "ctx-b"})

	got, err := s.ListTasksByContext(ctx, "ctx-a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(got))
	}
}

func TestStepStoreSaveReplacesSameID(t *testing.T) {
	s := NewStepStore()
	ctx := context.Background()
	taskID := ids.NewTaskId()
	stepID := ids.NewStepId()

	_ = s.SaveStep(ctx, &model.ExecutionStep{StepId: stepID, TaskId: taskID, Status: model.StepStatusPending})
	_ = s.SaveStep(ctx, &model.ExecutionStep{StepId: stepID, TaskId: taskID, Status: model.StepStatusCompleted})

	steps, err := s.ListSteps(ctx, taskID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(steps) != 1 {
		t.Fatalf("expected replacement not append, got %d steps", len(steps))
	}
	if steps[0].Status != model.StepStatusCompleted {
		t.Fatalf("expected updated status, got %v", steps[0].Status)
	}
}

func TestAgentStoreRoundTrip(t *testing.T) {
	s := NewAgentStore()
	ctx := context.Background()

	if err := s.SaveAgentService(ctx, &model.AgentService{Name: "echo", Status: model.AgentStatusRunning}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.GetAgentService(ctx, "echo")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.AgentStatusRunning {
		t.Fatalf("unexpected status %v", got.Status)
	}

	all, err := s.ListAgentServices(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 agent, got %d", len(all))
	}
}
