package engine

import (
	"context"
	"testing"

	"github.com/agentexec/core/internal/ai"
	"github.com/agentexec/core/internal/model"
	"github.com/agentexec/core/internal/repo/memory"
	"github.com/agentexec/core/internal/tools"
)

type fakeAI struct {
	plan         ai.Plan
	planErr      error
	response     string
	responseErr  error
	lastSummary  []model.Message
}

func (f *fakeAI) DefaultProvider() string       { return "fake" }
func (f *fakeAI) DefaultModel() string          { return "fake-model" }
func (f *fakeAI) DefaultMaxOutputTokens() int   { return 1024 }

func (f *fakeAI) ListAvailableToolsForAgent(ctx context.Context, agentName string) ([]tools.Spec, error) {
	return []tools.Spec{{Name: "clock.lookup", Description: "look up time"}}, nil
}

func (f *fakeAI) GeneratePlan(ctx context.Context, history []model.Message, catalogue []tools.Spec) (ai.Plan, error) {
	return f.plan, f.planErr
}

func (f *fakeAI) GenerateResponse(ctx context.Context, history []model.Message) (string, error) {
	f.lastSummary = history
	return f.response, f.responseErr
}

type fakeExecutor struct {
	result tools.Result
	err    error
}

func (f *fakeExecutor) Execute(ctx context.Context, call tools.Call) (tools.Result, error) {
	return f.result, f.err
}

func userMessage(text string) model.Message {
	return model.Message{Role: model.RoleUser, Parts: []model.Part{model.NewTextPart(text)}}
}

func TestPlannedDirectResponse(t *testing.T) {
	fa := &fakeAI{plan: ai.Plan{DirectResponse: "Hi there"}}
	ec := ExecutionContext{
		TaskId:    "task-1",
		ContextId: "ctx-1",
		AIService: fa,
		StepRepo:  memory.NewStepStore(),
		EventSink: NopSink{},
	}

	result, err := Planned{}.Execute(context.Background(), ec, []model.Message{userMessage("Hello")})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Text != "Hi there" {
		t.Fatalf("unexpected text %q", result.Text)
	}
	if len(result.ToolCalls) != 0 {
		t.Fatalf("expected no tool calls, got %d", len(result.ToolCalls))
	}

	steps, _ := ec.StepRepo.ListSteps(context.Background(), "task-1")
	if len(steps) != 3 {
		t.Fatalf("expected Understanding+Planning+Completion steps, got %d", len(steps))
	}
	if steps[0].Type != model.StepTypeUnderstanding || steps[len(steps)-1].Type != model.StepTypeCompletion {
		t.Fatalf("unexpected step sequence: %+v", steps)
	}
}

func TestPlannedSingleToolCall(t *testing.T) {
	fa := &fakeAI{
		plan: ai.Plan{Steps: []ai.PlannedStep{
			{ToolName: "clock.lookup", Args: map[string]any{"tz": "Asia/Tokyo"}},
		}},
		response: "It's 14:02 in Tokyo.",
	}
	executor := &fakeExecutor{result: tools.Result{Text: `{"time":"14:02"}`}}
	ec := ExecutionContext{
		TaskId:       "task-2",
		ContextId:    "ctx-1",
		AIService:    fa,
		ToolExecutor: executor,
		StepRepo:     memory.NewStepStore(),
		EventSink:    NopSink{},
	}

	result, err := Planned{}.Execute(context.Background(), ec, []model.Message{userMessage("What time is it in Tokyo?")})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(result.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(result.ToolCalls))
	}
	if result.Text != "It's 14:02 in Tokyo." {
		t.Fatalf("unexpected text %q", result.Text)
	}

	steps, _ := ec.StepRepo.ListSteps(context.Background(), "task-2")
	var sawToolExecution bool
	for _, s := range steps {
		if s.Type == model.StepTypeToolExecution {
			sawToolExecution = true
			if s.Status != model.StepStatusCompleted {
				t.Fatalf("expected completed tool execution step, got %v", s.Status)
			}
		}
	}
	if !sawToolExecution {
		t.Fatal("expected a ToolExecution step to be recorded")
	}
}

func TestPlannedFailedToolStillCompletesTask(t *testing.T) {
	fa := &fakeAI{
		plan: ai.Plan{Steps: []ai.PlannedStep{
			{ToolName: "clock.lookup", Args: map[string]any{"tz": "Asia/Tokyo"}},
		}},
		response: "Sorry, that tool timed out.",
	}
	executor := &fakeExecutor{result: tools.Result{Text: "timeout", IsError: true}}
	ec := ExecutionContext{
		TaskId:       "task-3",
		ContextId:    "ctx-1",
		AIService:    fa,
		ToolExecutor: executor,
		StepRepo:     memory.NewStepStore(),
		EventSink:    NopSink{},
	}

	result, err := Planned{}.Execute(context.Background(), ec, []model.Message{userMessage("What time is it?")})
	if err != nil {
		t.Fatalf("execute should not fail the task on a tool error: %v", err)
	}
	if result.Text != "Sorry, that tool timed out." {
		t.Fatalf("unexpected text %q", result.Text)
	}

	steps, _ := ec.StepRepo.ListSteps(context.Background(), "task-3")
	for _, s := range steps {
		if s.Type == model.StepTypeToolExecution && s.Status != model.StepStatusFailed {
			t.Fatalf("expected failed tool execution step, got %v", s.Status)
		}
	}
}

func TestPlannedTemplateValidationFailureSkipsExecution(t *testing.T) {
	fa := &fakeAI{
		plan: ai.Plan{Steps: []ai.PlannedStep{
			{ToolName: "clock.lookup", Args: map[string]any{"tz": "{{tool_5.bar}}"}},
		}},
		response: "I couldn't complete that request.",
	}
	executor := &fakeExecutor{}
	ec := ExecutionContext{
		TaskId:       "task-4",
		ContextId:    "ctx-1",
		AIService:    fa,
		ToolExecutor: executor,
		StepRepo:     memory.NewStepStore(),
		EventSink:    NopSink{},
	}

	result, err := Planned{}.Execute(context.Background(), ec, []model.Message{userMessage("Do the thing")})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(result.ToolCalls) != 0 {
		t.Fatalf("expected zero tool calls on validation failure, got %d", len(result.ToolCalls))
	}

	steps, _ := ec.StepRepo.ListSteps(context.Background(), "task-4")
	for _, s := range steps {
		if s.Type == model.StepTypeToolExecution {
			t.Fatal("expected zero ToolExecution steps on validation failure")
		}
	}
	if fa.lastSummary == nil {
		t.Fatal("expected generate response to be called with a validation-failure summary")
	}
}
