package engine

import (
	"context"
	"time"

	"goa.design/clue/log"

	"github.com/agentexec/core/internal/ids"
	"github.com/agentexec/core/internal/model"
)

// tracker records ExecutionStep rows through their lifecycle and mirrors
// each transition onto the event sink. Sink-send failures are never
// surfaced to the caller: per the concurrency model, a disconnected
// subscriber must never fail a task.
type tracker struct {
	ec   ExecutionContext
	ctx  context.Context
}

func newTracker(ctx context.Context, ec ExecutionContext) *tracker {
	return &tracker{ec: ec, ctx: ctx}
}

// startInstant records and immediately completes a step whose type is
// instant (Understanding, Completion, and SkillUsage), then broadcasts it.
func (t *tracker) startInstant(stepType model.StepType, content model.StepContent) model.ExecutionStep {
	now := time.Now().UTC()
	step := model.ExecutionStep{
		StepId:     ids.NewStepId(),
		TaskId:     t.ec.TaskId,
		Type:       stepType,
		Status:     model.StepStatusCompleted,
		Content:    content,
		StartedAt:  now,
		EndedAt:    &now,
		DurationMs: durationMs(now, now),
	}
	t.save(&step)
	t.broadcastStep(step)
	return step
}

// startAsync records a step as InProgress (used for Planning, which stays
// in progress until the plan returns) and broadcasts it.
func (t *tracker) startAsync(stepType model.StepType, content model.StepContent) model.ExecutionStep {
	step := model.ExecutionStep{
		StepId:    ids.NewStepId(),
		TaskId:    t.ec.TaskId,
		Type:      stepType,
		Status:    model.StepStatusInProgress,
		Content:   content,
		StartedAt: time.Now().UTC(),
	}
	t.save(&step)
	t.broadcastStep(step)
	return step
}

// complete transitions step to Completed with the given result text and
// persists/broadcasts the update.
func (t *tracker) complete(step model.ExecutionStep, content model.StepContent) model.ExecutionStep {
	now := time.Now().UTC()
	step.Status = model.StepStatusCompleted
	step.Content = content
	step.EndedAt = &now
	step.DurationMs = durationMs(step.StartedAt, now)
	t.save(&step)
	t.broadcastStep(step)
	return step
}

// fail transitions step to Failed with the given error text and
// persists/broadcasts the update.
func (t *tracker) fail(step model.ExecutionStep, errText string) model.ExecutionStep {
	now := time.Now().UTC()
	step.Status = model.StepStatusFailed
	step.Content.Result = errText
	step.EndedAt = &now
	step.DurationMs = durationMs(step.StartedAt, now)
	t.save(&step)
	t.broadcastStep(step)
	return step
}

// durationMs computes the millisecond duration between a step's start and
// end, returned as a pointer so ExecutionStep.DurationMs can stay nil for
// steps that never reached a terminal status.
func durationMs(started, ended time.Time) *int64 {
	ms := ended.Sub(started).Milliseconds()
	return &ms
}

func (t *tracker) save(step *model.ExecutionStep) {
	if t.ec.StepRepo == nil {
		return
	}
	if err := t.ec.StepRepo.SaveStep(t.ctx, step); err != nil {
		log.Printf(t.ctx, "engine: failed to persist execution step %s: %v", step.StepId, err)
	}
}

func (t *tracker) broadcastStep(step model.ExecutionStep) {
	t.ec.sink().Send(Event{
		Kind:      EventKindStepUpdate,
		TaskId:    t.ec.TaskId,
		ContextId: t.ec.ContextId,
		Step:      &step,
	})
}

func (t *tracker) broadcastStatus(state model.TaskState, final bool) {
	status := model.TaskStatus{State: state}
	t.ec.sink().Send(Event{
		Kind:      EventKindStatusUpdate,
		TaskId:    t.ec.TaskId,
		ContextId: t.ec.ContextId,
		Status:    &status,
		Final:     final,
	})
}

func (t *tracker) broadcastText(text string) {
	t.ec.sink().Send(Event{
		Kind:      EventKindText,
		TaskId:    t.ec.TaskId,
		ContextId: t.ec.ContextId,
		Text:      text,
	})
}
