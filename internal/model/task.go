package model

import (
	"time"

	"github.com/agentexec/core/internal/ids"
)

// TaskState is the canonical lifecycle state of a Task.
type TaskState string

const (
	TaskStateSubmitted     TaskState = "submitted"
	TaskStateWorking       TaskState = "working"
	TaskStateInputRequired TaskState = "input-required"
	TaskStateCompleted     TaskState = "completed"
	TaskStateFailed        TaskState = "failed"
	TaskStateCanceled      TaskState = "canceled"
)

// Terminal reports whether the state accepts no further transitions.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateFailed, TaskStateCanceled:
		return true
	default:
		return false
	}
}

// TaskStatus snapshots a Task's state at a point in time.
type TaskStatus struct {
	State     TaskState  `json:"state"`
	Message   *Message   `json:"message,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Task is the full server-side record of an A2A unit of work: its status,
// accumulated history, artifacts, and execution steps.
type Task struct {
	TaskId    ids.TaskId     `json:"id"`
	ContextId ids.ContextId  `json:"contextId"`
	Status    TaskStatus     `json:"status"`
	History   []Message      `json:"history,omitempty"`
	Artifacts []Artifact     `json:"artifacts,omitempty"`
	Steps     []ExecutionStep `json:"-"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// AppendHistory appends a message to the task's conversation history.
func (t *Task) AppendHistory(msg Message) {
	t.History = append(t.History, msg)
}

// SetStatus replaces the task's status snapshot.
func (t *Task) SetStatus(state TaskState, msg *Message) {
	now := taskStatusTimestamp()
	t.Status = TaskStatus{State: state, Message: msg, Timestamp: &now}
}

// taskStatusTimestamp is overridable by tests; production code always uses
// wall-clock time.
var taskStatusTimestamp = func() time.Time { return time.Now().UTC() }
