// Package repo declares the persistence-boundary interfaces the engine
// depends on. Production deployments own their own schema and supply a
// concrete implementation; this module ships only the interfaces and an
// in-memory reference implementation under repo/memory, used for
// development, testing, and single-node deployments.
package repo

import (
	"context"
	"errors"

	"github.com/agentexec/core/internal/ids"
	"github.com/agentexec/core/internal/model"
)

// ErrNotFound is returned by any repository method when the requested
// record does not exist.
var ErrNotFound = errors.New("repo: not found")

// TaskRepository persists Task records.
type TaskRepository interface {
	SaveTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, id ids.TaskId) (*model.Task, error)
	ListTasksByContext(ctx context.Context, contextID ids.ContextId) ([]*model.Task, error)
}

// ExecutionStepRepository persists ExecutionStep records, keyed by the task
// they belong to.
type ExecutionStepRepository interface {
	SaveStep(ctx context.Context, step *model.ExecutionStep) error
	ListSteps(ctx context.Context, taskID ids.TaskId) ([]*model.ExecutionStep, error)
}

// AgentServiceRepository persists AgentService records for agents that
// should be remembered across process restarts (distinct from the
// lifecycle manager's live in-memory view of running processes).
type AgentServiceRepository interface {
	SaveAgentService(ctx context.Context, svc *model.AgentService) error
	GetAgentService(ctx context.Context, name string) (*model.AgentService, error)
	ListAgentServices(ctx context.Context) ([]*model.AgentService, error)
}

// PushNotificationConfig is a webhook configuration registered against a
// task, delivered by tasks/pushNotificationConfig/set.
type PushNotificationConfig struct {
	TaskID ids.TaskId
	ID     string
	URL    string
	Token  string
}

// PushNotificationRepository persists webhook configs for the
// tasks/pushNotificationConfig/{set,get,delete} methods. The corresponding
// "list" method is deliberately left unimplemented at the server layer: the
// original service routes it but never dispatches it to a handler, and the
// intended behavior was never confirmed with the protocol owner.
type PushNotificationRepository interface {
	Set(ctx context.Context, cfg PushNotificationConfig) error
	Get(ctx context.Context, taskID ids.TaskId, id string) (PushNotificationConfig, error)
	Delete(ctx context.Context, taskID ids.TaskId, id string) error
}
