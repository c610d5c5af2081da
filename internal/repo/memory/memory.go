// Package memory provides in-memory implementations of the repo
// interfaces. Suitable for development, testing, and single-node
// deployments where persistence across restarts is not required.
package memory

import (
	"context"
	"sync"

	"github.com/agentexec/core/internal/ids"
	"github.com/agentexec/core/internal/model"
	"github.com/agentexec/core/internal/repo"
)

// TaskStore is an in-memory implementation of repo.TaskRepository. It is
// safe for concurrent use.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[ids.TaskId]*model.Task
}

var _ repo.TaskRepository = (*TaskStore)(nil)

// NewTaskStore creates a new in-memory task store.
func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[ids.TaskId]*model.Task)}
}

// SaveTask stores or updates a task.
func (s *TaskStore) SaveTask(ctx context.Context, task *model.Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *task
	s.tasks[task.TaskId] = &clone
	return nil
}

// GetTask retrieves a task by id.
func (s *TaskStore) GetTask(ctx context.Context, id ids.TaskId) (*model.Task, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	clone := *task
	return &clone, nil
}

// ListTasksByContext returns every task sharing contextID.
func (s *TaskStore) ListTasksByContext(ctx context.Context, contextID ids.ContextId) ([]*model.Task, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.Task, 0)
	for _, task := range s.tasks {
		if task.ContextId == contextID {
			clone := *task
			result = append(result, &clone)
		}
	}
	return result, nil
}
