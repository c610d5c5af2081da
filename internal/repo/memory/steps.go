package memory

import (
	"context"
	"sync"

	"github.com/agentexec/core/internal/ids"
	"github.com/agentexec/core/internal/model"
	"github.com/agentexec/core/internal/repo"
)

// StepStore is an in-memory implementation of repo.ExecutionStepRepository.
type StepStore struct {
	mu    sync.RWMutex
	steps map[ids.TaskId][]*model.ExecutionStep
}

var _ repo.ExecutionStepRepository = (*StepStore)(nil)

// NewStepStore creates a new in-memory step store.
func NewStepStore() *StepStore {
	return &StepStore{steps: make(map[ids.TaskId][]*model.ExecutionStep)}
}

// SaveStep appends or replaces (by StepId) a step under its task.
func (s *StepStore) SaveStep(ctx context.Context, step *model.ExecutionStep) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *step
	existing := s.steps[step.TaskId]
	for i, cur := range existing {
		if cur.StepId == step.StepId {
			existing[i] = &clone
			return nil
		}
	}
	s.steps[step.TaskId] = append(existing, &clone)
	return nil
}

// ListSteps returns every step recorded for taskID, in insertion order.
func (s *StepStore) ListSteps(ctx context.Context, taskID ids.TaskId) ([]*model.ExecutionStep, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing := s.steps[taskID]
	result := make([]*model.ExecutionStep, len(existing))
	for i, step := range existing {
		clone := *step
		result[i] = &clone
	}
	return result, nil
}
