package memory

import (
	"context"
	"sync"

	"github.com/agentexec/core/internal/ids"
	"github.com/agentexec/core/internal/repo"
)

// PushNotificationStore is an in-memory implementation of
// repo.PushNotificationRepository.
type PushNotificationStore struct {
	mu      sync.RWMutex
	configs map[ids.TaskId]map[string]repo.PushNotificationConfig
}

var _ repo.PushNotificationRepository = (*PushNotificationStore)(nil)

// NewPushNotificationStore creates a new in-memory push-notification config
// store.
func NewPushNotificationStore() *PushNotificationStore {
	return &PushNotificationStore{configs: make(map[ids.TaskId]map[string]repo.PushNotificationConfig)}
}

// Set stores or updates a webhook config for a task.
func (s *PushNotificationStore) Set(ctx context.Context, cfg repo.PushNotificationConfig) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.configs[cfg.TaskID]
	if !ok {
		byID = make(map[string]repo.PushNotificationConfig)
		s.configs[cfg.TaskID] = byID
	}
	byID[cfg.ID] = cfg
	return nil
}

// Get retrieves a webhook config by task and config id.
func (s *PushNotificationStore) Get(ctx context.Context, taskID ids.TaskId, id string) (repo.PushNotificationConfig, error) {
	select {
	case <-ctx.Done():
		return repo.PushNotificationConfig{}, ctx.Err()
	default:
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	byID, ok := s.configs[taskID]
	if !ok {
		return repo.PushNotificationConfig{}, repo.ErrNotFound
	}
	cfg, ok := byID[id]
	if !ok {
		return repo.PushNotificationConfig{}, repo.ErrNotFound
	}
	return cfg, nil
}

// Delete removes a webhook config by task and config id.
func (s *PushNotificationStore) Delete(ctx context.Context, taskID ids.TaskId, id string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.configs[taskID]
	if !ok {
		return repo.ErrNotFound
	}
	if _, ok := byID[id]; !ok {
		return repo.ErrNotFound
	}
	delete(byID, id)
	return nil
}
