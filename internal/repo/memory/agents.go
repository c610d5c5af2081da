package memory

import (
	"context"
	"sync"

	"github.com/agentexec/core/internal/model"
	"github.com/agentexec/core/internal/repo"
)

// AgentStore is an in-memory implementation of repo.AgentServiceRepository.
type AgentStore struct {
	mu     sync.RWMutex
	agents map[string]*model.AgentService
}

var _ repo.AgentServiceRepository = (*AgentStore)(nil)

// NewAgentStore creates a new in-memory agent service store.
func NewAgentStore() *AgentStore {
	return &AgentStore{agents: make(map[string]*model.AgentService)}
}

// SaveAgentService stores or updates an agent service record.
func (s *AgentStore) SaveAgentService(ctx context.Context, svc *model.AgentService) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *svc
	s.agents[svc.Name] = &clone
	return nil
}

// GetAgentService retrieves an agent service record by name.
func (s *AgentStore) GetAgentService(ctx context.Context, name string) (*model.AgentService, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.agents[name]
	if !ok {
		return nil, repo.ErrNotFound
	}
	clone := *svc
	return &clone, nil
}

// ListAgentServices returns every known agent service record.
func (s *AgentStore) ListAgentServices(ctx context.Context) ([]*model.AgentService, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.AgentService, 0, len(s.agents))
	for _, svc := range s.agents {
		clone := *svc
		result = append(result, &clone)
	}
	return result, nil
}
