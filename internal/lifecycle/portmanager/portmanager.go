// Package portmanager tracks which configured agent ports are currently
// claimed so the lifecycle manager never starts two agents on the same
// port, and reclaims a port as soon as its owning agent stops or fails.
package portmanager

import (
	"fmt"
	"sync"
)

// Manager tracks port ownership by agent name.
type Manager struct {
	mu      sync.Mutex
	claimed map[int]string
}

// New constructs an empty Manager.
func New() *Manager {
	return &Manager{claimed: make(map[int]string)}
}

// Claim reserves port for agentName. It fails if the port is already claimed
// by a different agent.
func (m *Manager) Claim(port int, agentName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if owner, ok := m.claimed[port]; ok && owner != agentName {
		return fmt.Errorf("portmanager: port %d already claimed by %q", port, owner)
	}
	m.claimed[port] = agentName
	return nil
}

// Release frees port so a future Claim for any agent can succeed.
func (m *Manager) Release(port int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claimed, port)
}

// Owner returns the agent name currently holding port, and whether it is
// claimed at all.
func (m *Manager) Owner(port int) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.claimed[port]
	return owner, ok
}
