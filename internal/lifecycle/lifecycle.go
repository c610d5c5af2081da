// Package lifecycle implements the agent lifecycle manager: it starts,
// stops, restarts, and reconciles the OS processes backing each configured
// agent, tracking their status through the Absent/Starting/Running/Failed
// state machine.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"goa.design/clue/log"

	"github.com/agentexec/core/internal/lifecycle/healthcheck"
	"github.com/agentexec/core/internal/lifecycle/portmanager"
	"github.com/agentexec/core/internal/lifecycle/proc"
	"github.com/agentexec/core/internal/lifecycle/registrycache"
	"github.com/agentexec/core/internal/model"
)

// StartReason enumerates why StartAgent did not bring an agent to Running.
type StartReason string

const (
	// ReasonAgentAlreadyRunning means the agent was already Running; the
	// caller must stop or restart it explicitly instead of starting it
	// again.
	ReasonAgentAlreadyRunning StartReason = "agent_already_running"
	// ReasonPortInUse means the configured port is held by another agent
	// and orderly reclamation (signal, wait, re-check) did not free it.
	ReasonPortInUse StartReason = "port_in_use"
	// ReasonHealthCheckTimeout means the process spawned but never
	// answered on its configured port within the health-check deadline.
	ReasonHealthCheckTimeout StartReason = "health_check_timeout"
	// ReasonSpawnFailed means the OS refused to start the process at all.
	ReasonSpawnFailed StartReason = "spawn_failed"
)

// StartError reports why StartAgent failed to reach Running for Agent.
type StartError struct {
	Agent  string
	Reason StartReason
	Err    error
}

func (e *StartError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lifecycle: start %q failed (%s): %v", e.Agent, e.Reason, e.Err)
	}
	return fmt.Sprintf("lifecycle: start %q failed (%s)", e.Agent, e.Reason)
}

func (e *StartError) Unwrap() error { return e.Err }

// AgentConfig is the declared, static configuration for a single managed
// agent: the command used to start it and the port it is expected to listen
// on.
type AgentConfig struct {
	Name    string
	Command string
	Args    []string
	Env     []string
	Host    string
	Port    int
}

// Manager owns the set of known agents and drives their lifecycle
// transitions. It is safe for concurrent use.
type Manager struct {
	mu     sync.RWMutex
	agents map[string]*model.AgentService
	config map[string]AgentConfig

	ports *portmanager.Manager
	cache *registrycache.Cache
}

// New constructs a Manager over the given agent configurations. cache may
// be nil to disable the optional Redis-backed status cache.
func New(configs []AgentConfig, cache *registrycache.Cache) *Manager {
	m := &Manager{
		agents: make(map[string]*model.AgentService),
		config: make(map[string]AgentConfig),
		ports:  portmanager.New(),
		cache:  cache,
	}
	for _, cfg := range configs {
		m.config[cfg.Name] = cfg
		m.agents[cfg.Name] = &model.AgentService{
			Name:    cfg.Name,
			Command: cfg.Command,
			Args:    cfg.Args,
			Port:    cfg.Port,
			Status:  model.AgentStatusAbsent,
		}
	}
	return m
}

// Status returns the current known status of agentName.
func (m *Manager) Status(ctx context.Context, agentName string) (model.AgentService, error) {
	if m.cache != nil {
		if svc, ok := m.cache.Get(ctx, agentName); ok {
			return svc, nil
		}
	}

	m.mu.RLock()
	svc, ok := m.agents[agentName]
	m.mu.RUnlock()
	if !ok {
		return model.AgentService{}, fmt.Errorf("lifecycle: unknown agent %q", agentName)
	}

	snapshot := *svc
	if m.cache != nil {
		_ = m.cache.Set(ctx, snapshot)
	}
	return snapshot, nil
}

// EndpointFor returns the MCP HTTP endpoint for agentName's running
// process, satisfying mcpexec.Endpoints without this package depending on
// the tools transport.
func (m *Manager) EndpointFor(ctx context.Context, agentName string) (string, error) {
	svc, err := m.Status(ctx, agentName)
	if err != nil {
		return "", err
	}
	if svc.Status != model.AgentStatusRunning {
		return "", fmt.Errorf("lifecycle: agent %q is not running (status=%s)", agentName, svc.Status)
	}
	cfg, ok := m.config[agentName]
	if !ok {
		return "", fmt.Errorf("lifecycle: unknown agent %q", agentName)
	}
	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d/rpc", host, svc.Port), nil
}

// StartAgent transitions agentName from Absent to Starting, spawns its
// process, claims its port (reclaiming it from a dead or stuck prior holder
// if necessary), and polls for health before marking it Running. Calling
// StartAgent on an already-Running agent rejects with a *StartError whose
// Reason is ReasonAgentAlreadyRunning rather than silently succeeding — the
// caller must restart or disable it explicitly.
func (m *Manager) StartAgent(ctx context.Context, agentName string) error {
	cfg, ok := m.config[agentName]
	if !ok {
		return fmt.Errorf("lifecycle: unknown agent %q", agentName)
	}

	m.mu.Lock()
	svc := m.agents[agentName]
	if svc.Status == model.AgentStatusRunning {
		m.mu.Unlock()
		return &StartError{Agent: agentName, Reason: ReasonAgentAlreadyRunning}
	}
	m.mu.Unlock()

	if err := m.claimPort(ctx, cfg, agentName); err != nil {
		return err
	}

	m.mu.Lock()
	svc.Status = model.AgentStatusStarting
	svc.LastError = ""
	m.mu.Unlock()
	m.invalidateCache(ctx, agentName)

	handle, err := proc.Spawn(cfg.Command, cfg.Args, cfg.Env)
	if err != nil {
		m.markFailed(ctx, agentName, fmt.Sprintf("spawn: %v", err))
		m.ports.Release(cfg.Port)
		return &StartError{Agent: agentName, Reason: ReasonSpawnFailed, Err: err}
	}

	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	if err := healthcheck.WaitForPort(host, cfg.Port); err != nil {
		log.Printf(ctx, "lifecycle: agent %q failed startup health check: %v", agentName, err)
		_ = proc.Stop(handle.PID)
		m.markFailed(ctx, agentName, err.Error())
		m.ports.Release(cfg.Port)
		return &StartError{Agent: agentName, Reason: ReasonHealthCheckTimeout, Err: err}
	}

	now := time.Now().UTC()
	m.mu.Lock()
	svc.PID = handle.PID
	svc.Status = model.AgentStatusRunning
	svc.StartedAt = &now
	m.mu.Unlock()
	m.invalidateCache(ctx, agentName)

	log.Printf(ctx, "lifecycle: agent %q running (pid=%d port=%d)", agentName, handle.PID, cfg.Port)
	return nil
}

// claimPort claims cfg.Port for agentName. If the port is already held by a
// different agent, it performs orderly reclamation: send that agent's
// process a termination signal (escalating to SIGKILL via proc.Stop if it
// doesn't exit in time), wait for it to clear, mark that agent Failed, and
// retry the claim once. Only if reclamation still can't free the port does
// it give up with ReasonPortInUse.
func (m *Manager) claimPort(ctx context.Context, cfg AgentConfig, agentName string) error {
	if err := m.ports.Claim(cfg.Port, agentName); err == nil {
		return nil
	}

	owner, held := m.ports.Owner(cfg.Port)
	if !held || owner == agentName {
		return &StartError{Agent: agentName, Reason: ReasonPortInUse}
	}

	log.Printf(ctx, "lifecycle: port %d held by %q, attempting orderly reclamation for %q", cfg.Port, owner, agentName)

	m.mu.RLock()
	var ownerPID int
	if ownerSvc, ok := m.agents[owner]; ok {
		ownerPID = ownerSvc.PID
	}
	m.mu.RUnlock()

	if ownerPID != 0 {
		if err := proc.Stop(ownerPID); err != nil {
			log.Printf(ctx, "lifecycle: reclamation signal to %q (pid=%d) failed: %v", owner, ownerPID, err)
		}
	}
	m.markFailed(ctx, owner, fmt.Sprintf("port %d reclaimed by %q", cfg.Port, agentName))
	m.ports.Release(cfg.Port)

	if err := m.ports.Claim(cfg.Port, agentName); err != nil {
		return &StartError{Agent: agentName, Reason: ReasonPortInUse, Err: err}
	}
	return nil
}

// DisableAgent stops agentName's process, if running, and marks it Disabled.
// It is idempotent: disabling an already-disabled or absent agent succeeds
// without error.
func (m *Manager) DisableAgent(ctx context.Context, agentName string) error {
	m.mu.Lock()
	svc, ok := m.agents[agentName]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("lifecycle: unknown agent %q", agentName)
	}
	pid := svc.PID
	wasRunning := svc.Status == model.AgentStatusRunning || svc.Status == model.AgentStatusStarting
	svc.Status = model.AgentStatusDisabled
	svc.PID = 0
	port := svc.Port
	m.mu.Unlock()
	m.invalidateCache(ctx, agentName)

	if wasRunning && pid != 0 {
		if err := proc.Stop(pid); err != nil {
			log.Printf(ctx, "lifecycle: error stopping agent %q (pid=%d): %v", agentName, pid, err)
		}
	}
	m.ports.Release(port)
	return nil
}

// EnableAgent clears a Disabled status back to Absent. StartAgent itself
// rejects only a Running agent, so it does not depend on this call.
func (m *Manager) EnableAgent(ctx context.Context, agentName string) error {
	m.mu.Lock()
	svc, ok := m.agents[agentName]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("lifecycle: unknown agent %q", agentName)
	}
	if svc.Status == model.AgentStatusDisabled {
		svc.Status = model.AgentStatusAbsent
	}
	m.mu.Unlock()
	m.invalidateCache(ctx, agentName)
	return nil
}

// RestartAgent disables then starts agentName.
func (m *Manager) RestartAgent(ctx context.Context, agentName string) error {
	if err := m.DisableAgent(ctx, agentName); err != nil {
		return err
	}
	if err := m.EnableAgent(ctx, agentName); err != nil {
		return err
	}
	return m.StartAgent(ctx, agentName)
}

// ReconcileCrashed scans every Running agent, checks whether its recorded
// PID still exists, and transitions any whose process has silently died to
// Failed, releasing its port. Intended to run on a periodic schedule.
func (m *Manager) ReconcileCrashed(ctx context.Context) {
	m.mu.RLock()
	names := make([]string, 0, len(m.agents))
	for name, svc := range m.agents {
		if svc.Status == model.AgentStatusRunning {
			names = append(names, name)
		}
	}
	m.mu.RUnlock()

	for _, name := range names {
		m.mu.RLock()
		svc := m.agents[name]
		pid := svc.PID
		m.mu.RUnlock()

		if pid != 0 && proc.Alive(pid) {
			continue
		}
		log.Printf(ctx, "lifecycle: detected crashed agent %q (pid=%d)", name, pid)
		m.markFailed(ctx, name, "process no longer running")
		m.mu.RLock()
		port := svc.Port
		m.mu.RUnlock()
		m.ports.Release(port)
	}
}

func (m *Manager) markFailed(ctx context.Context, agentName, reason string) {
	m.mu.Lock()
	if svc, ok := m.agents[agentName]; ok {
		svc.Status = model.AgentStatusFailed
		svc.LastError = reason
		svc.PID = 0
	}
	m.mu.Unlock()
	m.invalidateCache(ctx, agentName)
}

func (m *Manager) invalidateCache(ctx context.Context, agentName string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Invalidate(ctx, agentName); err != nil {
		log.Printf(ctx, "lifecycle: cache invalidate failed for %q: %v", agentName, err)
	}
}
