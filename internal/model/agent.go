package model

import "time"

// AgentStatus is the lifecycle state of a managed agent process.
type AgentStatus string

const (
	AgentStatusAbsent   AgentStatus = "absent"
	AgentStatusStarting AgentStatus = "starting"
	AgentStatusRunning  AgentStatus = "running"
	AgentStatusFailed   AgentStatus = "failed"
	AgentStatusDisabled AgentStatus = "disabled"
)

// AgentService is the lifecycle manager's record of a single managed agent
// process: its configured command, the port it was assigned, and its
// observed runtime status.
type AgentService struct {
	Name      string      `json:"name"`
	Command   string      `json:"command"`
	Args      []string    `json:"args"`
	Port      int         `json:"port"`
	PID       int         `json:"pid,omitempty"`
	Status    AgentStatus `json:"status"`
	StartedAt *time.Time  `json:"startedAt,omitempty"`
	LastError string      `json:"lastError,omitempty"`
}
