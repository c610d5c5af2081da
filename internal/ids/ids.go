// Package ids defines the strongly-typed opaque identifiers used throughout
// the engine. Each identifier is its own named string type so the compiler
// rejects passing a TaskId where a ContextId is expected.
package ids

import "github.com/google/uuid"

// UserId identifies the human or service account a session belongs to.
type UserId string

// SessionId identifies a single A2A conversation session.
type SessionId string

// TaskId identifies a unit of work tracked by the execution engine.
type TaskId string

// ContextId groups related tasks that share conversation history.
type ContextId string

// TraceId correlates logs and events across a single request.
type TraceId string

// MessageId identifies a single message within a task's history.
type MessageId string

// ArtifactId identifies a generated artifact surfaced by a tool call.
type ArtifactId string

// AiToolCallId identifies a single tool invocation requested by a model.
type AiToolCallId string

// McpExecutionId identifies a single tool execution against an MCP-style
// tool transport.
type McpExecutionId string

// StepId identifies a single execution step within a task.
type StepId string

// AgentName identifies a registered agent by its configured name.
type AgentName string

// ClientId identifies the OAuth client a bearer token was issued to.
type ClientId string

// JwtToken wraps a raw bearer token string so it cannot be logged or
// compared by accident as a plain string.
type JwtToken string

func newID() string {
	return uuid.NewString()
}

// NewTaskId generates a fresh random TaskId.
func NewTaskId() TaskId { return TaskId(newID()) }

// NewContextId generates a fresh random ContextId.
func NewContextId() ContextId { return ContextId(newID()) }

// NewTraceId generates a fresh random TraceId.
func NewTraceId() TraceId { return TraceId(newID()) }

// NewMessageId generates a fresh random MessageId.
func NewMessageId() MessageId { return MessageId(newID()) }

// NewArtifactId generates a fresh random ArtifactId.
func NewArtifactId() ArtifactId { return ArtifactId(newID()) }

// NewAiToolCallId generates a fresh random AiToolCallId.
func NewAiToolCallId() AiToolCallId { return AiToolCallId(newID()) }

// NewMcpExecutionId generates a fresh random McpExecutionId.
func NewMcpExecutionId() McpExecutionId { return McpExecutionId(newID()) }

// NewStepId generates a fresh random StepId.
func NewStepId() StepId { return StepId(newID()) }

// NewClientId generates a fresh random ClientId.
func NewClientId() ClientId { return ClientId(newID()) }
