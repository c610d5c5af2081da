package a2aserver

import (
	"encoding/json"

	"github.com/agentexec/core/internal/a2aserver/classify"
	"github.com/agentexec/core/internal/repo"
)

// ErrorBuilder assembles RPCError values for the error shapes the A2A
// front-end needs to return, grounded on the original service's JSON-RPC
// error builder.
type ErrorBuilder struct{}

// ParseError builds a -32700 error for a body that failed to parse as JSON.
func (ErrorBuilder) ParseError(detail string) *RPCError {
	return &RPCError{Code: CodeParseError, Message: "Parse error", Data: jsonString(detail)}
}

// InvalidRequest builds a -32600 error for a malformed envelope.
func (ErrorBuilder) InvalidRequest(detail string) *RPCError {
	return &RPCError{Code: CodeInvalidRequest, Message: "Invalid Request", Data: jsonString(detail)}
}

// MethodNotFound builds a -32601 error naming the unrecognized method.
func (ErrorBuilder) MethodNotFound(method string) *RPCError {
	return &RPCError{Code: CodeMethodNotFound, Message: "Method not found", Data: jsonString(method)}
}

// InvalidParams builds a -32602 error for parameters that failed to parse
// or validate against the method's expected shape.
func (ErrorBuilder) InvalidParams(detail string) *RPCError {
	return &RPCError{Code: CodeInvalidParams, Message: "Invalid params", Data: jsonString(detail)}
}

// Internal builds a -32603 error for an unexpected server-side failure.
func (ErrorBuilder) Internal(detail string) *RPCError {
	return &RPCError{Code: CodeInternalError, Message: "Internal error", Data: jsonString(detail)}
}

// Unauthorized builds a -32600 error for a missing, malformed, or invalid
// bearer token. It carries the same wire code as Forbidden; callers (the
// HTTP layer) distinguish the two by Message to pick 401 vs 403.
func (ErrorBuilder) Unauthorized(reason string) *RPCError {
	return &RPCError{Code: CodeInvalidRequest, Message: "Unauthorized", Data: jsonString(reason)}
}

// Forbidden builds a -32600 error for a token that authenticated but whose
// audience or scopes don't satisfy the called method's requirements.
func (ErrorBuilder) Forbidden(reason string) *RPCError {
	return &RPCError{Code: CodeInvalidRequest, Message: "Forbidden", Data: jsonString(reason)}
}

// TaskNotFound builds a -32603 internal error for tasks/get, tasks/cancel,
// and tasks/resubscribe on an id the task store does not recognize,
// classified the same way any other repository lookup failure is.
func (ErrorBuilder) TaskNotFound(taskID string) *RPCError {
	return &RPCError{Code: CodeInternalError, Message: classify.RepositoryError(repo.ErrNotFound), Data: jsonString(taskID)}
}

// MissingContextID builds a -32602 error carrying a structured remediation
// hint, matching the original request pipeline's contextId-missing case:
// the error data includes step-by-step instructions rather than a bare
// string, since the most common cause is a client omitting it on purpose.
func (ErrorBuilder) MissingContextID() *RPCError {
	data := struct {
		Reason       string `json:"reason"`
		Instructions string `json:"instructions"`
	}{
		Reason:       "contextId is required",
		Instructions: "Call message/send without a contextId once to start a new conversation, then reuse the contextId returned in the response for every subsequent message in that conversation.",
	}
	raw, _ := json.Marshal(data)
	return &RPCError{Code: CodeInvalidParams, Message: "Invalid params", Data: raw}
}

// ValidationFailed builds a -32603 internal error for a plan whose tool-call
// template placeholders failed validation. The Planned strategy itself
// handles this case inline (it falls back to a direct AI response rather
// than surfacing an RPC error), so this builder exists for callers that
// need to report the same failure over the wire.
func (ErrorBuilder) ValidationFailed(detail string) *RPCError {
	return &RPCError{Code: CodeInternalError, Message: "Plan validation failed", Data: jsonString(detail)}
}

func jsonString(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	return raw
}
