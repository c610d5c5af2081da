// Package a2aserver implements the A2A (Agent-to-Agent) JSON-RPC 2.0
// front-end: envelope parsing, method dispatch, SSE streaming, and the
// OAuth gate in front of the execution engine.
package a2aserver

import (
	"encoding/json"
	"fmt"
)

// JSON-RPC canonical error codes, grounded on the teacher's prior A2A
// client. Every error this front-end returns uses one of these five codes;
// there is no application-specific extension range. Unauthorized and
// Forbidden both carry CodeInvalidRequest — they are distinguished by their
// Message, from which the HTTP layer derives 401 vs 403, never by a
// separate wire code — and
// repository/task-lookup/validation failures all carry CodeInternalError,
// per the error taxonomy's -32600/-32601/-32602/-32603 mapping.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// NumberOrString carries a JSON-RPC request/response id, which the spec
// allows to be either a number or a string. It round-trips whichever shape
// the caller sent.
type NumberOrString struct {
	raw json.RawMessage
}

// NewNumberOrStringFromString wraps a string id.
func NewNumberOrStringFromString(s string) NumberOrString {
	raw, _ := json.Marshal(s)
	return NumberOrString{raw: raw}
}

// NewNumberOrStringFromInt wraps a numeric id.
func NewNumberOrStringFromInt(n int64) NumberOrString {
	raw, _ := json.Marshal(n)
	return NumberOrString{raw: raw}
}

// MarshalJSON implements json.Marshaler, emitting the original shape.
func (n NumberOrString) MarshalJSON() ([]byte, error) {
	if len(n.raw) == 0 {
		return []byte("null"), nil
	}
	return n.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler, accepting either a number or a
// string.
func (n *NumberOrString) UnmarshalJSON(data []byte) error {
	n.raw = append([]byte(nil), data...)
	return nil
}

// String renders the id for logging regardless of its underlying shape.
func (n NumberOrString) String() string {
	var s string
	if json.Unmarshal(n.raw, &s) == nil {
		return s
	}
	var num json.Number
	if json.Unmarshal(n.raw, &num) == nil {
		return num.String()
	}
	return string(n.raw)
}

// Request is the JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      *NumberOrString `json:"id,omitempty"`
}

// IsNotification reports whether the request carries no id, meaning no
// response should be sent.
func (r Request) IsNotification() bool { return r.ID == nil }

// RPCError is the JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Response is the JSON-RPC 2.0 response envelope. Exactly one of Result or
// Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      *NumberOrString `json:"id"`
}

// NewResultResponse builds a successful response envelope.
func NewResultResponse(id *NumberOrString, result any) (Response, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return Response{}, err
	}
	return Response{JSONRPC: "2.0", Result: raw, ID: id}, nil
}

// NewErrorResponse builds an error response envelope.
func NewErrorResponse(id *NumberOrString, rpcErr *RPCError) Response {
	return Response{JSONRPC: "2.0", Error: rpcErr, ID: id}
}
