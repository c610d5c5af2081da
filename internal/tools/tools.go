// Package tools defines the tool catalogue and execution boundary the
// engine plans against. Tool transport (turning a Call into a Result) sits
// behind the Executor interface; internal/tools/mcpexec provides an
// MCP-over-HTTP implementation. Only the interface and metadata types live
// here.
package tools

import "context"

// Name is the strong type for a tool identifier, used to avoid accidentally
// mixing a tool name with an arbitrary free-form string.
type Name string

// Spec describes a single tool available to the planner: its name,
// human-readable description, and JSON schemas for its arguments and
// result.
type Spec struct {
	Name        Name
	Description string
	Schema      []byte
	// OutputSchema describes the shape of a successful Result's
	// StructuredContent; the template validator checks a
	// `{{tool_N.field}}` reference against its declared properties.
	OutputSchema []byte
	// TerminalOnSuccess tells the engine to stop executing further
	// planned tool calls the first time this tool succeeds.
	TerminalOnSuccess bool
}

// Call is a single tool invocation chosen by the planner, with its
// arguments already resolved (template placeholders substituted).
type Call struct {
	Name Name
	Args map[string]any
}

// Result is the outcome of executing a Call.
type Result struct {
	Text string
	// IsError reports whether the tool reported a failure; the caller's
	// partial-failure-tolerant loop treats this as one failed step rather
	// than aborting the whole run.
	IsError bool
	// StructuredContent is the raw JSON payload the tool returned, if any.
	// Artifact extraction only happens when this is non-nil and carries an
	// "artifact_id" field.
	StructuredContent map[string]any
	// DurationMs is how long the call took to resolve, in milliseconds.
	DurationMs int64
}

// ArtifactID extracts the artifact id advertised in a Result's structured
// content, if the tool call succeeded and the payload carries one.
func (r Result) ArtifactID() (string, bool) {
	if r.IsError || r.StructuredContent == nil {
		return "", false
	}
	id, ok := r.StructuredContent["artifact_id"].(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Executor runs a single tool call against whatever transport backs the
// tool catalogue (an MCP server, an internal registry, etc). Implementing
// this interface is the integration point external to this module.
type Executor interface {
	Execute(ctx context.Context, call Call) (Result, error)
}

// Catalogue looks up the tools available to a given agent. Nothing in this
// module consumes it: the Planned strategy gets its catalogue from
// ai.Service.ListAvailableToolsForAgent, and the template validator does not
// check that a planned tool name is in the catalogue.
type Catalogue interface {
	ListTools(ctx context.Context, agentName string) ([]Spec, error)
}
