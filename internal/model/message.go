// Package model defines the domain types shared by the A2A front-end and the
// execution engine: tasks, messages, parts, artifacts, execution steps, and
// the records the lifecycle manager and broadcaster track.
package model

import (
	"encoding/json"

	"github.com/agentexec/core/internal/ids"
)

// Role identifies who authored a Message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// PartKind identifies which field of Part is populated.
type PartKind string

const (
	PartKindText PartKind = "text"
	PartKindData PartKind = "data"
	PartKindFile PartKind = "file"
)

// Part is a single content part of a Message or Artifact. Exactly one of
// Text, Data, or File is set, selected by Kind.
type Part struct {
	Kind PartKind        `json:"kind"`
	Text string          `json:"text,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
	File *FilePart       `json:"file,omitempty"`
}

// FilePart carries a file reference, either inline bytes or a URI.
type FilePart struct {
	Name     string `json:"name,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
	URI      string `json:"uri,omitempty"`
	Bytes    []byte `json:"bytes,omitempty"`
}

// NewTextPart builds a Part carrying plain text.
func NewTextPart(text string) Part {
	return Part{Kind: PartKindText, Text: text}
}

// NewDataPart builds a Part carrying a structured JSON payload.
func NewDataPart(data json.RawMessage) Part {
	return Part{Kind: PartKindData, Data: data}
}

// Message is a single turn in a task's conversation history.
type Message struct {
	MessageId ids.MessageId  `json:"messageId"`
	TaskId    ids.TaskId     `json:"taskId,omitempty"`
	ContextId ids.ContextId  `json:"contextId,omitempty"`
	Role      Role           `json:"role"`
	Parts     []Part         `json:"parts"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Artifact is a named output produced during task execution, such as a tool
// result flagged by the tool transport as carrying an artifact id.
type Artifact struct {
	ArtifactId  ids.ArtifactId `json:"artifactId"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Parts       []Part         `json:"parts"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}
