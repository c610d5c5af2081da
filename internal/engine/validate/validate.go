// Package validate implements the Planned strategy's template placeholder
// validation: every `{{tool_N.field}}` reference in a planned tool call's
// arguments must name an earlier tool in the plan whose declared output
// schema advertises that field.
package validate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/agentexec/core/internal/ai"
	"github.com/agentexec/core/internal/tools"
)

// placeholderPattern matches `{{tool_N.field}}`, capturing the 1-based tool
// index and the referenced field name.
var placeholderPattern = regexp.MustCompile(`\{\{tool_(\d+)\.([A-Za-z0-9_]+)\}\}`)

// Error describes a single template validation failure; ValidatePlan
// aggregates every failure it finds so the model receives a complete
// picture rather than stopping at the first one.
type Error struct {
	ToolIndex int
	Field     string
	Reason    string
}

func (e Error) String() string {
	return fmt.Sprintf("tool_%d.%s: %s", e.ToolIndex, e.Field, e.Reason)
}

// ValidatePlan checks every placeholder referenced across steps' arguments.
// It returns nil when every reference is valid. steps[i] may reference only
// tool indices 1..i (1-based, matching the `{{tool_N...}}` wire format),
// so self- and forward-references are rejected.
func ValidatePlan(steps []ai.PlannedStep, catalogue []tools.Spec) []Error {
	outputFields := make(map[tools.Name]map[string]struct{}, len(catalogue))
	for _, spec := range catalogue {
		outputFields[spec.Name] = schemaFieldSet(spec.OutputSchema)
	}

	var errs []Error
	for i, step := range steps {
		for key, val := range step.Args {
			raw, ok := val.(string)
			if !ok {
				continue
			}
			for _, match := range placeholderPattern.FindAllStringSubmatch(raw, -1) {
				idx, _ := strconv.Atoi(match[1])
				field := match[2]
				errs = append(errs, validateReference(i, idx, field, steps, outputFields, key)...)
			}
		}
	}
	return errs
}

func validateReference(
	callerIndex, refIndex int,
	field string,
	steps []ai.PlannedStep,
	outputFields map[tools.Name]map[string]struct{},
	argKey string,
) []Error {
	// refIndex is 1-based and must name a step strictly earlier than the
	// caller (K < N): self- and forward-references are invalid.
	if refIndex < 1 || refIndex > callerIndex {
		return []Error{{
			ToolIndex: refIndex,
			Field:     field,
			Reason:    fmt.Sprintf("argument %q references tool_%d, which is not an earlier step", argKey, refIndex),
		}}
	}

	referenced := steps[refIndex-1]
	fields, ok := outputFields[referenced.ToolName]
	if !ok || len(fields) == 0 {
		// No declared output schema means we cannot disprove the
		// reference; treat as valid rather than blocking execution on an
		// incomplete catalogue entry.
		return nil
	}
	if _, ok := fields[field]; !ok {
		return []Error{{
			ToolIndex: refIndex,
			Field:     field,
			Reason:    fmt.Sprintf("tool %q's output schema has no field %q", referenced.ToolName, field),
		}}
	}
	return nil
}

func schemaFieldSet(raw []byte) map[string]struct{} {
	if len(raw) == 0 {
		return nil
	}
	var doc struct {
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	fields := make(map[string]struct{}, len(doc.Properties))
	for k := range doc.Properties {
		fields[k] = struct{}{}
	}
	return fields
}

// Summary joins every validation failure into the single-line message the
// Planned strategy hands back to the model as an execution summary.
func Summary(errs []Error) string {
	if len(errs) == 0 {
		return ""
	}
	msg := "Plan validation failed: "
	for i, e := range errs {
		if i > 0 {
			msg += "; "
		}
		msg += e.String()
	}
	return msg
}
