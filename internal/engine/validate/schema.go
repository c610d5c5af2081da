package validate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidateArgs checks resolved tool-call arguments against the tool's
// declared JSON input schema before execution. An empty schema is treated
// as "anything goes" — not every tool in the catalogue advertises one.
func ValidateArgs(schema []byte, args map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schema))
	if err != nil {
		return fmt.Errorf("parse tool schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	const resourceID = "tool-args.json"
	if err := compiler.AddResource(resourceID, doc); err != nil {
		return fmt.Errorf("load tool schema: %w", err)
	}
	sch, err := compiler.Compile(resourceID)
	if err != nil {
		return fmt.Errorf("compile tool schema: %w", err)
	}

	argsJSON, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode tool args: %w", err)
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(argsJSON))
	if err != nil {
		return fmt.Errorf("encode tool args: %w", err)
	}
	if err := sch.Validate(instance); err != nil {
		return fmt.Errorf("tool args failed schema validation: %w", err)
	}
	return nil
}
