package mappings

import (
	"bytes"
	"encoding/json"
	"fmt"

	"backend/services"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// MappingsHandler serves the action-to-reaction mapping CRUD. Creating a
// mapping also provisions the provider webhook its action needs.
type MappingsHandler struct {
	Registry *services.Registry
	Manager  *services.SubscriptionManager
}

// validateConfig checks a mapping config against the action's config schema.
func validateConfig(schema json.RawMessage, config json.RawMessage) error {
	if len(schema) == 0 {
		return nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schema))
	if err != nil {
		return fmt.Errorf("invalid config schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config.json", doc); err != nil {
		return err
	}
	compiled, err := compiler.Compile("config.json")
	if err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(config))
	if err != nil {
		return fmt.Errorf("invalid config JSON: %w", err)
	}

	return compiled.Validate(instance)
}
