package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const gameStateSchemaURL = "hive://schemas/game_state.schema.json"

// GameStateSchema reflects the JSON schema of GameState from the Go types,
// so the wire contract can never drift from the decoder.
func GameStateSchema() ([]byte, error) {
	reflector := invopop.Reflector{
		Anonymous:                  true,
		AllowAdditionalProperties:  true,
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	schema := reflector.ReflectFromType(reflect.TypeOf(GameState{}))
	if schema == nil {
		return nil, fmt.Errorf("failed to reflect game state schema")
	}
	schema.Version = ""
	schema.Title = "Game State"
	schema.Description = "Per-tick world snapshot pushed by the host."

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}

// Validator checks inbound game state payloads before they are decoded.
type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	raw, err := GameStateSchema()
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(gameStateSchemaURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(gameStateSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate reports the first schema violation in raw, if any.
func (v *Validator) Validate(raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode game state: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("validate game state: %w", err)
	}
	return nil
}
