package a2ui

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/a2ui.json
var schemaJSON []byte

const schemaURL = "a2ui-v0.8.json"

// Validator checks records against the A2UI v0.8 message schema.
type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal a2ui schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add a2ui schema: %w", err)
	}
	sch, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile a2ui schema: %w", err)
	}
	return &Validator{schema: sch}, nil
}

func (v *Validator) Validate(rec Record) error {
	return v.schema.Validate(map[string]any(rec))
}
