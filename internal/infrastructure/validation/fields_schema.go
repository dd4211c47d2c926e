package validation

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/riyazashik07/ai-document-analyser/internal/core/domain"
)

// FieldsSchema requires exactly the fixed extraction keys, each a string.
func FieldsSchema() map[string]any {
	properties := make(map[string]any, len(domain.ExtractionFieldNames()))
	for _, name := range domain.ExtractionFieldNames() {
		properties[name] = map[string]any{"type": "string"}
	}
	return map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"properties":           properties,
		"required":             domain.ExtractionFieldNames(),
		"additionalProperties": false,
	}
}

type FieldsValidator struct {
	schema *jsonschema.Schema
}

func NewFieldsValidator() (*FieldsValidator, error) {
	raw, err := json.Marshal(FieldsSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("fields.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("fields.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &FieldsValidator{schema: schema}, nil
}

func (v *FieldsValidator) Validate(obj map[string]any) error {
	// jsonschema works on decoded JSON values, not arbitrary Go types.
	raw, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("unmarshal fields: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("fields do not match schema: %w", err)
	}
	return nil
}
