package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"quotewright/internal/model"
)

// extractionSchema is the JSON-Schema the accurate extractor's output must
// satisfy before any of it becomes raw products.
func extractionSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"products", "confidence"},
		"properties": map[string]any{
			"products": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"product_code", "quantity"},
					"properties": map[string]any{
						"line_number":       map[string]any{"type": "integer", "minimum": 0},
						"product_code":      map[string]any{"type": "string"},
						"raw_description":   map[string]any{"type": "string"},
						"clean_description": map[string]any{"type": "string"},
						"quantity": map[string]any{
							"type":             "integer",
							"minimum":          1,
							"exclusiveMaximum": model.MaxSaneQuantity,
						},
					},
				},
			},
			"excluded":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 100},
			"details":    map[string]any{"type": "string"},
		},
	}
}

// validateAgainstSchema validates raw JSON against a schema map.
func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
