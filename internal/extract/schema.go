package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildResultJSONSchema returns a JSON-Schema (draft 2020-12 subset) for the
// result document as a generic map. The batch pipeline validates every
// marshaled result against it before a history row is recorded, so drift
// between the Go types and the documented contract surfaces immediately.
func BuildResultJSONSchema() map[string]any {
	isoDate := map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`}
	nullableISODate := map[string]any{
		"type":    []any{"string", "null"},
		"pattern": `^\d{4}-\d{2}-\d{2}$`,
	}

	checkDigits := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"number":         map[string]any{"type": "string"},
			"dateOfBirth":    map[string]any{"type": "string"},
			"expiryDate":     map[string]any{"type": "string"},
			"personalNumber": map[string]any{"type": "string"},
			"composite":      map[string]any{"type": "string"},
		},
	}

	extractedData := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"documentType":   map[string]any{"type": "string"},
			"issuingCountry": map[string]any{"type": "string"},
			"surname":        map[string]any{"type": "string"},
			"givenNames":     map[string]any{"type": "string"},
			"passportNumber": map[string]any{"type": "string"},
			"nationality":    map[string]any{"type": "string"},
			"dateOfBirth":    map[string]any{"type": "string"},
			"gender":         map[string]any{"type": "string"},
			"expiryDate":     map[string]any{"type": "string"},
			"personalNumber": map[string]any{"type": "string"},
			"checkDigits":    checkDigits,
			"issueDate":      isoDate,
		},
	}

	candidate := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"region", "text", "date"},
		"properties": map[string]any{
			"region": map[string]any{"type": "string"},
			"text":   map[string]any{"type": "string", "maxLength": maxExcerpt},
			"date":   nullableISODate,
		},
	}

	validation := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"valid", "errors"},
		"properties": map[string]any{
			"valid":  map[string]any{"type": "boolean"},
			"errors": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required": []string{
			"success", "confidence", "valid", "raw_text", "extracted_data",
			"issue_date", "issue_date_candidates", "mrz_lines", "validation",
		},
		"properties": map[string]any{
			"success":               map[string]any{"type": "boolean"},
			"confidence":            map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"valid":                 map[string]any{"type": "boolean"},
			"raw_text":              map[string]any{"type": "string"},
			"extracted_data":        extractedData,
			"issue_date":            nullableISODate,
			"issue_date_candidates": map[string]any{"type": "array", "items": candidate},
			"mrz_lines":             map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"validation":            validation,
			"ocr_error":             map[string]any{"type": "string"},
			"error":                 map[string]any{"type": "string"},
		},
	}
}

// ValidateResultJSON validates a marshaled result document against the
// result schema.
func ValidateResultJSON(doc []byte) error {
	b, err := json.Marshal(BuildResultJSONSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("result.schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("result.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return fmt.Errorf("unmarshal result: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("result does not match schema: %w", err)
	}
	return nil
}
