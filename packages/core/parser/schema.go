package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// documentSchema is the JSON Schema every request document must satisfy.
// It mirrors the structural rules of Parse but reports every defect in the
// document instead of stopping at the first one, which makes it the better
// tool for `volley validate`.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["target", "port", "endpoint", "method"],
    "additionalProperties": false,
    "properties": {
      "target":   {"type": "string", "minLength": 1},
      "port":     {"type": "integer", "minimum": 1, "maximum": 65535},
      "endpoint": {"type": "string", "minLength": 1},
      "method":   {"type": "string", "minLength": 1},
      "headers":  {"type": "object", "additionalProperties": {"type": "string"}},
      "data":     {"type": "object", "additionalProperties": {"type": "string"}}
    }
  }
}`

// ValidateDocument checks a YAML request document against the document
// schema and returns an error listing every violation found.
func ValidateDocument(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	if doc == nil {
		// An empty document is an empty batch, same as Parse.
		return nil
	}

	jsonDoc, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("converting document for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewBytesLoader(jsonDoc),
	)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("%d schema violation(s): %s", len(msgs), strings.Join(msgs, "; "))
	}

	return nil
}

// ValidateDocumentFile runs ValidateDocument on the file at path.
func ValidateDocumentFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := ValidateDocument(data); err != nil {
		return &ParseError{File: path, Err: err}
	}
	return nil
}
