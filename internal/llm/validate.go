package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// schemaCache caches compiled JSON schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// normalizeJSON prepares a schema'd reply for the caller: Markdown code
// fences are removed and the remainder is validated. Replies to requests
// without a schema are returned untouched.
func normalizeJSON(schema *Schema, raw json.RawMessage) (json.RawMessage, error) {
	if schema == nil {
		return raw, nil
	}
	cleaned := stripCodeFence(raw)
	if err := validateResponse(schema, cleaned); err != nil {
		return nil, err
	}
	return cleaned, nil
}

// stripCodeFence removes a surrounding ```json ... ``` block.
func stripCodeFence(raw []byte) json.RawMessage {
	s := bytes.TrimSpace(raw)
	if !bytes.HasPrefix(s, []byte("```")) {
		return json.RawMessage(s)
	}
	s = bytes.TrimPrefix(s, []byte("```"))
	if nl := bytes.IndexByte(s, '\n'); nl >= 0 {
		// Drop the info string ("json", "JSON", ...).
		s = s[nl+1:]
	}
	s = bytes.TrimSuffix(bytes.TrimSpace(s), []byte("```"))
	return json.RawMessage(bytes.TrimSpace(s))
}

// validateResponse validates raw JSON against the given Schema.
// Returns nil if no schema is provided or validation passes.
// Returns *ErrInvalidResponse on failure.
func validateResponse(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}

	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &ErrInvalidResponse{
			Content: raw,
			Err:     fmt.Errorf("invalid JSON: %w", err),
		}
	}

	compiled, err := getCompiledSchema(schema)
	if err != nil {
		return &ErrInvalidResponse{
			Content: raw,
			Err:     fmt.Errorf("compile schema %q: %w", schema.Name, err),
		}
	}

	if err := compiled.Validate(parsed); err != nil {
		return &ErrInvalidResponse{
			Content: raw,
			Err:     fmt.Errorf("schema validation failed: %w", err),
		}
	}

	return nil
}

// getCompiledSchema returns a cached compiled schema or compiles and caches it.
func getCompiledSchema(schema *Schema) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(schema.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	def := schema.Definition
	if schema.Validation != nil {
		def = schema.Validation
	}

	// The compiler wants a decoded JSON value, not the Go map as built.
	defBytes, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	defParsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(defBytes))
	if err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	schemaURL := fmt.Sprintf("schema://%s.json", schema.Name)
	if err := c.AddResource(schemaURL, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}

	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(schema.Name, compiled)
	return compiled, nil
}

// ListEnvelope is a Validation schema for replies of the form
// {"<key>": [{...}, ...]}. Only the top-level key is enforced; each entry
// just has to be an object and is left to the caller to check.
func ListEnvelope(key string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			key: map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "object"},
			},
		},
		"required":             []any{key},
		"additionalProperties": false,
	}
}
