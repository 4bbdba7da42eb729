package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// questionsSchema describes the data of GET /api/assessments/{id}/questions.
var questionsSchema = map[string]any{
	"type":     "object",
	"required": []any{"questions"},
	"properties": map[string]any{
		"questions": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"id", "question", "options", "correct_answer"},
				"properties": map[string]any{
					"id":             map[string]any{"type": "string", "minLength": 1},
					"competency":     map[string]any{"type": "string"},
					"level":          map[string]any{"type": "string"},
					"question":       map[string]any{"type": "string"},
					"options":        map[string]any{"type": "array", "minItems": 2, "items": map[string]any{"type": "string"}},
					"correct_answer": map[string]any{"type": "string"},
				},
			},
		},
	},
}

// submitResultSchema describes the data of POST /api/assessments/{id}/submit.
var submitResultSchema = map[string]any{
	"type":     "object",
	"required": []any{"score", "certified_level"},
	"properties": map[string]any{
		"score":           map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
		"certified_level": map[string]any{"type": "string", "minLength": 1},
		"correct_count":   map[string]any{"type": "integer", "minimum": 0},
		"total_questions": map[string]any{"type": "integer", "minimum": 0},
	},
}

// schemaCache caches compiled JSON schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// validatePayload checks raw data against a named schema.
func validatePayload(name string, def map[string]any, raw json.RawMessage) error {
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	compiled, err := compiledSchema(name, def)
	if err != nil {
		return fmt.Errorf("compile schema %q: %w", name, err)
	}

	if err := compiled.Validate(parsed); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func compiledSchema(name string, def map[string]any) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants the same number representation as instances.
	defBytes, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(defBytes))
	if err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(name, compiled)
	return compiled, nil
}
