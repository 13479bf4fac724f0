package quizparse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// quizEnvelope is the shape of a full generation response. Individual
// questions are checked by ValidateQuestion, which reports per-type problems
// more precisely than the schema would.
var quizEnvelope = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title": map[string]any{
			"type":      "string",
			"minLength": 1,
			"pattern":   `\S`,
		},
		"description": map[string]any{"type": "string"},
		"questions": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "object"},
		},
	},
	"required": []any{"title", "questions"},
}

// questionsEnvelope is the shape of a regeneration response.
var questionsEnvelope = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"questions": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items":    map[string]any{"type": "object"},
		},
	},
	"required": []any{"questions"},
}

var compiledSchemas = sync.OnceValues(func() (map[string]*jsonschema.Schema, error) {
	defs := map[string]map[string]any{
		"quiz":      quizEnvelope,
		"questions": questionsEnvelope,
	}

	c := jsonschema.NewCompiler()
	out := make(map[string]*jsonschema.Schema, len(defs))
	for name, def := range defs {
		// The compiler wants a decoded JSON document, not Go literals.
		raw, err := json.Marshal(def)
		if err != nil {
			return nil, fmt.Errorf("marshal schema %q: %w", name, err)
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("parse schema %q: %w", name, err)
		}

		url := fmt.Sprintf("schema://%s.json", name)
		if err := c.AddResource(url, doc); err != nil {
			return nil, fmt.Errorf("add schema %q: %w", name, err)
		}
		sch, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile schema %q: %w", name, err)
		}
		out[name] = sch
	}
	return out, nil
})

func validateEnvelope(name string, doc any) error {
	schemas, err := compiledSchemas()
	if err != nil {
		return err
	}
	return schemas[name].Validate(doc)
}
