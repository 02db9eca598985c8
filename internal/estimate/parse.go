/*
PURPOSE:
  Strict decoding of the structured payload returned by a provider.

REQUIREMENTS:
  User-specified:
  - Field values come back exactly as the service produced them.

  Implementation-discovered:
  - encoding/json matches keys case-insensitively, lets duplicate keys
    overwrite each other and rewrites invalid UTF-8 to U+FFFD. None of that
    is acceptable here, so the object is walked token by token.

ARCHITECTURE INTEGRATION:
  - Called by: internal/estimate/estimator.go
  - Uses: internal/model (LoadEstimate), internal/engine (ErrEmptyPayload)

ERROR HANDLING:
  - ErrMalformedPayload: not one valid JSON value, trailing data, bad UTF-8.
  - ErrSchemaViolation: valid JSON, wrong shape.
  - engine.ErrEmptyPayload: nothing but whitespace.

IMPLEMENTATION RULES:
  - Keys must match the declared names byte for byte, each exactly once.
  - Values must be JSON strings with a non-blank value.

USAGE:
  est, err := estimate.Parse(payload)

SELF-HEALING INSTRUCTIONS:
  - A new LoadEstimate field needs an entry in estimateFields.

RELATED FILES:
  - internal/estimate/prompt.go
  - internal/model/types.go

MAINTENANCE:
  - Keep in step with Schema in prompt.go.
*/

package estimate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/daryltucker/load-estimator/internal/engine"
	"github.com/daryltucker/load-estimator/internal/model"
)

var (
	// ErrMalformedPayload means the payload is not a single valid JSON value.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrSchemaViolation means the payload is JSON but not the declared shape.
	ErrSchemaViolation = errors.New("schema violation")
)

// estimateFields maps each declared property to its LoadEstimate field.
var estimateFields = []struct {
	name string
	dst  func(*model.LoadEstimate) *string
}{
	{"recommendedTruck", func(e *model.LoadEstimate) *string { return &e.RecommendedTruck }},
	{"estimatedCost", func(e *model.LoadEstimate) *string { return &e.EstimatedCost }},
	{"fuelEstimate", func(e *model.LoadEstimate) *string { return &e.FuelEstimate }},
	{"tollEstimate", func(e *model.LoadEstimate) *string { return &e.TollEstimate }},
	{"explanation", func(e *model.LoadEstimate) *string { return &e.Explanation }},
}

// Parse decodes a structured payload into a LoadEstimate. It accepts exactly
// one JSON object whose five properties are non-blank strings and nothing
// else. Field values are returned untouched.
func Parse(payload []byte) (model.LoadEstimate, error) {
	var est model.LoadEstimate

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return est, engine.ErrEmptyPayload
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))

	tok, err := dec.Token()
	if err != nil {
		return est, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return est, fmt.Errorf("%w: want a JSON object, got %v", ErrSchemaViolation, tok)
	}

	seen := make(map[string]bool, len(estimateFields))
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return est, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
		}
		key, _ := tok.(string)

		dst := fieldFor(&est, key)
		if dst == nil {
			return est, fmt.Errorf("%w: unknown field %q", ErrSchemaViolation, key)
		}
		if seen[key] {
			return est, fmt.Errorf("%w: duplicate field %q", ErrSchemaViolation, key)
		}
		seen[key] = true

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return est, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
		}
		if len(raw) == 0 || raw[0] != '"' {
			return est, fmt.Errorf("%w: field %q is not a string", ErrSchemaViolation, key)
		}
		if !utf8.Valid(raw) {
			return est, fmt.Errorf("%w: field %q is not valid UTF-8", ErrMalformedPayload, key)
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return est, fmt.Errorf("%w: field %q: %w", ErrMalformedPayload, key, err)
		}
		if strings.TrimSpace(*dst) == "" {
			return est, fmt.Errorf("%w: empty field %q", ErrSchemaViolation, key)
		}
	}

	// Closing brace.
	if _, err := dec.Token(); err != nil {
		return est, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return est, fmt.Errorf("%w: trailing data after JSON object", ErrMalformedPayload)
	}

	for _, f := range estimateFields {
		if !seen[f.name] {
			return model.LoadEstimate{}, fmt.Errorf("%w: missing field %q", ErrSchemaViolation, f.name)
		}
	}
	return est, nil
}

func fieldFor(est *model.LoadEstimate, key string) *string {
	for _, f := range estimateFields {
		if f.name == key {
			return f.dst(est)
		}
	}
	return nil
}
