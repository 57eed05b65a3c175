// Package schema validates the structure of the visual-search payload before
// it is handed to callers.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"snapsearch/internal/domain/entity"

	"github.com/google/jsonschema-go/jsonschema"
)

var ErrInvalidPayload = errors.New("payload does not match image search schema")

var resolved = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	s, err := jsonschema.For[entity.ImageSearchResults](nil)
	if err != nil {
		return nil, fmt.Errorf("infer schema: %w", err)
	}
	// The remote payload carries more keys than we model; only the modelled
	// ones are checked.
	allowUnknownKeys(s, map[*jsonschema.Schema]bool{})
	forbidNullArrays(s, map[*jsonschema.Schema]bool{})
	return s.Resolve(nil)
})

// forbidNullArrays makes every array mandatory-present-as-array. Inference
// allows null for any Go slice, but the payload never sends null lists and a
// null one means the upstream shape changed. Pointer fields stay nullable.
func forbidNullArrays(s *jsonschema.Schema, seen map[*jsonschema.Schema]bool) {
	if s == nil || seen[s] {
		return
	}
	seen[s] = true
	if slices.Contains(s.Types, "array") {
		s.Types = slices.DeleteFunc(slices.Clone(s.Types), func(t string) bool { return t == "null" })
		if len(s.Types) == 1 {
			s.Type, s.Types = s.Types[0], nil
		}
	}
	for _, p := range s.Properties {
		forbidNullArrays(p, seen)
	}
	for _, d := range s.Defs {
		forbidNullArrays(d, seen)
	}
	forbidNullArrays(s.Items, seen)
}

func allowUnknownKeys(s *jsonschema.Schema, seen map[*jsonschema.Schema]bool) {
	if s == nil || seen[s] {
		return
	}
	seen[s] = true
	s.AdditionalProperties = nil
	for _, p := range s.Properties {
		allowUnknownKeys(p, seen)
	}
	for _, d := range s.Defs {
		allowUnknownKeys(d, seen)
	}
	for _, sub := range s.AnyOf {
		allowUnknownKeys(sub, seen)
	}
	for _, sub := range s.OneOf {
		allowUnknownKeys(sub, seen)
	}
	allowUnknownKeys(s.Items, seen)
}

// DecodeImageSearchResults validates raw against the payload schema and
// decodes it. Every failure wraps ErrInvalidPayload.
func DecodeImageSearchResults(raw []byte) (*entity.ImageSearchResults, error) {
	rs, err := resolved()
	if err != nil {
		return nil, err
	}

	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if _, ok := instance.(map[string]any); !ok {
		return nil, fmt.Errorf("%w: top level is not an object", ErrInvalidPayload)
	}
	if err := rs.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	var out entity.ImageSearchResults
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &out, nil
}
