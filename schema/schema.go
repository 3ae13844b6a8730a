// Package schema declares and enforces structured output shapes for agents and
// teams. A Definition is derived from a plain Go struct via JSON Schema
// reflection and validates raw model output without decoding it first, so
// malformed payloads can be rejected (or re-prompted) cheaply.
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"
)

// FieldType enumerates the JSON Schema primitive types supported for
// top-level result fields.
type FieldType string

const (
	// TypeString is a JSON string field.
	TypeString FieldType = "string"
	// TypeInteger is a JSON integer field.
	TypeInteger FieldType = "integer"
	// TypeNumber is a JSON number field.
	TypeNumber FieldType = "number"
	// TypeBoolean is a JSON boolean field.
	TypeBoolean FieldType = "boolean"
	// TypeArray is a JSON array field.
	TypeArray FieldType = "array"
	// TypeObject is a JSON object field.
	TypeObject FieldType = "object"
)

// Field describes one named, typed top-level field of a result schema.
type Field struct {
	Name     string
	Type     FieldType
	Required bool
}

// Definition is an immutable declared output shape. Create one with Define at
// configuration time and share it between an agent and its team aggregator.
type Definition struct {
	name   string
	fields []Field
	schema *jsonschema.Schema
}

// Violation reports a single schema conformance failure.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v *Violation) Error() string {
	if v.Field != "" {
		return fmt.Sprintf("schema violation on field %q: %s", v.Field, v.Message)
	}
	return fmt.Sprintf("schema violation: %s", v.Message)
}

// Define derives a Definition from a prototype struct. Field names follow the
// struct's json tags; pointer fields and fields tagged omitempty are optional,
// everything else is required (mirroring JSON Schema reflection defaults).
func Define(name string, prototype any) *Definition {
	reflector := jsonschema.Reflector{DoNotReference: true}
	s := reflector.Reflect(prototype)

	d := &Definition{name: name, schema: s}
	required := map[string]bool{}
	for _, r := range s.Required {
		required[r] = true
	}
	if s.Properties != nil {
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			d.fields = append(d.fields, Field{
				Name:     pair.Key,
				Type:     FieldType(pair.Value.Type),
				Required: required[pair.Key],
			})
		}
	}
	return d
}

// Name returns the declared schema name.
func (d *Definition) Name() string { return d.name }

// Fields returns the declared top-level fields in declaration order.
func (d *Definition) Fields() []Field {
	out := make([]Field, len(d.fields))
	copy(out, d.fields)
	return out
}

// JSONSchema returns the underlying reflected JSON Schema, e.g. for embedding
// into a model request as a response format.
func (d *Definition) JSONSchema() *jsonschema.Schema { return d.schema }

// PromptInstructions renders the schema as a model instruction fragment so
// backends without native structured output still produce conforming JSON.
func (d *Definition) PromptInstructions() string {
	var b strings.Builder
	b.WriteString("Respond with a single JSON object (no prose, no code fences) containing these fields:\n")
	for _, f := range d.fields {
		b.WriteString(fmt.Sprintf("- %s (%s", f.Name, f.Type))
		if f.Required {
			b.WriteString(", required")
		}
		b.WriteString(")\n")
	}
	return b.String()
}

// Coerce extracts the JSON object embedded in raw model output (tolerating
// surrounding prose and markdown fences), validates it against the declared
// fields and returns the normalized payload. The first violation encountered
// is returned as a *Violation error.
func (d *Definition) Coerce(raw string) (json.RawMessage, error) {
	payload := ExtractJSON(raw)
	if payload == "" || !gjson.Valid(payload) {
		return nil, &Violation{Message: "output contains no valid JSON object"}
	}
	if err := d.Validate(payload); err != nil {
		return nil, err
	}
	return json.RawMessage(payload), nil
}

// Validate checks an already-extracted JSON payload against the declared
// fields. Required fields must be present; present fields must carry the
// declared type.
func (d *Definition) Validate(payload string) error {
	root := gjson.Parse(payload)
	if !root.IsObject() {
		return &Violation{Message: "output is not a JSON object"}
	}
	for _, f := range d.fields {
		v := root.Get(f.Name)
		if !v.Exists() {
			if f.Required {
				return &Violation{Field: f.Name, Message: "required field is missing"}
			}
			continue
		}
		if v.Type == gjson.Null {
			continue
		}
		if !typeMatches(f.Type, v) {
			return &Violation{Field: f.Name, Message: fmt.Sprintf("expected type %s", f.Type)}
		}
	}
	return nil
}

// Decode unmarshals a validated payload into out.
func (d *Definition) Decode(payload json.RawMessage, out any) error {
	if err := json.Unmarshal(payload, out); err != nil {
		return &Violation{Message: fmt.Sprintf("decode failed: %v", err)}
	}
	return nil
}

func typeMatches(ft FieldType, v gjson.Result) bool {
	switch ft {
	case TypeString:
		return v.Type == gjson.String
	case TypeInteger:
		return v.Type == gjson.Number && v.Num == math.Trunc(v.Num)
	case TypeNumber:
		return v.Type == gjson.Number
	case TypeBoolean:
		return v.Type == gjson.True || v.Type == gjson.False
	case TypeArray:
		return v.IsArray()
	case TypeObject:
		return v.IsObject()
	default:
		return true
	}
}

// ExtractJSON locates the outermost JSON object in raw text, stripping
// markdown code fences and surrounding prose. Returns "" when no object
// delimiters are found.
func ExtractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, "```"); idx >= 0 {
		rest := s[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			s = strings.TrimSpace(rest[:end])
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
