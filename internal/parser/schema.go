package parser

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// FieldType is a JSON schema primitive type.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeInteger FieldType = "integer"
	TypeBoolean FieldType = "boolean"
	TypeArray   FieldType = "array"
	TypeObject  FieldType = "object"
)

// Field declares one property of a structured reply.
type Field struct {
	Name        string
	Type        FieldType
	Description string
	Required    bool
}

// Schema describes the shape a structured reply must take. The same
// schema drives three things: API-level enforcement where the provider
// supports it, prompt-side format instructions where it does not, and
// local validation of whatever comes back.
type Schema struct {
	Name        string
	Description string
	Fields      []Field
}

// JSONSchema renders the schema as a plain JSON-schema object.
func (s *Schema) JSONSchema() map[string]any {
	properties := make(map[string]any, len(s.Fields))
	var required []string
	for _, f := range s.Fields {
		prop := map[string]any{"type": string(f.Type)}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		properties[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}
	sort.Strings(required)

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// OpenAIResponseFormat wraps the schema in the response_format envelope
// used by OpenAI-compatible chat completion APIs.
func (s *Schema) OpenAIResponseFormat() map[string]any {
	return map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   s.Name,
			"strict": true,
			"schema": s.JSONSchema(),
		},
	}
}

// GeminiResponseSchema returns the raw schema for Gemini's
// generationConfig.response_schema field, paired with
// response_mime_type application/json.
func (s *Schema) GeminiResponseSchema() map[string]any {
	return s.JSONSchema()
}

// Instructions renders prompt-side format instructions for providers
// with no schema enforcement.
func (s *Schema) Instructions() string {
	var b strings.Builder
	b.WriteString("Reply with a single JSON object and nothing else. Fields:\n")
	for _, f := range s.Fields {
		b.WriteString(fmt.Sprintf("  %q (%s", f.Name, f.Type))
		if f.Required {
			b.WriteString(", required")
		}
		b.WriteString(")")
		if f.Description != "" {
			b.WriteString(": " + f.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Validate checks a parsed object against the schema: required fields
// present, value types matching.
func (s *Schema) Validate(obj map[string]any) error {
	var problems []string

	for _, f := range s.Fields {
		v, ok := obj[f.Name]
		if !ok {
			if f.Required {
				problems = append(problems, fmt.Sprintf("missing required field %q", f.Name))
			}
			continue
		}
		if err := checkType(f.Type, v); err != nil {
			problems = append(problems, fmt.Sprintf("field %q: %v", f.Name, err))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("schema %q: %s", s.Name, strings.Join(problems, "; "))
	}
	return nil
}

func checkType(want FieldType, v any) error {
	if v == nil {
		return fmt.Errorf("is null")
	}
	switch want {
	case TypeString:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("want string, got %T", v)
		}
	case TypeNumber:
		if _, ok := v.(float64); !ok {
			return fmt.Errorf("want number, got %T", v)
		}
	case TypeInteger:
		f, ok := v.(float64)
		if !ok || f != math.Trunc(f) {
			return fmt.Errorf("want integer, got %v", v)
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("want boolean, got %T", v)
		}
	case TypeArray:
		if _, ok := v.([]any); !ok {
			return fmt.Errorf("want array, got %T", v)
		}
	case TypeObject:
		if _, ok := v.(map[string]any); !ok {
			return fmt.Errorf("want object, got %T", v)
		}
	default:
		return fmt.Errorf("unknown field type %q", want)
	}
	return nil
}
