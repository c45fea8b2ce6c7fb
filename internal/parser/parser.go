// Package parser coerces free-text model replies into predictable
// shapes: trimmed strings, JSON maps, schema-validated records, and
// lists.
package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Parser turns a raw model reply into a typed value.
type Parser interface {
	// Name identifies the parser in logs and errors.
	Name() string

	// Parse extracts the value from the raw reply.
	Parse(raw string) (any, error)
}

// StringParser returns the reply as trimmed text.
type StringParser struct{}

func (StringParser) Name() string { return "string" }

func (StringParser) Parse(raw string) (any, error) {
	return strings.TrimSpace(raw), nil
}

// JSONParser extracts the last JSON object from the reply and
// unmarshals it into a map.
type JSONParser struct{}

func (JSONParser) Name() string { return "json" }

func (JSONParser) Parse(raw string) (any, error) {
	jsonStr := ExtractJSON(raw)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON object found in reply")
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &obj); err != nil {
		return nil, fmt.Errorf("parse JSON reply: %w", err)
	}
	return obj, nil
}

// bulletPrefix strips list markers: "-", "*", "1.", "2)", etc.
var bulletPrefix = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)

// ListParser splits the reply into items. With an empty Separator it
// splits on newlines and strips bullet markers; otherwise it splits on
// the separator (the comma-separated list case).
type ListParser struct {
	Separator string
}

func (ListParser) Name() string { return "list" }

func (p ListParser) Parse(raw string) (any, error) {
	sep := p.Separator
	var parts []string
	if sep == "" {
		parts = strings.Split(raw, "\n")
	} else {
		parts = strings.Split(raw, sep)
	}

	items := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(bulletPrefix.ReplaceAllString(part, ""))
		if item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no list items found in reply")
	}
	return items, nil
}

// StructuredParser extracts a JSON object and validates it against a
// schema. Use Schema.Instructions or the provider response-format
// builders to push the schema to the model side as well.
type StructuredParser struct {
	Schema *Schema
}

func (p StructuredParser) Name() string {
	if p.Schema != nil && p.Schema.Name != "" {
		return "structured:" + p.Schema.Name
	}
	return "structured"
}

func (p StructuredParser) Parse(raw string) (any, error) {
	if p.Schema == nil {
		return nil, fmt.Errorf("structured parser has no schema")
	}

	v, err := (JSONParser{}).Parse(raw)
	if err != nil {
		return nil, err
	}
	obj := v.(map[string]any)
	if err := p.Schema.Validate(obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// Render converts a parsed value back to display text. Chains use this
// when a step's output feeds the next step's input.
func Render(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []string:
		return strings.Join(val, "\n"), nil
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("render parsed value: %w", err)
		}
		return string(data), nil
	}
}
