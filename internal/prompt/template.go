package prompt

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// placeholderPattern matches {variable} placeholders. Identifiers only;
// "{ not a var }" is left alone.
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Template is a parameterized prompt. Placeholders use {name} syntax and
// every placeholder must be declared as an input variable. Validation is
// always on: a template whose placeholders and declared variables
// disagree is rejected at construction, not at format time.
type Template struct {
	Name           string
	Text           string
	InputVariables []string
}

// NewTemplate builds a validated template. The declared input variables
// must exactly cover the placeholders found in the text.
func NewTemplate(text string, inputVariables ...string) (*Template, error) {
	t := &Template{Text: text, InputVariables: inputVariables}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// MustTemplate is NewTemplate that panics on error. For package-level
// template declarations.
func MustTemplate(text string, inputVariables ...string) *Template {
	t, err := NewTemplate(text, inputVariables...)
	if err != nil {
		panic(err)
	}
	return t
}

// Placeholders returns the sorted set of placeholder names in the text.
func (t *Template) Placeholders() []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(t.Text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	return names
}

// Validate checks that declared input variables and placeholders agree.
// Both directions are errors: a placeholder with no declaration and a
// declaration with no placeholder.
func (t *Template) Validate() error {
	placeholders := t.Placeholders()
	declared := make(map[string]bool, len(t.InputVariables))
	for _, v := range t.InputVariables {
		declared[v] = true
	}

	var missing []string
	for _, p := range placeholders {
		if !declared[p] {
			missing = append(missing, p)
		}
	}

	used := make(map[string]bool, len(placeholders))
	for _, p := range placeholders {
		used[p] = true
	}
	var unused []string
	for _, v := range t.InputVariables {
		if !used[v] {
			unused = append(unused, v)
		}
	}
	sort.Strings(unused)

	switch {
	case len(missing) > 0 && len(unused) > 0:
		return fmt.Errorf("template %q: undeclared placeholders %v, unused input variables %v", t.Name, missing, unused)
	case len(missing) > 0:
		return fmt.Errorf("template %q: undeclared placeholders %v", t.Name, missing)
	case len(unused) > 0:
		return fmt.Errorf("template %q: unused input variables %v", t.Name, unused)
	}
	return nil
}

// Format substitutes values into the template. Every declared variable
// must be supplied and no extra values are allowed; a formatted prompt
// never silently drops or invents variables.
func (t *Template) Format(values map[string]string) (string, error) {
	declared := make(map[string]bool, len(t.InputVariables))
	for _, v := range t.InputVariables {
		declared[v] = true
	}

	var missing []string
	for _, v := range t.InputVariables {
		if _, ok := values[v]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("template %q: missing values for %v", t.Name, missing)
	}

	var extra []string
	for k := range values {
		if !declared[k] {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return "", fmt.Errorf("template %q: unexpected values %v", t.Name, extra)
	}

	out := placeholderPattern.ReplaceAllStringFunc(t.Text, func(m string) string {
		name := m[1 : len(m)-1]
		return values[name]
	})
	return out, nil
}

// String returns the trimmed template text.
func (t *Template) String() string {
	return strings.TrimSpace(t.Text)
}
