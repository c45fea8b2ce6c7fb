package prompt

import (
	"fmt"
	"sort"
)

// Segment is one (role, template) pair of a chat template.
type Segment struct {
	Role Role
	Text string
}

// ChatTemplate is an ordered list of role-tagged templates that formats
// into a message list. Input variables are shared across segments:
// {topic} in the system segment and {topic} in a user segment are the
// same variable.
type ChatTemplate struct {
	Name     string
	Segments []Segment

	templates []*Template
}

// NewChatTemplate builds a validated chat template. Input variables are
// derived from the placeholders found across all segments.
func NewChatTemplate(segments ...Segment) (*ChatTemplate, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("chat template needs at least one segment")
	}

	ct := &ChatTemplate{Segments: segments}
	for i, seg := range segments {
		if !ValidRole(seg.Role) {
			return nil, fmt.Errorf("segment %d: unknown role %q", i, seg.Role)
		}
		t := &Template{Text: seg.Text}
		t.InputVariables = t.Placeholders()
		ct.templates = append(ct.templates, t)
	}
	return ct, nil
}

// Validate checks every segment's template.
func (ct *ChatTemplate) Validate() error {
	for i, t := range ct.templates {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("segment %d (%s): %w", i, ct.Segments[i].Role, err)
		}
	}
	return nil
}

// InputVariables returns the sorted union of placeholders across segments.
func (ct *ChatTemplate) InputVariables() []string {
	seen := make(map[string]bool)
	var vars []string
	for _, t := range ct.templates {
		for _, v := range t.InputVariables {
			if !seen[v] {
				seen[v] = true
				vars = append(vars, v)
			}
		}
	}
	sort.Strings(vars)
	return vars
}

// Format substitutes values into every segment and returns the resulting
// message list. The supplied values must exactly cover the union of
// placeholders, matching single-template semantics.
func (ct *ChatTemplate) Format(values map[string]string) ([]Message, error) {
	declared := make(map[string]bool)
	for _, v := range ct.InputVariables() {
		declared[v] = true
	}

	var missing []string
	for v := range declared {
		if _, ok := values[v]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("chat template %q: missing values for %v", ct.Name, missing)
	}
	var extra []string
	for k := range values {
		if !declared[k] {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return nil, fmt.Errorf("chat template %q: unexpected values %v", ct.Name, extra)
	}

	msgs := make([]Message, 0, len(ct.Segments))
	for i, t := range ct.templates {
		// Segment formats see only their own variables.
		sub := make(map[string]string, len(t.InputVariables))
		for _, v := range t.InputVariables {
			sub[v] = values[v]
		}
		text, err := t.Format(sub)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		msgs = append(msgs, Message{Role: ct.Segments[i].Role, Content: text})
	}
	return msgs, nil
}
