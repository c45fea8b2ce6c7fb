package prompt

import (
	"strings"
	"testing"
)

func TestNewTemplate_Valid(t *testing.T) {
	tmpl, err := NewTemplate("Tell me a {length} poem on {topic}", "length", "topic")
	if err != nil {
		t.Fatalf("NewTemplate: %v", err)
	}

	got, err := tmpl.Format(map[string]string{"length": "5 line", "topic": "Football"})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	want := "Tell me a 5 line poem on Football"
	if got != want {
		t.Fatalf("Format=%q, want %q", got, want)
	}
}

func TestNewTemplate_UndeclaredPlaceholder(t *testing.T) {
	_, err := NewTemplate("Summarize {paper} in {style}", "paper")
	if err == nil {
		t.Fatal("expected error for undeclared placeholder")
	}
	if !strings.Contains(err.Error(), "style") {
		t.Fatalf("error should name the placeholder: %v", err)
	}
}

func TestNewTemplate_UnusedVariable(t *testing.T) {
	_, err := NewTemplate("Summarize {paper}", "paper", "style")
	if err == nil {
		t.Fatal("expected error for unused input variable")
	}
	if !strings.Contains(err.Error(), "style") {
		t.Fatalf("error should name the variable: %v", err)
	}
}

func TestFormat_MissingValue(t *testing.T) {
	tmpl := MustTemplate("Explain {topic}", "topic")
	_, err := tmpl.Format(map[string]string{})
	if err == nil {
		t.Fatal("expected error for missing value")
	}
}

func TestFormat_ExtraValue(t *testing.T) {
	tmpl := MustTemplate("Explain {topic}", "topic")
	_, err := tmpl.Format(map[string]string{"topic": "cricket", "style": "short"})
	if err == nil {
		t.Fatal("expected error for unexpected value")
	}
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"none", "plain text", nil},
		{"repeated", "{a} then {a} then {b}", []string{"a", "b"}},
		{"non-identifier ignored", "{a} { not a var } {1bad}", []string{"a"}},
		{"sorted", "{z} {a}", []string{"a", "z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := Template{Text: tt.text}
			got := tmpl.Placeholders()
			if len(got) != len(tt.want) {
				t.Fatalf("Placeholders=%v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Placeholders=%v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestFormat_ValueContainingBraces(t *testing.T) {
	// A substituted value that itself looks like a placeholder must not
	// be re-expanded.
	tmpl := MustTemplate("Explain {topic}", "topic")
	got, err := tmpl.Format(map[string]string{"topic": "{recursion}"})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if got != "Explain {recursion}" {
		t.Fatalf("Format=%q", got)
	}
}
