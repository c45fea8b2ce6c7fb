package parser

import "encoding/json"

// ExtractJSON finds the last valid JSON object embedded in free text.
// Model replies routinely wrap JSON in prose or markdown fences; the
// scan is string-aware so braces inside string values do not confuse
// the depth count. Returns "" when no valid object is present.
func ExtractJSON(s string) string {
	last := ""
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		end := balancedEnd(s, i)
		if end < 0 {
			continue
		}
		candidate := s[i:end]
		if json.Valid([]byte(candidate)) {
			last = candidate
			// Skip past this object so nested objects inside it are
			// not reported separately.
			i = end - 1
		}
	}
	return last
}

// balancedEnd returns the index just past the brace that closes the
// object starting at start, or -1 if the object never closes.
func balancedEnd(s string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}
