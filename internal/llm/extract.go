package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Model output is adversarial: the JSON payload may be wrapped in prose,
// fenced in triple backticks (optionally tagged "json"), or cut off
// mid-stream by the token limit. Naive recovery (regex `\{[\s\S]*\}`,
// greedy bracket matching) silently yields wrong or partial JSON whenever a
// string value contains braces or escaped quotes, so we do a string-aware
// bracket-depth scan instead.

var (
	reFenceOpen  = regexp.MustCompile("^\\s*```(?:json)?\\s*\n")
	reFenceClose = regexp.MustCompile("\n?\\s*```\\s*$")
)

// ExtractJSON recovers the first complete top-level JSON value from raw
// model output. It returns ok=false when no value can be recovered: no
// opening bracket, truncated output, or a candidate the decoder rejects.
// Truncated output is never auto-repaired; a guessed closing bracket could
// fabricate structure the model never produced. Never panics.
func ExtractJSON(raw string) (json.RawMessage, bool) {
	s := stripFences(raw)

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return nil, false
	}

	open := s[start]
	var close byte
	if open == '{' {
		close = '}'
	} else {
		close = ']'
	}

	depth := 0
	inString := false
	escapeNext := false
	end := -1

scan:
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escapeNext:
			// consumes exactly one character, so `\\` does not arm the
			// escape for the character after it
			escapeNext = false
		case inString && c == '\\':
			escapeNext = true
		case c == '"':
			inString = !inString
		case inString:
			// brackets inside string literals are never counted
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				end = i + 1
				break scan
			}
		}
	}
	if end < 0 {
		// ran out of input with brackets still open: truncated
		return nil, false
	}

	candidate := s[start:end]
	var v json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &v); err != nil {
		return nil, false
	}
	return v, true
}

// stripFences removes a single leading and a single trailing code fence.
// Done before scanning so the fence line is never part of the candidate;
// anything else around the value is handled by the scan itself.
func stripFences(s string) string {
	if loc := reFenceOpen.FindStringIndex(s); loc != nil {
		s = s[loc[1]:]
	}
	if loc := reFenceClose.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	return s
}
