package quiz

import (
	"encoding/json"
	"errors"
)

// ErrNoJSON indicates no parseable JSON object was found in the text.
var ErrNoJSON = errors.New("no JSON object found in model output")

// ExtractObject locates and parses the first syntactically valid JSON object
// embedded in arbitrary text. Surrounding prose and markdown code fences are
// tolerated; fences contain no braces and are simply skipped over.
//
// The scanner tracks brace depth and honors string literals: an unescaped
// quote toggles in-string mode, and braces inside strings do not affect
// depth. The first brace-balanced span that parses as JSON wins. When a
// balanced span fails to parse, scanning restarts just past its opening
// brace so that an inner object can still be considered.
func ExtractObject(text string) (map[string]any, error) {
	data := []byte(text)

	for i := 0; i < len(data); i++ {
		if data[i] != '{' {
			continue
		}

		end, ok := scanBalanced(data, i)
		if !ok {
			// This opener never closes; a later opener may still balance.
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal(data[i:end+1], &obj); err == nil {
			return obj, nil
		}
		// Balanced but not valid JSON. Retry from the next character so
		// nested spans get their chance.
	}

	return nil, ErrNoJSON
}

// scanBalanced scans from the opening brace at start and returns the index
// of the matching close brace, honoring string literals and escapes.
func scanBalanced(b []byte, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(b); i++ {
		c := b[i]

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
				return i, true
			}
		}
	}

	return 0, false
}
