// Package decode turns raw model output into a JSON object. It is purely
// syntactic: no field is inspected or coerced here.
package decode

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errNoObject = errors.New("no json object found")

// DecodeError reports model output that does not contain a JSON object.
type DecodeError struct {
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode model response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Object extracts the JSON object carried by raw. Code fences are stripped
// first, then the whole text is parsed, and finally the first balanced
// brace-delimited span that parses as an object is used. A brace that never
// closes does not hide a later object.
func Object(raw string) (map[string]any, error) {
	text := StripFences(raw)
	if text == "" {
		return nil, &DecodeError{Raw: raw, Err: errors.New("empty response")}
	}

	obj, err := parseObject(text)
	if err == nil {
		return obj, nil
	}
	if errors.Is(err, errNoObject) {
		return nil, &DecodeError{Raw: raw, Err: err}
	}

	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end := matchingBrace(text, start); end >= 0 {
			if obj, spanErr := parseObject(text[start : end+1]); spanErr == nil {
				return obj, nil
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	return nil, &DecodeError{Raw: raw, Err: err}
}

// StripFences removes a surrounding markdown code block, including an
// optional language tag on the opening fence.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		tag := strings.TrimSpace(text[:idx])
		if !strings.ContainsAny(tag, "{[ ") {
			text = text[idx+1:]
		}
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}

	return strings.TrimSpace(text)
}

func parseObject(text string) (map[string]any, error) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, err
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is %T", errNoObject, value)
	}

	return obj, nil
}

// matchingBrace returns the index of the brace closing the one at start,
// ignoring braces inside string literals. -1 means unbalanced.
func matchingBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

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
				return i
			}
		}
	}

	return -1
}
