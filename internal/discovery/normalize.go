package discovery

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/baing/baing/internal/llm"
	"github.com/baing/baing/internal/logger"
)

const rawErrorLimit = 512

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// StripDecoration removes markdown code fences and any prose around the
// outermost JSON object. Braces inside prose and fences inside string
// values are tolerated: the longest span that parses as a JSON object wins.
// Text without any such object is returned with only its fence removed.
func StripDecoration(text string) string {
	s := strings.TrimSpace(text)
	if obj, ok := outermostObject(s); ok {
		return obj
	}
	return stripFence(s)
}

func outermostObject(s string) (string, bool) {
	best := ""
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		end := matchingBrace(s, i)
		if end < 0 {
			continue
		}
		if span := s[i : end+1]; json.Valid([]byte(span)) {
			if len(span) > len(best) {
				best = span
			}
			i = end
		}
	}
	return best, best != ""
}

// matchingBrace returns the index of the brace closing the one at start,
// skipping braces inside JSON strings, or -1.
func matchingBrace(s string, start int) int {
	depth := 0
	inString, escaped := false, false
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
				return i
			}
		}
	}
	return -1
}

func stripFence(s string) string {
	open := strings.Index(s, "```")
	if open < 0 {
		return s
	}
	body := s[open+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && isFenceLang(body[:nl]) {
		body = body[nl+1:]
	}
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

func isFenceLang(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "json")
}

// Normalize decodes a completion into T and checks T's validate tags.
// Structured payloads are decoded as is; text is stripped of decoration
// first. Unknown fields are ignored.
func Normalize[T any](c *llm.Completion) (T, error) {
	var out T
	if c == nil {
		return out, &ResponseFormatError{Err: llm.ErrEmptyCompletion}
	}

	payload := []byte(c.Structured)
	if !c.IsStructured() {
		payload = []byte(StripDecoration(c.Text))
	}
	if len(payload) == 0 {
		return out, &ResponseFormatError{Err: llm.ErrEmptyCompletion}
	}

	if err := json.Unmarshal(payload, &out); err != nil {
		return out, &ResponseFormatError{
			Raw: logger.Truncate(c.Raw(), rawErrorLimit),
			Err: fmt.Errorf("%w: %v", ErrUndecodable, err),
		}
	}
	if err := validate.Struct(out); err != nil {
		return out, &ResponseFormatError{
			Raw: logger.Truncate(c.Raw(), rawErrorLimit),
			Err: fmt.Errorf("%w: %v", ErrContractViolation, err),
		}
	}
	return out, nil
}
