package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"melodex/internal/services"
)

// ParseError reports a payload that could not be decoded from captured output.
// Raw preserves the complete stdout text for diagnosis; a malformed payload is
// never coerced into an empty result.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("decode payload: %v\noutput: %s", e.Err, e.Raw)
}

func (e *ParseError) Unwrap() []error {
	return []error{services.ErrResultParse, e.Err}
}

// PayloadLine returns the last non-empty line of captured stdout. The engine
// prints human-readable progress before the final machine-readable line, so
// only that last line is trusted as payload.
func PayloadLine(raw string) (string, bool) {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line, true
		}
	}
	return "", false
}

// DecodeJSON extracts the payload line from raw captured stdout and decodes it
// into v.
func DecodeJSON(raw string, v any) error {
	line, ok := PayloadLine(raw)
	if !ok {
		return &ParseError{Raw: raw, Err: fmt.Errorf("no payload line in output")}
	}
	if err := json.Unmarshal([]byte(line), v); err != nil {
		return &ParseError{Raw: raw, Err: err}
	}
	return nil
}
