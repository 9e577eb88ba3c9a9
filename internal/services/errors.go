package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrClientInput marks requests rejected before any work happened
	// (missing upload, missing required fields, malformed parameters).
	ErrClientInput = errors.New("client input error")
	// ErrUnauthorized marks requests lacking a valid identity token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrProcessStart marks engine invocations that never produced a process.
	ErrProcessStart = errors.New("process start error")
	// ErrProcessRuntime marks engine invocations that exited non-zero without
	// producing a payload.
	ErrProcessRuntime = errors.New("process runtime error")
	// ErrResultParse marks captured output that could not be decoded.
	ErrResultParse = errors.New("result parse error")
	// ErrConfiguration marks invalid or incomplete service configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later status classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrProcessRuntime
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// HTTPStatus maps a pipeline error to the response status the HTTP layer
// should emit. Unknown errors map to 500 so nothing escapes the boundary.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrClientInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
