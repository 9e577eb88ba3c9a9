package services_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"melodex/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrProcessStart, "engine", "run", "interpreter missing", base)
	if !errors.Is(err, services.ErrProcessStart) {
		t.Fatalf("expected ErrProcessStart marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
	if !strings.Contains(err.Error(), "engine: run: interpreter missing") {
		t.Fatalf("unexpected detail: %v", err)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "engine", "", "", nil)
	if !errors.Is(err, services.ErrProcessRuntime) {
		t.Fatalf("expected default runtime marker, got %v", err)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{services.Wrap(services.ErrClientInput, "recognition", "accept", "no audio", nil), http.StatusBadRequest},
		{services.Wrap(services.ErrUnauthorized, "catalog", "manual add", "missing token", nil), http.StatusUnauthorized},
		{services.Wrap(services.ErrProcessStart, "engine", "run", "", nil), http.StatusInternalServerError},
		{services.Wrap(services.ErrProcessRuntime, "engine", "run", "", nil), http.StatusInternalServerError},
		{services.Wrap(services.ErrResultParse, "engine", "extract", "", nil), http.StatusInternalServerError},
		{errors.New("untagged"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := services.HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
