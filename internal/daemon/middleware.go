package daemon

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"melodex/internal/api"
	"melodex/internal/services"
)

// withRequestID attaches a correlation id to every request. An inbound
// X-Request-ID is honored so callers can trace their own requests through the
// logs.
func (s *apiServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

// withCORS mirrors the permissive policy the browser client expects.
func (s *apiServer) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth verifies the bearer token and stores the account id in the
// request context. Protected handlers never run without a verified identity.
func (s *apiServer) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.daemon.identity == nil {
			s.writeJSON(w, http.StatusServiceUnavailable, api.ErrorResponse{
				Success: false,
				Error:   "authentication is disabled: no token secret configured",
			})
			return
		}
		token := bearerToken(r)
		if token == "" {
			s.writeFailure(w, r, services.Wrap(services.ErrUnauthorized, "daemon", "auth", "missing bearer token", nil))
			return
		}
		userID, err := s.daemon.identity.VerifyToken(token)
		if err != nil {
			s.writeFailure(w, r, err)
			return
		}
		next(w, r.WithContext(services.WithUserID(r.Context(), userID)))
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
