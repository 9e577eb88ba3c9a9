package daemon

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"melodex/internal/api"
	"melodex/internal/deps"
	"melodex/internal/services"
)

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeMethodNotAllowed(w)
		return
	}
	status := s.daemon.Status()
	payload := api.Health{
		Status:       "ok",
		PID:          status.PID,
		Dependencies: make([]api.DependencyStatus, 0, len(status.Dependencies)),
	}
	if !deps.AllRequired(status.Dependencies) {
		payload.Status = "degraded"
	}
	for _, dep := range status.Dependencies {
		payload.Dependencies = append(payload.Dependencies, api.DependencyStatus{
			Name:      dep.Name,
			Available: dep.Available,
			Detail:    dep.Detail,
		})
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleRecognize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeMethodNotAllowed(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.daemon.cfg.MaxUploadBytes()+(1<<20))
	if err := r.ParseMultipartForm(4 << 20); err != nil {
		s.writeFailure(w, r, services.Wrap(services.ErrClientInput, "daemon", "recognize", "invalid multipart request", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.writeFailure(w, r, services.Wrap(services.ErrClientInput, "daemon", "recognize", "no audio file provided", nil))
		return
	}
	defer file.Close()

	result, err := s.daemon.recognition.Identify(r.Context(), file, header)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleSongs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeMethodNotAllowed(w)
		return
	}

	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))

	page, err := s.daemon.catalog.List(r.Context(),
		strings.TrimSpace(query.Get("genre")),
		strings.TrimSpace(query.Get("search")),
		limit, offset)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

func (s *apiServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeMethodNotAllowed(w)
		return
	}
	stats, err := s.daemon.catalog.Stats(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *apiServer) handleManualIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeMethodNotAllowed(w)
		return
	}

	var req api.ManualIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeFailure(w, r, services.Wrap(services.ErrClientInput, "daemon", "manual-index", "invalid JSON body", err))
		return
	}

	result, err := s.daemon.catalog.ManualAdd(r.Context(), req.URL)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeMethodNotAllowed(w)
		return
	}
	if s.daemon.identity == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, api.ErrorResponse{
			Success: false,
			Error:   "authentication is disabled: no token secret configured",
		})
		return
	}

	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeFailure(w, r, services.Wrap(services.ErrClientInput, "daemon", "register", "invalid JSON body", err))
		return
	}

	user, token, err := s.daemon.identity.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.AuthResponse{
		Success: true,
		Token:   token,
		User:    publicUser(user.ID, user.Username, user.Email, user.CreatedAt),
	})
}

func (s *apiServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeMethodNotAllowed(w)
		return
	}
	if s.daemon.identity == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, api.ErrorResponse{
			Success: false,
			Error:   "authentication is disabled: no token secret configured",
		})
		return
	}

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeFailure(w, r, services.Wrap(services.ErrClientInput, "daemon", "login", "invalid JSON body", err))
		return
	}

	user, token, err := s.daemon.identity.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.AuthResponse{
		Success: true,
		Token:   token,
		User:    publicUser(user.ID, user.Username, user.Email, user.CreatedAt),
	})
}

func (s *apiServer) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeMethodNotAllowed(w)
		return
	}

	userID, ok := services.UserIDFromContext(r.Context())
	if !ok {
		s.writeFailure(w, r, services.Wrap(services.ErrUnauthorized, "daemon", "me", "no identity in request", nil))
		return
	}
	user, err := s.daemon.identity.Lookup(r.Context(), userID)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, publicUser(user.ID, user.Username, user.Email, user.CreatedAt))
}

func publicUser(id int64, username, email, createdAt string) *api.User {
	return &api.User{
		ID:        id,
		Username:  username,
		Email:     email,
		CreatedAt: createdAt,
	}
}
