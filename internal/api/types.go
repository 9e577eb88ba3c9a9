// Package api defines the wire types shared by the daemon's HTTP surface and
// the CLI client.
package api

// Song is one catalog entry as the engine reports it.
type Song struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Genre     string `json:"genre"`
	URL       string `json:"url,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Match is one recognition candidate, strongest first.
type Match struct {
	SongID        int64   `json:"song_id,omitempty"`
	Title         string  `json:"title"`
	Artist        string  `json:"artist"`
	Genre         string  `json:"genre,omitempty"`
	URL           string  `json:"url,omitempty"`
	Thumbnail     string  `json:"thumbnail,omitempty"`
	Confidence    float64 `json:"confidence"`
	IsShazamMatch bool    `json:"is_shazam_match"`
}

// RecognitionResult is the response body for POST /api/recognize.
type RecognitionResult struct {
	Success    bool    `json:"success"`
	MatchFound bool    `json:"match_found"`
	Matches    []Match `json:"matches"`
	Error      string  `json:"error,omitempty"`
}

// SongsPage is the response body for GET /api/songs. Total counts the full
// filtered set before Limit/Offset slicing.
type SongsPage struct {
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Songs  []Song `json:"songs"`
}

// Stats is the response body for GET /api/stats.
type Stats struct {
	TotalSongs int            `json:"total_songs"`
	Genres     map[string]int `json:"genres"`
}

// ManualIndexRequest is the body for POST /api/manual-index.
type ManualIndexRequest struct {
	URL string `json:"url"`
}

// ManualIndexResult is the response body for POST /api/manual-index.
type ManualIndexResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RegisterRequest is the body for POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// User is the public view of an account.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	User    *User  `json:"user,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorResponse is the uniform failure body for every endpoint.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// DependencyStatus reports one preflight check result.
type DependencyStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

// Health is the response body for GET /health.
type Health struct {
	Status       string             `json:"status"`
	PID          int                `json:"pid"`
	Dependencies []DependencyStatus `json:"dependencies"`
}
