package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"melodex/internal/services"
)

// Client talks to a running melodexd over HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the daemon listening at bind, which may be a
// bare host:port or a full URL.
func NewClient(bind string) *Client {
	base := bind
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

// WithToken returns a copy of the client that attaches the bearer token to
// every request.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// Health fetches the daemon liveness report.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.getJSON(ctx, "/health", nil, &out)
	return out, err
}

// Songs fetches one page of the catalog.
func (c *Client) Songs(ctx context.Context, genre, search string, limit, offset int) (SongsPage, error) {
	query := url.Values{}
	if genre != "" {
		query.Set("genre", genre)
	}
	if search != "" {
		query.Set("search", search)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	var out SongsPage
	err := c.getJSON(ctx, "/api/songs", query, &out)
	return out, err
}

// Stats fetches catalog aggregates.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var out Stats
	err := c.getJSON(ctx, "/api/stats", nil, &out)
	return out, err
}

// Recognize uploads the audio file at path and returns the match candidates.
func (c *Client) Recognize(ctx context.Context, path string) (RecognitionResult, error) {
	var out RecognitionResult

	f, err := os.Open(path)
	if err != nil {
		return out, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", filepath.Base(path))
	if err != nil {
		return out, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return out, fmt.Errorf("build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return out, fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/recognize", &body)
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	err = c.do(req, &out)
	return out, err
}

// ManualIndex asks the daemon to fetch and index a song from url. Requires an
// identity token.
func (c *Client) ManualIndex(ctx context.Context, songURL string) (ManualIndexResult, error) {
	var out ManualIndexResult
	err := c.postJSON(ctx, "/api/manual-index", ManualIndexRequest{URL: songURL}, &out)
	return out, err
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	var out AuthResponse
	err := c.postJSON(ctx, "/api/auth/register", req, &out)
	return out, err
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	var out AuthResponse
	err := c.postJSON(ctx, "/api/auth/login", req, &out)
	return out, err
}

// Me returns the account behind the client's token.
func (c *Client) Me(ctx context.Context) (User, error) {
	var out User
	err := c.getJSON(ctx, "/api/auth/me", nil, &out)
	return out, err
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var failure ErrorResponse
		if json.Unmarshal(body, &failure) == nil && failure.Error != "" {
			return c.statusError(resp.StatusCode, failure.Error)
		}
		return c.statusError(resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) statusError(status int, message string) error {
	marker := services.ErrProcessRuntime
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		marker = services.ErrUnauthorized
	case status >= 400 && status < 500:
		marker = services.ErrClientInput
	}
	return services.Wrap(marker, "api", "request", fmt.Sprintf("HTTP %d: %s", status, message), nil)
}
