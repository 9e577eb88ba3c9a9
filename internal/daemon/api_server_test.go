package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"melodex/internal/api"
	"melodex/internal/catalog"
	"melodex/internal/engine"
	"melodex/internal/recognition"
	"melodex/internal/testsupport"
	"melodex/internal/uploads"
)

type stubRunner struct {
	out    engine.Output
	err    error
	called bool
	spec   engine.InvocationSpec
}

func (r *stubRunner) Run(_ context.Context, spec engine.InvocationSpec) (engine.Output, error) {
	r.called = true
	r.spec = spec
	return r.out, r.err
}

func newTestServer(t *testing.T, runner engine.Runner) (*httptest.Server, *Daemon) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = "127.0.0.1:0"

	d, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	store, err := uploads.NewStore(cfg.Paths.UploadDir, uploads.DefaultConstraints(cfg.MaxUploadBytes()))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	d.recognition = recognition.New(cfg, runner, store, nil)
	d.catalog = catalog.New(cfg, runner, nil)

	server := httptest.NewServer(d.api.handler)
	t.Cleanup(server.Close)
	return server, d
}

func postAudio(t *testing.T, url string, body []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", "sample.mp3")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(body); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	resp, err := http.Post(url+"/api/recognize", writer.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("POST /api/recognize: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		t.Fatalf("decode body %q: %v", body, err)
	}
}

func TestRecognizeEndpoint(t *testing.T) {
	runner := &stubRunner{out: engine.Output{
		Stdout: "matching fingerprints\n" +
			`{"success":true,"matches":[{"title":"Lose Yourself","artist":"Eminem","confidence":0.88}]}` + "\n",
	}}
	server, _ := newTestServer(t, runner)

	resp := postAudio(t, server.URL, []byte("riff"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var result api.RecognitionResult
	decodeBody(t, resp, &result)
	if !result.Success || !result.MatchFound || len(result.Matches) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Matches[0].Title != "Lose Yourself" {
		t.Fatalf("unexpected match: %+v", result.Matches[0])
	}
}

func TestRecognizeWithoutFileIsClientError(t *testing.T) {
	runner := &stubRunner{}
	server, _ := newTestServer(t, runner)

	resp, err := http.Post(server.URL+"/api/recognize", "application/json", bytes.NewBufferString("{}"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var failure api.ErrorResponse
	decodeBody(t, resp, &failure)
	if failure.Success || failure.Error == "" {
		t.Fatalf("unexpected failure shape: %+v", failure)
	}
	if runner.called {
		t.Fatal("engine must not run without an upload")
	}
}

func TestRecognizeEngineFailureIsServerError(t *testing.T) {
	runner := &stubRunner{err: fmt.Errorf("engine exploded")}
	server, _ := newTestServer(t, runner)

	resp := postAudio(t, server.URL, []byte("riff"))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	var failure api.ErrorResponse
	decodeBody(t, resp, &failure)
	if failure.Success {
		t.Fatalf("unexpected failure shape: %+v", failure)
	}
}

func TestSongsEndpoint(t *testing.T) {
	runner := &stubRunner{out: engine.Output{
		Stdout: `{"songs":[{"id":3,"title":"Three","artist":"A"},{"id":2,"title":"Two","artist":"A"},{"id":1,"title":"One","artist":"A"}]}` + "\n",
	}}
	server, _ := newTestServer(t, runner)

	resp, err := http.Get(server.URL + "/api/songs?limit=1&offset=1&genre=Rock&search=o")
	if err != nil {
		t.Fatalf("GET /api/songs: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	var page api.SongsPage
	decodeBody(t, resp, &page)
	if page.Total != 3 || page.Limit != 1 || page.Offset != 1 {
		t.Fatalf("unexpected envelope: %+v", page)
	}
	if len(page.Songs) != 1 || page.Songs[0].ID != 2 {
		t.Fatalf("unexpected page: %+v", page.Songs)
	}
	if runner.spec.Args[2] != "Rock" || runner.spec.Args[3] != "o" {
		t.Fatalf("filters not forwarded: %v", runner.spec.Args)
	}
}

func TestStatsEndpoint(t *testing.T) {
	runner := &stubRunner{out: engine.Output{
		Stdout: `{"total_songs":2,"genres":{"Unknown":2}}` + "\n",
	}}
	server, _ := newTestServer(t, runner)

	resp, err := http.Get(server.URL + "/api/stats")
	if err != nil {
		t.Fatalf("GET /api/stats: %v", err)
	}
	defer resp.Body.Close()

	var stats api.Stats
	decodeBody(t, resp, &stats)
	if stats.TotalSongs != 2 || stats.Genres["Unknown"] != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestManualIndexRequiresToken(t *testing.T) {
	runner := &stubRunner{}
	server, _ := newTestServer(t, runner)

	resp, err := http.Post(server.URL+"/api/manual-index", "application/json",
		bytes.NewBufferString(`{"url":"https://example.com/song"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if runner.called {
		t.Fatal("engine must not run without a verified token")
	}
}

func TestManualIndexWithToken(t *testing.T) {
	runner := &stubRunner{out: engine.Output{
		Stdout: `{"success":true,"message":"indexed"}` + "\n",
	}}
	server, d := newTestServer(t, runner)

	_, token, err := d.identity.Register(context.Background(), "alice", "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/manual-index",
		bytes.NewBufferString(`{"url":"https://example.com/song"}`))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	var result api.ManualIndexResult
	decodeBody(t, resp, &result)
	if !result.Success || result.Message != "indexed" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestAuthFlowOverHTTP(t *testing.T) {
	server, _ := newTestServer(t, &stubRunner{})

	register, err := http.Post(server.URL+"/api/auth/register", "application/json",
		bytes.NewBufferString(`{"username":"alice","email":"alice@example.com","password":"hunter22"}`))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	defer register.Body.Close()
	if register.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", register.StatusCode)
	}

	login, err := http.Post(server.URL+"/api/auth/login", "application/json",
		bytesReader(`{"username":"alice","password":"hunter22"}`))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer login.Body.Close()
	var auth api.AuthResponse
	decodeBody(t, login, &auth)
	if !auth.Success || auth.Token == "" || auth.User == nil {
		t.Fatalf("unexpected auth response: %+v", auth)
	}

	me, err := http.NewRequest(http.MethodGet, server.URL+"/api/auth/me", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	me.Header.Set("Authorization", "Bearer "+auth.Token)
	resp, err := http.DefaultClient.Do(me)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	defer resp.Body.Close()
	var user api.User
	decodeBody(t, resp, &user)
	if user.Username != "alice" || user.Email != "alice@example.com" {
		t.Fatalf("unexpected account: %+v", user)
	}

	bad, err := http.Post(server.URL+"/api/auth/login", "application/json",
		bytesReader(`{"username":"alice","password":"wrong"}`))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer bad.Body.Close()
	if bad.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", bad.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t, &stubRunner{})

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	var health api.Health
	decodeBody(t, resp, &health)
	// The test config points at script paths that do not exist yet.
	if health.Status != "degraded" {
		t.Fatalf("expected degraded health, got %+v", health)
	}
	if len(health.Dependencies) == 0 {
		t.Fatal("expected dependency statuses")
	}
}

func TestCORSPreflight(t *testing.T) {
	server, _ := newTestServer(t, &stubRunner{})

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/api/recognize", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header: %v", resp.Header)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	server, _ := newTestServer(t, &stubRunner{})

	req, err := http.NewRequest(http.MethodGet, server.URL+"/health", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("X-Request-ID", "trace-me-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Request-ID"); got != "trace-me-123" {
		t.Fatalf("request id not echoed, got %q", got)
	}

	resp2, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected generated request id")
	}
}

func bytesReader(s string) *bytes.Reader {
	return bytes.NewReader([]byte(s))
}
