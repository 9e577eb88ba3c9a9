package recognition_test

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"melodex/internal/engine"
	"melodex/internal/recognition"
	"melodex/internal/services"
	"melodex/internal/testsupport"
	"melodex/internal/uploads"
)

type stubRunner struct {
	out    engine.Output
	err    error
	called bool
	spec   engine.InvocationSpec
	// inspect runs while the child would be alive, before Run returns.
	inspect func(engine.InvocationSpec)
}

func (r *stubRunner) Run(_ context.Context, spec engine.InvocationSpec) (engine.Output, error) {
	r.called = true
	r.spec = spec
	if r.inspect != nil {
		r.inspect(spec)
	}
	return r.out, r.err
}

func newPipeline(t *testing.T, runner engine.Runner) (*recognition.Pipeline, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := uploads.NewStore(cfg.Paths.UploadDir, uploads.DefaultConstraints(cfg.MaxUploadBytes()))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return recognition.New(cfg, runner, store, nil), cfg.Paths.UploadDir
}

func audioPart(t *testing.T, filename string, body []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(body); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/recognize", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	file, header, err := req.FormFile("audio")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	t.Cleanup(func() { file.Close() })
	return file, header
}

func uploadsLeft(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	return len(entries)
}

func TestIdentifySuccess(t *testing.T) {
	runner := &stubRunner{
		out: engine.Output{Stdout: "loading fingerprints\n" +
			`{"success":true,"matches":[{"title":"Stan","artist":"Eminem","confidence":0.91,"song_id":7}]}` + "\n"},
	}
	pipeline, uploadDir := newPipeline(t, runner)

	file, header := audioPart(t, "sample.mp3", []byte("riff"))
	result, err := pipeline.Identify(context.Background(), file, header)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if !result.Success || !result.MatchFound {
		t.Fatalf("unexpected result flags: %+v", result)
	}
	if len(result.Matches) != 1 || result.Matches[0].Title != "Stan" {
		t.Fatalf("unexpected matches: %+v", result.Matches)
	}
	if n := uploadsLeft(t, uploadDir); n != 0 {
		t.Fatalf("temporary asset survived the request: %d files left", n)
	}
}

func TestIdentifyBuildsArgumentVector(t *testing.T) {
	runner := &stubRunner{out: engine.Output{Stdout: `{"success":true,"matches":[]}` + "\n"}}
	pipeline, _ := newPipeline(t, runner)

	file, header := audioPart(t, "sample.mp3", []byte("riff"))
	if _, err := pipeline.Identify(context.Background(), file, header); err != nil {
		t.Fatalf("Identify: %v", err)
	}

	args := runner.spec.Args
	if len(args) != 6 {
		t.Fatalf("unexpected argument vector: %v", args)
	}
	if args[1] != "--json" || args[2] != "--top" || args[3] != "3" || args[4] != "--db" {
		t.Fatalf("unexpected flags: %v", args)
	}
	if runner.spec.Script == "" || runner.spec.Inline != "" {
		t.Fatalf("expected file-based invocation, got %+v", runner.spec)
	}
}

func TestIdentifyAssetExistsDuringInvocation(t *testing.T) {
	var pathDuringRun string
	var existedDuringRun bool
	runner := &stubRunner{out: engine.Output{Stdout: `{"success":true,"matches":[]}` + "\n"}}
	runner.inspect = func(spec engine.InvocationSpec) {
		pathDuringRun = spec.Args[0]
		_, err := os.Stat(pathDuringRun)
		existedDuringRun = err == nil
	}
	pipeline, _ := newPipeline(t, runner)

	file, header := audioPart(t, "sample.mp3", []byte("riff"))
	if _, err := pipeline.Identify(context.Background(), file, header); err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if !existedDuringRun {
		t.Fatalf("asset %s missing while engine was running", pathDuringRun)
	}
	if _, err := os.Stat(pathDuringRun); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("asset not released after request, stat err: %v", err)
	}
}

func TestIdentifyNoPayloadSpawnsNothing(t *testing.T) {
	runner := &stubRunner{}
	pipeline, uploadDir := newPipeline(t, runner)

	_, err := pipeline.Identify(context.Background(), nil, nil)
	if !errors.Is(err, services.ErrClientInput) {
		t.Fatalf("expected ErrClientInput, got %v", err)
	}
	if runner.called {
		t.Fatal("engine must not run when no audio was attached")
	}
	if n := uploadsLeft(t, uploadDir); n != 0 {
		t.Fatalf("no asset should exist, found %d files", n)
	}
}

func TestIdentifyReleasesAssetOnProcessFailure(t *testing.T) {
	runner := &stubRunner{err: services.Wrap(services.ErrProcessRuntime, "engine", "run", "exited with code 1", nil)}
	pipeline, uploadDir := newPipeline(t, runner)

	file, header := audioPart(t, "sample.mp3", []byte("riff"))
	if _, err := pipeline.Identify(context.Background(), file, header); !errors.Is(err, services.ErrProcessRuntime) {
		t.Fatalf("expected ErrProcessRuntime, got %v", err)
	}
	if n := uploadsLeft(t, uploadDir); n != 0 {
		t.Fatalf("asset survived process failure: %d files left", n)
	}
}

func TestIdentifyReleasesAssetOnParseFailure(t *testing.T) {
	runner := &stubRunner{out: engine.Output{Stdout: "not json\n"}}
	pipeline, uploadDir := newPipeline(t, runner)

	file, header := audioPart(t, "sample.mp3", []byte("riff"))
	_, err := pipeline.Identify(context.Background(), file, header)
	if !errors.Is(err, services.ErrResultParse) {
		t.Fatalf("expected ErrResultParse, got %v", err)
	}
	if n := uploadsLeft(t, uploadDir); n != 0 {
		t.Fatalf("asset survived parse failure: %d files left", n)
	}
}
