package uploads_test

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"melodex/internal/services"
	"melodex/internal/uploads"
)

func multipartUpload(t *testing.T, filename, contentType string, body []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="audio"; filename="` + filename + `"`}
	if contentType != "" {
		header["Content-Type"] = []string{contentType}
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(body); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/recognize", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("parse multipart form: %v", err)
	}
	file, fileHeader, err := req.FormFile("audio")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	t.Cleanup(func() { file.Close() })
	return file, fileHeader
}

func TestAcceptWritesUniqueFileWithExtension(t *testing.T) {
	dir := t.TempDir()
	store, err := uploads.NewStore(dir, uploads.DefaultConstraints(1<<20))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	file, header := multipartUpload(t, "clip.MP3", "audio/mpeg", []byte("audio bytes"))
	asset, err := store.Accept(file, header)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	defer asset.Release()

	if filepath.Dir(asset.Path) != dir {
		t.Fatalf("asset written outside store dir: %s", asset.Path)
	}
	if !strings.HasSuffix(asset.Path, ".mp3") {
		t.Fatalf("expected original extension preserved, got %s", asset.Path)
	}
	if asset.OriginalName != "clip.MP3" {
		t.Fatalf("unexpected original name: %s", asset.OriginalName)
	}
	if asset.Size != int64(len("audio bytes")) {
		t.Fatalf("unexpected size: %d", asset.Size)
	}
	data, err := os.ReadFile(asset.Path)
	if err != nil {
		t.Fatalf("read asset: %v", err)
	}
	if string(data) != "audio bytes" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestAcceptAdmitsByExtensionWhenMIMEUnhelpful(t *testing.T) {
	store, err := uploads.NewStore(t.TempDir(), uploads.DefaultConstraints(1<<20))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	file, header := multipartUpload(t, "sample.wav", "application/octet-stream", []byte("x"))
	asset, err := store.Accept(file, header)
	if err != nil {
		t.Fatalf("expected extension fallback to admit upload: %v", err)
	}
	asset.Release()
}

func TestAcceptAdmitsByMIMEWhenExtensionUnknown(t *testing.T) {
	store, err := uploads.NewStore(t.TempDir(), uploads.DefaultConstraints(1<<20))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	file, header := multipartUpload(t, "blob.bin", "audio/webm;codecs=opus", []byte("x"))
	asset, err := store.Accept(file, header)
	if err != nil {
		t.Fatalf("expected MIME allow-list to admit upload: %v", err)
	}
	asset.Release()
}

func TestAcceptRejectsUnsupportedFormat(t *testing.T) {
	store, err := uploads.NewStore(t.TempDir(), uploads.DefaultConstraints(1<<20))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	file, header := multipartUpload(t, "notes.txt", "text/plain", []byte("x"))
	if _, err := store.Accept(file, header); !errors.Is(err, services.ErrClientInput) {
		t.Fatalf("expected ErrClientInput, got %v", err)
	}
}

func TestAcceptRejectsOversizedUpload(t *testing.T) {
	dir := t.TempDir()
	store, err := uploads.NewStore(dir, uploads.DefaultConstraints(8))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	file, header := multipartUpload(t, "big.mp3", "audio/mpeg", bytes.Repeat([]byte("a"), 64))
	if _, err := store.Accept(file, header); !errors.Is(err, services.ErrClientInput) {
		t.Fatalf("expected ErrClientInput for oversized upload, got %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("rejected upload left files behind: %v", entries)
	}
}

func TestReleaseIsIdempotentAndTolerant(t *testing.T) {
	store, err := uploads.NewStore(t.TempDir(), uploads.DefaultConstraints(1<<20))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	file, header := multipartUpload(t, "clip.ogg", "audio/ogg", []byte("x"))
	asset, err := store.Accept(file, header)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}

	path := asset.Path
	if err := asset.Release(); err != nil {
		t.Fatalf("first Release: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected file removed, stat err: %v", err)
	}
	if err := asset.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}

	var nilAsset *uploads.Asset
	if err := nilAsset.Release(); err != nil {
		t.Fatalf("nil Release: %v", err)
	}
}
