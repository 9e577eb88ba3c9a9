// Package uploads owns the lifecycle of temporary audio files received over
// HTTP. An accepted upload becomes an Asset on disk; callers pair every Accept
// with a deferred Release so no request leaves files behind.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"melodex/internal/services"
)

// AudioExtensionPattern matches the audio container extensions the recognition
// engine accepts.
var AudioExtensionPattern = regexp.MustCompile(`(?i)\.(mp3|wav|ogg|m4a|webm|mp4)$`)

// audioMIMETypes lists the content types browsers commonly attach to recorded
// or picked audio.
var audioMIMETypes = map[string]struct{}{
	"audio/mpeg":  {},
	"audio/mp3":   {},
	"audio/wav":   {},
	"audio/wave":  {},
	"audio/x-wav": {},
	"audio/ogg":   {},
	"audio/webm":  {},
	"audio/mp4":   {},
	"audio/x-m4a": {},
	"video/webm":  {},
	"video/mp4":   {},
}

// Constraints bound what Accept will admit. An upload passes when its declared
// MIME type is on the allow-list or its filename matches the extension pattern,
// so files with a useless browser MIME type but a recognizable extension still
// get through.
type Constraints struct {
	MaxBytes         int64
	ExtensionPattern *regexp.Regexp
}

// DefaultConstraints returns the standard audio upload constraints with the
// given size bound.
func DefaultConstraints(maxBytes int64) Constraints {
	return Constraints{
		MaxBytes:         maxBytes,
		ExtensionPattern: AudioExtensionPattern,
	}
}

// Asset is a temporary file owned by a single request.
type Asset struct {
	Path         string
	OriginalName string
	ContentType  string
	Size         int64
}

// Release deletes the asset's backing file. It is idempotent and tolerates the
// file already being gone.
func (a *Asset) Release() error {
	if a == nil || a.Path == "" {
		return nil
	}
	err := os.Remove(a.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("release upload %s: %w", a.Path, err)
	}
	a.Path = ""
	return nil
}

// Store writes accepted uploads into a single directory.
type Store struct {
	dir         string
	constraints Constraints
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string, constraints Constraints) (*Store, error) {
	if dir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "uploads", "new", "upload directory not configured", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "uploads", "new", "create upload directory", err)
	}
	return &Store{dir: dir, constraints: constraints}, nil
}

// Accept validates the incoming part and streams it to a uniquely named file.
// The returned asset must be released by the caller.
func (s *Store) Accept(file multipart.File, header *multipart.FileHeader) (*Asset, error) {
	if header == nil || header.Filename == "" {
		return nil, services.Wrap(services.ErrClientInput, "uploads", "accept", "no file provided", nil)
	}
	if s.constraints.MaxBytes > 0 && header.Size > s.constraints.MaxBytes {
		message := fmt.Sprintf("file exceeds %d byte limit", s.constraints.MaxBytes)
		return nil, services.Wrap(services.ErrClientInput, "uploads", "accept", message, nil)
	}
	contentType := header.Header.Get("Content-Type")
	if !s.admissible(contentType, header.Filename) {
		message := fmt.Sprintf("unsupported audio format %q (%s)", filepath.Ext(header.Filename), contentType)
		return nil, services.Wrap(services.ErrClientInput, "uploads", "accept", message, nil)
	}

	path := filepath.Join(s.dir, generateName(header.Filename))
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "uploads", "accept", "create upload file", err)
	}

	limit := int64(-1)
	var reader io.Reader = file
	if s.constraints.MaxBytes > 0 {
		// The declared size is client-supplied; bound the actual stream too.
		limit = s.constraints.MaxBytes
		reader = io.LimitReader(file, limit+1)
	}
	written, err := io.Copy(dst, reader)
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, services.Wrap(services.ErrConfiguration, "uploads", "accept", "write upload file", err)
	}
	if limit >= 0 && written > limit {
		os.Remove(path)
		message := fmt.Sprintf("file exceeds %d byte limit", limit)
		return nil, services.Wrap(services.ErrClientInput, "uploads", "accept", message, nil)
	}

	return &Asset{
		Path:         path,
		OriginalName: header.Filename,
		ContentType:  contentType,
		Size:         written,
	}, nil
}

func (s *Store) admissible(contentType, filename string) bool {
	if _, ok := audioMIMETypes[normalizeMIME(contentType)]; ok {
		return true
	}
	if s.constraints.ExtensionPattern != nil && s.constraints.ExtensionPattern.MatchString(filename) {
		return true
	}
	return false
}

func normalizeMIME(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// generateName builds a collision-free filename that keeps the original
// extension so the engine can sniff the container format.
func generateName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	stamp := time.Now().UTC().Format("20060102T150405")
	return fmt.Sprintf("audio-%s-%s%s", stamp, uuid.NewString(), ext)
}
