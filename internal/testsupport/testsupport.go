// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"melodex/internal/config"
)

// NewConfig returns a validated config rooted in a per-test temp directory.
// All paths point inside t.TempDir so tests never touch the real filesystem
// layout.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.UploadDir = filepath.Join(root, "uploads")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Paths.SongsDB = filepath.Join(root, "db", "songs.db")
	cfg.Paths.UsersDB = filepath.Join(root, "db", "users.db")
	cfg.Engine.RecognizeScript = filepath.Join(root, "engine", "recognize.py")
	cfg.Engine.IndexScript = filepath.Join(root, "engine", "user_adder.py")
	cfg.Engine.CoreDir = filepath.Join(root, "engine", "core")
	cfg.Auth.TokenSecret = "test-secret"

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}
