package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeEngine(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeAuth()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.UploadDir, err = expandPath(c.Paths.UploadDir); err != nil {
		return fmt.Errorf("paths.upload_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.SongsDB, err = expandPath(c.Paths.SongsDB); err != nil {
		return fmt.Errorf("paths.songs_db: %w", err)
	}
	if c.Paths.UsersDB, err = expandPath(c.Paths.UsersDB); err != nil {
		return fmt.Errorf("paths.users_db: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeEngine() error {
	var err error
	c.Engine.PythonBin = strings.TrimSpace(c.Engine.PythonBin)
	if c.Engine.PythonBin == "" {
		c.Engine.PythonBin = defaultPythonBin
	}
	// The interpreter may be a bare command resolved via PATH; only expand
	// values that look like filesystem paths.
	if strings.ContainsAny(c.Engine.PythonBin, "/~") {
		if c.Engine.PythonBin, err = expandPath(c.Engine.PythonBin); err != nil {
			return fmt.Errorf("engine.python_bin: %w", err)
		}
	}
	if c.Engine.RecognizeScript, err = expandPath(c.Engine.RecognizeScript); err != nil {
		return fmt.Errorf("engine.recognize_script: %w", err)
	}
	if c.Engine.IndexScript, err = expandPath(c.Engine.IndexScript); err != nil {
		return fmt.Errorf("engine.index_script: %w", err)
	}
	if c.Engine.CoreDir, err = expandPath(c.Engine.CoreDir); err != nil {
		return fmt.Errorf("engine.core_dir: %w", err)
	}
	if c.Engine.TimeoutSeconds < 0 {
		c.Engine.TimeoutSeconds = 0
	}
	if c.Engine.MaxConcurrent <= 0 {
		c.Engine.MaxConcurrent = defaultMaxConcurrent
	}
	if c.Engine.TopMatches <= 0 {
		c.Engine.TopMatches = defaultTopMatches
	}
	return nil
}

func (c *Config) normalizeServer() {
	if c.Server.MaxUploadMiB <= 0 {
		c.Server.MaxUploadMiB = defaultMaxUploadMiB
	}
}

func (c *Config) normalizeAuth() {
	c.Auth.TokenSecret = strings.TrimSpace(c.Auth.TokenSecret)
	if c.Auth.TokenSecret == "" {
		if value, ok := os.LookupEnv("MELODEX_TOKEN_SECRET"); ok {
			c.Auth.TokenSecret = strings.TrimSpace(value)
		}
	}
	if c.Auth.TokenTTLHours <= 0 {
		c.Auth.TokenTTLHours = defaultTokenTTLHours
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		// Leave as-is; Validate reports it.
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
