package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports configuration problems that prevent the daemon from serving
// requests. It never touches the filesystem; missing binaries and scripts are
// reported by the deps preflight instead so a misconfigured host still starts.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.UploadDir) == "" {
		problems = append(problems, "paths.upload_dir is required")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir is required")
	}
	if strings.TrimSpace(c.Paths.SongsDB) == "" {
		problems = append(problems, "paths.songs_db is required")
	}
	if strings.TrimSpace(c.Paths.UsersDB) == "" {
		problems = append(problems, "paths.users_db is required")
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		problems = append(problems, "paths.api_bind is required")
	}

	if strings.TrimSpace(c.Engine.PythonBin) == "" {
		problems = append(problems, "engine.python_bin is required")
	}
	if strings.TrimSpace(c.Engine.RecognizeScript) == "" {
		problems = append(problems, "engine.recognize_script is required")
	}
	if strings.TrimSpace(c.Engine.IndexScript) == "" {
		problems = append(problems, "engine.index_script is required")
	}
	if strings.TrimSpace(c.Engine.CoreDir) == "" {
		problems = append(problems, "engine.core_dir is required")
	}
	if c.Engine.MaxConcurrent < 1 {
		problems = append(problems, "engine.max_concurrent must be at least 1")
	}
	if c.Engine.TopMatches < 1 || c.Engine.TopMatches > 25 {
		problems = append(problems, "engine.top_matches must be between 1 and 25")
	}

	if c.Server.MaxUploadMiB < 1 {
		problems = append(problems, "server.max_upload_mib must be at least 1")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format: unsupported value %q", c.Logging.Format))
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}
