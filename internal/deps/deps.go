// Package deps checks the external pieces melodex needs at runtime: the
// engine's interpreter, its script files, and optional helpers.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"melodex/internal/config"
)

// Requirement defines one external dependency.
type Requirement struct {
	Name        string
	Command     string
	Path        string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements builds the check list for the given configuration.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "python",
			Command:     cfg.Engine.PythonBin,
			Description: "interpreter for every engine invocation",
		},
		{
			Name:        "recognize script",
			Path:        cfg.Engine.RecognizeScript,
			Description: "fingerprint matcher entry point",
		},
		{
			Name:        "index script",
			Path:        cfg.Engine.IndexScript,
			Description: "manual catalog indexing module",
		},
		{
			Name:        "engine core",
			Path:        cfg.Engine.CoreDir,
			Description: "importable engine library directory",
		},
		{
			Name:        "yt-dlp",
			Command:     "yt-dlp",
			Description: "source download helper for manual indexing",
			Optional:    true,
		},
	}
}

// Check evaluates the provided requirements and reports availability. A
// Requirement names either a command resolved via PATH or a filesystem path;
// commands containing a separator are treated as paths.
func Check(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, check(req))
	}
	return results
}

func check(req Requirement) Status {
	status := Status{
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}

	command := strings.TrimSpace(req.Command)
	path := strings.TrimSpace(req.Path)
	switch {
	case command != "" && !strings.ContainsRune(command, os.PathSeparator):
		if _, err := exec.LookPath(command); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found in PATH", command)
			return status
		}
	case command != "":
		path = command
		fallthrough
	case path != "":
		if _, err := os.Stat(path); err != nil {
			status.Detail = fmt.Sprintf("%s not found", path)
			return status
		}
	default:
		status.Detail = "not configured"
		return status
	}

	status.Available = true
	return status
}

// AllRequired reports whether every non-optional dependency is available.
func AllRequired(statuses []Status) bool {
	for _, status := range statuses {
		if !status.Optional && !status.Available {
			return false
		}
	}
	return true
}
