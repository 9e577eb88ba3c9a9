// Package catalog serves read and write operations against the song catalog.
// The catalog lives on the engine side; every operation here is an inline
// script run through the process bridge.
package catalog

import (
	"context"
	"log/slog"
	"strings"

	"melodex/internal/api"
	"melodex/internal/config"
	"melodex/internal/engine"
	"melodex/internal/logging"
	"melodex/internal/services"
)

// DefaultPageSize is applied when a listing request does not set a limit.
const DefaultPageSize = 50

// Pipeline runs catalog queries through the engine.
type Pipeline struct {
	cfg    *config.Config
	runner engine.Runner
	logger *slog.Logger
}

// New builds the pipeline from its collaborators.
func New(cfg *config.Config, runner engine.Runner, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		cfg:    cfg,
		runner: runner,
		logger: logging.NewComponentLogger(logger, "catalog"),
	}
}

// Stats returns aggregate counts for the whole catalog. Songs without a genre
// are counted under the "Unknown" label.
func (p *Pipeline) Stats(ctx context.Context) (api.Stats, error) {
	var stats api.Stats

	spec := engine.InlineInvocation(p.cfg.Engine.PythonBin, statsScript,
		p.cfg.Engine.CoreDir, p.cfg.Paths.SongsDB)
	out, err := p.runner.Run(ctx, spec)
	if err != nil {
		return stats, err
	}
	if err := engine.DecodeJSON(out.Stdout, &stats); err != nil {
		return api.Stats{}, err
	}
	if stats.Genres == nil {
		stats.Genres = map[string]int{}
	}
	return stats, nil
}

// List returns one page of the catalog. The engine filters by genre and search
// term and sorts newest-first; slicing happens here so Total reflects the full
// filtered set.
func (p *Pipeline) List(ctx context.Context, genre, search string, limit, offset int) (api.SongsPage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	spec := engine.InlineInvocation(p.cfg.Engine.PythonBin, listScript,
		p.cfg.Engine.CoreDir, p.cfg.Paths.SongsDB, genre, search)
	out, err := p.runner.Run(ctx, spec)
	if err != nil {
		return api.SongsPage{}, err
	}

	var payload struct {
		Songs []api.Song `json:"songs"`
	}
	if err := engine.DecodeJSON(out.Stdout, &payload); err != nil {
		return api.SongsPage{}, err
	}

	page := api.SongsPage{
		Total:  len(payload.Songs),
		Limit:  limit,
		Offset: offset,
		Songs:  []api.Song{},
	}
	if offset < len(payload.Songs) {
		end := offset + limit
		if end > len(payload.Songs) {
			end = len(payload.Songs)
		}
		page.Songs = payload.Songs[offset:end]
	}
	return page, nil
}

// ManualAdd fetches the song at url into the catalog through the engine's
// adder program. Callers gate this behind an identity token; the pipeline
// itself only validates the argument.
func (p *Pipeline) ManualAdd(ctx context.Context, url string) (api.ManualIndexResult, error) {
	var result api.ManualIndexResult

	url = strings.TrimSpace(url)
	if url == "" {
		return result, services.Wrap(services.ErrClientInput, "catalog", "manual-add", "url is required", nil)
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return result, services.Wrap(services.ErrClientInput, "catalog", "manual-add", "url must be http(s)", nil)
	}

	p.logger.Info("manual index requested", logging.String("url", url))

	spec := engine.InlineInvocation(p.cfg.Engine.PythonBin, addScript,
		p.cfg.Engine.CoreDir, p.cfg.Engine.IndexScript, p.cfg.Paths.SongsDB, url)
	out, err := p.runner.Run(ctx, spec)
	if err != nil {
		return result, err
	}
	if err := engine.DecodeJSON(out.Stdout, &result); err != nil {
		return api.ManualIndexResult{}, err
	}
	return result, nil
}
