// Package recognition composes the upload store, the process bridge, and the
// result extractor into the end-to-end "identify this audio" operation.
package recognition

import (
	"context"
	"log/slog"
	"mime/multipart"
	"strconv"

	"melodex/internal/api"
	"melodex/internal/config"
	"melodex/internal/engine"
	"melodex/internal/logging"
	"melodex/internal/uploads"
)

// Pipeline serves recognition requests. One external engine process per call.
type Pipeline struct {
	cfg    *config.Config
	runner engine.Runner
	store  *uploads.Store
	logger *slog.Logger
}

// New builds the pipeline from its collaborators.
func New(cfg *config.Config, runner engine.Runner, store *uploads.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		cfg:    cfg,
		runner: runner,
		store:  store,
		logger: logging.NewComponentLogger(logger, "recognition"),
	}
}

// Identify accepts the uploaded sample, runs the recognition engine against
// it, and decodes the candidate list. The temporary file is deleted on every
// path before the result is composed.
func (p *Pipeline) Identify(ctx context.Context, file multipart.File, header *multipart.FileHeader) (api.RecognitionResult, error) {
	var result api.RecognitionResult

	asset, err := p.store.Accept(file, header)
	if err != nil {
		return result, err
	}
	// Release runs before any return below; the defer only covers panics.
	defer p.release(asset)

	p.logger.Info("recognizing sample",
		logging.String("file", asset.OriginalName),
		logging.Int64("bytes", asset.Size))

	spec := engine.ScriptInvocation(
		p.cfg.Engine.PythonBin,
		p.cfg.Engine.RecognizeScript,
		asset.Path,
		"--json",
		"--top", strconv.Itoa(p.cfg.Engine.TopMatches),
		"--db", p.cfg.Paths.SongsDB,
	)

	out, runErr := p.runner.Run(ctx, spec)
	p.release(asset)
	if runErr != nil {
		return result, runErr
	}

	if err := engine.DecodeJSON(out.Stdout, &result); err != nil {
		return api.RecognitionResult{}, err
	}
	if len(result.Matches) > 0 {
		result.MatchFound = true
	}
	if result.Matches == nil {
		result.Matches = []api.Match{}
	}
	return result, nil
}

func (p *Pipeline) release(asset *uploads.Asset) {
	if err := asset.Release(); err != nil {
		p.logger.Warn("failed to remove temporary upload", logging.Error(err))
	}
}
