package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"melodex/internal/logging"
	"melodex/internal/services"
)

// Output is the captured result of one completed invocation. It is owned by a
// single request and becomes immutable once Run returns.
type Output struct {
	// Stdout holds everything the process wrote to standard output, in
	// arrival order.
	Stdout string
	// Stderr holds everything the process wrote to standard error.
	Stderr string
	// ExitCode is the process exit status. A non-zero code with non-empty
	// Stdout is not an error here; the extractor decides whether the payload
	// is usable.
	ExitCode int
}

// Runner abstracts invocation execution so pipelines can be tested without
// spawning real processes.
type Runner interface {
	Run(ctx context.Context, spec InvocationSpec) (Output, error)
}

// Option configures the bridge.
type Option func(*Bridge)

// WithMaxConcurrent caps the number of simultaneously running child processes.
// Zero or negative means unlimited.
func WithMaxConcurrent(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.sem = make(chan struct{}, n)
		}
	}
}

// WithTimeout bounds each invocation. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithStderrMirror redirects the live copy of child stderr (normally the
// daemon's own stderr) to the provided writer.
func WithStderrMirror(w io.Writer) Option {
	return func(b *Bridge) {
		if w != nil {
			b.mirror = w
		}
	}
}

// WithLogger attaches a logger for invocation lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logging.NewComponentLogger(logger, "engine")
		}
	}
}

// Bridge launches external engine processes and captures their output streams
// incrementally. One child process per Run call; no reuse.
type Bridge struct {
	sem     chan struct{}
	timeout time.Duration
	mirror  io.Writer
	logger  *slog.Logger
}

var _ Runner = (*Bridge)(nil)

// New constructs a bridge with the provided options.
func New(opts ...Option) *Bridge {
	b := &Bridge{
		mirror: os.Stderr,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run starts the process described by spec and blocks until it reaches a
// terminal state. Cancelling ctx terminates the child.
//
// Terminal resolution: a start failure yields ErrProcessStart and no Output.
// A non-zero exit with empty stdout yields ErrProcessRuntime carrying the
// accumulated stderr. A non-zero exit with non-empty stdout is returned as a
// normal Output because the engine may emit a valid payload before a late
// non-fatal exit; extraction reports its own failures.
func (b *Bridge) Run(ctx context.Context, spec InvocationSpec) (Output, error) {
	if spec.Interpreter == "" {
		return Output{}, services.Wrap(services.ErrProcessStart, "engine", "run", "interpreter not configured", nil)
	}
	if spec.Script == "" && spec.Inline == "" {
		return Output{}, services.Wrap(services.ErrProcessStart, "engine", "run", "no script provided", nil)
	}

	if err := b.acquire(ctx); err != nil {
		return Output{}, services.Wrap(services.ErrProcessStart, "engine", "run", "waiting for process slot", err)
	}
	defer b.release()

	runCtx := ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, spec.Interpreter, spec.argv()...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Output{}, services.Wrap(services.ErrProcessStart, "engine", "run", "stdout pipe", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Output{}, services.Wrap(services.ErrProcessStart, "engine", "run", "stderr pipe", err)
	}

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return Output{}, services.Wrap(services.ErrProcessStart, "engine", "run", spec.Label(), err)
	}
	b.logger.Debug("invocation started", logging.String("target", spec.Label()), logging.Int("pid", cmd.Process.Pid))

	var outBuf, errBuf strings.Builder
	var outScanErr, errScanErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		outScanErr = appendStream(stdout, &outBuf, nil)
	}()
	go func() {
		defer wg.Done()
		// Stderr carries the engine's progress chatter; mirror it live so
		// operators can follow along without waiting for completion.
		errScanErr = appendStream(stderr, &errBuf, b.mirror)
	}()
	wg.Wait()

	output := Output{}
	waitErr := cmd.Wait()
	output.Stdout = outBuf.String()
	output.Stderr = errBuf.String()

	// A scan error means the captured stream is incomplete, typically a line
	// over the scanner's limit. Any downstream parse failure would otherwise
	// be impossible to trace back here.
	if outScanErr != nil {
		b.logger.Warn("stdout capture truncated", logging.String("target", spec.Label()), logging.Error(outScanErr))
	}
	if errScanErr != nil {
		b.logger.Warn("stderr capture truncated", logging.String("target", spec.Label()), logging.Error(errScanErr))
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			output.ExitCode = exitErr.ExitCode()
		}
		if ctxErr := runCtx.Err(); ctxErr != nil {
			return Output{}, services.Wrap(services.ErrProcessRuntime, "engine", "run", spec.Label(), ctxErr)
		}
		if exitErr == nil {
			return Output{}, services.Wrap(services.ErrProcessRuntime, "engine", "run", spec.Label(), waitErr)
		}
		if strings.TrimSpace(output.Stdout) == "" {
			message := fmt.Sprintf("exited with code %d: %s", output.ExitCode, strings.TrimSpace(output.Stderr))
			return Output{}, services.Wrap(services.ErrProcessRuntime, "engine", "run", message, nil)
		}
		// Payload present despite the non-zero exit; let extraction decide.
		b.logger.Warn("invocation exited non-zero with output",
			logging.String("target", spec.Label()),
			logging.Int("exit_code", output.ExitCode))
	}

	b.logger.Debug("invocation finished",
		logging.String("target", spec.Label()),
		logging.Int("exit_code", output.ExitCode),
		logging.Duration("elapsed", time.Since(started)))
	return output, nil
}

func (b *Bridge) acquire(ctx context.Context) error {
	if b.sem == nil {
		return nil
	}
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bridge) release() {
	if b.sem == nil {
		return
	}
	<-b.sem
}

// appendStream copies r into buf in arrival order. When mirror is non-nil each
// line is also written through as it arrives. A non-nil return means the
// stream was cut short, most often by a line over the scanner limit.
func appendStream(r io.Reader, buf *strings.Builder, mirror io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		buf.WriteString(line)
		buf.WriteByte('\n')
		if mirror != nil {
			fmt.Fprintln(mirror, line)
		}
	}
	return scanner.Err()
}
