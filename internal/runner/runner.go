// Package runner spawns the wrapped tool and pipes its output streams
// through their filter chains.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/simplygenius/atmos-sub001/internal/filter"
	"github.com/simplygenius/atmos-sub001/internal/logging"
	"github.com/simplygenius/atmos-sub001/internal/remediate"
)

var runLog = logging.ForComponent(logging.CompRunner)

const (
	// DefaultChunkSize is the read size for each stream.
	DefaultChunkSize = 32 * 1024

	// DefaultWaitDelay is how long the tool gets to exit after an interrupt
	// before it is killed.
	DefaultWaitDelay = 10 * time.Second
)

// Options describes one run of the wrapped tool.
type Options struct {
	Tool string
	Args []string
	Dir  string

	// Env is the tool's complete environment.
	Env map[string]string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// StdoutChain and StderrChain filter the streams. A nil chain passes the
	// stream through.
	StdoutChain *filter.Chain
	StderrChain *filter.Chain

	// PTY runs the tool on a pseudo-terminal for stdin and stdout.
	PTY bool

	// ForwardInterrupts passes SIGINT received by the wrapper on to the
	// tool. Leave it off when the tool shares the operator's terminal, which
	// already delivers Ctrl-C to both.
	ForwardInterrupts bool

	ChunkSize int
	WaitDelay time.Duration

	started chan<- *os.Process
}

func (o *Options) defaults() {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.StdoutChain == nil {
		o.StdoutChain = filter.NewChain(filter.StreamStdout)
	}
	if o.StderrChain == nil {
		o.StderrChain = filter.NewChain(filter.StreamStderr)
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.WaitDelay <= 0 {
		o.WaitDelay = DefaultWaitDelay
	}
}

// Run runs the tool to completion and returns its exit code. Both streams
// are drained and both chains shut down (stdout first) before it returns.
// The tool failing is reported only through the exit code. A
// *ShutdownError means the tool ran but a filter failed while closing;
// any other error means the tool could not be run.
func Run(ctx context.Context, opts Options) (int, error) {
	if opts.Tool == "" {
		return 0, errors.New("no tool to run")
	}
	opts.defaults()

	cmd := exec.CommandContext(ctx, opts.Tool, opts.Args...)
	cmd.Dir = opts.Dir
	cmd.Env = remediate.EnvList(opts.Env)
	cmd.Cancel = func() error { return interrupt(cmd.Process) }
	cmd.WaitDelay = opts.WaitDelay

	runLog.Info("tool_started",
		slog.String("tool", opts.Tool),
		slog.Any("args", opts.Args),
		slog.Bool("pty", opts.PTY))
	start := time.Now()

	started := make(chan *os.Process, 1)
	opts.started = started
	stopRelay := relayInterrupts(opts.ForwardInterrupts, started)
	defer stopRelay()

	var (
		waitErr error
		err     error
	)
	if opts.PTY {
		waitErr, err = runPTY(cmd, &opts)
	} else {
		waitErr, err = runPipes(cmd, &opts)
	}
	if err != nil {
		return 1, err
	}

	code := exitCode(waitErr)
	runLog.Info("tool_finished",
		slog.String("tool", opts.Tool),
		slog.Int("exit_code", code),
		slog.Duration("elapsed", time.Since(start)))

	if err := shutdown(ctx, &opts); err != nil {
		return code, &ShutdownError{Err: err}
	}
	return code, nil
}

// runPipes connects both streams through pipes. It returns the tool's wait
// error separately from failures to run it.
func runPipes(cmd *exec.Cmd, opts *Options) (waitErr, err error) {
	cmd.Stdin = opts.Stdin

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", cmd.Path, err)
	}
	opts.started <- cmd.Process

	var g errgroup.Group
	g.Go(func() error { return pump(stdout, opts.StdoutChain, opts.Stdout, opts.ChunkSize) })
	g.Go(func() error { return pump(stderr, opts.StderrChain, opts.Stderr, opts.ChunkSize) })
	pumpErr := g.Wait()

	waitErr = cmd.Wait()
	if pumpErr != nil {
		runLog.Warn("stream_read_failed", slog.String("error", pumpErr.Error()))
	}
	return waitErr, nil
}

// pump reads r until EOF, passing each chunk through chain to w. A failing
// writer is dropped so the tool never blocks on a full pipe.
func pump(r io.Reader, chain *filter.Chain, w io.Writer, size int) error {
	buf := make([]byte, size)
	var once sync.Once
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if out := chain.Process(string(buf[:n]), false); out != "" {
				if _, werr := io.WriteString(w, out); werr != nil {
					once.Do(func() {
						runLog.Warn("stream_write_failed",
							slog.String("stream", string(chain.Stream())),
							slog.String("error", werr.Error()))
					})
					w = io.Discard
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || isClosedPTY(err) {
				return nil
			}
			return fmt.Errorf("read %s: %w", chain.Stream(), err)
		}
	}
}

// shutdown flushes and closes both chains. Closing may prompt the operator,
// so it runs after the tool has exited.
func shutdown(ctx context.Context, opts *Options) error {
	return errors.Join(
		opts.StdoutChain.Shutdown(ctx, opts.Stdout),
		opts.StderrChain.Shutdown(ctx, opts.Stderr),
	)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code
		}
	}
	return 1
}
