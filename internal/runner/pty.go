//go:build !windows

package runner

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"github.com/muesli/cancelreader"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// runPTY gives the tool a pseudo-terminal on stdin and stdout, so it keeps
// its interactive behavior and colors. stderr stays a pipe and is filtered
// separately.
func runPTY(cmd *exec.Cmd, opts *Options) (waitErr, err error) {
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	// The copy into the PTY must give the operator's terminal back before
	// the chains shut down, since closing a filter may ask a question.
	stdin, err := cancelreader.NewReader(opts.Stdin)
	if err != nil {
		runLog.Debug("stdin_not_cancelable", slog.String("error", err.Error()))
		stdin = uncancelable{opts.Stdin}
	}
	defer stdin.Close()

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to start pty: %w", err)
	}
	defer ptmx.Close()
	opts.started <- cmd.Process

	stdout, errOut := opts.Stdout, opts.Stderr
	if in, ok := opts.Stdin.(*os.File); ok && term.IsTerminal(int(in.Fd())) {
		oldState, err := term.MakeRaw(int(in.Fd()))
		if err != nil {
			runLog.Warn("raw_mode_failed", slog.String("error", err.Error()))
		} else {
			// Restored before the chains are shut down, which may prompt.
			defer func() { _ = term.Restore(int(in.Fd()), oldState) }()
			stdout, errOut = newCRLFWriter(stdout), newCRLFWriter(errOut)
		}
		stopResize := forwardResize(in, ptmx)
		defer stopResize()
	}

	copied := make(chan struct{})
	go func() {
		defer close(copied)
		_, _ = io.Copy(ptmx, stdin)
	}()

	var g errgroup.Group
	g.Go(func() error { return pump(ptmx, opts.StdoutChain, stdout, opts.ChunkSize) })
	g.Go(func() error { return pump(stderr, opts.StderrChain, errOut, opts.ChunkSize) })
	pumpErr := g.Wait()

	waitErr = cmd.Wait()
	if stdin.Cancel() {
		<-copied
	} else {
		runLog.Debug("stdin_copy_left_running")
	}
	if pumpErr != nil {
		runLog.Warn("stream_read_failed", slog.String("error", pumpErr.Error()))
	}
	return waitErr, nil
}

// uncancelable adapts a reader cancelreader cannot poll, such as a regular
// file. Such readers reach EOF on their own.
type uncancelable struct{ r io.Reader }

func (u uncancelable) Read(p []byte) (int, error) { return u.r.Read(p) }
func (u uncancelable) Cancel() bool               { return false }
func (u uncancelable) Close() error               { return nil }

// forwardResize keeps the PTY the size of the operator's terminal.
func forwardResize(in *os.File, ptmx *os.File) (stop func()) {
	sigwinch := make(chan os.Signal, 1)
	signal.Notify(sigwinch, syscall.SIGWINCH)
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			case <-sigwinch:
				if err := pty.InheritSize(in, ptmx); err != nil {
					runLog.Debug("pty_resize_failed", slog.String("error", err.Error()))
				}
			}
		}
	}()
	// Initial resize
	sigwinch <- syscall.SIGWINCH

	return func() {
		signal.Stop(sigwinch)
		close(done)
		wg.Wait()
	}
}
