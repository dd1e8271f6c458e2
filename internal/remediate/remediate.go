// Package remediate re-runs the wrapped tool to repair a failure the output
// filters detected, such as a stale state lock.
package remediate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/simplygenius/atmos-sub001/internal/logging"
)

var remediateLog = logging.ForComponent(logging.CompRemediate)

// Result is the outcome of one remediation run.
type Result struct {
	// ExitCode is the tool's exit status; -1 if it was killed by a signal.
	ExitCode int
	// Output is everything the tool wrote, stdout and stderr interleaved.
	Output string
}

// Invoker runs the wrapped tool. One remediation runs at a time.
type Invoker struct {
	// Tool is the binary to run.
	Tool string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Stdout receives the tool's output as it runs (default: os.Stderr,
	// keeping remediation chatter off the filtered stdout).
	Stdout io.Writer
	// Stdin is offered to the tool (default: none).
	Stdin io.Reader

	mu sync.Mutex
}

// New returns an Invoker for tool.
func New(tool, dir string) *Invoker {
	return &Invoker{Tool: tool, Dir: dir}
}

// Invoke runs the tool with args and exactly env as its environment. A
// non-zero exit is reported in the Result, not as an error. Cancelling ctx
// kills the tool.
func (i *Invoker) Invoke(ctx context.Context, args []string, env map[string]string) (Result, error) {
	if i.Tool == "" {
		return Result{}, errors.New("remediate: no tool configured")
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	var captured bytes.Buffer
	out := io.Writer(&captured)
	if w := i.stdout(); w != nil {
		out = io.MultiWriter(w, &captured)
	}

	cmd := exec.CommandContext(ctx, i.Tool, args...)
	cmd.Dir = i.Dir
	cmd.Env = EnvList(env)
	cmd.Stdin = i.Stdin
	cmd.Stdout = out
	cmd.Stderr = out

	start := time.Now()
	remediateLog.Info("remediation_started",
		slog.String("tool", i.Tool),
		slog.Any("args", args))

	err := cmd.Run()
	res := Result{Output: captured.String()}
	if ctxErr := ctx.Err(); err != nil && ctxErr != nil {
		return res, fmt.Errorf("run %s: %w", i.Tool, ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return res, fmt.Errorf("run %s: %w", i.Tool, err)
	}

	remediateLog.Info("remediation_finished",
		slog.String("tool", i.Tool),
		slog.Int("exit_code", res.ExitCode),
		slog.Duration("elapsed", time.Since(start)))
	return res, nil
}

func (i *Invoker) stdout() io.Writer {
	if i.Stdout != nil {
		return i.Stdout
	}
	return os.Stderr
}

// EnvList renders env as sorted KEY=VALUE pairs. A nil map yields an
// empty, non-nil environment so nothing is inherited.
func EnvList(env map[string]string) []string {
	list := make([]string, 0, len(env))
	for k, v := range env {
		list = append(list, k+"="+v)
	}
	sort.Strings(list)
	return list
}

// EnvMap parses KEY=VALUE pairs, as returned by os.Environ.
func EnvMap(list []string) map[string]string {
	env := make(map[string]string, len(list))
	for _, kv := range list {
		for j := 0; j < len(kv); j++ {
			if kv[j] == '=' {
				env[kv[:j]] = kv[j+1:]
				break
			}
		}
	}
	return env
}
