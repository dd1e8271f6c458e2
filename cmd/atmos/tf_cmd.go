package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/simplygenius/atmos-sub001/internal/config"
	"github.com/simplygenius/atmos-sub001/internal/filter"
	"github.com/simplygenius/atmos-sub001/internal/logging"
	"github.com/simplygenius/atmos-sub001/internal/notify"
	"github.com/simplygenius/atmos-sub001/internal/prompt"
	"github.com/simplygenius/atmos-sub001/internal/provider"
	"github.com/simplygenius/atmos-sub001/internal/remediate"
	"github.com/simplygenius/atmos-sub001/internal/runner"
)

var cliLog = logging.ForComponent(logging.CompCLI)

// tfOptions is everything one tf invocation needs.
type tfOptions struct {
	globalFlags

	tool     string
	pty      bool
	noNotify bool
	args     []string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// runTool is swapped by tests.
var runTool = runTF

func tfCmd(flags *globalFlags) *cobra.Command {
	var opts tfOptions

	cmd := &cobra.Command{
		Use:   "tf [flags] [--] <terraform args>...",
		Short: "Run terraform through the output filters",
		Long: `Run terraform (or OpenTofu) with its output filtered.

Flags for atmos come first; the first non-flag argument and everything after
it is passed to the tool unchanged. Use -- to pass arguments that start
with a dash.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.globalFlags = *flags
			opts.args = args
			opts.stdin = cmd.InOrStdin()
			opts.stdout = cmd.OutOrStdout()
			opts.stderr = cmd.ErrOrStderr()

			// Ctrl-C is left to the runner, which knows whether the tool
			// already got it from the terminal.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
			defer stop()

			code, err := runTool(ctx, opts)
			if err != nil {
				return err
			}
			if code != 0 {
				return &exitError{code: code}
			}
			return nil
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVar(&opts.tool, "tool", "", "tool binary to run (overrides [tool] binary)")
	cmd.Flags().BoolVar(&opts.pty, "pty", false, "run the tool on a pseudo-terminal")
	cmd.Flags().BoolVar(&opts.noNotify, "no-notify", false, "disable desktop notifications")
	return cmd
}

// runTF wires the configured collaborators, runs the tool and returns its
// exit code. Errors are failures of the wrapper itself.
func runTF(ctx context.Context, opts tfOptions) (code int, err error) {
	cfg, cfgErr := config.Load(opts.configPath)
	if cfgErr != nil {
		fmt.Fprintf(opts.stderr, "Warning: %v (using defaults)\n", cfgErr)
	}
	if opts.tool != "" {
		local := *cfg
		local.Tool.Binary = opts.tool
		local.Tool.Kind = ""
		cfg = &local
	}

	logging.Init(cfg.LogConfig(opts.debug))
	defer logging.Shutdown()
	defer func() {
		if r := recover(); r != nil {
			cliLog.Error("panic",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("internal error: %v", r)
		}
		if err != nil {
			dumpCrash(cfg.LogDir())
		}
	}()

	cliLog.Info("tf_started",
		slog.Int("pid", os.Getpid()),
		slog.String("version", version),
		slog.Any("args", opts.args))

	patterns, err := cfg.CompilePatterns()
	if err != nil {
		return 1, fmt.Errorf("compile patterns: %w", err)
	}

	prov, err := provider.New(cfg.ProviderConfig())
	if err != nil {
		return 1, err
	}
	env, err := prov.Authenticate(ctx, remediate.EnvMap(os.Environ()))
	if err != nil {
		return 1, fmt.Errorf("authenticate with %s: %w", prov.Name(), err)
	}

	dir, err := os.Getwd()
	if err != nil {
		return 1, fmt.Errorf("working directory: %w", err)
	}

	nc := cfg.NotifyConfig()
	nc.Disable = nc.Disable || opts.noNotify

	invoker := remediate.New(cfg.Tool.GetBinary(), dir)
	invoker.Stdin = opts.stdin
	invoker.Stdout = opts.stderr

	deps := filter.Deps{
		Context: ctx,
		Exec: &filter.ExecContext{
			Env:         env,
			Tool:        cfg.Tool.GetKind(),
			DisplayName: cfg.Tool.DisplayName,
			WorkDir:     dir,
		},
		Patterns:    patterns,
		Notifier:    notify.New(nc),
		Invoker:     invoker,
		Confirmer:   prompt.NewConfirmer(cfg.Runner.AccessiblePrompts),
		Styles:      filter.ColorStyles(),
		DiffContext: cfg.DiffContext(),
	}

	stdoutChain, err := filter.Build(filter.StreamStdout, cfg.StdoutFilters(), deps)
	if err != nil {
		return 1, err
	}
	stderrChain, err := filter.Build(filter.StreamStderr, cfg.StderrFilters(), deps)
	if err != nil {
		return 1, err
	}

	usePTY := opts.pty || cfg.Runner.PTY
	cliLog.Debug("chains_built",
		slog.Int("stdout_filters", stdoutChain.Len()),
		slog.Int("stderr_filters", stderrChain.Len()),
		slog.Bool("pty", usePTY))

	code, err = runner.Run(ctx, runner.Options{
		Tool:        cfg.Tool.GetBinary(),
		Args:        opts.args,
		Dir:         dir,
		Env:         env,
		Stdin:       opts.stdin,
		Stdout:      opts.stdout,
		Stderr:      opts.stderr,
		StdoutChain: stdoutChain,
		StderrChain: stderrChain,
		PTY:         usePTY,

		ForwardInterrupts: forwardInterrupts(opts.stdin, usePTY),
	})
	var shutdownErr *runner.ShutdownError
	if errors.As(err, &shutdownErr) {
		// The tool's own result stands.
		fmt.Fprintf(opts.stderr, "Warning: %v\n", err)
		return code, nil
	}
	return code, err
}

// forwardInterrupts reports whether SIGINT must be relayed to the tool. A
// tool reading the operator's terminal through a pipe is in the terminal's
// foreground group and gets Ctrl-C directly; a tool on its own PTY, or one
// run without a terminal, only hears it from the wrapper.
func forwardInterrupts(stdin io.Reader, usePTY bool) bool {
	if usePTY {
		return true
	}
	f, ok := stdin.(*os.File)
	return !ok || !isTerminal(f)
}

// crashFile names a crash dump taken at the given time.
func crashFile(dir string, at time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("crash-%d.jsonl", at.Unix()))
}

// dumpCrash writes the in-memory log tail next to the debug log.
func dumpCrash(dir string) {
	if dir == "" {
		return
	}
	path := crashFile(dir, time.Now())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return
	}
	if err := logging.DumpTail(path); err != nil {
		cliLog.Error("crash_dump_failed", slog.String("error", err.Error()))
		return
	}
	cliLog.Info("crash_dump_written", slog.String("path", path))
}
