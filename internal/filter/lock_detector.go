package filter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/simplygenius/atmos-sub001/internal/matcher"
)

// LockDetector watches for a state-lock failure report and, once the stream
// is done, offers to force-unlock the lock it named. Output passes through
// unchanged.
type LockDetector struct {
	patterns  *matcher.Patterns
	exec      *ExecContext
	invoker   Invoker
	confirmer Confirmer

	lines    lineBuffer
	detected bool
	lockID   string
}

// NewLockDetector returns a LockDetector using deps.Invoker and deps.Confirmer.
func NewLockDetector(deps Deps) (*LockDetector, error) {
	if deps.Invoker == nil {
		return nil, fmt.Errorf("%s: invoker: %w", NameLockDetection, ErrMissingDependency)
	}
	if deps.Confirmer == nil {
		return nil, fmt.Errorf("%s: confirmer: %w", NameLockDetection, ErrMissingDependency)
	}
	exec := deps.Exec
	if exec == nil {
		exec = &ExecContext{}
	}
	return &LockDetector{
		patterns:  deps.patterns(),
		exec:      exec,
		invoker:   deps.Invoker,
		confirmer: deps.Confirmer,
	}, nil
}

func (f *LockDetector) Filter(chunk string, flushing bool) string {
	f.lines.feed(chunk, func(line, _ string) { f.scan(line) })
	if flushing {
		if rest := f.lines.take(); rest != "" {
			f.scan(rest)
		}
	}
	return chunk
}

func (f *LockDetector) scan(line string) {
	if f.patterns.LockHeader.Match(line) {
		f.detected = true
	}
	if id, ok := f.patterns.LockID.Extract(line); ok && id != "" {
		f.lockID = id
	}
}

// lock returns the captured lock ID once a lock report was seen.
func (f *LockDetector) lock() (string, bool) {
	return f.lockID, f.detected && f.lockID != ""
}

// Close asks the operator whether to force-unlock a detected lock and runs
// the unlock when they agree. The question defaults to no.
func (f *LockDetector) Close(ctx context.Context) error {
	id, ok := f.lock()
	if !ok {
		return nil
	}

	question := fmt.Sprintf("%s state is locked (lock ID %s). Force unlock it?", f.exec.Name(), id)
	yes, err := f.confirmer.Confirm(ctx, question, false)
	if err != nil {
		return fmt.Errorf("confirm force-unlock of %s: %w", id, err)
	}
	if !yes {
		filterLog.Info("force_unlock_declined",
			slog.String("filter", NameLockDetection),
			slog.String("lock_id", id))
		return nil
	}

	args := []string{"force-unlock", "-force", id}
	filterLog.Info("force_unlock_started",
		slog.String("filter", NameLockDetection),
		slog.String("lock_id", id))
	res, err := f.invoker.Invoke(ctx, args, f.exec.Env)
	if err != nil {
		return fmt.Errorf("force-unlock %s: %w", id, err)
	}
	if res.ExitCode != 0 {
		filterLog.Warn("force_unlock_failed",
			slog.String("filter", NameLockDetection),
			slog.String("lock_id", id),
			slog.Int("exit_code", res.ExitCode))
		return nil
	}
	filterLog.Info("force_unlock_done",
		slog.String("filter", NameLockDetection),
		slog.String("lock_id", id))
	return nil
}
