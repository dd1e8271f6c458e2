package filter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/simplygenius/atmos-sub001/internal/logging"
	"github.com/simplygenius/atmos-sub001/internal/matcher"
)

var filterLog = logging.ForComponent(logging.CompFilter)

// PromptNotifier raises a notification when the tool stops to ask the
// operator for input. Output passes through unchanged.
//
// The prompt is printed without a trailing newline, so the pending
// partial line is inspected as well as completed ones. Each line notifies
// at most once.
type PromptNotifier struct {
	ctx      context.Context
	prompt   matcher.Set
	notifier Notifier
	message  string

	lines    lineBuffer
	notified bool
}

// NewPromptNotifier returns a PromptNotifier sending through deps.Notifier.
func NewPromptNotifier(deps Deps) (*PromptNotifier, error) {
	if deps.Notifier == nil {
		return nil, fmt.Errorf("%s: notifier: %w", NamePromptNotify, ErrMissingDependency)
	}
	return &PromptNotifier{
		ctx:      deps.context(),
		prompt:   deps.patterns().Prompt,
		notifier: deps.Notifier,
		message:  fmt.Sprintf("%s is waiting for user input", deps.Exec.Name()),
	}, nil
}

func (f *PromptNotifier) Filter(chunk string, flushing bool) string {
	f.lines.feed(chunk, func(line, _ string) {
		if !f.notified && f.prompt.Match(line) {
			f.notify()
		}
		f.notified = false
	})

	if pending := f.lines.pending(); !f.notified && pending != "" && f.prompt.Match(pending) {
		f.notify()
		f.notified = true
	}

	if flushing {
		f.lines.take()
		f.notified = false
	}
	return chunk
}

func (f *PromptNotifier) notify() {
	res, err := f.notifier.Notify(f.ctx, f.message, "info")
	if err != nil {
		filterLog.Warn("prompt_notify_failed",
			slog.String("filter", NamePromptNotify),
			slog.String("error", err.Error()))
		return
	}
	filterLog.Debug("prompt_notified",
		slog.String("filter", NamePromptNotify),
		slog.Bool("success", res.Success))
}

func (f *PromptNotifier) Close(context.Context) error { return nil }
