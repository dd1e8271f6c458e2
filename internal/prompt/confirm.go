// Package prompt asks the operator questions on the controlling terminal.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/simplygenius/atmos-sub001/internal/logging"
)

var promptLog = logging.ForComponent(logging.CompCLI)

// Confirmer asks yes/no questions with huh. Without a terminal on stdin
// every question gets its default answer.
type Confirmer struct {
	// Accessible renders plain line prompts instead of the interactive form.
	Accessible bool

	interactive func() bool
	ask         func(ctx context.Context, question string, value *bool, accessible bool) error
}

// NewConfirmer returns a Confirmer reading from the process's stdin.
func NewConfirmer(accessible bool) *Confirmer {
	return &Confirmer{
		Accessible:  accessible,
		interactive: stdinIsTerminal,
		ask:         askForm,
	}
}

// Confirm asks question and returns the answer. Aborting the prompt counts
// as the default answer.
func (c *Confirmer) Confirm(ctx context.Context, question string, defaultYes bool) (bool, error) {
	if !c.interactive() {
		promptLog.Info("confirm_skipped_noninteractive",
			slog.String("question", question),
			slog.Bool("answer", defaultYes))
		return defaultYes, nil
	}

	answer := defaultYes
	err := c.ask(ctx, question, &answer, c.Accessible)
	switch {
	case err == nil:
		return answer, nil
	case errors.Is(err, huh.ErrUserAborted):
		return defaultYes, nil
	case ctx.Err() != nil:
		return false, ctx.Err()
	}
	return false, fmt.Errorf("confirm: %w", err)
}

func askForm(ctx context.Context, question string, value *bool, accessible bool) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Affirmative("Yes").
				Negative("No").
				Value(value),
		),
	).WithAccessible(accessible).RunWithContext(ctx)
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
