// Package filter implements the output filters applied to the wrapped
// tool's console streams and the chain that runs them.
//
// A Filter sees the stream as a sequence of chunks that are not aligned to
// lines. Every filter must produce the same concatenated output however the
// stream is chunked, and must hand back everything it holds when called
// with flushing set.
package filter

import (
	"context"
	"strings"

	"github.com/simplygenius/atmos-sub001/internal/matcher"
	"github.com/simplygenius/atmos-sub001/internal/notify"
	"github.com/simplygenius/atmos-sub001/internal/remediate"
)

// Filter transforms one stream of one run of the wrapped tool.
type Filter interface {
	// Filter returns the text to forward downstream for chunk. When
	// flushing is true the stream has ended and any held text must be
	// returned.
	Filter(chunk string, flushing bool) string

	// Close runs once, after the final flush. It is the only place a filter
	// may block on the operator or launch remediation.
	Close(ctx context.Context) error
}

// Stream identifies one of the wrapped tool's output streams.
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// ExecContext is read-only run data shared with filters. Filters never
// modify it.
type ExecContext struct {
	// Env is the environment the tool (and any remediation) runs with.
	Env map[string]string

	// Tool is the wrapped binary, e.g. "terraform".
	Tool string

	// DisplayName names the tool in operator-facing messages.
	DisplayName string

	// WorkDir is the tool's working directory.
	WorkDir string
}

// Name returns the display name, derived from Tool when unset.
func (e *ExecContext) Name() string {
	if e == nil {
		return "Terraform"
	}
	if e.DisplayName != "" {
		return e.DisplayName
	}
	switch e.Tool {
	case "", "terraform":
		return "Terraform"
	case "tofu":
		return "OpenTofu"
	}
	return strings.ToUpper(e.Tool[:1]) + e.Tool[1:]
}

// Notifier raises an operator notification.
type Notifier interface {
	Notify(ctx context.Context, message, level string) (notify.Result, error)
}

// Invoker re-runs the wrapped tool with the given arguments.
type Invoker interface {
	Invoke(ctx context.Context, args []string, env map[string]string) (remediate.Result, error)
}

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, question string, defaultYes bool) (bool, error)
}

// Deps carries what the filters need from the wrapper.
type Deps struct {
	// Context bounds side effects triggered while filtering (notifications).
	Context context.Context

	Exec      *ExecContext
	Patterns  *matcher.Patterns
	Notifier  Notifier
	Invoker   Invoker
	Confirmer Confirmer
	Styles    Styles

	// DiffContext is the number of unchanged lines shown around JSON diff
	// hunks.
	DiffContext int
}

func (d Deps) context() context.Context {
	if d.Context == nil {
		return context.Background()
	}
	return d.Context
}

func (d Deps) patterns() *matcher.Patterns {
	if d.Patterns == nil {
		return matcher.MustCompileDefaults(d.tool())
	}
	return d.Patterns
}

func (d Deps) tool() string {
	if d.Exec == nil {
		return ""
	}
	return d.Exec.Tool
}

func (d Deps) diffContext() int {
	if d.DiffContext <= 0 {
		return 3
	}
	return d.DiffContext
}
