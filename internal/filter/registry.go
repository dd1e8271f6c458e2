package filter

import "fmt"

// Filter names used in configuration.
const (
	NamePromptNotify  = "prompt_notify"
	NameLockDetection = "lock_detection"
	NamePlanSummary   = "plan_summary"
	NameJSONDiff      = "json_diff"
)

// DefaultStdout and DefaultStderr are the chains used when none are configured.
var (
	DefaultStdout = []string{NamePromptNotify, NameLockDetection, NamePlanSummary, NameJSONDiff}
	DefaultStderr = []string{NamePromptNotify, NameLockDetection}
)

// Names lists every known filter.
func Names() []string {
	return []string{NamePromptNotify, NameLockDetection, NamePlanSummary, NameJSONDiff}
}

// New builds the filter registered under name.
func New(name string, deps Deps) (Filter, error) {
	switch name {
	case NamePromptNotify:
		f, err := NewPromptNotifier(deps)
		if err != nil {
			return nil, err
		}
		return f, nil
	case NameLockDetection:
		f, err := NewLockDetector(deps)
		if err != nil {
			return nil, err
		}
		return f, nil
	case NamePlanSummary:
		return NewPlanSummarizer(deps), nil
	case NameJSONDiff:
		return NewJSONDiffRenderer(deps), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
}

// Build returns a chain of the named filters for stream. Every filter gets
// its own state, so the same name may appear on both streams.
func Build(stream Stream, names []string, deps Deps) (*Chain, error) {
	if deps.Patterns == nil {
		deps.Patterns = deps.patterns()
	}
	c := NewChain(stream)
	for _, name := range names {
		f, err := New(name, deps)
		if err != nil {
			return nil, fmt.Errorf("build %s chain: %w", stream, err)
		}
		c.Add(name, f)
	}
	return c, nil
}
