package filter

import (
	"context"
	"strings"

	"github.com/simplygenius/atmos-sub001/internal/matcher"
)

// SummaryHeader opens every inserted plan summary.
const SummaryHeader = "Plan Summary:"

// PlanSummarizer inserts a condensed list of planned changes after the
// plan's closing "Plan:" line. Output is never held back; the summary is
// spliced in right after the newline that ends the closing line.
//
// Lines are selected when, with styling removed, they start with at most two
// spaces and then one of - + ~ <, and are not a run of dashes. The selected
// lines keep their original styling.
type PlanSummarizer struct {
	patterns *matcher.Patterns
	styles   Styles

	lines    lineBuffer
	detected bool
	selected []string
}

// NewPlanSummarizer returns a PlanSummarizer.
func NewPlanSummarizer(deps Deps) *PlanSummarizer {
	return &PlanSummarizer{patterns: deps.patterns(), styles: deps.Styles}
}

func (f *PlanSummarizer) Filter(chunk string, flushing bool) string {
	var out strings.Builder
	out.Grow(len(chunk))

	f.lines.feed(chunk, func(line, tail string) {
		out.WriteString(tail)
		out.WriteString(f.onLine(line))
	})
	out.WriteString(trailing(chunk))

	if flushing {
		if rest := f.lines.take(); rest != "" {
			if insert := f.onLine(rest); insert != "" {
				out.WriteString("\n")
				out.WriteString(insert)
			}
		}
		f.detected = false
		f.selected = nil
	}
	return out.String()
}

// onLine tracks plan state for one complete line and returns text to insert
// after it.
func (f *PlanSummarizer) onLine(line string) string {
	switch {
	case !f.detected:
		if f.patterns.PlanHeader.Match(line) {
			f.detected = true
			f.selected = nil
		}
	case f.patterns.PlanEnd.Match(line):
		summary := f.render()
		f.detected = false
		f.selected = nil
		return "\n" + summary + "\n"
	case f.patterns.SummaryLine.Match(line) && !f.patterns.Separator.Match(line):
		f.selected = append(f.selected, strings.TrimRight(line, "\r\n"))
	}
	return ""
}

func (f *PlanSummarizer) render() string {
	var b strings.Builder
	b.WriteString(apply(f.styles.Header, SummaryHeader))
	for _, l := range f.selected {
		b.WriteString("\n")
		b.WriteString(l)
	}
	return b.String()
}

func (f *PlanSummarizer) Close(context.Context) error { return nil }
