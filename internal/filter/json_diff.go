package filter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/simplygenius/atmos-sub001/internal/matcher"
)

// NoDifferences replaces the diff when both sides are the same document.
const NoDifferences = "No differences"

// jsonPairRe splits a captured attribute change into the text before the old
// value, the old value, the new value, and the text after it. Values are
// escaped JSON strings; styling codes may surround the arrow.
var jsonPairRe = regexp.MustCompile(
	`(?s)^(.*?)"([\[{].*?[\]}](?:\\n)?)"` +
		`\s*(?:\x1b\[[0-9;]*m)*\s*=>\s*(?:\x1b\[[0-9;]*m)*\s*` +
		`"([\[{].*[\]}](?:\\n)?)"(.*)$`)

// JSONDiffRenderer replaces a changed attribute whose old and new values are
// escaped JSON documents with a unified diff of the pretty-printed
// documents. It only acts after the plan header.
//
// Text is released as soon as it can no longer start a capture: a partial
// line is held only once it contains a double quote. A captured value may
// span lines and is held until its closing quote; bytes of its first line
// that were already released are not repeated.
type JSONDiffRenderer struct {
	patterns *matcher.Patterns
	styles   Styles
	context  int

	detected bool
	saving   bool
	jsonData strings.Builder
	// skip is how much of jsonData was released before the capture began.
	skip int

	line    string
	emitted int
}

// NewJSONDiffRenderer returns a JSONDiffRenderer.
func NewJSONDiffRenderer(deps Deps) *JSONDiffRenderer {
	return &JSONDiffRenderer{
		patterns: deps.patterns(),
		styles:   deps.Styles,
		context:  deps.diffContext(),
	}
}

func (f *JSONDiffRenderer) Filter(chunk string, flushing bool) string {
	var out strings.Builder
	for chunk != "" {
		i := strings.IndexByte(chunk, '\n')
		if i < 0 {
			f.line += chunk
			chunk = ""
			f.partialLine(&out)
			break
		}
		f.line += chunk[:i+1]
		chunk = chunk[i+1:]
		f.completeLine(&out)
	}
	if flushing {
		f.flush(&out)
	}
	return out.String()
}

// partialLine releases what it can of an unterminated line.
func (f *JSONDiffRenderer) partialLine(out *strings.Builder) {
	if f.saving {
		return
	}
	if f.detected && strings.IndexByte(f.line, '"') >= 0 {
		return
	}
	out.WriteString(f.line[f.emitted:])
	f.emitted = len(f.line)
}

func (f *JSONDiffRenderer) completeLine(out *strings.Builder) {
	line, emitted := f.line, f.emitted
	f.line, f.emitted = "", 0

	switch {
	case f.saving:
		f.jsonData.WriteString(line)
		if f.patterns.JSONEnd.Match(line) {
			f.finishCapture(out)
		}
	case !f.detected:
		out.WriteString(line[emitted:])
		if f.patterns.PlanHeader.Match(line) {
			f.detected = true
		}
	case f.patterns.JSONStart.Match(line):
		f.jsonData.WriteString(line)
		f.skip = emitted
		f.saving = true
		if f.patterns.JSONEnd.Match(line) {
			f.finishCapture(out)
		}
	default:
		out.WriteString(line[emitted:])
	}
}

func (f *JSONDiffRenderer) finishCapture(out *strings.Builder) {
	captured := f.jsonData.String()
	skip := f.skip
	f.jsonData.Reset()
	f.skip = 0
	f.saving = false

	rendered := f.render(captured)
	if skip > len(rendered) {
		skip = len(rendered)
	}
	out.WriteString(rendered[skip:])
}

func (f *JSONDiffRenderer) flush(out *strings.Builder) {
	if f.line != "" {
		f.completeLine(out)
	}
	if f.saving {
		raw := f.jsonData.String()
		out.WriteString(raw[min(f.skip, len(raw)):])
		f.jsonData.Reset()
		f.skip = 0
		f.saving = false
	}
	f.line, f.emitted = "", 0
}

// render turns a captured change into its diff form. Text the pair pattern
// does not recognize is returned unchanged.
func (f *JSONDiffRenderer) render(captured string) string {
	m := jsonPairRe.FindStringSubmatch(captured)
	if m == nil {
		filterLog.Debug("json_diff_unrecognized",
			slog.String("filter", NameJSONDiff),
			slog.Int("bytes", len(captured)))
		return captured
	}
	prefix, first, second, suffix := m[1], m[2], m[3], m[4]

	before, errBefore := prettyJSON(first)
	after, errAfter := prettyJSON(second)
	if err := errors.Join(errBefore, errAfter); err != nil {
		filterLog.Warn("json_diff_parse_failed",
			slog.String("filter", NameJSONDiff),
			slog.String("error", err.Error()))
		return prefix + "\n" + first + "\n=>\n" + second + "\n" + suffix
	}

	indent := leadingSpace(matcher.StripANSI(prefix)) + "    "
	var body string
	if before == after {
		body = indent + NoDifferences
	} else {
		diff, err := f.unifiedDiff(before, after, indent)
		if err != nil {
			filterLog.Warn("json_diff_failed",
				slog.String("filter", NameJSONDiff),
				slog.String("error", err.Error()))
			return captured
		}
		body = diff
	}
	return prefix + "\n" + body + "\n" + suffix
}

func (f *JSONDiffRenderer) unifiedDiff(before, after, indent string) (string, error) {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "before",
		ToFile:   "after",
		Context:  f.context,
	})
	if err != nil {
		return "", err
	}

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		switch {
		case strings.HasPrefix(l, "---"), strings.HasPrefix(l, "+++"):
			l = apply(f.styles.Header, l)
		case strings.HasPrefix(l, "@@"):
			l = apply(f.styles.Hunk, l)
		case strings.HasPrefix(l, "+"):
			l = apply(f.styles.Added, l)
		case strings.HasPrefix(l, "-"):
			l = apply(f.styles.Removed, l)
		}
		lines[i] = indent + l
	}
	return strings.Join(lines, "\n"), nil
}

// prettyJSON unescapes a quoted JSON document and re-indents it with object
// keys sorted at every level.
func prettyJSON(escaped string) (string, error) {
	// A value captured across lines carries raw line breaks.
	escaped = strings.NewReplacer("\r", "", "\n", `\n`).Replace(escaped)
	text, err := strconv.Unquote(`"` + escaped + `"`)
	if err != nil {
		return "", fmt.Errorf("unescape value: %w", err)
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", fmt.Errorf("decode value: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("decode value: trailing data after document")
	}

	// encoding/json writes map keys in sorted order.
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode value: %w", err)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func leadingSpace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}

func (f *JSONDiffRenderer) Close(context.Context) error { return nil }
