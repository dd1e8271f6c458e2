package matcher

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/simplygenius/atmos-sub001/internal/logging"
)

var patternLog = logging.ForComponent(logging.CompFilter)

// RawPatterns holds string-form patterns before compilation.
// Patterns prefixed with "re:" are compiled as regex; everything else is a
// literal phrase (a prefix for PlanEnd).
type RawPatterns struct {
	PromptPhrases []string `toml:"prompt_phrases"`
	PlanHeaders   []string `toml:"plan_headers"`
	PlanEnd       []string `toml:"plan_end"`
	LockHeaders   []string `toml:"lock_headers"`
	LockID        []string `toml:"lock_id"`
	JSONStart     []string `toml:"json_start"`
	JSONEnd       []string `toml:"json_end"`
	SummaryLine   []string `toml:"summary_line"`
	Separator     []string `toml:"separator"`
}

// Patterns holds the compiled, ready-to-use patterns for the output filters.
type Patterns struct {
	Prompt      Set
	PlanHeader  Set
	PlanEnd     Set
	LockHeader  Set
	LockID      Set
	JSONStart   Set
	JSONEnd     Set
	SummaryLine Set
	Separator   Set
}

// DefaultRawPatterns returns the built-in patterns for a known tool
// ("terraform" or "tofu"). Returns nil for unknown tools.
func DefaultRawPatterns(tool string) *RawPatterns {
	var header string
	switch strings.ToLower(tool) {
	case "terraform", "":
		header = "Terraform will perform the following actions:"
	case "tofu", "opentofu":
		header = "OpenTofu will perform the following actions:"
	default:
		return nil
	}
	return &RawPatterns{
		PromptPhrases: []string{"Enter a value:"},
		PlanHeaders:   []string{header},
		PlanEnd:       []string{"Plan:"},
		LockHeaders:   []string{"Lock Info:"},
		LockID:        []string{`re:^[\s│]*ID:\s*([0-9A-Fa-f][0-9A-Fa-f-]*)\s*$`},
		// `policy: "{...` or `tags: "[...`: an escaped JSON value begins
		JSONStart: []string{`re::\s*"[\[{]`},
		// `...}"`, `...]\n"` or `...}" (forces new resource)`
		JSONEnd:     []string{`re:[\]}](?:\s|\\n)*"[^"]*$`},
		SummaryLine: []string{`re:^\s{0,2}[-+~<]`},
		Separator:   []string{`re:^\s*-+\s*$`},
	}
}

// CompilePatterns compiles raw string patterns into Patterns. Invalid regex
// patterns are logged as warnings and skipped (never crash).
func CompilePatterns(raw *RawPatterns) (*Patterns, error) {
	if raw == nil {
		return nil, fmt.Errorf("nil RawPatterns")
	}
	return &Patterns{
		Prompt:      compileSet("prompt", raw.PromptPhrases, false),
		PlanHeader:  compileSet("plan_header", raw.PlanHeaders, false),
		PlanEnd:     compileSet("plan_end", raw.PlanEnd, true),
		LockHeader:  compileSet("lock_header", raw.LockHeaders, false),
		LockID:      compileSet("lock_id", raw.LockID, false),
		JSONStart:   compileSet("json_start", raw.JSONStart, false),
		JSONEnd:     compileSet("json_end", raw.JSONEnd, false),
		SummaryLine: compileSet("summary_line", raw.SummaryLine, false),
		Separator:   compileSet("separator", raw.Separator, false),
	}, nil
}

// MustCompileDefaults compiles the built-in patterns for tool, falling back
// to terraform's for unknown tools.
func MustCompileDefaults(tool string) *Patterns {
	raw := DefaultRawPatterns(tool)
	if raw == nil {
		raw = DefaultRawPatterns("terraform")
	}
	p, err := CompilePatterns(raw)
	if err != nil {
		panic(err)
	}
	return p
}

func compileSet(field string, raws []string, asPrefix bool) Set {
	set := make(Set, 0, len(raws))
	for _, raw := range raws {
		p, err := Parse(raw, asPrefix)
		if err != nil {
			patternLog.Warn("invalid_pattern",
				slog.String("field", field),
				slog.String("pattern", raw),
				slog.String("error", err.Error()))
			continue
		}
		set = append(set, p)
	}
	return set
}

// MergeRawPatterns merges defaults with overrides and extras.
//   - If overrides has a field set (non-nil slice, even if empty), it replaces the default.
//   - extras fields are appended to the result.
//   - If defaults is nil, only overrides/extras are used.
func MergeRawPatterns(defaults, overrides, extras *RawPatterns) *RawPatterns {
	result := &RawPatterns{}
	fields := func(r *RawPatterns) []*[]string {
		return []*[]string{
			&r.PromptPhrases, &r.PlanHeaders, &r.PlanEnd, &r.LockHeaders,
			&r.LockID, &r.JSONStart, &r.JSONEnd, &r.SummaryLine, &r.Separator,
		}
	}
	dst := fields(result)

	if defaults != nil {
		for i, f := range fields(defaults) {
			*dst[i] = copySlice(*f)
		}
	}
	if overrides != nil {
		for i, f := range fields(overrides) {
			if *f != nil {
				*dst[i] = copySlice(*f)
			}
		}
	}
	if extras != nil {
		for i, f := range fields(extras) {
			*dst[i] = append(*dst[i], *f...)
		}
	}
	return result
}

func copySlice(s []string) []string {
	if s == nil {
		return nil
	}
	c := make([]string, len(s))
	copy(c, s)
	return c
}
