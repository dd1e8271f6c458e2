// Package matcher recognizes meaningful lines in terminal output that may be
// wrapped in, or interleaved with, styling escape codes.
package matcher

import (
	"fmt"
	"regexp"
	"strings"
)

// RegexPrefix marks a raw pattern string as a regular expression.
// Everything else is a literal phrase.
const RegexPrefix = "re:"

// decoration is trimmed from the left of a line before phrase matching:
// whitespace plus the box-drawing gutter terraform draws around diagnostics.
const decoration = " \t\r\n│╷╵"

type patternKind int

const (
	kindPhrase patternKind = iota
	kindPrefix
	kindRegexp
)

// Pattern is a compiled line matcher. The zero value matches nothing.
type Pattern struct {
	kind   patternKind
	phrase string
	re     *regexp.Regexp
}

// Phrase matches a line that, once control codes and surrounding whitespace
// are removed, is exactly text.
func Phrase(text string) *Pattern {
	return &Pattern{kind: kindPhrase, phrase: strings.TrimSpace(text)}
}

// Prefix matches a line that, once control codes and leading whitespace are
// removed, starts with text.
func Prefix(text string) *Pattern {
	return &Pattern{kind: kindPrefix, phrase: strings.TrimSpace(text)}
}

// Regexp compiles expr into a Pattern. The expression runs against the line
// with control codes and the trailing line terminator removed; leading
// whitespace is kept so indentation-sensitive patterns work.
func Regexp(expr string) (*Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", expr, err)
	}
	return &Pattern{kind: kindRegexp, re: re}, nil
}

// MustRegexp is Regexp for known-good patterns; it panics on error.
func MustRegexp(expr string) *Pattern {
	p, err := Regexp(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Parse builds a Pattern from its raw string form: RegexPrefix selects a
// regular expression, anything else becomes a phrase (or a prefix when
// asPrefix is set).
func Parse(raw string, asPrefix bool) (*Pattern, error) {
	if strings.HasPrefix(raw, RegexPrefix) {
		return Regexp(raw[len(RegexPrefix):])
	}
	if asPrefix {
		return Prefix(raw), nil
	}
	return Phrase(raw), nil
}

// Match reports whether line matches p.
func (p *Pattern) Match(line string) bool {
	if p == nil {
		return false
	}
	switch p.kind {
	case kindPhrase:
		return p.phrase != "" && trimDecoration(line) == p.phrase
	case kindPrefix:
		return p.phrase != "" && strings.HasPrefix(trimDecoration(line), p.phrase)
	case kindRegexp:
		return p.re != nil && p.re.MatchString(clean(line))
	}
	return false
}

// Extract returns the first capture group of a regexp pattern. Phrase and
// prefix patterns return the matched phrase.
func (p *Pattern) Extract(line string) (string, bool) {
	if p == nil {
		return "", false
	}
	if p.kind != kindRegexp {
		if p.Match(line) {
			return p.phrase, true
		}
		return "", false
	}
	if p.re == nil {
		return "", false
	}
	m := p.re.FindStringSubmatch(clean(line))
	if m == nil {
		return "", false
	}
	if len(m) < 2 {
		return m[0], true
	}
	return m[1], true
}

// String returns the raw form of the pattern.
func (p *Pattern) String() string {
	if p == nil {
		return ""
	}
	if p.kind == kindRegexp && p.re != nil {
		return RegexPrefix + p.re.String()
	}
	return p.phrase
}

// Set is a list of alternative patterns.
type Set []*Pattern

// Match reports whether any pattern in s matches line.
func (s Set) Match(line string) bool {
	for _, p := range s {
		if p.Match(line) {
			return true
		}
	}
	return false
}

// Extract returns the capture from the first pattern in s that matches.
func (s Set) Extract(line string) (string, bool) {
	for _, p := range s {
		if v, ok := p.Extract(line); ok {
			return v, true
		}
	}
	return "", false
}

// clean strips control codes and the trailing line terminator from line.
func clean(line string) string {
	return strings.TrimRight(StripANSI(line), "\r\n")
}

func trimDecoration(line string) string {
	return strings.TrimSpace(strings.TrimLeft(StripANSI(line), decoration))
}
