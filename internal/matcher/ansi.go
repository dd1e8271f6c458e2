package matcher

import (
	"strings"
	"unicode/utf8"
)

// StripANSI removes terminal control sequences from content in a single pass.
//
// Handled: CSI (ESC [ params final), OSC (ESC ] ... BEL or ESC \), other ESC
// sequences with their intermediates and 8-bit CSI (0x9B). A sequence that is malformed or cut off
// by the end of input is kept as literal text; output chunks routinely end in
// the middle of an escape sequence and nothing may be lost.
func StripANSI(content string) string {
	if strings.IndexByte(content, '\x1b') < 0 && strings.IndexByte(content, '\x9b') < 0 {
		return content
	}

	var b strings.Builder
	b.Grow(len(content))

	i := 0
	for i < len(content) {
		c := content[i]
		if c == '\x1b' {
			if n := escapeLen(content[i:]); n > 0 {
				i += n
				continue
			}
		} else if c == '\x9b' && !inUTF8Rune(content, i) {
			if n := csiLen(content[i+1:]); n > 0 {
				i += 1 + n
				continue
			}
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}

// escapeLen returns the length of the escape sequence starting at s[0]
// (which is ESC), or 0 when it is incomplete or malformed.
func escapeLen(s string) int {
	if len(s) < 2 {
		return 0
	}
	switch s[1] {
	case '[':
		if n := csiLen(s[2:]); n > 0 {
			return 2 + n
		}
		return 0
	case ']':
		if bel := strings.IndexByte(s, '\x07'); bel > 0 {
			if st := strings.Index(s, "\x1b\\"); st > 0 && st < bel {
				return st + 2
			}
			return bel + 1
		}
		if st := strings.Index(s, "\x1b\\"); st > 0 {
			return st + 2
		}
		return 0
	default:
		// nF escapes (charset selection such as ESC ( B) carry intermediates
		// before the final byte.
		j := 1
		for j < len(s) && s[j] >= 0x20 && s[j] <= 0x2f {
			j++
		}
		if j < len(s) && s[j] >= 0x30 && s[j] <= 0x7e {
			return j + 1
		}
		return 0
	}
}

// csiLen returns the length of a CSI body (parameters, intermediates and
// final byte) at the start of s, or 0 if s does not hold a complete one.
func csiLen(s string) int {
	for j := 0; j < len(s); j++ {
		c := s[j]
		switch {
		case c >= 0x30 && c <= 0x3f, c >= 0x20 && c <= 0x2f:
			continue
		case c >= 0x40 && c <= 0x7e:
			return j + 1
		default:
			return 0
		}
	}
	return 0
}

// inUTF8Rune reports whether the 0x9B byte at i is a continuation byte of a
// valid multi-byte UTF-8 rune rather than an 8-bit CSI introducer.
func inUTF8Rune(s string, i int) bool {
	for back := 1; back <= 3 && i-back >= 0; back++ {
		c := s[i-back]
		if c < 0x80 {
			return false
		}
		if c >= 0xc0 {
			r, size := utf8.DecodeRuneInString(s[i-back:])
			return r != utf8.RuneError && size > back
		}
	}
	return false
}
