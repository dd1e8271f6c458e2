package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Plan: 1 to add", "Plan: 1 to add"},
		{"sgr", "\x1b[1mPlan:\x1b[0m 1 to add", "Plan: 1 to add"},
		{"sgr params", "\x1b[0;32;1m+\x1b[0m create", "+ create"},
		{"osc bel", "\x1b]0;title\x07text", "text"},
		{"osc st", "\x1b]8;;http://x\x1b\\link", "link"},
		{"two byte", "\x1b=keypad", "keypad"},
		{"charset select", "\x1b(B\x1b[mEnter a value:\x1b(B\x1b[m", "Enter a value:"},
		{"two intermediates", "\x1b$(Bx", "x"},
		{"8-bit csi", "\x9b31mred", "red"},
		{"unicode kept", "│ Lock Info:", "│ Lock Info:"},
		{"multibyte with 0x9b continuation", "⛔ stop", "⛔ stop"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripANSI(tt.input))
		})
	}
}

func TestStripANSIKeepsTruncatedSequences(t *testing.T) {
	// A chunk boundary can cut a sequence anywhere; nothing may be dropped.
	assert.Equal(t, "abc\x1b", StripANSI("abc\x1b"))
	assert.Equal(t, "abc\x1b[0", StripANSI("abc\x1b[0"))
	assert.Equal(t, "abc\x1b]0;title", StripANSI("abc\x1b]0;title"))
	assert.Equal(t, "\x1b[\x01x", StripANSI("\x1b[\x01x"))
	assert.Equal(t, "abc\x1b(", StripANSI("abc\x1b("))
}
