package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhraseMatch(t *testing.T) {
	p := Phrase("Enter a value:")

	assert.True(t, p.Match("Enter a value:"))
	assert.True(t, p.Match("  Enter a value: \n"))
	assert.True(t, p.Match("\x1b[1m  Enter a value:\x1b[0m \x1b[0m"))
	assert.True(t, p.Match("\x1b[1m\x1b[0m  Enter a value:"))
	assert.True(t, p.Match("\x1b(B\x1b[mEnter a value:\x1b(B\x1b[m\n"), "tput sgr0 output")

	assert.False(t, p.Match("Enter a value: yes"))
	assert.False(t, p.Match("Please Enter a value:"))
	assert.False(t, p.Match(""))
}

func TestPhraseToleratesDiagnosticGutter(t *testing.T) {
	p := Phrase("Lock Info:")
	assert.True(t, p.Match("│ Lock Info:\n"))
	assert.True(t, p.Match("\x1b[31m│\x1b[0m Lock Info:"))
}

func TestPrefixMatch(t *testing.T) {
	p := Prefix("Plan:")
	assert.True(t, p.Match("\x1b[0m\x1b[1mPlan:\x1b[0m 1 to add, 0 to change, 0 to destroy.\n"))
	assert.True(t, p.Match("   Plan: 0 to add"))
	assert.False(t, p.Match("No changes. Plan: none"))
}

func TestRegexpExtractWithInterleavedCodes(t *testing.T) {
	p := MustRegexp(`^[\s│]*ID:\s*([0-9A-Fa-f][0-9A-Fa-f-]*)\s*$`)

	id, ok := p.Extract("  ID:        9db590f1-b6fe-c5f2-2678-8804f089deba\n")
	require.True(t, ok)
	assert.Equal(t, "9db590f1-b6fe-c5f2-2678-8804f089deba", id)

	id, ok = p.Extract("ID: \x1b[1mab12\x1b[0m-cd34\x1b[0m")
	require.True(t, ok)
	assert.Equal(t, "ab12-cd34", id)

	_, ok = p.Extract("ID: not-hex!")
	assert.False(t, ok)
}

func TestRegexpKeepsIndentation(t *testing.T) {
	p := MustRegexp(`^\s{0,2}[-+~<]`)
	assert.True(t, p.Match("  + resource \"a\" \"b\" {"))
	assert.True(t, p.Match("\x1b[32m  +\x1b[0m create"))
	assert.False(t, p.Match("      + ami = \"x\""))
}

func TestRegexpInvalid(t *testing.T) {
	_, err := Regexp("([")
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	p, err := Parse("re:^foo$", false)
	require.NoError(t, err)
	assert.True(t, p.Match("foo"))
	assert.Equal(t, "re:^foo$", p.String())

	p, err = Parse("Plan:", true)
	require.NoError(t, err)
	assert.True(t, p.Match("Plan: 1 to add"))

	p, err = Parse("Plan:", false)
	require.NoError(t, err)
	assert.False(t, p.Match("Plan: 1 to add"))
}

func TestNilAndZeroPatternsMatchNothing(t *testing.T) {
	var p *Pattern
	assert.False(t, p.Match("anything"))
	_, ok := p.Extract("anything")
	assert.False(t, ok)

	zero := &Pattern{}
	assert.False(t, zero.Match(""))
	assert.False(t, Set(nil).Match("x"))
}

func TestSetExtractFirstMatch(t *testing.T) {
	s := Set{MustRegexp(`^a(\d)`), MustRegexp(`^b(\d)`)}
	v, ok := s.Extract("b7")
	require.True(t, ok)
	assert.Equal(t, "7", v)
}
