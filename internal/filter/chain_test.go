package filter

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tagFilter appends its tag to every chunk and records its calls.
type tagFilter struct {
	tag      string
	held     string
	flushes  int
	closes   int
	closeErr error
	panicOn  string
	order    *[]string
}

func (f *tagFilter) Filter(chunk string, flushing bool) string {
	if f.panicOn != "" && strings.Contains(chunk, f.panicOn) {
		panic("bad chunk")
	}
	if f.order != nil {
		*f.order = append(*f.order, f.tag)
	}
	if flushing {
		f.flushes++
		out := chunk + f.held
		f.held = ""
		return out
	}
	return chunk + f.tag
}

func (f *tagFilter) Close(context.Context) error {
	f.closes++
	if f.order != nil {
		*f.order = append(*f.order, "close:"+f.tag)
	}
	return f.closeErr
}

func TestChainAppliesFiltersInOrder(t *testing.T) {
	var order []string
	a := &tagFilter{tag: "[a]", order: &order}
	b := &tagFilter{tag: "[b]", order: &order}
	c := NewChain(StreamStdout, a, b)

	assert.Equal(t, "x[a][b]", c.Process("x", false))
	assert.Equal(t, []string{"[a]", "[b]"}, order)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, StreamStdout, c.Stream())
}

func TestChainShutdownFlushesThenClosesOnce(t *testing.T) {
	var order []string
	a := &tagFilter{tag: "[a]", held: "held-a", order: &order}
	b := &tagFilter{tag: "[b]", held: "held-b", order: &order}
	c := NewChain(StreamStdout, a, b)

	var out bytes.Buffer
	require.NoError(t, c.Shutdown(context.Background(), &out))
	require.NoError(t, c.Shutdown(context.Background(), &out))

	assert.Equal(t, "held-aheld-b", out.String())
	assert.Equal(t, 1, a.flushes)
	assert.Equal(t, 1, b.flushes)
	assert.Equal(t, 1, a.closes)
	assert.Equal(t, 1, b.closes)
	assert.Equal(t, []string{"[a]", "[b]", "close:[a]", "close:[b]"}, order)
}

func TestChainShutdownClosesAllDespiteErrors(t *testing.T) {
	errA := errors.New("a failed")
	a := &tagFilter{tag: "[a]", closeErr: errA}
	b := &tagFilter{tag: "[b]"}
	c := NewChain(StreamStderr, a, b)

	err := c.Shutdown(context.Background(), nil)
	require.ErrorIs(t, err, errA)
	assert.Equal(t, 1, b.closes)
}

type panicCloser struct{ tagFilter }

func (p *panicCloser) Close(context.Context) error { panic("close exploded") }

func TestChainShutdownRecoversClosePanic(t *testing.T) {
	b := &tagFilter{tag: "[b]"}
	c := NewChain(StreamStdout, &panicCloser{}, b)

	err := c.Shutdown(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close exploded")
	assert.Equal(t, 1, b.closes)
}

func TestChainPanickingFilterPassesInputThrough(t *testing.T) {
	a := &tagFilter{tag: "[a]", panicOn: "boom"}
	b := &tagFilter{tag: "[b]"}
	c := NewChain(StreamStdout, a, b)

	assert.Equal(t, "boom[b]", c.Process("boom", false))
	assert.Equal(t, "ok[b]", c.Process("ok", false), "a broken filter is skipped afterwards")
}

func TestChainPanickingFilterReleasesHeldText(t *testing.T) {
	a := &tagFilter{tag: "[a]", held: "held-a", panicOn: "boom"}
	b := &tagFilter{tag: "[b]"}
	c := NewChain(StreamStdout, a, b)

	assert.Equal(t, "held-aboom[b]", c.Process("boom", false))
	assert.Equal(t, 1, a.flushes)

	var out bytes.Buffer
	require.NoError(t, c.Shutdown(context.Background(), &out))
	assert.Equal(t, 1, a.flushes, "a broken filter is not flushed again")
	assert.Empty(t, out.String())
}

type flushPanicFilter struct{ tagFilter }

func (p *flushPanicFilter) Filter(string, bool) string { panic("always") }

func TestChainFlushPanicAfterPanicDropsHeldText(t *testing.T) {
	b := &tagFilter{tag: "[b]"}
	c := NewChain(StreamStdout, &flushPanicFilter{}, b)

	assert.Equal(t, "x[b]", c.Process("x", false))
}

func TestChainEmpty(t *testing.T) {
	c := NewChain(StreamStdout)
	assert.Equal(t, "text", c.Process("text", false))
	assert.NoError(t, c.Shutdown(context.Background(), nil))
}

func TestBuildDefaultChains(t *testing.T) {
	deps := testDeps()

	stdout, err := Build(StreamStdout, DefaultStdout, deps)
	require.NoError(t, err)
	assert.Equal(t, 4, stdout.Len())

	stderr, err := Build(StreamStderr, DefaultStderr, deps)
	require.NoError(t, err)
	assert.Equal(t, 2, stderr.Len())
}

func TestBuildUnknownFilter(t *testing.T) {
	_, err := Build(StreamStdout, []string{NamePlanSummary, "colorize"}, testDeps())
	require.ErrorIs(t, err, ErrUnknownFilter)
	assert.Contains(t, err.Error(), "colorize")
}

func TestBuildMissingDependency(t *testing.T) {
	deps := testDeps()
	deps.Notifier = nil
	_, err := Build(StreamStdout, []string{NamePromptNotify}, deps)
	require.ErrorIs(t, err, ErrMissingDependency)
}

func TestNamesCoversRegistry(t *testing.T) {
	for _, name := range Names() {
		f, err := New(name, testDeps())
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}
}

// A full terraform apply run through the default stdout chain: the plan is
// summarized, the JSON change rendered as a diff, the prompt notified and no
// output lost or duplicated.
func TestDefaultStdoutChainEndToEnd(t *testing.T) {
	input := "Terraform will perform the following actions:\n" +
		"  ~ resource \"aws_iam_policy\" \"p\" {\n" +
		`      policy: "{\"a\":1}" => "{\"a\":2}"` + "\n" +
		"    }\n" +
		"Plan: 0 to add, 1 to change, 0 to destroy.\n" +
		"\n" +
		"Do you want to perform these actions?\n" +
		"  Enter a value: "

	for _, sizes := range append(chunkings(), nil) {
		n := &fakeNotifier{}
		deps := testDeps()
		deps.Notifier = n
		c, err := Build(StreamStdout, DefaultStdout, deps)
		require.NoError(t, err)

		var out strings.Builder
		rest := input
		for i := 0; rest != ""; i++ {
			size := len(rest)
			if len(sizes) > 0 {
				size = min(sizes[i%len(sizes)], len(rest))
			}
			out.WriteString(c.Process(rest[:size], false))
			rest = rest[size:]
		}
		require.NoError(t, c.Shutdown(context.Background(), &out))

		got := out.String()
		assert.Equal(t, 1, n.count(), "sizes %v", sizes)
		assert.Contains(t, got, "Plan Summary:\n  ~ resource \"aws_iam_policy\" \"p\" {\n")
		assert.Contains(t, got, `+  "a": 2`)
		assert.True(t, strings.HasSuffix(got, "  Enter a value: "), "sizes %v: %q", sizes, got)
	}
}
