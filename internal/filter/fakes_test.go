package filter

import (
	"context"
	"math/rand"
	"strings"
	"sync"

	"github.com/simplygenius/atmos-sub001/internal/notify"
	"github.com/simplygenius/atmos-sub001/internal/remediate"
)

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (n *fakeNotifier) Notify(_ context.Context, message, _ string) (notify.Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	if n.err != nil {
		return notify.Result{}, n.err
	}
	return notify.Result{Success: true}, nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

type fakeInvoker struct {
	calls [][]string
	envs  []map[string]string
	res   remediate.Result
	err   error
}

func (i *fakeInvoker) Invoke(_ context.Context, args []string, env map[string]string) (remediate.Result, error) {
	i.calls = append(i.calls, args)
	i.envs = append(i.envs, env)
	return i.res, i.err
}

type fakeConfirmer struct {
	answer    bool
	err       error
	questions []string
	defaults  []bool
}

func (c *fakeConfirmer) Confirm(_ context.Context, question string, defaultYes bool) (bool, error) {
	c.questions = append(c.questions, question)
	c.defaults = append(c.defaults, defaultYes)
	return c.answer, c.err
}

func testDeps() Deps {
	return Deps{
		Exec:      &ExecContext{Tool: "terraform", Env: map[string]string{"TF_LOG": "off"}},
		Notifier:  &fakeNotifier{},
		Invoker:   &fakeInvoker{},
		Confirmer: &fakeConfirmer{},
	}
}

// feed runs input through f in chunks of the given sizes, cycling through
// sizes, then flushes.
func feed(f Filter, input string, sizes ...int) string {
	var out strings.Builder
	for i := 0; input != ""; i++ {
		n := len(input)
		if len(sizes) > 0 {
			n = min(sizes[i%len(sizes)], len(input))
		}
		out.WriteString(f.Filter(input[:n], false))
		input = input[n:]
	}
	out.WriteString(f.Filter("", true))
	return out.String()
}

// chunkings returns chunk size patterns covering single bytes, small primes
// and seeded random splits.
func chunkings() [][]int {
	sizes := [][]int{{1}, {2}, {3}, {5}, {7}, {13}, {64}, {1, 9, 2}}
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		var s []int
		for j := 0; j < 8; j++ {
			s = append(s, 1+r.Intn(40))
		}
		sizes = append(sizes, s)
	}
	return sizes
}
