package filter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/simplygenius/atmos-sub001/internal/logging"
)

var chainLog = logging.ForComponent(logging.CompChain)

// Chain runs an ordered list of filters over one stream. Each filter's
// output is the next filter's input.
//
// A filter that panics is logged, flushed once, its input is passed on
// unchanged, and it is skipped for the rest of the stream.
type Chain struct {
	stream  Stream
	filters []Filter
	names   []string
	broken  []bool

	mu       sync.Mutex
	shutdown bool
}

// NewChain returns a chain over filters in order.
func NewChain(stream Stream, filters ...Filter) *Chain {
	c := &Chain{stream: stream}
	for _, f := range filters {
		c.Add(fmt.Sprintf("%T", f), f)
	}
	return c
}

// Add appends a filter under name.
func (c *Chain) Add(name string, f Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = append(c.filters, f)
	c.names = append(c.names, name)
	c.broken = append(c.broken, false)
}

// Stream returns the stream the chain filters.
func (c *Chain) Stream() Stream { return c.stream }

// Len returns the number of filters.
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.filters)
}

// Process passes chunk through every filter in order.
func (c *Chain) Process(chunk string, flushing bool) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	logging.AggregateN(logging.CompChain, "chunk", int64(len(chunk)),
		slog.String("stream", string(c.stream)))

	for i, f := range c.filters {
		if c.broken[i] {
			continue
		}
		chunk = c.apply(i, f, chunk, flushing)
	}
	return chunk
}

func (c *Chain) apply(i int, f Filter, chunk string, flushing bool) (out string) {
	defer func() {
		if r := recover(); r != nil {
			c.broken[i] = true
			chainLog.Error("filter_panic",
				slog.String("stream", string(c.stream)),
				slog.String("filter", c.names[i]),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			out = chunk
			if !flushing {
				out = c.drain(i, f) + chunk
			}
		}
	}()
	return f.Filter(chunk, flushing)
}

// drain flushes a filter that has just panicked, once, so text it was
// holding from earlier chunks is not lost.
func (c *Chain) drain(i int, f Filter) (held string) {
	defer func() {
		if r := recover(); r != nil {
			chainLog.Error("filter_flush_panic",
				slog.String("stream", string(c.stream)),
				slog.String("filter", c.names[i]),
				slog.Any("panic", r))
			held = ""
		}
	}()
	return f.Filter("", true)
}

// Shutdown flushes every filter, writes whatever they were holding to w,
// and then closes each filter exactly once. Later calls do nothing.
//
// Close errors are logged and returned joined; one failing filter does not
// stop the others from closing.
func (c *Chain) Shutdown(ctx context.Context, w io.Writer) error {
	c.mu.Lock()
	done := c.shutdown
	c.shutdown = true
	c.mu.Unlock()
	if done {
		return nil
	}

	var errs []error
	if rest := c.Process("", true); rest != "" && w != nil {
		if _, err := io.WriteString(w, rest); err != nil {
			errs = append(errs, fmt.Errorf("write flushed %s output: %w", c.stream, err))
		}
	}

	c.mu.Lock()
	filters := append([]Filter(nil), c.filters...)
	names := append([]string(nil), c.names...)
	c.mu.Unlock()

	for i, f := range filters {
		if err := closeFilter(ctx, f); err != nil {
			chainLog.Error("filter_close_failed",
				slog.String("stream", string(c.stream)),
				slog.String("filter", names[i]),
				slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("close %s: %w", names[i], err))
		}
	}
	return errors.Join(errs...)
}

func closeFilter(ctx context.Context, f Filter) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during close: %v", r)
		}
	}()
	return f.Close(ctx)
}
