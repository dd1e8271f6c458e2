package logging

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// counter accumulates one event type between flushes.
type counter struct {
	count  int64
	total  int64
	max    int64
	fields []slog.Attr
}

// Tally batches high-frequency events, such as one per output chunk, into a
// single event_summary record per event type per interval.
type Tally struct {
	logger   *slog.Logger
	interval time.Duration

	mu       sync.Mutex
	counters map[string]*counter

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewTally returns a tally that flushes to logger every interval.
// A nil logger drops everything.
func NewTally(logger *slog.Logger, interval time.Duration) *Tally {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Tally{
		logger:   logger,
		interval: interval,
		counters: make(map[string]*counter),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run starts the periodic flush.
func (t *Tally) Run() {
	go func() {
		defer close(t.done)
		tick := time.NewTicker(t.interval)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				t.flush()
			case <-t.stop:
				return
			}
		}
	}()
}

// Close stops the periodic flush and writes what is left. It must follow Run.
func (t *Tally) Close() {
	t.stopOnce.Do(func() {
		close(t.stop)
		<-t.done
		t.flush()
	})
}

// Add counts one occurrence of event carrying quantity n (bytes, lines).
// The fields of the latest occurrence are reported.
func (t *Tally) Add(component, event string, n int64, fields ...slog.Attr) {
	key := component + "\x00" + event

	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.counters[key]
	if c == nil {
		c = &counter{}
		t.counters[key] = c
	}
	c.count++
	c.total += n
	c.max = max(c.max, n)
	if len(fields) > 0 {
		c.fields = fields
	}
}

func (t *Tally) flush() {
	t.mu.Lock()
	counters := t.counters
	t.counters = make(map[string]*counter)
	t.mu.Unlock()

	if t.logger == nil || len(counters) == 0 {
		return
	}

	keys := make([]string, 0, len(counters))
	for k := range counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		c := counters[k]
		component, event, _ := strings.Cut(k, "\x00")
		attrs := []any{
			slog.String("component", component),
			slog.String("event", event),
			slog.Int64("count", c.count),
			slog.Duration("window", t.interval),
		}
		if c.total > 0 {
			attrs = append(attrs, slog.Int64("total", c.total), slog.Int64("max", c.max))
		}
		for _, f := range c.fields {
			attrs = append(attrs, f)
		}
		t.logger.Info("event_summary", attrs...)
	}
}
