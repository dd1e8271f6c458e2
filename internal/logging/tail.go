package logging

import (
	"bytes"
	"os"
	"sync"
)

// Tail keeps the most recent log records in memory, up to a byte limit, so
// they can be written to a crash file when the wrapper itself fails. Each
// Write is kept as one record; slog handlers write one record per call.
type Tail struct {
	mu      sync.Mutex
	limit   int
	size    int
	records [][]byte
}

// NewTail returns a Tail holding at most limit bytes (default 1MB).
func NewTail(limit int) *Tail {
	if limit <= 0 {
		limit = 1 << 20
	}
	return &Tail{limit: limit}
}

// Write stores a copy of p, evicting the oldest records to stay in limit.
// A record longer than the limit keeps only its last limit bytes.
func (t *Tail) Write(p []byte) (int, error) {
	rec := p
	if len(rec) > t.limit {
		rec = rec[len(rec)-t.limit:]
	}
	rec = bytes.Clone(rec)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, rec)
	t.size += len(rec)
	drop := 0
	for t.size > t.limit {
		t.size -= len(t.records[drop])
		t.records[drop] = nil
		drop++
	}
	if drop > 0 {
		t.records = append(t.records[:0:0], t.records[drop:]...)
	}
	return len(p), nil
}

// Bytes returns the held records, oldest first.
func (t *Tail) Bytes() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return bytes.Join(t.records, nil)
}

// count returns the number of records held.
func (t *Tail) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// Dump writes the held records to path. Records can carry values from the
// tool's environment, so the file is owner-only. Nothing held, no file.
func (t *Tail) Dump(path string) error {
	data := t.Bytes()
	if len(data) == 0 {
		return nil
	}
	return os.WriteFile(path, data, 0o600)
}
