package filter

import "strings"

// lineBuffer assembles complete lines across chunk boundaries.
type lineBuffer struct {
	partial string
}

// feed walks chunk and calls complete for every line it finishes. line is
// the whole line including its newline; tail is the part of it that came
// from this chunk. Text after the last newline is kept as the pending line.
func (b *lineBuffer) feed(chunk string, complete func(line, tail string)) {
	for {
		i := strings.IndexByte(chunk, '\n')
		if i < 0 {
			b.partial += chunk
			return
		}
		tail := chunk[:i+1]
		line := b.partial + tail
		b.partial = ""
		complete(line, tail)
		chunk = chunk[i+1:]
	}
}

// pending returns the unterminated line assembled so far.
func (b *lineBuffer) pending() string {
	return b.partial
}

// take returns and clears the pending line.
func (b *lineBuffer) take() string {
	p := b.partial
	b.partial = ""
	return p
}

// trailing returns the part of chunk after its last newline.
func trailing(chunk string) string {
	return chunk[strings.LastIndexByte(chunk, '\n')+1:]
}
