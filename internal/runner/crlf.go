package runner

import "io"

// crlfWriter turns bare "\n" into "\r\n". A terminal in raw mode does not
// translate newlines itself.
type crlfWriter struct {
	w    io.Writer
	last byte
}

func newCRLFWriter(w io.Writer) *crlfWriter {
	return &crlfWriter{w: w}
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	out := make([]byte, 0, len(p)+len(p)/8)
	last := c.last
	for _, b := range p {
		if b == '\n' && last != '\r' {
			out = append(out, '\r')
		}
		out = append(out, b)
		last = b
	}
	if _, err := c.w.Write(out); err != nil {
		return 0, err
	}
	c.last = last
	return len(p), nil
}
