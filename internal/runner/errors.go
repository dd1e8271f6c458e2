package runner

import "errors"

// ErrPTYUnsupported is returned when PTY mode is requested on a platform
// without pseudo-terminals.
var ErrPTYUnsupported = errors.New("pty mode not supported on this platform")

// ShutdownError reports filters that failed while closing. The exit code
// returned alongside it is still the tool's.
type ShutdownError struct {
	Err error
}

func (e *ShutdownError) Error() string { return "filter shutdown: " + e.Err.Error() }

func (e *ShutdownError) Unwrap() error { return e.Err }
