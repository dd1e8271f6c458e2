package notify

import "errors"

// ErrNotSupported is returned when the platform has no notification backend.
var ErrNotSupported = errors.New("notifications not supported on this platform")
