package filter

import "errors"

var (
	// ErrUnknownFilter is returned when a chain names a filter that does not exist.
	ErrUnknownFilter = errors.New("unknown filter")

	// ErrMissingDependency is returned when a filter is built without a
	// collaborator it needs.
	ErrMissingDependency = errors.New("missing filter dependency")
)
