package provider

import "errors"

var (
	// ErrNotSupported is returned for capabilities a provider does not implement.
	ErrNotSupported = errors.New("not supported by provider")

	// ErrUnknownProvider is returned by New for an unregistered provider name.
	ErrUnknownProvider = errors.New("unknown provider")
)
