package secrets

import "errors"

// ErrDuplicateKey is returned by Set when the key exists and overwrite is false.
var ErrDuplicateKey = errors.New("secret already exists")
