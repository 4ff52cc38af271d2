package store

import "errors"

// ErrNotFound is returned by lookups by key when no row matches.
var ErrNotFound = errors.New("not found")
