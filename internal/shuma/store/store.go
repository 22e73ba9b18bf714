package store

import "errors"

// ErrNotFound is returned when a lookup or mutation addresses a row that
// does not exist.
var ErrNotFound = errors.New("store: not found")
