package db

import "errors"

// ErrNotFound is returned when an operation targets an identifier that does
// not resolve to an existing record.
var ErrNotFound = errors.New("not found")
