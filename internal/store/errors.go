package store

import "errors"

// ErrNotFound signals a missing record at the store boundary.
var ErrNotFound = errors.New("not found")

// ErrConflict signals a referential-integrity violation: deleting a node that
// still has children, or a uniqueness collision.
var ErrConflict = errors.New("conflict")
