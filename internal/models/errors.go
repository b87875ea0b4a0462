package models

import "errors"

// ErrInvalidInput marks malformed or inconsistent node data: embedding
// dimension mismatch, duplicate ids, or a dangling candidate reference.
// Fatal; a rebuild carrying it is aborted, never retried.
var ErrInvalidInput = errors.New("invalid input")

// ErrTimeout marks a rebuild that exceeded its wall-clock budget.
// Fatal; no partial output is committed.
var ErrTimeout = errors.New("rebuild timed out")
