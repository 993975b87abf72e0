// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates the operation clashes with existing state, such as an
// environment still referenced by aliases or a slug taken by a concurrent write.
var ErrConflict = errors.New("conflict")

// ErrValidation indicates the request input is malformed or violates a rule.
var ErrValidation = errors.New("validation failed")

// ErrNotAuthorized indicates the caller lacks the permission for the operation.
var ErrNotAuthorized = errors.New("not authorized")

// DetailError carries a client-facing message and structured data alongside
// one of the sentinel errors above.
type DetailError struct {
	Err     error
	Message string
	Data    map[string]any
}

func (e *DetailError) Error() string { return e.Message }

func (e *DetailError) Unwrap() error { return e.Err }
