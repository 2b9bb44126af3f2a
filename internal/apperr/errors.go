// Package apperr holds sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrMalformed marks a structural defect in input data: a dangling head
	// reference, a self-loop, an unparsable row.
	ErrMalformed = errors.New("malformed input")

	// ErrConversion marks a sentence that could not be converted.
	ErrConversion = errors.New("conversion failed")
)
