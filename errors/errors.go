package errors

import "errors"

// Sentinel errors for common error conditions
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")
)

// Generator failure taxonomy. Steps recover from the first three locally;
// only ErrCycleLimitExceeded reaches the caller of a turn.
var (
	// ErrGeneratorUnavailable indicates the text generator could not be reached,
	// timed out or returned an error.
	ErrGeneratorUnavailable = errors.New("generator unavailable")

	// ErrMalformedResponse indicates the generator replied with text that does
	// not decode into the expected structure.
	ErrMalformedResponse = errors.New("malformed generator response")

	// ErrEmptyResult indicates a well-formed reply carrying no usable items.
	ErrEmptyResult = errors.New("empty result")

	// ErrCycleLimitExceeded indicates a turn exceeded its step budget.
	ErrCycleLimitExceeded = errors.New("cycle limit exceeded")
)
