package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState signals an attempt transition from a disallowed state.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTransient marks store/queue I/O failures that are safe to retry.
	ErrTransient = errors.New("transient store failure")
)
