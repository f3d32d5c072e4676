package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDomainNotFound marks claims targeting a domain the graph does not know.
	ErrDomainNotFound = errors.New("domain not found")
	// ErrInvalidTransition marks a research-prompt status change that the
	// lifecycle does not permit.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Is re-exports errors.Is so callers need only one errors import.
func Is(err, target error) bool { return errors.Is(err, target) }
