package bridge

import "errors"

var (
	// ErrAlreadyAttached is returned by Attach when a radio is already bound.
	// The existing binding is left untouched.
	ErrAlreadyAttached = errors.New("bridge already attached to a radio")

	// ErrStopped is returned by operations on an engine that has shut down.
	ErrStopped = errors.New("bridge stopped")

	// ErrNilCollaborator is returned by Attach when the medium or radio is nil.
	ErrNilCollaborator = errors.New("medium and radio must be non-nil")
)
