package applicationrepo

import "errors"

var (
	// ErrNotFound indicates the requested application does not exist.
	ErrNotFound = errors.New("application not found")

	// ErrAlreadyExists indicates an application already exists with the provided ID.
	ErrAlreadyExists = errors.New("application already exists")

	// ErrNotPending indicates a transition was attempted on an application
	// that already reached a terminal status.
	ErrNotPending = errors.New("application is not pending")
)
