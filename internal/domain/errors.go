package domain

import "errors"

// Domain errors represent business-level errors that can occur in the system.
// These errors are used across layers to communicate specific failure conditions.
var (
	// Persistence outcomes
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Push pipeline outcomes
	ErrMalformedEvent   = errors.New("malformed event")
	ErrUnknownRegistry  = errors.New("unknown registry")
	ErrUnknownActor     = errors.New("unknown actor")
	ErrUnknownNamespace = errors.New("unknown namespace")

	// Provisioning errors
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidHostname = errors.New("invalid hostname")
	ErrInvalidConfig   = errors.New("invalid configuration")

	// Lookup errors of the admin surface
	ErrUnknownRepository = errors.New("unknown repository")
	ErrUnknownUser       = errors.New("unknown user")
)

// IsRejection reports whether err is one of the pipeline outcomes that abort
// processing without touching any state.
func IsRejection(err error) bool {
	return errors.Is(err, ErrMalformedEvent) ||
		errors.Is(err, ErrUnknownRegistry) ||
		errors.Is(err, ErrUnknownActor) ||
		errors.Is(err, ErrUnknownNamespace)
}
