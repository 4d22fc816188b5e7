package claim

import "errors"

var (
	// ErrInvalidArgument indicates malformed or missing input; nothing was created or changed
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnauthorized indicates the caller is not in the admin set
	ErrUnauthorized = errors.New("not authorized")

	// ErrNotFound indicates no claim exists with the given ID
	ErrNotFound = errors.New("claim not found")

	// ErrAlreadyFinalized indicates a transition was attempted on an approved or rejected claim
	ErrAlreadyFinalized = errors.New("claim already finalized")
)
