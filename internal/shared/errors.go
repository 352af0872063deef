package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates input rejected before any write.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate indicates a unique key is already taken.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrInUse indicates a delete blocked by rows that still reference the record.
	ErrInUse = errors.New("record still in use")
	// ErrInvalidState indicates an operation not allowed in the current lifecycle state.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates a missing or invalid credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the credential lacks the required role.
	ErrForbidden = errors.New("forbidden")
)
