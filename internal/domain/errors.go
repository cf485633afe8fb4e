package domain

import "errors"

// Error taxonomy shared by stores, usecases and handlers.
// Handlers map these to status codes with errors.Is.
var (
	// ErrInvalidInput marks malformed request data. 400.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidID marks an identifier the store cannot parse. 400.
	ErrInvalidID = errors.New("invalid id")
	// ErrRejected marks a write the store refused (duplicate key,
	// document validation, constraint violation). 400.
	ErrRejected = errors.New("rejected by store")
	// ErrNotFound marks a missing record on update or delete. 404.
	ErrNotFound = errors.New("not found")
)
