package store

import "errors"

// Common store errors.
var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrClosed        = errors.New("store: closed")
	ErrInvalid       = errors.New("store: invalid argument")
)
