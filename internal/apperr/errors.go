// Package apperr holds the sentinel errors shared across the console.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidInput  = errors.New("invalid input")
	ErrLockedField   = errors.New("field is locked")
	ErrInvalidType   = errors.New("invalid type")
	ErrNoSession     = errors.New("no active session")
	ErrNoPrivateKey  = errors.New("private key missing")
)
