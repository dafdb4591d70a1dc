package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrCacheMiss          = errors.New("cache miss")
	ErrNotAuthenticated   = errors.New("no valid client session")
	ErrAlreadyInitialized = errors.New("dashboard already initialized")
	ErrUnknownTab         = errors.New("unknown tab")
)
