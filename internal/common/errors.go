// Package common defines sentinel errors shared by the validation, storage,
// service and transport layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrStore      = errors.New("store error")

	// Validation errors.
	ErrInvalidIdentifier     = errors.New("invalid identifier")
	ErrInvalidQueryParameter = errors.New("invalid query parameter")
	ErrMalformedBody         = errors.New("malformed body")

	// Auth errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
)
