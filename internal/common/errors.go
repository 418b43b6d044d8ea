// Package common defines shared sentinel errors used across the client and
// server layers of taskflow. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Validation errors (missing or malformed input).
	ErrInvalidInput = errors.New("invalid input")

	// Registration errors.
	ErrAlreadyExists = errors.New("already exists")

	// Login errors. Unknown email and wrong password are deliberately
	// indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Gated operations called without a resolved identity.
	ErrUnauthorized = errors.New("unauthorized")

	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Durable read/write failures.
	ErrStorage = errors.New("storage failure")

	// Auth errors (invalid, malformed or expired token).
	ErrInvalidToken = errors.New("invalid token")
)
