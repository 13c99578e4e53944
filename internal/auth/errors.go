package auth

import "errors"

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// the login surface never reveals which one failed.
	ErrInvalidCredentials = errors.New("auth: invalid email or password")

	// ErrInvalidToken indicates the token failed verification for any
	// reason: malformed, bad signature, or expired.
	ErrInvalidToken = errors.New("auth: invalid token")

	ErrEmailTaken   = errors.New("auth: email already registered")
	ErrInvalidInput = errors.New("auth: invalid input")
	ErrNotFound     = errors.New("auth: not found")
)
