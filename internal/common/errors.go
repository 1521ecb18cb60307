package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrValidation     = errors.New("validation error")

	// Signup conflicts. Both match ErrConflict with errors.Is.
	ErrUsernameTaken = fmt.Errorf("username %w", ErrConflict)
	ErrEmailTaken    = fmt.Errorf("email %w", ErrConflict)

	// Login errors. Unknown identity and wrong password share one value.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenType = fmt.Errorf("%w: wrong token type", ErrInvalidToken)

	// Token lifecycle errors.
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrInvalidToken)
)
