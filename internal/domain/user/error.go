package user

import "errors"

var (
	ErrNotFound      = errors.New("user not found")
	ErrInvalidAuth   = errors.New("invalid credentials")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmailTaken    = errors.New("email already registered")
	ErrTenantMissing = errors.New("tenant is required for this role")
)
