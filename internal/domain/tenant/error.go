package tenant

import "errors"

var (
	ErrTenantNotFound  = errors.New("tenant not found")
	ErrTenantSuspended = errors.New("tenant is suspended")
	ErrTenantRequired  = errors.New("tenant context required")
	ErrSlugTaken       = errors.New("tenant slug already exists")
	ErrInvalidSlug     = errors.New("invalid tenant slug")
	ErrInvalidName     = errors.New("invalid tenant name")
)
