package tenant

import "greenkeep/internal/domain/tenant"

type listInput struct{}

type listOutput struct {
	Body ListResponse
}

type ListResponse struct {
	Status  string          `json:"status"`
	Tenants []tenant.Tenant `json:"tenants"`
}

type createInput struct {
	Body CreateRequest
}

type CreateRequest struct {
	Slug string `json:"slug" minLength:"2" maxLength:"100" pattern:"^[a-z0-9-]+$" doc:"URL-safe tenant name"`
	Name string `json:"name" minLength:"1" maxLength:"200" doc:"Display name"`
}

type tenantOutput struct {
	Body TenantResponse
}

type TenantResponse struct {
	Status string        `json:"status"`
	Tenant tenant.Tenant `json:"tenant"`
}

type idInput struct {
	ID string `path:"id" doc:"Tenant id or slug"`
}
