package tenant

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"greenkeep/internal/domain/tenant"
)

type Handler struct {
	service    tenant.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service tenant.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.createOp(), h.create)
	huma.Register(api, h.suspendOp(), h.suspend)
	huma.Register(api, h.activateOp(), h.activate)
}

func (h *Handler) list(ctx context.Context, _ *listInput) (*listOutput, error) {
	tenants, err := h.service.List(ctx)
	if err != nil {
		return nil, h.mapError("list tenants", err)
	}
	if tenants == nil {
		tenants = []tenant.Tenant{}
	}
	return &listOutput{Body: ListResponse{Status: "Ok", Tenants: tenants}}, nil
}

func (h *Handler) create(ctx context.Context, input *createInput) (*tenantOutput, error) {
	t, err := h.service.Create(ctx, input.Body.Slug, input.Body.Name)
	if err != nil {
		return nil, h.mapError("create tenant", err)
	}
	return &tenantOutput{Body: TenantResponse{Status: "Ok", Tenant: *t}}, nil
}

func (h *Handler) suspend(ctx context.Context, input *idInput) (*tenantOutput, error) {
	t, err := h.service.Suspend(ctx, input.ID)
	if err != nil {
		return nil, h.mapError("suspend tenant", err)
	}
	return &tenantOutput{Body: TenantResponse{Status: "Ok", Tenant: *t}}, nil
}

func (h *Handler) activate(ctx context.Context, input *idInput) (*tenantOutput, error) {
	t, err := h.service.Activate(ctx, input.ID)
	if err != nil {
		return nil, h.mapError("activate tenant", err)
	}
	return &tenantOutput{Body: TenantResponse{Status: "Ok", Tenant: *t}}, nil
}

func (h *Handler) mapError(op string, err error) error {
	switch {
	case errors.Is(err, tenant.ErrTenantNotFound):
		return huma.Error404NotFound("Tenant not found")
	case errors.Is(err, tenant.ErrSlugTaken):
		return huma.Error409Conflict("Tenant slug already exists")
	case errors.Is(err, tenant.ErrInvalidSlug), errors.Is(err, tenant.ErrInvalidName):
		return huma.Error400BadRequest(err.Error())
	default:
		h.log.Error(op, slog.String("error", err.Error()))
		return huma.Error500InternalServerError("Internal error")
	}
}
