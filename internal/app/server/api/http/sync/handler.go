package sync

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	tenantMW "greenkeep/internal/app/server/api/http/middleware/tenant"
	"greenkeep/internal/domain/sync"
)

type Handler struct {
	service    sync.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service sync.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.pullOp(), h.pull)
	huma.Register(api, h.pushOp(), h.push)
}

func (h *Handler) pull(ctx context.Context, input *pullInput) (*pullOutput, error) {
	p, ok := tenantMW.GetPartition(ctx)
	if !ok {
		return nil, huma.Error400BadRequest("Tenant context required")
	}

	resp, err := h.service.Pull(ctx, p.Store, input.Body)
	if err != nil {
		h.log.Error("pull failed",
			slog.String("tenant", p.Tenant.Slug),
			slog.String("error", err.Error()),
		)
		return nil, huma.Error500InternalServerError("Failed to read changes")
	}

	return &pullOutput{Body: resp}, nil
}

func (h *Handler) push(ctx context.Context, input *pushInput) (*pushOutput, error) {
	p, ok := tenantMW.GetPartition(ctx)
	if !ok {
		return nil, huma.Error400BadRequest("Tenant context required")
	}

	resp, err := h.service.Push(ctx, p.Store, input.Body)
	if err != nil {
		h.log.Error("push failed",
			slog.String("tenant", p.Tenant.Slug),
			slog.String("error", err.Error()),
		)
		return nil, huma.Error500InternalServerError("Failed to apply changes")
	}

	return &pushOutput{Body: resp}, nil
}
