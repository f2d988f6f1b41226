package deliveries

import (
	"github.com/gofiber/fiber/v2"
	"github.com/safatanc/loyalty-core/internal/app/middlewares"
	"github.com/safatanc/loyalty-core/internal/app/pkg"
	"github.com/safatanc/loyalty-core/internal/app/services"
)

type AuditHandler struct {
	auditService       *services.AuditService
	identityMiddleware *middlewares.IdentityMiddleware
}

func NewAuditHandler(auditService *services.AuditService, identityMiddleware *middlewares.IdentityMiddleware) *AuditHandler {
	return &AuditHandler{
		auditService:       auditService,
		identityMiddleware: identityMiddleware,
	}
}

func (h *AuditHandler) RegisterRoutes(router fiber.Router) {
	auditGroup := router.Group("/audit", h.identityMiddleware.RequireStaff)
	auditGroup.Get("/", h.GetAuditLogs)
	auditGroup.Get("/:entity_type/:entity_id", h.GetEntityHistory)
}

func (h *AuditHandler) GetAuditLogs(c *fiber.Ctx) error {
	logs, err := h.auditService.GetAuditLogs(c.UserContext(), c.Query("entity_type"), parsePagination(c))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, logs)
}

func (h *AuditHandler) GetEntityHistory(c *fiber.Ctx) error {
	history, err := h.auditService.GetEntityHistory(c.UserContext(), c.Params("entity_type"), c.Params("entity_id"))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, history)
}
