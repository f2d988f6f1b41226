package deliveries

import (
	"github.com/gofiber/fiber/v2"
	"github.com/safatanc/loyalty-core/internal/app/errors"
	"github.com/safatanc/loyalty-core/internal/app/middlewares"
	"github.com/safatanc/loyalty-core/internal/app/models"
	"github.com/safatanc/loyalty-core/internal/app/pkg"
	"github.com/safatanc/loyalty-core/internal/app/services"
)

type RedemptionHandler struct {
	redemptionService  *services.RewardRedemptionService
	identityMiddleware *middlewares.IdentityMiddleware
}

func NewRedemptionHandler(redemptionService *services.RewardRedemptionService, identityMiddleware *middlewares.IdentityMiddleware) *RedemptionHandler {
	return &RedemptionHandler{
		redemptionService:  redemptionService,
		identityMiddleware: identityMiddleware,
	}
}

func (h *RedemptionHandler) RegisterRoutes(router fiber.Router) {
	redemptionGroup := router.Group("/redemptions")

	redemptionGroup.Get("/pending", h.identityMiddleware.RequireBusiness, h.ListPendingRedemptions)
	redemptionGroup.Get("/me", h.identityMiddleware.RequireClient, h.ListClientRedemptions)
	redemptionGroup.Get("/:code", h.GetRedemption)
	redemptionGroup.Post("/:code/deliver", h.identityMiddleware.RequireStaff, h.DeliverRedemption)
	redemptionGroup.Post("/:code/cancel", h.identityMiddleware.RequireBusiness, h.CancelRedemption)
}

func (h *RedemptionHandler) ListPendingRedemptions(c *fiber.Ctx) error {
	redemptions, err := h.redemptionService.ListPendingRedemptions(c.UserContext(), middlewares.BusinessID(c), parsePagination(c))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, redemptions)
}

func (h *RedemptionHandler) ListClientRedemptions(c *fiber.Ctx) error {
	redemptions, err := h.redemptionService.ListClientRedemptions(c.UserContext(), middlewares.ClientID(c), parsePagination(c))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, redemptions)
}

func (h *RedemptionHandler) GetRedemption(c *fiber.Ctx) error {
	redemption, err := h.redemptionService.GetRedemption(c.UserContext(), c.Params("code"))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, redemption)
}

func (h *RedemptionHandler) DeliverRedemption(c *fiber.Ctx) error {
	redemption, err := h.redemptionService.DeliverRedemption(c.UserContext(), &models.DeliverRedemptionRequest{
		Code:        c.Params("code"),
		DeliveredBy: middlewares.StaffID(c).String(),
	})
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, redemption)
}

func (h *RedemptionHandler) CancelRedemption(c *fiber.Ctx) error {
	var req models.CancelRedemptionRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return pkg.ErrorResponse(c, err)
		}
	}
	req.Code = c.Params("code")

	existing, err := h.redemptionService.GetRedemption(c.UserContext(), req.Code)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}
	if existing.BusinessID != middlewares.BusinessID(c) {
		return pkg.ErrorResponse(c, errors.NewNotFoundError("Redemption not found"))
	}

	redemption, err := h.redemptionService.CancelRedemption(c.UserContext(), &req)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, redemption)
}
