package deliveries

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/safatanc/loyalty-core/internal/app/errors"
	"github.com/safatanc/loyalty-core/internal/app/middlewares"
	"github.com/safatanc/loyalty-core/internal/app/models"
	"github.com/safatanc/loyalty-core/internal/app/pkg"
	"github.com/safatanc/loyalty-core/internal/app/services"
)

type RewardHandler struct {
	rewardService      *services.RewardService
	redemptionService  *services.RewardRedemptionService
	identityMiddleware *middlewares.IdentityMiddleware
}

func NewRewardHandler(rewardService *services.RewardService, redemptionService *services.RewardRedemptionService, identityMiddleware *middlewares.IdentityMiddleware) *RewardHandler {
	return &RewardHandler{
		rewardService:      rewardService,
		redemptionService:  redemptionService,
		identityMiddleware: identityMiddleware,
	}
}

func (h *RewardHandler) RegisterRoutes(router fiber.Router) {
	rewardGroup := router.Group("/rewards")

	// Catalog reads are public
	rewardGroup.Get("/", h.ListRewards)
	rewardGroup.Get("/:id", h.GetReward)

	rewardGroup.Post("/", h.identityMiddleware.RequireBusiness, h.CreateReward)
	rewardGroup.Patch("/:id", h.identityMiddleware.RequireBusiness, h.UpdateReward)
	rewardGroup.Delete("/:id", h.identityMiddleware.RequireBusiness, h.DeleteReward)

	rewardGroup.Post("/:id/redeem", h.identityMiddleware.RequireClient, h.RedeemReward)
}

func (h *RewardHandler) CreateReward(c *fiber.Ctx) error {
	var req models.RewardCreateRequest
	if err := parseBody(c, &req); err != nil {
		return pkg.ErrorResponse(c, err)
	}
	req.BusinessID = middlewares.BusinessID(c).String()

	reward, err := h.rewardService.CreateReward(c.UserContext(), &req)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.CreatedResponse(c, reward)
}

func (h *RewardHandler) ListRewards(c *fiber.Ctx) error {
	businessID, err := uuid.Parse(c.Query("business_id"))
	if err != nil {
		return pkg.ErrorResponse(c, errors.NewBadRequestError("business_id query parameter is required"))
	}
	activeOnly := c.QueryBool("active", true)

	rewards, err := h.rewardService.ListRewards(c.UserContext(), businessID, activeOnly, parsePagination(c))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, rewards)
}

func (h *RewardHandler) GetReward(c *fiber.Ctx) error {
	reward, err := h.rewardService.GetReward(c.UserContext(), c.Params("id"))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, reward)
}

func (h *RewardHandler) UpdateReward(c *fiber.Ctx) error {
	var req models.RewardUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	reward, err := h.rewardService.UpdateReward(c.UserContext(), middlewares.BusinessID(c), c.Params("id"), &req)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, reward)
}

func (h *RewardHandler) DeleteReward(c *fiber.Ctx) error {
	if err := h.rewardService.DeleteReward(c.UserContext(), middlewares.BusinessID(c), c.Params("id")); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse[any](c, nil)
}

func (h *RewardHandler) RedeemReward(c *fiber.Ctx) error {
	redemption, err := h.redemptionService.RedeemReward(c.UserContext(), &models.RedeemRewardRequest{
		ClientID: middlewares.ClientID(c).String(),
		RewardID: c.Params("id"),
	})
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.CreatedResponse(c, redemption)
}
