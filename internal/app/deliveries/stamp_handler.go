package deliveries

import (
	"github.com/gofiber/fiber/v2"
	"github.com/safatanc/loyalty-core/internal/app/middlewares"
	"github.com/safatanc/loyalty-core/internal/app/models"
	"github.com/safatanc/loyalty-core/internal/app/pkg"
	"github.com/safatanc/loyalty-core/internal/app/services"
)

type StampHandler struct {
	stampService        *services.StampService
	identityMiddleware  *middlewares.IdentityMiddleware
	rateLimitMiddleware *middlewares.RateLimitMiddleware
}

func NewStampHandler(stampService *services.StampService, identityMiddleware *middlewares.IdentityMiddleware, rateLimitMiddleware *middlewares.RateLimitMiddleware) *StampHandler {
	return &StampHandler{
		stampService:        stampService,
		identityMiddleware:  identityMiddleware,
		rateLimitMiddleware: rateLimitMiddleware,
	}
}

func (h *StampHandler) RegisterRoutes(router fiber.Router) {
	stampGroup := router.Group("/stamps")

	stampGroup.Post("/redeem", h.identityMiddleware.RequireClient, h.rateLimitMiddleware.LimitByClient(middlewares.ClaimLimit), h.RedeemStamp)

	stampGroup.Post("/", h.identityMiddleware.RequireBusiness, h.IssueStamp)
	stampGroup.Get("/", h.identityMiddleware.RequireBusiness, h.ListStampCodes)
	stampGroup.Get("/:code", h.GetStampCode)
	stampGroup.Delete("/:code", h.identityMiddleware.RequireBusiness, h.CancelStampCode)
}

func (h *StampHandler) IssueStamp(c *fiber.Ctx) error {
	var req models.IssueStampRequest
	if err := parseBody(c, &req); err != nil {
		return pkg.ErrorResponse(c, err)
	}
	req.BusinessID = middlewares.BusinessID(c).String()

	code, err := h.stampService.IssueStamp(c.UserContext(), &req)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.CreatedResponse(c, code)
}

func (h *StampHandler) RedeemStamp(c *fiber.Ctx) error {
	var req models.RedeemStampRequest
	if err := parseBody(c, &req); err != nil {
		return pkg.ErrorResponse(c, err)
	}
	req.ClientID = middlewares.ClientID(c).String()

	result, err := h.stampService.RedeemStamp(c.UserContext(), &req)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, result)
}

func (h *StampHandler) GetStampCode(c *fiber.Ctx) error {
	code, err := h.stampService.GetStampCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, code)
}

func (h *StampHandler) ListStampCodes(c *fiber.Ctx) error {
	status := models.CodeStatus(c.Query("status"))

	codes, err := h.stampService.ListStampCodes(c.UserContext(), middlewares.BusinessID(c), status, parsePagination(c))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, codes)
}

func (h *StampHandler) CancelStampCode(c *fiber.Ctx) error {
	code, err := h.stampService.CancelStampCode(c.UserContext(), middlewares.BusinessID(c), c.Params("code"))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, code)
}
