package deliveries

import (
	"github.com/gofiber/fiber/v2"
	"github.com/safatanc/loyalty-core/internal/app/middlewares"
	"github.com/safatanc/loyalty-core/internal/app/pkg"
	"github.com/safatanc/loyalty-core/internal/app/services"
)

type CardHandler struct {
	cardService        *services.CardService
	identityMiddleware *middlewares.IdentityMiddleware
}

func NewCardHandler(cardService *services.CardService, identityMiddleware *middlewares.IdentityMiddleware) *CardHandler {
	return &CardHandler{
		cardService:        cardService,
		identityMiddleware: identityMiddleware,
	}
}

func (h *CardHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/business/cards", h.identityMiddleware.RequireBusiness, h.ListBusinessCards)

	cardGroup := router.Group("/cards", h.identityMiddleware.RequireClient)
	cardGroup.Get("/", h.ListClientCards)
	cardGroup.Get("/:business_id", h.GetCard)
	cardGroup.Post("/:business_id/join", h.JoinBusiness)
	cardGroup.Delete("/:business_id", h.DisableCard)
	cardGroup.Get("/:business_id/transactions", h.ListCardTransactions)
}

func (h *CardHandler) ListClientCards(c *fiber.Ctx) error {
	cards, err := h.cardService.ListClientCards(c.UserContext(), middlewares.ClientID(c), parsePagination(c))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, cards)
}

func (h *CardHandler) ListBusinessCards(c *fiber.Ctx) error {
	cards, err := h.cardService.ListBusinessCards(c.UserContext(), middlewares.BusinessID(c), parsePagination(c))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, cards)
}

func (h *CardHandler) GetCard(c *fiber.Ctx) error {
	businessID, err := paramUUID(c, "business_id")
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	card, err := h.cardService.GetCard(c.UserContext(), middlewares.ClientID(c), businessID)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, card)
}

func (h *CardHandler) JoinBusiness(c *fiber.Ctx) error {
	businessID, err := paramUUID(c, "business_id")
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	card, created, err := h.cardService.JoinBusiness(c.UserContext(), middlewares.ClientID(c), businessID)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	if created {
		return pkg.CreatedResponse(c, card)
	}
	return pkg.SuccessResponse(c, card)
}

func (h *CardHandler) DisableCard(c *fiber.Ctx) error {
	businessID, err := paramUUID(c, "business_id")
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	card, err := h.cardService.DisableCard(c.UserContext(), middlewares.ClientID(c), businessID)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, card)
}

func (h *CardHandler) ListCardTransactions(c *fiber.Ctx) error {
	businessID, err := paramUUID(c, "business_id")
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	transactions, err := h.cardService.ListCardTransactions(c.UserContext(), middlewares.ClientID(c), businessID, parsePagination(c))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, transactions)
}
