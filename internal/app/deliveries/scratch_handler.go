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

type ScratchHandler struct {
	scratchService     *services.ScratchService
	identityMiddleware *middlewares.IdentityMiddleware
}

func NewScratchHandler(scratchService *services.ScratchService, identityMiddleware *middlewares.IdentityMiddleware) *ScratchHandler {
	return &ScratchHandler{
		scratchService:     scratchService,
		identityMiddleware: identityMiddleware,
	}
}

func (h *ScratchHandler) RegisterRoutes(router fiber.Router) {
	scratchGroup := router.Group("/scratch")

	campaignGroup := scratchGroup.Group("/campaigns")
	campaignGroup.Post("/", h.identityMiddleware.RequireBusiness, h.CreateCampaign)
	campaignGroup.Get("/:id", h.GetCampaign)
	campaignGroup.Post("/:id/prizes", h.identityMiddleware.RequireBusiness, h.AddPrize)
	campaignGroup.Patch("/:id/status", h.identityMiddleware.RequireBusiness, h.SetCampaignStatus)
	campaignGroup.Post("/:id/open", h.identityMiddleware.RequireClient, h.OpenCampaign)

	ticketGroup := scratchGroup.Group("/tickets")
	ticketGroup.Get("/me", h.identityMiddleware.RequireClient, h.ListClientTickets)
	ticketGroup.Post("/", h.identityMiddleware.RequireBusiness, h.IssueTicket)
	ticketGroup.Post("/:id/reveal", h.identityMiddleware.RequireClient, h.ownTicket, h.RevealTicket)
	ticketGroup.Post("/:id/redeem", h.identityMiddleware.RequireClient, h.ownTicket, h.RedeemTicket)
	ticketGroup.Delete("/:id", h.identityMiddleware.RequireBusiness, h.businessTicket, h.InactivateTicket)
}

// ownTicket rejects clients acting on a ticket issued to someone else.
func (h *ScratchHandler) ownTicket(c *fiber.Ctx) error {
	ticket, err := h.scratchService.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}
	if ticket.ClientID != middlewares.ClientID(c) {
		return pkg.ErrorResponse(c, errors.NewNotFoundError("Scratch ticket not found"))
	}
	return c.Next()
}

// businessTicket rejects businesses acting on another business's ticket.
func (h *ScratchHandler) businessTicket(c *fiber.Ctx) error {
	ticket, err := h.scratchService.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}
	if ticket.BusinessID != middlewares.BusinessID(c) {
		return pkg.ErrorResponse(c, errors.NewNotFoundError("Scratch ticket not found"))
	}
	return c.Next()
}

func (h *ScratchHandler) CreateCampaign(c *fiber.Ctx) error {
	var req models.ScratchCampaignCreateRequest
	if err := parseBody(c, &req); err != nil {
		return pkg.ErrorResponse(c, err)
	}
	req.BusinessID = middlewares.BusinessID(c).String()

	campaign, err := h.scratchService.CreateCampaign(c.UserContext(), &req)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.CreatedResponse(c, campaign)
}

func (h *ScratchHandler) GetCampaign(c *fiber.Ctx) error {
	campaign, err := h.scratchService.GetCampaign(c.UserContext(), c.Params("id"))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, campaign)
}

func (h *ScratchHandler) AddPrize(c *fiber.Ctx) error {
	var req models.ScratchPrizeRequest
	if err := parseBody(c, &req); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	prize, err := h.scratchService.AddPrize(c.UserContext(), middlewares.BusinessID(c), c.Params("id"), &req)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.CreatedResponse(c, prize)
}

func (h *ScratchHandler) SetCampaignStatus(c *fiber.Ctx) error {
	var req models.CampaignStatusRequest
	if err := parseBody(c, &req); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	campaign, err := h.scratchService.SetCampaignStatus(c.UserContext(), middlewares.BusinessID(c), c.Params("id"), &req)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, campaign)
}

func (h *ScratchHandler) OpenCampaign(c *fiber.Ctx) error {
	ticket, err := h.scratchService.OpenCampaign(c.UserContext(), middlewares.ClientID(c), c.Params("id"))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, ticket)
}

func (h *ScratchHandler) IssueTicket(c *fiber.Ctx) error {
	var req models.IssueTicketRequest
	if err := parseBody(c, &req); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	campaign, err := h.scratchService.GetCampaign(c.UserContext(), req.CampaignID)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}
	if campaign.BusinessID != middlewares.BusinessID(c) {
		return pkg.ErrorResponse(c, errors.NewNotFoundError("Campaign not found"))
	}

	ticket, err := h.scratchService.IssueTicket(c.UserContext(), &req)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.CreatedResponse(c, ticket)
}

func (h *ScratchHandler) RevealTicket(c *fiber.Ctx) error {
	ticket, err := h.scratchService.RevealTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, ticket)
}

func (h *ScratchHandler) RedeemTicket(c *fiber.Ctx) error {
	ticket, err := h.scratchService.RedeemTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, ticket)
}

func (h *ScratchHandler) InactivateTicket(c *fiber.Ctx) error {
	var reason *string
	if r := c.Query("reason"); r != "" {
		reason = &r
	}

	ticket, err := h.scratchService.InactivateTicket(c.UserContext(), c.Params("id"), reason)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, ticket)
}

func (h *ScratchHandler) ListClientTickets(c *fiber.Ctx) error {
	var campaignID *uuid.UUID
	if raw := c.Query("campaign_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return pkg.ErrorResponse(c, errors.NewBadRequestError("Invalid campaign ID format"))
		}
		campaignID = &id
	}

	tickets, err := h.scratchService.ListClientTickets(c.UserContext(), middlewares.ClientID(c), campaignID, parsePagination(c))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, tickets)
}
