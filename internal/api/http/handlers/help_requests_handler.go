package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/escalation-service/internal/api/dto"
	"github.com/spec-kit/escalation-service/internal/service"
	apperrors "github.com/spec-kit/escalation-service/pkg/util/errorutil"
)

// HelpRequestsHandler serves the supervisor dashboard.
type HelpRequestsHandler struct {
	service *service.EscalationService
}

// NewHelpRequestsHandler constructs handler.
func NewHelpRequestsHandler(escalationService *service.EscalationService) *HelpRequestsHandler {
	return &HelpRequestsHandler{service: escalationService}
}

// List GET /api/help-requests.
func (h *HelpRequestsHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return apperrors.NewValidationError("limit must be positive", map[string]any{"limit": limit})
	}
	tickets, err := h.service.ListTickets(c.UserContext(), limit)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"items": items})
}

// Get GET /api/help-requests/:id.
func (h *HelpRequestsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}

// Resolve PATCH /api/help-requests/:id.
func (h *HelpRequestsHandler) Resolve(c *fiber.Ctx) error {
	var req dto.ResolveTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.ResolveTicket(c.UserContext(), c.Params("id"), service.ResolveInput{
		Answer: req.Answer,
		Status: req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}
