package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/escalation-service/internal/api/dto"
	"github.com/spec-kit/escalation-service/internal/service"
	apperrors "github.com/spec-kit/escalation-service/pkg/util/errorutil"
)

// AskHandler serves the assistant-facing question endpoint.
type AskHandler struct {
	service *service.EscalationService
}

// NewAskHandler constructs handler.
func NewAskHandler(escalationService *service.EscalationService) *AskHandler {
	return &AskHandler{service: escalationService}
}

// Ask POST /api/ask.
func (h *AskHandler) Ask(c *fiber.Ctx) error {
	var req dto.AskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.service.Ask(c.UserContext(), req.Customer(), req.Question)
	if err != nil {
		return err
	}
	if result.Outcome == service.AskOutcomeAnswered {
		return c.JSON(dto.NewAnsweredResponse(result.Answer))
	}
	return c.JSON(dto.NewEscalatedResponse(result.TicketID, result.Message, result.Deduped))
}
