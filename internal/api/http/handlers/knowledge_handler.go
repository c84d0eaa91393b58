package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/escalation-service/internal/api/dto"
	"github.com/spec-kit/escalation-service/internal/service"
	apperrors "github.com/spec-kit/escalation-service/pkg/util/errorutil"
)

// KnowledgeHandler exposes learned answers.
type KnowledgeHandler struct {
	service *service.EscalationService
}

// NewKnowledgeHandler constructs handler.
func NewKnowledgeHandler(escalationService *service.EscalationService) *KnowledgeHandler {
	return &KnowledgeHandler{service: escalationService}
}

// List GET /api/knowledge.
func (h *KnowledgeHandler) List(c *fiber.Ctx) error {
	entries, err := h.service.ListKnowledge(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.KnowledgeResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.NewKnowledgeResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"items": items})
}

// Upsert PUT /api/knowledge.
func (h *KnowledgeHandler) Upsert(c *fiber.Ctx) error {
	var req dto.KnowledgeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	entry, err := h.service.UpsertKnowledge(c.UserContext(), req.Question, req.Answer)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewKnowledgeResponse(entry))
}
