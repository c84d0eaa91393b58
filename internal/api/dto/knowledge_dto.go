package dto

import (
	"time"

	"github.com/spec-kit/escalation-service/internal/domain"
)

// KnowledgeRequest teaches an answer.
type KnowledgeRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// KnowledgeResponse is one learned entry.
type KnowledgeResponse struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewKnowledgeResponse maps a domain entry.
func NewKnowledgeResponse(e *domain.KnowledgeEntry) KnowledgeResponse {
	return KnowledgeResponse{Question: e.Question, Answer: e.Answer, UpdatedAt: e.UpdatedAt}
}
