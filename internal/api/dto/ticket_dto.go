package dto

import (
	"time"

	"github.com/spec-kit/escalation-service/internal/domain"
)

// AskRequest is a caller's question. The voice client sends customerId, so
// both spellings are accepted.
type AskRequest struct {
	CustomerID      string `json:"customer_id"`
	CustomerIDCamel string `json:"customerId"`
	Question        string `json:"question"`
}

// Customer returns the asker id, preferring customer_id.
func (r AskRequest) Customer() string {
	if r.CustomerID != "" {
		return r.CustomerID
	}
	return r.CustomerIDCamel
}

// AskResponse is either an answer or an escalation acknowledgement. Deduped is
// present on every escalation, false included.
type AskResponse struct {
	Status    string `json:"status"`
	Answer    string `json:"answer,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Message   string `json:"message,omitempty"`
	Deduped   *bool  `json:"deduped,omitempty"`
}

// NewAnsweredResponse is returned when the knowledge base had the answer.
func NewAnsweredResponse(answer string) AskResponse {
	return AskResponse{Status: "answered", Answer: answer}
}

// NewEscalatedResponse acknowledges a pending help request.
func NewEscalatedResponse(ticketID, message string, deduped bool) AskResponse {
	return AskResponse{Status: "escalated", RequestID: ticketID, Message: message, Deduped: &deduped}
}

// ResolveTicketRequest is a supervisor's update.
type ResolveTicketRequest struct {
	Answer string `json:"answer"`
	Status string `json:"status"`
}

// TicketResponse represents a help request on the supervisor dashboard.
type TicketResponse struct {
	ID         string              `json:"id"`
	CustomerID string              `json:"customer_id"`
	Question   string              `json:"question"`
	Status     domain.TicketStatus `json:"status"`
	Answer     *string             `json:"answer"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
	ResolvedAt *time.Time          `json:"resolved_at"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:         t.ID,
		CustomerID: t.AskerID,
		Question:   t.Question,
		Status:     t.Status,
		Answer:     t.Answer,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
		ResolvedAt: t.ResolvedAt,
	}
}
