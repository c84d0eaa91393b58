package service

import (
	"context"
	"time"

	"github.com/spec-kit/escalation-service/internal/domain"
	"github.com/spec-kit/escalation-service/internal/repository"
)

// DedupResolver finds a pending ticket a repeated ask can reuse.
type DedupResolver struct {
	tickets repository.TicketRepository
	window  time.Duration
	limit   int
}

// NewDedupResolver builds a resolver scanning the limit most recent pending
// tickets of an asker.
func NewDedupResolver(tickets repository.TicketRepository, window time.Duration, limit int) *DedupResolver {
	if limit <= 0 {
		limit = repository.DefaultPendingLookupLimit
	}
	return &DedupResolver{tickets: tickets, window: window, limit: limit}
}

// FindReusable returns the most recent pending ticket of askerID with the same
// canonical question created no more than window before now, or nil.
func (r *DedupResolver) FindReusable(ctx context.Context, askerID, question string, now time.Time) (*domain.Ticket, error) {
	pending, err := r.tickets.ListPendingByAsker(ctx, askerID, r.limit)
	if err != nil {
		return nil, mapStoreError(err, "ticket", nil)
	}
	key := domain.Canonicalize(question)
	for i := range pending {
		ticket := &pending[i]
		if ticket.Status != domain.TicketStatusPending {
			continue
		}
		if ticket.CanonicalQuestion() == key && ticket.Age(now) <= r.window {
			return ticket, nil
		}
	}
	return nil, nil
}
