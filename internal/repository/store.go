package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/escalation-service/internal/domain"
)

var (
	// ErrNotFound is returned when a ticket or knowledge entry does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrNotPending is returned when a transition targets a ticket that already left pending.
	ErrNotPending = errors.New("ticket is not pending")
	// ErrUnavailable is returned when the backing store cannot serve the request.
	ErrUnavailable = errors.New("backing store unavailable")
)

const (
	DefaultPendingLookupLimit = 5
	DefaultTicketListLimit    = 200
	DefaultKnowledgeLimit     = 500
)

// TicketRepository encapsulates escalation ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// ListPendingByAsker returns the asker's pending tickets, most recent first.
	ListPendingByAsker(ctx context.Context, askerID string, limit int) ([]domain.Ticket, error)
	// ListRecent returns tickets of every status, most recent first.
	ListRecent(ctx context.Context, limit int) ([]domain.Ticket, error)
	Resolve(ctx context.Context, id, answer string, at time.Time) (*domain.Ticket, error)
	MarkUnresolved(ctx context.Context, id string, at time.Time) (*domain.Ticket, error)
	// SweepExpired moves pending tickets older than deadline to unresolved and
	// returns the ids this call transitioned.
	SweepExpired(ctx context.Context, now time.Time, deadline time.Duration) ([]string, error)
}

// KnowledgeRepository stores learned answers keyed by canonical question.
type KnowledgeRepository interface {
	Get(ctx context.Context, question string) (*domain.KnowledgeEntry, error)
	// List returns up to limit entries ordered by question.
	List(ctx context.Context, limit int) ([]domain.KnowledgeEntry, error)
	Upsert(ctx context.Context, entry *domain.KnowledgeEntry) error
}

// Store bundles the repositories behind one backend.
type Store interface {
	Tickets() TicketRepository
	Knowledge() KnowledgeRepository
	// ResolveAndLearn resolves a pending ticket and upserts the answer for its
	// canonical question. Either both writes apply or neither does.
	ResolveAndLearn(ctx context.Context, id, answer string, at time.Time) (*domain.Ticket, error)
	Ping(ctx context.Context) error
	Close()
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}
