package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/spec-kit/escalation-service/internal/domain"
)

// MemoryStore keeps tickets and knowledge in process memory.
type MemoryStore struct {
	online    *atomic.Bool
	tickets   *memoryTicketRepository
	knowledge *memoryKnowledgeRepository
}

// NewMemoryStore returns an empty, available store.
func NewMemoryStore() *MemoryStore {
	online := &atomic.Bool{}
	online.Store(true)
	return &MemoryStore{
		online:    online,
		tickets:   newMemoryTicketRepository(online),
		knowledge: newMemoryKnowledgeRepository(online),
	}
}

func (s *MemoryStore) Tickets() TicketRepository      { return s.tickets }
func (s *MemoryStore) Knowledge() KnowledgeRepository { return s.knowledge }

// SetAvailable toggles whether the store serves requests. While unavailable every
// operation fails with ErrUnavailable.
func (s *MemoryStore) SetAvailable(available bool) {
	s.online.Store(available)
}

func (s *MemoryStore) ResolveAndLearn(ctx context.Context, id, answer string, at time.Time) (*domain.Ticket, error) {
	return s.tickets.transition(id, func(t *domain.Ticket) error {
		entry := &domain.KnowledgeEntry{Question: t.Question, Answer: answer, UpdatedAt: at}
		if err := s.knowledge.Upsert(ctx, entry); err != nil {
			return err
		}
		t.MarkResolved(answer, at)
		return nil
	})
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	if !s.online.Load() {
		return ErrUnavailable
	}
	return nil
}

func (s *MemoryStore) Close() {}
