package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/escalation-service/internal/domain"
)

// ticketRecord owns one ticket. Its mutex serializes mutations of that ticket
// only, so different tickets never contend.
type ticketRecord struct {
	mu     sync.Mutex
	seq    uint64
	ticket domain.Ticket
}

func (rec *ticketRecord) snapshot() domain.Ticket {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.ticket.Clone()
}

type memoryTicketRepository struct {
	mu      sync.RWMutex
	seq     uint64
	byID    map[string]*ticketRecord
	byAsker map[string][]*ticketRecord
	all     []*ticketRecord
	// pending holds only tickets that can still transition.
	pending map[string]*ticketRecord
	online  *atomic.Bool
}

func newMemoryTicketRepository(online *atomic.Bool) *memoryTicketRepository {
	return &memoryTicketRepository{
		byID:    make(map[string]*ticketRecord),
		byAsker: make(map[string][]*ticketRecord),
		pending: make(map[string]*ticketRecord),
		online:  online,
	}
}

func (r *memoryTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if !r.online.Load() {
		return ErrUnavailable
	}
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	if ticket.Status == "" {
		ticket.Status = domain.TicketStatusPending
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	if ticket.UpdatedAt.IsZero() {
		ticket.UpdatedAt = ticket.CreatedAt
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[ticket.ID]; exists {
		return fmt.Errorf("ticket %s already exists", ticket.ID)
	}
	r.seq++
	rec := &ticketRecord{seq: r.seq, ticket: ticket.Clone()}
	r.byID[ticket.ID] = rec
	r.byAsker[ticket.AskerID] = append(r.byAsker[ticket.AskerID], rec)
	r.all = append(r.all, rec)
	if rec.ticket.Status == domain.TicketStatusPending {
		r.pending[ticket.ID] = rec
	}
	return nil
}

func (r *memoryTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	rec, err := r.record(id)
	if err != nil {
		return nil, err
	}
	ticket := rec.snapshot()
	return &ticket, nil
}

func (r *memoryTicketRepository) ListPendingByAsker(ctx context.Context, askerID string, limit int) ([]domain.Ticket, error) {
	if !r.online.Load() {
		return nil, ErrUnavailable
	}
	r.mu.RLock()
	records := append([]*ticketRecord(nil), r.byAsker[askerID]...)
	r.mu.RUnlock()

	return collectRecent(records, normalizeLimit(limit, DefaultPendingLookupLimit), func(t *domain.Ticket) bool {
		return t.Status == domain.TicketStatusPending
	}), nil
}

func (r *memoryTicketRepository) ListRecent(ctx context.Context, limit int) ([]domain.Ticket, error) {
	if !r.online.Load() {
		return nil, ErrUnavailable
	}
	r.mu.RLock()
	records := append([]*ticketRecord(nil), r.all...)
	r.mu.RUnlock()

	return collectRecent(records, normalizeLimit(limit, DefaultTicketListLimit), nil), nil
}

func (r *memoryTicketRepository) Resolve(ctx context.Context, id, answer string, at time.Time) (*domain.Ticket, error) {
	return r.transition(id, func(t *domain.Ticket) error {
		t.MarkResolved(answer, at)
		return nil
	})
}

func (r *memoryTicketRepository) MarkUnresolved(ctx context.Context, id string, at time.Time) (*domain.Ticket, error) {
	return r.transition(id, func(t *domain.Ticket) error {
		t.MarkUnresolved(at)
		return nil
	})
}

func (r *memoryTicketRepository) SweepExpired(ctx context.Context, now time.Time, deadline time.Duration) ([]string, error) {
	if !r.online.Load() {
		return nil, ErrUnavailable
	}
	r.mu.RLock()
	records := make([]*ticketRecord, 0, len(r.pending))
	for _, rec := range r.pending {
		records = append(records, rec)
	}
	r.mu.RUnlock()
	sort.Slice(records, func(i, j int) bool { return records[i].seq < records[j].seq })

	var expired []string
	defer func() { r.dropPending(expired...) }()
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		rec.mu.Lock()
		if rec.ticket.Status == domain.TicketStatusPending && rec.ticket.Age(now) > deadline {
			rec.ticket.MarkUnresolved(now)
			expired = append(expired, rec.ticket.ID)
		}
		rec.mu.Unlock()
	}
	return expired, nil
}

// pendingCount reports how many tickets are still awaiting a supervisor.
func (r *memoryTicketRepository) pendingCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pending)
}

// dropPending removes ids from the pending index. Callers may hold a record
// lock; r.mu is always taken after it.
func (r *memoryTicketRepository) dropPending(ids ...string) {
	if len(ids) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.pending, id)
	}
}

// transition applies fn to a pending ticket under its record lock.
func (r *memoryTicketRepository) transition(id string, fn func(*domain.Ticket) error) (*domain.Ticket, error) {
	rec, err := r.record(id)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.ticket.Status != domain.TicketStatusPending {
		return nil, ErrNotPending
	}
	if !r.online.Load() {
		return nil, ErrUnavailable
	}
	working := rec.ticket.Clone()
	if err := fn(&working); err != nil {
		return nil, err
	}
	rec.ticket = working
	if working.Status != domain.TicketStatusPending {
		r.dropPending(id)
	}
	out := working.Clone()
	return &out, nil
}

func (r *memoryTicketRepository) record(id string) (*ticketRecord, error) {
	if !r.online.Load() {
		return nil, ErrUnavailable
	}
	r.mu.RLock()
	rec, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

func collectRecent(records []*ticketRecord, limit int, keep func(*domain.Ticket) bool) []domain.Ticket {
	type entry struct {
		seq    uint64
		ticket domain.Ticket
	}
	entries := make([]entry, 0, len(records))
	for _, rec := range records {
		ticket := rec.snapshot()
		if keep != nil && !keep(&ticket) {
			continue
		}
		entries = append(entries, entry{seq: rec.seq, ticket: ticket})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].ticket.CreatedAt.Equal(entries[j].ticket.CreatedAt) {
			return entries[i].ticket.CreatedAt.After(entries[j].ticket.CreatedAt)
		}
		return entries[i].seq > entries[j].seq
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	result := make([]domain.Ticket, 0, len(entries))
	for _, e := range entries {
		result = append(result, e.ticket)
	}
	return result
}
