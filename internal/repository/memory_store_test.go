package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/escalation-service/internal/domain"
)

var base = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newTicket(t *testing.T, store *MemoryStore, asker, question string, createdAt time.Time) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{AskerID: asker, Question: question, CreatedAt: createdAt}
	require.NoError(t, store.Tickets().Create(context.Background(), ticket))
	return ticket
}

func TestMemoryTicketCreateAssignsIdentity(t *testing.T) {
	store := NewMemoryStore()
	ticket := newTicket(t, store, "c1", "Are you open on Sundays?", base)

	require.NotEmpty(t, ticket.ID)
	assert.Equal(t, domain.TicketStatusPending, ticket.Status)
	assert.Equal(t, base, ticket.UpdatedAt)

	got, err := store.Tickets().GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, *ticket, *got)

	err = store.Tickets().Create(context.Background(), &domain.Ticket{ID: ticket.ID, AskerID: "c2", Question: "x"})
	assert.Error(t, err)
}

func TestMemoryTicketGetMissing(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Tickets().GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryListPendingByAskerIsRecentFirstAndBounded(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	var ids []string
	for i := 0; i < 7; i++ {
		ids = append(ids, newTicket(t, store, "c1", fmt.Sprintf("q%d", i), base.Add(time.Duration(i)*time.Second)).ID)
	}
	newTicket(t, store, "c2", "other asker", base.Add(time.Hour))
	_, err := store.Tickets().Resolve(ctx, ids[6], "done", base.Add(time.Minute))
	require.NoError(t, err)

	pending, err := store.Tickets().ListPendingByAsker(ctx, "c1", 0)
	require.NoError(t, err)
	require.Len(t, pending, DefaultPendingLookupLimit)
	assert.Equal(t, ids[5], pending[0].ID)
	assert.Equal(t, ids[1], pending[4].ID)
	for _, ticket := range pending {
		assert.Equal(t, "c1", ticket.AskerID)
		assert.Equal(t, domain.TicketStatusPending, ticket.Status)
	}
}

func TestMemoryListRecentBreaksTimestampTiesByInsertion(t *testing.T) {
	store := NewMemoryStore()
	first := newTicket(t, store, "c1", "a", base)
	second := newTicket(t, store, "c2", "b", base)
	third := newTicket(t, store, "c3", "c", base.Add(-time.Minute))

	all, err := store.Tickets().ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{second.ID, first.ID, third.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	limited, err := store.Tickets().ListRecent(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMemoryTransitionsAreTerminal(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	ticket := newTicket(t, store, "c1", "Do you validate parking?", base)

	resolved, err := store.Tickets().Resolve(ctx, ticket.ID, "Yes, two hours.", base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, resolved.Status)
	require.NotNil(t, resolved.Answer)
	assert.Equal(t, "Yes, two hours.", *resolved.Answer)

	_, err = store.Tickets().Resolve(ctx, ticket.ID, "Overwrite", base.Add(2*time.Minute))
	assert.ErrorIs(t, err, ErrNotPending)
	_, err = store.Tickets().MarkUnresolved(ctx, ticket.ID, base.Add(2*time.Minute))
	assert.ErrorIs(t, err, ErrNotPending)
	_, err = store.Tickets().MarkUnresolved(ctx, "missing", base)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := store.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "Yes, two hours.", *got.Answer)
}

func TestMemorySweepExpiredIsStrict(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	deadline := 10 * time.Minute
	old := newTicket(t, store, "c1", "old", base)
	edge := newTicket(t, store, "c1", "edge", base.Add(time.Minute))
	fresh := newTicket(t, store, "c2", "fresh", base.Add(5*time.Minute))
	done := newTicket(t, store, "c3", "done", base)
	_, err := store.Tickets().Resolve(ctx, done.ID, "answered", base.Add(time.Second))
	require.NoError(t, err)

	now := base.Add(11 * time.Minute)
	ids, err := store.Tickets().SweepExpired(ctx, now, deadline)
	require.NoError(t, err)
	assert.Equal(t, []string{old.ID}, ids)

	got, err := store.Tickets().GetByID(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusUnresolved, got.Status)
	assert.Nil(t, got.Answer)
	assert.Nil(t, got.ResolvedAt)

	for _, id := range []string{edge.ID, fresh.ID} {
		got, err := store.Tickets().GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusPending, got.Status)
	}
	got, err = store.Tickets().GetByID(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, got.Status)

	again, err := store.Tickets().SweepExpired(ctx, now, deadline)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestMemoryResolveAndLearnAppliesBoth(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	ticket := newTicket(t, store, "c1", "  Are You Open On Sundays?  ", base)

	resolved, err := store.ResolveAndLearn(ctx, ticket.ID, "Closed Sundays.", base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, resolved.Status)

	entry, err := store.Knowledge().Get(ctx, "are you open on sundays?")
	require.NoError(t, err)
	assert.Equal(t, "Closed Sundays.", entry.Answer)
	assert.Equal(t, base.Add(time.Minute), entry.UpdatedAt)

	_, err = store.ResolveAndLearn(ctx, ticket.ID, "Changed", base.Add(2*time.Minute))
	assert.ErrorIs(t, err, ErrNotPending)
	entry, err = store.Knowledge().Get(ctx, "are you open on sundays?")
	require.NoError(t, err)
	assert.Equal(t, "Closed Sundays.", entry.Answer)
}

func TestMemoryUnavailableRefusesEverything(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	ticket := newTicket(t, store, "c1", "q", base)
	store.SetAvailable(false)

	_, err := store.ResolveAndLearn(ctx, ticket.ID, "a", base)
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = store.Tickets().ListRecent(ctx, 10)
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = store.Tickets().SweepExpired(ctx, base.Add(time.Hour), time.Minute)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, store.Knowledge().Upsert(ctx, &domain.KnowledgeEntry{Question: "q", Answer: "a"}), ErrUnavailable)
	assert.ErrorIs(t, store.Ping(ctx), ErrUnavailable)

	store.SetAvailable(true)
	got, err := store.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPending, got.Status)
	_, err = store.Knowledge().Get(ctx, "q")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryKnowledgeUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Knowledge().Upsert(ctx, &domain.KnowledgeEntry{Question: " What Are Your Hours ", Answer: "9-6"}))
	}
	require.NoError(t, store.Knowledge().Upsert(ctx, &domain.KnowledgeEntry{Question: "do you take walk-ins", Answer: "yes"}))

	entries, err := store.Knowledge().List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "do you take walk-ins", entries[0].Question)
	assert.Equal(t, "what are your hours", entries[1].Question)

	limited, err := store.Knowledge().List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

// Resolve and sweep race on the same tickets; exactly one wins per ticket and the
// loser never overwrites.
func TestMemoryResolveSweepRaceFirstCommitWins(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	const n = 50
	tickets := make([]*domain.Ticket, n)
	for i := range tickets {
		tickets[i] = newTicket(t, store, fmt.Sprintf("c%d", i), "q", base)
	}

	now := base.Add(time.Hour)
	resolvedBy := make([]bool, n)
	var swept []string
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i, ticket := range tickets {
			if _, err := store.ResolveAndLearn(ctx, ticket.ID, "answer", now); err == nil {
				resolvedBy[i] = true
			}
		}
	}()
	go func() {
		defer wg.Done()
		ids, err := store.Tickets().SweepExpired(ctx, now, 10*time.Minute)
		if err == nil {
			swept = ids
		}
	}()
	wg.Wait()

	sweptSet := make(map[string]bool, len(swept))
	for _, id := range swept {
		sweptSet[id] = true
	}
	for i, ticket := range tickets {
		got, err := store.Tickets().GetByID(ctx, ticket.ID)
		require.NoError(t, err)
		assert.NotEqual(t, resolvedBy[i], sweptSet[ticket.ID], "ticket %d must have exactly one winner", i)
		if resolvedBy[i] {
			assert.Equal(t, domain.TicketStatusResolved, got.Status)
			assert.NotNil(t, got.Answer)
		} else {
			assert.Equal(t, domain.TicketStatusUnresolved, got.Status)
			assert.Nil(t, got.Answer)
		}
	}
}

func TestMemorySweepOnlyVisitsPendingTickets(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	var ids []string
	for i := 0; i < 4; i++ {
		ids = append(ids, newTicket(t, store, "c1", fmt.Sprintf("q%d", i), base.Add(time.Duration(i)*time.Second)).ID)
	}
	require.Equal(t, 4, store.tickets.pendingCount())

	_, err := store.ResolveAndLearn(ctx, ids[0], "a", base.Add(time.Minute))
	require.NoError(t, err)
	_, err = store.Tickets().MarkUnresolved(ctx, ids[1], base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, store.tickets.pendingCount())

	swept, err := store.Tickets().SweepExpired(ctx, base.Add(time.Hour), 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []string{ids[2], ids[3]}, swept)
	assert.Zero(t, store.tickets.pendingCount())

	_, err = store.Tickets().Resolve(ctx, ids[0], "again", base.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrNotPending)
}
