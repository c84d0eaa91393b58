package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketTransitionsKeepAnswerInvariant(t *testing.T) {
	created := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	ticket := Ticket{ID: "t1", AskerID: "c1", Question: "Are you open on Sundays?", Status: TicketStatusPending, CreatedAt: created, UpdatedAt: created}

	resolved := ticket.Clone()
	resolved.MarkResolved("No, closed Sundays.", created.Add(time.Minute))
	require.NotNil(t, resolved.Answer)
	require.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, TicketStatusResolved, resolved.Status)
	assert.True(t, resolved.Status.IsTerminal())

	unresolved := ticket.Clone()
	unresolved.MarkUnresolved(created.Add(11 * time.Minute))
	assert.Nil(t, unresolved.Answer)
	assert.Nil(t, unresolved.ResolvedAt)
	assert.Equal(t, TicketStatusUnresolved, unresolved.Status)

	assert.False(t, ticket.Status.IsTerminal())
	assert.Equal(t, "are you open on sundays?", ticket.CanonicalQuestion())
	assert.Equal(t, 90*time.Second, ticket.Age(created.Add(90*time.Second)))
}

func TestTicketCloneIsDeep(t *testing.T) {
	now := time.Now()
	ticket := Ticket{ID: "t1"}
	ticket.MarkResolved("yes", now)

	copied := ticket.Clone()
	*copied.Answer = "changed"
	assert.Equal(t, "yes", *ticket.Answer)
}
