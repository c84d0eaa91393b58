package domain

import "time"

// TicketStatus enumerates lifecycle states for escalation tickets.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusUnresolved TicketStatus = "unresolved"
)

// IsTerminal reports whether no further transition is allowed.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusResolved || s == TicketStatusUnresolved
}

// Ticket is one outstanding question handed to a supervisor.
type Ticket struct {
	ID         string
	AskerID    string
	Question   string
	Status     TicketStatus
	Answer     *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ResolvedAt *time.Time
}

// CanonicalQuestion returns the comparison key of the ticket's question.
func (t *Ticket) CanonicalQuestion() string {
	return Canonicalize(t.Question)
}

// Age returns how long the ticket has existed at now.
func (t *Ticket) Age(now time.Time) time.Duration {
	return now.Sub(t.CreatedAt)
}

// MarkResolved sets the resolved state. Callers must hold exclusive access.
func (t *Ticket) MarkResolved(answer string, at time.Time) {
	t.Status = TicketStatusResolved
	t.Answer = &answer
	t.ResolvedAt = &at
	t.UpdatedAt = at
}

// MarkUnresolved sets the unresolved state. Callers must hold exclusive access.
func (t *Ticket) MarkUnresolved(at time.Time) {
	t.Status = TicketStatusUnresolved
	t.Answer = nil
	t.ResolvedAt = nil
	t.UpdatedAt = at
}

// Clone returns a deep copy safe to hand out of a store.
func (t Ticket) Clone() Ticket {
	if t.Answer != nil {
		answer := *t.Answer
		t.Answer = &answer
	}
	if t.ResolvedAt != nil {
		resolvedAt := *t.ResolvedAt
		t.ResolvedAt = &resolvedAt
	}
	return t
}
