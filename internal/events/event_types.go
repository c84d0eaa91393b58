package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventHelpRequested    EventType = "help_requested"
	EventFollowupReady    EventType = "followup_ready"
	EventTicketUnresolved EventType = "ticket_unresolved"
	EventTicketTimedOut   EventType = "ticket_timed_out"
)

// ActorType identifies who caused an event.
type ActorType string

const (
	ActorAsker      ActorType = "asker"
	ActorSupervisor ActorType = "supervisor"
	ActorSystem     ActorType = "system"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type    ActorType `json:"type"`
	AskerID string    `json:"asker_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// HelpRequestedPayload asks a supervisor to answer a question.
type HelpRequestedPayload struct {
	AskerID  string `json:"asker_id"`
	Question string `json:"question"`
}

// FollowupReadyPayload carries the supervisor's answer back to the asker.
type FollowupReadyPayload struct {
	AskerID  string `json:"asker_id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// TicketClosedPayload describes a ticket that left pending without an answer.
type TicketClosedPayload struct {
	AskerID  string `json:"asker_id"`
	Question string `json:"question"`
	Reason   string `json:"reason"`
}
