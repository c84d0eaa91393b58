package service

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spec-kit/escalation-service/internal/config"
	"github.com/spec-kit/escalation-service/internal/domain"
	"github.com/spec-kit/escalation-service/internal/events"
	"github.com/spec-kit/escalation-service/internal/observability"
	"github.com/spec-kit/escalation-service/internal/repository"
	apperrors "github.com/spec-kit/escalation-service/pkg/util/errorutil"
)

// EscalationMessage is returned verbatim with every escalated ask.
const EscalationMessage = "Let me check with my supervisor and get back to you."

const askerLockStripes = 64

// AskOutcome tells the caller whether the question was answered.
type AskOutcome string

const (
	AskOutcomeAnswered  AskOutcome = "answered"
	AskOutcomeEscalated AskOutcome = "escalated"
)

// AskResult is the response to a question.
type AskResult struct {
	Outcome  AskOutcome
	Answer   string
	TicketID string
	Message  string
	Deduped  bool
}

// ResolveInput is a supervisor's update to a ticket. A non-blank Answer
// resolves the ticket; Status "unresolved" closes it without an answer.
type ResolveInput struct {
	Answer string
	Status string
}

// EscalationDependencies bundles collaborators for the escalation service.
type EscalationDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Config     config.EscalationConfig
	Now        func() time.Time
}

// EscalationService answers questions, escalates misses to supervisors and
// learns from their answers.
type EscalationService struct {
	store      repository.Store
	tickets    repository.TicketRepository
	knowledge  *KnowledgeService
	dedup      *DedupResolver
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	cfg        config.EscalationConfig
	now        func() time.Time
	tracer     trace.Tracer

	// askerLocks serialize dedup-then-create per asker within this process.
	askerLocks [askerLockStripes]sync.Mutex
}

// NewEscalationService constructs the service.
func NewEscalationService(deps EscalationDependencies) *EscalationService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := deps.Config
	if cfg.TicketTimeout <= 0 {
		cfg.TicketTimeout = 10 * time.Minute
	}
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = 60 * time.Second
	}
	return &EscalationService{
		store:      deps.Store,
		tickets:    deps.Store.Tickets(),
		knowledge:  NewKnowledgeService(deps.Store.Knowledge(), cfg.KnowledgeScanLimit, cfg.KnowledgeListLimit, now),
		dedup:      NewDedupResolver(deps.Store.Tickets(), cfg.DedupWindow, cfg.PendingLookupLimit),
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger.Named("escalation"),
		cfg:        cfg,
		now:        now,
		tracer:     otel.Tracer("github.com/spec-kit/escalation-service/internal/service"),
	}
}

// Knowledge exposes the knowledge service sharing this engine's store.
func (s *EscalationService) Knowledge() *KnowledgeService {
	return s.knowledge
}

// Ask answers question from knowledge or escalates it to a supervisor.
func (s *EscalationService) Ask(ctx context.Context, askerID, question string) (result *AskResult, err error) {
	ctx, span := s.tracer.Start(ctx, "escalation.Ask")
	defer func() { endSpan(span, err) }()

	askerID = strings.TrimSpace(askerID)
	if askerID == "" {
		return nil, apperrors.NewValidationError("customer_id required", nil)
	}
	if strings.TrimSpace(question) == "" {
		return nil, apperrors.NewValidationError("question required", nil)
	}
	span.SetAttributes(attribute.String("asker.id", askerID))

	answer, found, err := s.knowledge.Lookup(ctx, question)
	if err != nil {
		return nil, err
	}
	if found {
		s.metrics.RecordAsk(observability.AskAnswered)
		span.SetAttributes(attribute.String("ask.outcome", string(AskOutcomeAnswered)))
		return &AskResult{Outcome: AskOutcomeAnswered, Answer: answer}, nil
	}

	lock := s.askerLock(askerID)
	lock.Lock()
	defer lock.Unlock()

	now := s.now()
	existing, err := s.dedup.FindReusable(ctx, askerID, question, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.metrics.RecordAsk(observability.AskDeduped)
		s.logger.Debug("ask deduplicated", zap.String("ticket_id", existing.ID), zap.String("asker_id", askerID))
		span.SetAttributes(attribute.String("ticket.id", existing.ID), attribute.Bool("ask.deduped", true))
		return &AskResult{Outcome: AskOutcomeEscalated, TicketID: existing.ID, Message: EscalationMessage, Deduped: true}, nil
	}

	ticket := &domain.Ticket{
		AskerID:   askerID,
		Question:  question,
		Status:    domain.TicketStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, mapStoreError(err, "ticket", nil)
	}
	s.metrics.RecordAsk(observability.AskEscalated)
	s.logger.Info("supervisor help requested",
		zap.String("ticket_id", ticket.ID),
		zap.String("asker_id", askerID),
		zap.String("question", question))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventHelpRequested,
		TicketID: ticket.ID,
		Actor:    events.Actor{Type: events.ActorAsker, AskerID: askerID},
		Payload:  events.HelpRequestedPayload{AskerID: askerID, Question: question},
	})
	span.SetAttributes(attribute.String("ticket.id", ticket.ID), attribute.Bool("ask.deduped", false))
	return &AskResult{Outcome: AskOutcomeEscalated, TicketID: ticket.ID, Message: EscalationMessage}, nil
}

// ListTickets returns tickets most recent first for the supervisor dashboard.
func (s *EscalationService) ListTickets(ctx context.Context, limit int) ([]domain.Ticket, error) {
	if limit <= 0 || (s.cfg.TicketListLimit > 0 && limit > s.cfg.TicketListLimit) {
		limit = s.cfg.TicketListLimit
	}
	tickets, err := s.tickets.ListRecent(ctx, limit)
	if err != nil {
		return nil, mapStoreError(err, "ticket", nil)
	}
	return tickets, nil
}

// GetTicket returns a single ticket.
func (s *EscalationService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "ticket", map[string]any{"ticket_id": id})
	}
	return ticket, nil
}

// ResolveTicket applies a supervisor's answer or closes the ticket unanswered.
// An input with neither is a no-op returning the current ticket.
func (s *EscalationService) ResolveTicket(ctx context.Context, id string, input ResolveInput) (ticket *domain.Ticket, err error) {
	ctx, span := s.tracer.Start(ctx, "escalation.ResolveTicket", trace.WithAttributes(attribute.String("ticket.id", id)))
	defer func() { endSpan(span, err) }()

	details := map[string]any{"ticket_id": id}
	current, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "ticket", details)
	}

	answer := strings.TrimSpace(input.Answer)
	status := domain.TicketStatus(strings.ToLower(strings.TrimSpace(input.Status)))

	switch {
	case answer != "":
		resolved, err := s.store.ResolveAndLearn(ctx, id, answer, s.now())
		if err != nil {
			return nil, mapStoreError(err, "ticket", details)
		}
		s.metrics.RecordTransition(string(domain.TicketStatusResolved), "supervisor", 1)
		s.logger.Info("ticket resolved",
			zap.String("ticket_id", id),
			zap.String("asker_id", resolved.AskerID),
			zap.String("learned_question", resolved.CanonicalQuestion()))
		s.publishEvent(ctx, events.Event{
			Type:     events.EventFollowupReady,
			TicketID: id,
			Actor:    events.Actor{Type: events.ActorSupervisor},
			Payload:  events.FollowupReadyPayload{AskerID: resolved.AskerID, Question: resolved.Question, Answer: answer},
		})
		return resolved, nil

	case status == domain.TicketStatusUnresolved:
		closed, err := s.tickets.MarkUnresolved(ctx, id, s.now())
		if err != nil {
			return nil, mapStoreError(err, "ticket", details)
		}
		s.metrics.RecordTransition(string(domain.TicketStatusUnresolved), "supervisor", 1)
		s.logger.Info("ticket marked unresolved", zap.String("ticket_id", id))
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketUnresolved,
			TicketID: id,
			Actor:    events.Actor{Type: events.ActorSupervisor},
			Payload:  events.TicketClosedPayload{AskerID: closed.AskerID, Question: closed.Question, Reason: "supervisor"},
		})
		return closed, nil

	default:
		return current, nil
	}
}

// ListKnowledge returns the learned question/answer pairs.
func (s *EscalationService) ListKnowledge(ctx context.Context) ([]domain.KnowledgeEntry, error) {
	return s.knowledge.List(ctx)
}

// UpsertKnowledge teaches the assistant an answer outside the ticket flow.
func (s *EscalationService) UpsertKnowledge(ctx context.Context, question, answer string) (*domain.KnowledgeEntry, error) {
	entry, err := s.knowledge.Upsert(ctx, question, answer)
	if err != nil {
		return nil, err
	}
	s.logger.Info("knowledge entry upserted", zap.String("question", entry.Question))
	return entry, nil
}

// SweepExpired closes pending tickets older than the ticket timeout and
// returns the ids this sweep transitioned.
func (s *EscalationService) SweepExpired(ctx context.Context) (ids []string, err error) {
	ctx, span := s.tracer.Start(ctx, "escalation.SweepExpired")
	defer func() { endSpan(span, err) }()

	now := s.now()
	ids, err = s.tickets.SweepExpired(ctx, now, s.cfg.TicketTimeout)
	s.metrics.RecordSweep(err)
	if err != nil {
		return ids, mapStoreError(err, "ticket", nil)
	}
	s.metrics.RecordTransition(string(domain.TicketStatusUnresolved), "timeout", len(ids))
	span.SetAttributes(attribute.Int("sweep.expired", len(ids)))

	for _, id := range ids {
		s.logger.Info("ticket timed out", zap.String("ticket_id", id))
		payload := events.TicketClosedPayload{Reason: "timeout"}
		if ticket, err := s.tickets.GetByID(ctx, id); err == nil {
			payload.AskerID = ticket.AskerID
			payload.Question = ticket.Question
		}
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketTimedOut,
			TicketID: id,
			Actor:    events.Actor{Type: events.ActorSystem},
			Payload:  payload,
		})
	}
	return ids, nil
}

func (s *EscalationService) askerLock(askerID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(askerID))
	return &s.askerLocks[h.Sum32()%askerLockStripes]
}

func (s *EscalationService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event not queued",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
