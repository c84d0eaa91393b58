package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/escalation-service/internal/domain"
)

const ticketColumns = `id, asker_id, question, status, answer, created_at, updated_at, resolved_at`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is the part of *pgxpool.Pool the Postgres repositories use.
type DB interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

type ticketRepository struct {
	db DB
}

// NewTicketRepository instantiates the Postgres ticket repository. A nil db
// reports ErrUnavailable.
func NewTicketRepository(db DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if r.db == nil {
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
	const query = `
        INSERT INTO help_requests (id, asker_id, question, canonical_question, status, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.db.Exec(ctx, query,
		ticket.ID,
		ticket.AskerID,
		ticket.Question,
		ticket.CanonicalQuestion(),
		ticket.Status,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	return mapPgError(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if r.db == nil {
		return nil, ErrUnavailable
	}
	return getTicket(ctx, r.db, id)
}

func (r *ticketRepository) ListPendingByAsker(ctx context.Context, askerID string, limit int) ([]domain.Ticket, error) {
	if r.db == nil {
		return nil, ErrUnavailable
	}
	const query = `SELECT ` + ticketColumns + `
        FROM help_requests
        WHERE asker_id=$1 AND status=$2
        ORDER BY created_at DESC
        LIMIT $3`
	rows, err := r.db.Query(ctx, query, askerID, domain.TicketStatusPending, normalizeLimit(limit, DefaultPendingLookupLimit))
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListRecent(ctx context.Context, limit int) ([]domain.Ticket, error) {
	if r.db == nil {
		return nil, ErrUnavailable
	}
	const query = `SELECT ` + ticketColumns + `
        FROM help_requests
        ORDER BY created_at DESC
        LIMIT $1`
	rows, err := r.db.Query(ctx, query, normalizeLimit(limit, DefaultTicketListLimit))
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Resolve(ctx context.Context, id, answer string, at time.Time) (*domain.Ticket, error) {
	if r.db == nil {
		return nil, ErrUnavailable
	}
	return resolveTicket(ctx, r.db, id, answer, at)
}

func (r *ticketRepository) MarkUnresolved(ctx context.Context, id string, at time.Time) (*domain.Ticket, error) {
	if r.db == nil {
		return nil, ErrUnavailable
	}
	const query = `
        UPDATE help_requests SET status=$2, answer=NULL, resolved_at=NULL, updated_at=$3
        WHERE id=$1 AND status=$4
        RETURNING ` + ticketColumns
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, id, domain.TicketStatusUnresolved, at, domain.TicketStatusPending))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, missingOrNotPending(ctx, r.db, id)
	}
	if err != nil {
		return nil, mapPgError(err)
	}
	return ticket, nil
}

func (r *ticketRepository) SweepExpired(ctx context.Context, now time.Time, deadline time.Duration) ([]string, error) {
	if r.db == nil {
		return nil, ErrUnavailable
	}
	const query = `
        UPDATE help_requests SET status=$1, updated_at=$2
        WHERE status=$3 AND created_at < $4
        RETURNING id`
	rows, err := r.db.Query(ctx, query, domain.TicketStatusUnresolved, now, domain.TicketStatusPending, now.Add(-deadline))
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapPgError(err)
		}
		ids = append(ids, id)
	}
	return ids, mapPgError(rows.Err())
}

func getTicket(ctx context.Context, q querier, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM help_requests WHERE id=$1`
	ticket, err := scanTicket(q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapPgError(err)
	}
	return ticket, nil
}

func resolveTicket(ctx context.Context, q querier, id, answer string, at time.Time) (*domain.Ticket, error) {
	const query = `
        UPDATE help_requests SET status=$2, answer=$3, resolved_at=$4, updated_at=$4
        WHERE id=$1 AND status=$5
        RETURNING ` + ticketColumns
	ticket, err := scanTicket(q.QueryRow(ctx, query, id, domain.TicketStatusResolved, answer, at, domain.TicketStatusPending))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, missingOrNotPending(ctx, q, id)
	}
	if err != nil {
		return nil, mapPgError(err)
	}
	return ticket, nil
}

// missingOrNotPending explains why a conditional update touched no row.
func missingOrNotPending(ctx context.Context, q querier, id string) error {
	var status domain.TicketStatus
	err := q.QueryRow(ctx, `SELECT status FROM help_requests WHERE id=$1`, id).Scan(&status)
	if err != nil {
		return mapPgError(err)
	}
	return ErrNotPending
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.AskerID,
		&ticket.Question,
		&ticket.Status,
		&ticket.Answer,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, mapPgError(err)
		}
		result = append(result, *ticket)
	}
	return result, mapPgError(rows.Err())
}
