package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/escalation-service/internal/domain"
)

// PostgresStore serves tickets and knowledge from a pgx pool. A nil pool yields a
// store that reports ErrUnavailable for every call.
type PostgresStore struct {
	db        DB
	tickets   TicketRepository
	knowledge KnowledgeRepository
}

// NewPostgresStore wires the Postgres repositories around pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		return NewPostgresStoreWithDB(nil)
	}
	return NewPostgresStoreWithDB(pool)
}

// NewPostgresStoreWithDB wires the repositories around any DB, such as a
// pgxpool.Pool or a mock.
func NewPostgresStoreWithDB(db DB) *PostgresStore {
	return &PostgresStore{
		db:        db,
		tickets:   NewTicketRepository(db),
		knowledge: NewKnowledgeRepository(db),
	}
}

func (s *PostgresStore) Tickets() TicketRepository      { return s.tickets }
func (s *PostgresStore) Knowledge() KnowledgeRepository { return s.knowledge }

// ResolveAndLearn runs the conditional resolve and the knowledge upsert in one
// transaction. Any failure rolls both back.
func (s *PostgresStore) ResolveAndLearn(ctx context.Context, id, answer string, at time.Time) (*domain.Ticket, error) {
	if s.db == nil {
		return nil, ErrUnavailable
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, mapPgError(err)
	}
	ticket, err := resolveTicket(ctx, tx, id, answer, at)
	if err == nil {
		entry := &domain.KnowledgeEntry{Question: ticket.Question, Answer: answer, UpdatedAt: at}
		err = upsertKnowledge(ctx, tx, entry)
	}
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, mapPgError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, mapPgError(err)
	}
	return ticket, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrUnavailable
	}
	return mapPgError(s.db.Ping(ctx))
}

// Close is a no-op; the pool belongs to persistence.Postgres.
func (s *PostgresStore) Close() {}

// mapPgError converts driver errors into repository sentinels.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotPending) || errors.Is(err, ErrUnavailable) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
