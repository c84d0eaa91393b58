package repository

import (
	"context"
	"time"

	"github.com/spec-kit/escalation-service/internal/domain"
)

type knowledgeRepository struct {
	db DB
}

// NewKnowledgeRepository instantiates the Postgres knowledge repository.
func NewKnowledgeRepository(db DB) KnowledgeRepository {
	return &knowledgeRepository{db: db}
}

func (r *knowledgeRepository) Get(ctx context.Context, question string) (*domain.KnowledgeEntry, error) {
	if r.db == nil {
		return nil, ErrUnavailable
	}
	const query = `SELECT question, answer, updated_at FROM knowledge_entries WHERE question=$1`
	var entry domain.KnowledgeEntry
	if err := r.db.QueryRow(ctx, query, domain.Canonicalize(question)).Scan(
		&entry.Question,
		&entry.Answer,
		&entry.UpdatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	return &entry, nil
}

func (r *knowledgeRepository) List(ctx context.Context, limit int) ([]domain.KnowledgeEntry, error) {
	if r.db == nil {
		return nil, ErrUnavailable
	}
	const query = `SELECT question, answer, updated_at FROM knowledge_entries ORDER BY question LIMIT $1`
	rows, err := r.db.Query(ctx, query, normalizeLimit(limit, DefaultKnowledgeLimit))
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var result []domain.KnowledgeEntry
	for rows.Next() {
		var entry domain.KnowledgeEntry
		if err := rows.Scan(&entry.Question, &entry.Answer, &entry.UpdatedAt); err != nil {
			return nil, mapPgError(err)
		}
		result = append(result, entry)
	}
	return result, mapPgError(rows.Err())
}

func (r *knowledgeRepository) Upsert(ctx context.Context, entry *domain.KnowledgeEntry) error {
	if r.db == nil {
		return ErrUnavailable
	}
	return upsertKnowledge(ctx, r.db, entry)
}

func upsertKnowledge(ctx context.Context, q querier, entry *domain.KnowledgeEntry) error {
	entry.Question = domain.Canonicalize(entry.Question)
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now()
	}
	const query = `
        INSERT INTO knowledge_entries (question, answer, updated_at)
        VALUES ($1,$2,$3)
        ON CONFLICT (question) DO UPDATE SET answer=EXCLUDED.answer, updated_at=EXCLUDED.updated_at`
	_, err := q.Exec(ctx, query, entry.Question, entry.Answer, entry.UpdatedAt)
	return mapPgError(err)
}
