package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/escalation-service/internal/domain"
	"github.com/spec-kit/escalation-service/internal/repository"
	apperrors "github.com/spec-kit/escalation-service/pkg/util/errorutil"
)

// KnowledgeService answers questions from learned entries.
type KnowledgeService struct {
	repo      repository.KnowledgeRepository
	scanLimit int
	listLimit int
	now       func() time.Time
}

// NewKnowledgeService constructs the service. Non-positive limits fall back to
// repository defaults.
func NewKnowledgeService(repo repository.KnowledgeRepository, scanLimit, listLimit int, now func() time.Time) *KnowledgeService {
	if scanLimit <= 0 {
		scanLimit = repository.DefaultKnowledgeLimit
	}
	if listLimit <= 0 {
		listLimit = repository.DefaultKnowledgeLimit
	}
	if now == nil {
		now = time.Now
	}
	return &KnowledgeService{repo: repo, scanLimit: scanLimit, listLimit: listLimit, now: now}
}

// Lookup returns the answer for question: an exact canonical match first,
// otherwise the longest stored key the question mentions among the first
// scanLimit entries. Equal-length keys resolve to the lexicographically
// smallest one.
func (s *KnowledgeService) Lookup(ctx context.Context, question string) (string, bool, error) {
	key := domain.Canonicalize(question)
	if key == "" {
		return "", false, nil
	}

	entry, err := s.repo.Get(ctx, key)
	switch {
	case err == nil:
		return entry.Answer, true, nil
	case !errors.Is(err, repository.ErrNotFound):
		return "", false, mapStoreError(err, "knowledge entry", nil)
	}

	entries, err := s.repo.List(ctx, s.scanLimit)
	if err != nil {
		return "", false, mapStoreError(err, "knowledge entry", nil)
	}
	var best *domain.KnowledgeEntry
	for i := range entries {
		candidate := &entries[i]
		if !domain.Mentions(key, candidate.Question) {
			continue
		}
		if best == nil || len(candidate.Question) > len(best.Question) ||
			(len(candidate.Question) == len(best.Question) && candidate.Question < best.Question) {
			best = candidate
		}
	}
	if best == nil {
		return "", false, nil
	}
	return best.Answer, true, nil
}

// Upsert stores answer under the canonical form of question.
func (s *KnowledgeService) Upsert(ctx context.Context, question, answer string) (*domain.KnowledgeEntry, error) {
	key := domain.Canonicalize(question)
	answer = strings.TrimSpace(answer)
	if key == "" || answer == "" {
		return nil, apperrors.NewValidationError("question and answer required", nil)
	}
	entry := &domain.KnowledgeEntry{Question: key, Answer: answer, UpdatedAt: s.now()}
	if err := s.repo.Upsert(ctx, entry); err != nil {
		return nil, mapStoreError(err, "knowledge entry", map[string]any{"question": key})
	}
	return entry, nil
}

// List returns a snapshot of learned entries.
func (s *KnowledgeService) List(ctx context.Context) ([]domain.KnowledgeEntry, error) {
	entries, err := s.repo.List(ctx, s.listLimit)
	if err != nil {
		return nil, mapStoreError(err, "knowledge entry", nil)
	}
	return entries, nil
}
