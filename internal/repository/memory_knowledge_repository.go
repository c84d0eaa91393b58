package repository

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spec-kit/escalation-service/internal/domain"
)

type memoryKnowledgeRepository struct {
	mu      sync.RWMutex
	entries map[string]domain.KnowledgeEntry
	online  *atomic.Bool
}

func newMemoryKnowledgeRepository(online *atomic.Bool) *memoryKnowledgeRepository {
	return &memoryKnowledgeRepository{
		entries: make(map[string]domain.KnowledgeEntry),
		online:  online,
	}
}

func (r *memoryKnowledgeRepository) Get(ctx context.Context, question string) (*domain.KnowledgeEntry, error) {
	if !r.online.Load() {
		return nil, ErrUnavailable
	}
	r.mu.RLock()
	entry, ok := r.entries[domain.Canonicalize(question)]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &entry, nil
}

func (r *memoryKnowledgeRepository) List(ctx context.Context, limit int) ([]domain.KnowledgeEntry, error) {
	if !r.online.Load() {
		return nil, ErrUnavailable
	}
	r.mu.RLock()
	result := make([]domain.KnowledgeEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		result = append(result, entry)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].Question < result[j].Question })
	if limit = normalizeLimit(limit, DefaultKnowledgeLimit); len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *memoryKnowledgeRepository) Upsert(ctx context.Context, entry *domain.KnowledgeEntry) error {
	if !r.online.Load() {
		return ErrUnavailable
	}
	entry.Question = domain.Canonicalize(entry.Question)
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now()
	}
	r.mu.Lock()
	r.entries[entry.Question] = *entry
	r.mu.Unlock()
	return nil
}
