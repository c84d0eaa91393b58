package domain

import (
	"strings"
	"time"
)

// KnowledgeEntry is a learned question and its answer, keyed by canonical question.
type KnowledgeEntry struct {
	Question  string
	Answer    string
	UpdatedAt time.Time
}

// Canonicalize folds case and trims outer whitespace. Inner whitespace and
// punctuation are kept as-is.
func Canonicalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Mentions reports whether the canonical form of question contains key.
func Mentions(question, key string) bool {
	if key == "" {
		return false
	}
	return strings.Contains(Canonicalize(question), key)
}
