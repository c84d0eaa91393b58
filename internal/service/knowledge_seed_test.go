package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/escalation-service/internal/repository"
)

const seedYAML = `
entries:
  - question: "What are your hours"
    answer: "We're open 9 AM – 6 PM, Monday through Saturday."
  - question: parking
    answer: Free parking behind the salon.
`

func TestLoadAndApplyKnowledgeSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))

	seed, err := LoadKnowledgeSeed(path)
	require.NoError(t, err)
	require.Len(t, seed.Entries, 2)

	knowledge := NewKnowledgeService(repository.NewMemoryStore().Knowledge(), 0, 0, time.Now)
	n, err := knowledge.Seed(context.Background(), seed)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	answer, found, err := knowledge.Lookup(context.Background(), "what are your hours?")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, hoursAnswer, answer)

	entries, err := knowledge.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "parking", entries[0].Question)
	assert.Equal(t, "what are your hours", entries[1].Question)
}

func TestParseKnowledgeSeedErrors(t *testing.T) {
	_, err := ParseKnowledgeSeed([]byte("entries:\n  - question: only a question\n"))
	assert.Error(t, err)

	_, err = ParseKnowledgeSeed([]byte("entries:\n  - question: q\n    answer: a\n    extra: nope\n"))
	assert.Error(t, err)

	seed, err := ParseKnowledgeSeed(nil)
	require.NoError(t, err)
	assert.Empty(t, seed.Entries)

	_, err = LoadKnowledgeSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
