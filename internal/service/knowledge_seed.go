package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// KnowledgeSeed is the on-disk format of preloaded answers.
type KnowledgeSeed struct {
	Entries []KnowledgeSeedEntry `yaml:"entries"`
}

// KnowledgeSeedEntry is one question/answer pair in a seed file.
type KnowledgeSeedEntry struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// LoadKnowledgeSeed reads a YAML seed file.
func LoadKnowledgeSeed(path string) (*KnowledgeSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge seed: %w", err)
	}
	return ParseKnowledgeSeed(data)
}

// ParseKnowledgeSeed decodes seed YAML, rejecting unknown fields.
func ParseKnowledgeSeed(data []byte) (*KnowledgeSeed, error) {
	var seed KnowledgeSeed
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse knowledge seed: %w", err)
	}
	for i, entry := range seed.Entries {
		if entry.Question == "" || entry.Answer == "" {
			return nil, fmt.Errorf("knowledge seed entry %d: question and answer required", i)
		}
	}
	return &seed, nil
}

// Seed upserts every entry and returns how many were applied.
func (s *KnowledgeService) Seed(ctx context.Context, seed *KnowledgeSeed) (int, error) {
	if seed == nil {
		return 0, nil
	}
	for i, entry := range seed.Entries {
		if _, err := s.Upsert(ctx, entry.Question, entry.Answer); err != nil {
			return i, fmt.Errorf("seed %q: %w", entry.Question, err)
		}
	}
	return len(seed.Entries), nil
}
