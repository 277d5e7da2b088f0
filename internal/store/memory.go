package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/civicpulse/civicpulse/internal/model"
)

// MemorySource serves records loaded once from a JSON file. It is the
// default backend and the fixture backend for tests.
type MemorySource struct {
	records []model.CitizenRecord
}

// NewMemorySource loads the record collection from a JSON file.
func NewMemorySource(path string) (*MemorySource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records file: %w", err)
	}

	var records []model.CitizenRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse records file: %w", err)
	}

	return &MemorySource{records: records}, nil
}

// NewMemorySourceFromRecords wraps an in-memory record slice.
func NewMemorySourceFromRecords(records []model.CitizenRecord) *MemorySource {
	return &MemorySource{records: records}
}

// All returns a copy of the record collection so callers can never
// mutate the shared slice.
func (s *MemorySource) All(ctx context.Context) ([]model.CitizenRecord, error) {
	out := make([]model.CitizenRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Close is a no-op for the memory backend.
func (s *MemorySource) Close(ctx context.Context) error {
	return nil
}
