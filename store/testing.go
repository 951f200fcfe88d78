package store

import (
	"context"

	"github.com/Financial-Times/go-logger/v2"
)

// NewMemoryStore opens an in-memory SQLite store with the schema created and
// the given triples loaded. Caller must Close it.
func NewMemoryStore(ctx context.Context, log *logger.UPPLogger, triples ...Triple) (*Store, error) {
	s, err := Open(ctx, "sqlite::memory:", log)
	if err != nil {
		return nil, err
	}
	if err := s.CreateSchema(ctx); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.Add(ctx, triples...); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
