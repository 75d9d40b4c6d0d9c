package memory

import (
	"context"
	"sync"

	"github.com/retailsim/retailsim/pkg/domain/repositories"
)

// Sink is an in-memory record sink, used by tests and the CLI demo. It
// keeps every written row grouped by table.
type Sink struct {
	mu     sync.Mutex
	tables map[string][]repositories.Row
	// FailTables forces WriteBatch errors for the named tables, for
	// exercising degraded-write paths in tests.
	FailTables map[string]error
}

// NewSink creates an empty in-memory sink
func NewSink() *Sink {
	return &Sink{
		tables: make(map[string][]repositories.Row),
	}
}

// Verify interface compliance
var _ repositories.RecordSink = (*Sink)(nil)

// WriteBatch appends a table-homogeneous batch of rows
func (s *Sink) WriteBatch(ctx context.Context, table string, rows []repositories.Row) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.FailTables[table]; ok {
		return 0, err
	}

	s.tables[table] = append(s.tables[table], rows...)
	return len(rows), nil
}

// Rows returns everything written to a table
func (s *Sink) Rows(table string) []repositories.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]repositories.Row(nil), s.tables[table]...)
}

// Count returns the number of rows written to a table
func (s *Sink) Count(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables[table])
}
