package calls

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for tests and local development.
// Writes build a new map and swap it in under the lock, so a reader always
// holds a complete snapshot.
//
// NOTE: This is not intended for production; PostgresStore is the only durable store.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]Row

	// FailOn, when set, is consulted for every row of a write; a non-nil error
	// aborts the write before anything is swapped in.
	FailOn func(Row) error
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{rows: map[string]Row{}} }

func (s *MemoryStore) Put(ctx context.Context, row Row) (BatchOutcome, error) {
	return s.PutBatch(ctx, []Row{row})
}

func (s *MemoryStore) PutBatch(ctx context.Context, rows []Row) (BatchOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]Row, len(s.rows)+len(rows))
	for id, r := range s.rows {
		next[id] = r
	}

	var out BatchOutcome
	for _, r := range rows {
		if err := ctx.Err(); err != nil {
			return BatchOutcome{}, err
		}
		if s.FailOn != nil {
			if err := s.FailOn(r); err != nil {
				return BatchOutcome{}, err
			}
		}
		if prev, ok := next[r.ID]; ok {
			r.CreatedAt = prev.CreatedAt
			out.Updated++
		} else {
			out.Inserted++
		}
		next[r.ID] = cloneRow(r)
	}
	s.rows = next
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	row, ok := s.rows[id]
	s.mu.RUnlock()
	if !ok {
		return Record{}, ErrNotFound
	}
	return DecodeRow(row)
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]Record, error) {
	return s.list(func(Row) bool { return true })
}

func (s *MemoryStore) ListByStatus(ctx context.Context, status string) ([]Record, error) {
	return s.list(func(r Row) bool { return r.Status == status })
}

// Rows returns a copy of the stored rows keyed by ID.
func (s *MemoryStore) Rows() map[string]Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Row, len(s.rows))
	for id, r := range s.rows {
		out[id] = cloneRow(r)
	}
	return out
}

func (s *MemoryStore) list(keep func(Row) bool) ([]Record, error) {
	s.mu.RLock()
	snapshot := s.rows
	s.mu.RUnlock()

	rows := make([]Row, 0, len(snapshot))
	for _, r := range snapshot {
		if keep(r) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID < rows[j].ID
	})

	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		rec, err := DecodeRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func cloneRow(r Row) Row {
	r.Metadata = cloneBytes(r.Metadata)
	r.Analysis = cloneBytes(r.Analysis)
	r.CostBreakdown = cloneBytes(r.CostBreakdown)
	return r
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
