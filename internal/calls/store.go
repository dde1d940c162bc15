package calls

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("call not found")

// BatchOutcome reports how an upsert batch was applied.
type BatchOutcome struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// Store is the durable keyed storage for call records.
//
// Contract:
// - Upsert is keyed strictly by ID. An existing row keeps its CreatedAt and has
//   every other column overwritten.
// - PutBatch is all-or-nothing. Readers see the state before or after a batch,
//   never a mix.
// - ListAll and ListByStatus order by CreatedAt descending (ID ascending on ties).
type Store interface {
	Put(ctx context.Context, row Row) (BatchOutcome, error)
	PutBatch(ctx context.Context, rows []Row) (BatchOutcome, error)
	Get(ctx context.Context, id string) (Record, error)
	ListAll(ctx context.Context) ([]Record, error)
	ListByStatus(ctx context.Context, status string) ([]Record, error)
}
