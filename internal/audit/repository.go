package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo stores events in the sync_runs table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO sync_runs (
  id, type, actor, source, count, inserted, updated, clamped,
  error_kind, record_id, message, started_at, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`,
		e.ID, string(e.Type), e.Actor, e.Source, e.Count, e.Inserted, e.Updated, e.Clamped,
		e.ErrorKind, e.RecordID, e.Message, e.StartedAt, e.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) List(ctx context.Context, limit int) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, type, actor, source, count, inserted, updated, clamped,
       error_kind, record_id, message, started_at, created_at
FROM sync_runs
ORDER BY created_at DESC, id
LIMIT $1
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Event, 0, limit)
	for rows.Next() {
		var (
			e   Event
			typ string
		)
		if err := rows.Scan(
			&e.ID, &typ, &e.Actor, &e.Source, &e.Count, &e.Inserted, &e.Updated, &e.Clamped,
			&e.ErrorKind, &e.RecordID, &e.Message, &e.StartedAt, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.Type = EventType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}
