package calls

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"callsync/pkg/utils"
)

// NOTE: This repository assumes the calls table from internal/db/migrations exists:
// - PRIMARY KEY (id)
// - indexes on created_at and status
//
// Opaque objects are JSONB columns; NULL means the remote payload omitted them.

// PostgresStore is the production Store.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Put(ctx context.Context, row Row) (BatchOutcome, error) {
	return s.PutBatch(ctx, []Row{row})
}

// PutBatch upserts every row inside one transaction. Any failure rolls the
// whole batch back. The default READ COMMITTED isolation already hides the
// uncommitted rows from concurrent readers.
func (s *PostgresStore) PutBatch(ctx context.Context, rows []Row) (BatchOutcome, error) {
	if len(rows) == 0 {
		return BatchOutcome{}, nil
	}

	var out BatchOutcome
	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertCallSQL)
		if err != nil {
			return fmt.Errorf("prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, r := range rows {
			inserted, err := upsertCall(ctx, stmt, r)
			if err != nil {
				return fmt.Errorf("upsert call %s: %w", r.ID, err)
			}
			if inserted {
				out.Inserted++
			} else {
				out.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return BatchOutcome{}, err
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Record, error) {
	row, err := scanCall(s.db.QueryRowContext(ctx, selectCallsSQL+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return DecodeRow(row)
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]Record, error) {
	return s.query(ctx, selectCallsSQL+` ORDER BY created_at DESC, id ASC`)
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status string) ([]Record, error) {
	return s.query(ctx, selectCallsSQL+` WHERE status = $1 ORDER BY created_at DESC, id ASC`, status)
}

func (s *PostgresStore) query(ctx context.Context, q string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		row, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		rec, err := DecodeRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

const upsertCallSQL = `
INSERT INTO calls (
  id, org_id, phone_number_id, type, status, ended_reason, transcript,
  recording_url, stereo_recording_url, summary, created_at, updated_at,
  started_at, ended_at, cost, duration, customer_number, customer_name,
  metadata, analysis, cost_breakdown, synced_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22
)
ON CONFLICT (id) DO UPDATE SET
  org_id               = EXCLUDED.org_id,
  phone_number_id      = EXCLUDED.phone_number_id,
  type                 = EXCLUDED.type,
  status               = EXCLUDED.status,
  ended_reason         = EXCLUDED.ended_reason,
  transcript           = EXCLUDED.transcript,
  recording_url        = EXCLUDED.recording_url,
  stereo_recording_url = EXCLUDED.stereo_recording_url,
  summary              = EXCLUDED.summary,
  updated_at           = EXCLUDED.updated_at,
  started_at           = EXCLUDED.started_at,
  ended_at             = EXCLUDED.ended_at,
  cost                 = EXCLUDED.cost,
  duration             = EXCLUDED.duration,
  customer_number      = EXCLUDED.customer_number,
  customer_name        = EXCLUDED.customer_name,
  metadata             = EXCLUDED.metadata,
  analysis             = EXCLUDED.analysis,
  cost_breakdown       = EXCLUDED.cost_breakdown,
  synced_at            = EXCLUDED.synced_at
RETURNING (xmax = 0) AS inserted
`

const selectCallsSQL = `
SELECT id, org_id, phone_number_id, type, status, ended_reason, transcript,
       recording_url, stereo_recording_url, summary, created_at, updated_at,
       started_at, ended_at, cost, duration, customer_number, customer_name,
       metadata, analysis, cost_breakdown, synced_at
FROM calls`

func upsertCall(ctx context.Context, stmt *sql.Stmt, r Row) (inserted bool, err error) {
	err = stmt.QueryRowContext(ctx,
		r.ID,
		r.OrgID,
		nullString(r.PhoneNumberID),
		string(r.Type),
		r.Status,
		nullString(r.EndedReason),
		nullString(r.Transcript),
		nullString(r.RecordingURL),
		nullString(r.StereoRecordingURL),
		nullString(r.Summary),
		r.CreatedAt,
		r.UpdatedAt,
		nullTime(r.StartedAt),
		nullTime(r.EndedAt),
		r.Cost,
		r.Duration,
		nullString(r.CustomerNumber),
		nullString(r.CustomerName),
		nullJSON(r.Metadata),
		nullJSON(r.Analysis),
		nullJSON(r.CostBreakdown),
		r.SyncedAt,
	).Scan(&inserted)
	return inserted, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCall(s rowScanner) (Row, error) {
	var (
		r                                                    Row
		typ                                                  string
		phoneNumberID, endedReason, transcript, recordingURL sql.NullString
		stereoURL, summary, customerNumber, customerName     sql.NullString
		startedAt, endedAt                                   sql.NullTime
	)
	if err := s.Scan(
		&r.ID,
		&r.OrgID,
		&phoneNumberID,
		&typ,
		&r.Status,
		&endedReason,
		&transcript,
		&recordingURL,
		&stereoURL,
		&summary,
		&r.CreatedAt,
		&r.UpdatedAt,
		&startedAt,
		&endedAt,
		&r.Cost,
		&r.Duration,
		&customerNumber,
		&customerName,
		&r.Metadata,
		&r.Analysis,
		&r.CostBreakdown,
		&r.SyncedAt,
	); err != nil {
		return Row{}, err
	}
	r.Type = CallType(typ)
	r.PhoneNumberID = phoneNumberID.String
	r.EndedReason = endedReason.String
	r.Transcript = transcript.String
	r.RecordingURL = recordingURL.String
	r.StereoRecordingURL = stereoURL.String
	r.Summary = summary.String
	r.CustomerNumber = customerNumber.String
	r.CustomerName = customerName.String
	r.StartedAt = timePtr(startedAt)
	r.EndedAt = timePtr(endedAt)
	return r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
