// Package store implements the local durable store: a per-kind snapshot
// cache of remote records plus the ordered outbox of pending mutations.
// Everything is backed by the on-device SQLite database; failures are
// storage failures and propagate to the caller unretried.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/halaqahq/halaqa/internal/entity"
)

var ErrNotFound = errors.New("record not found")

type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS records (
	kind TEXT NOT NULL,
	id   TEXT NOT NULL,
	pos  INTEGER NOT NULL,
	data TEXT NOT NULL,
	PRIMARY KEY (kind, id)
);

CREATE TABLE IF NOT EXISTS pending_mutations (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	op          TEXT NOT NULL,
	kind        TEXT NOT NULL,
	payload     TEXT NOT NULL,
	enqueued_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pending_enqueued_at ON pending_mutations (enqueued_at);
`

func New(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrating local store: %w", err)
	}

	return &Store{db: db}, nil
}

// Record is one cached entity as stored: its id plus the JSON document.
type Record struct {
	ID   uuid.UUID
	Data json.RawMessage
}

// Cache replaces the whole cached snapshot for kind. Clear-then-insert in a
// single transaction, so readers always see one complete snapshot. The
// stored position preserves the listing order of the fetch.
func (s *Store) Cache(ctx context.Context, kind entity.Kind, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("caching %s: %w", kind, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE kind = ?`, kind); err != nil {
		return fmt.Errorf("caching %s: %w", kind, err)
	}

	for i, rec := range records {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO records (kind, id, pos, data) VALUES (?, ?, ?, ?)`,
			kind, rec.ID.String(), i, string(rec.Data),
		)
		if err != nil {
			return fmt.Errorf("caching %s: %w", kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("caching %s: %w", kind, err)
	}

	return nil
}

// GetCached returns the last cached snapshot for kind in its original order,
// or an empty slice if the kind was never cached.
func (s *Store) GetCached(ctx context.Context, kind entity.Kind) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM records WHERE kind = ? ORDER BY pos ASC`, kind)
	if err != nil {
		return nil, fmt.Errorf("reading cached %s: %w", kind, err)
	}
	defer rows.Close()

	out := []json.RawMessage{}

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning cached %s: %w", kind, err)
		}

		out = append(out, json.RawMessage(data))
	}

	return out, rows.Err()
}

func (s *Store) GetCachedItem(ctx context.Context, kind entity.Kind, id uuid.UUID) (json.RawMessage, error) {
	var data string

	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM records WHERE kind = ? AND id = ?`, kind, id.String(),
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("reading cached %s %s: %w", kind, id, err)
	}

	return json.RawMessage(data), nil
}

// Put upserts a single record into the cached snapshot, keeping its position
// if it already exists and appending otherwise.
func (s *Store) Put(ctx context.Context, kind entity.Kind, rec Record) error {
	return s.put(ctx, s.db, kind, rec)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) put(ctx context.Context, db execer, kind entity.Kind, rec Record) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO records (kind, id, pos, data)
		VALUES (?, ?, (SELECT COALESCE(MAX(pos) + 1, 0) FROM records WHERE kind = ?), ?)
		ON CONFLICT (kind, id) DO UPDATE SET data = excluded.data`,
		kind, rec.ID.String(), kind, string(rec.Data),
	)
	if err != nil {
		return fmt.Errorf("putting %s %s: %w", kind, rec.ID, err)
	}

	return nil
}

// DeleteCached removes one record from the cached snapshot.
func (s *Store) DeleteCached(ctx context.Context, kind entity.Kind, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE kind = ? AND id = ?`, kind, id.String()); err != nil {
		return fmt.Errorf("deleting cached %s %s: %w", kind, id, err)
	}

	return nil
}

// Enqueue appends a mutation to the outbox with a fresh id and timestamp.
func (s *Store) Enqueue(ctx context.Context, op entity.MutationOp, kind entity.Kind, payload json.RawMessage) (entity.Mutation, error) {
	m := entity.Mutation{
		ID:         uuid.New(),
		Op:         op,
		Kind:       kind,
		Payload:    payload,
		EnqueuedAt: time.Now(),
	}

	if err := s.enqueue(ctx, s.db, m); err != nil {
		return entity.Mutation{}, err
	}

	return m, nil
}

func (s *Store) enqueue(ctx context.Context, db execer, m entity.Mutation) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO pending_mutations (id, op, kind, payload, enqueued_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID.String(), m.Op, m.Kind, string(m.Payload), m.EnqueuedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("enqueueing %s %s: %w", m.Op, m.Kind, err)
	}

	return nil
}

// ListPending returns the outbox in enqueue order.
func (s *Store) ListPending(ctx context.Context) ([]entity.Mutation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, op, kind, payload, enqueued_at
		FROM pending_mutations
		ORDER BY enqueued_at ASC, seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing pending mutations: %w", err)
	}
	defer rows.Close()

	var out []entity.Mutation

	for rows.Next() {
		var (
			m       entity.Mutation
			id      string
			payload string
			ts      int64
		)

		if err := rows.Scan(&id, &m.Op, &m.Kind, &payload, &ts); err != nil {
			return nil, fmt.Errorf("scanning pending mutation: %w", err)
		}

		m.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("scanning pending mutation: %w", err)
		}

		m.Payload = json.RawMessage(payload)
		m.EnqueuedAt = time.UnixMilli(ts)

		out = append(out, m)
	}

	return out, rows.Err()
}

// Dequeue removes one mutation from the outbox.
func (s *Store) Dequeue(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM pending_mutations WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("dequeueing mutation %s: %w", id, err)
	}

	return nil
}

// ClearPending empties the outbox. Administrative use.
func (s *Store) ClearPending(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_mutations`); err != nil {
		return fmt.Errorf("clearing pending mutations: %w", err)
	}

	return nil
}

func (s *Store) PendingCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pending_mutations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting pending mutations: %w", err)
	}

	return n, nil
}

// SaveOfflineFirst is the optimistic write path: the record lands in the
// cached snapshot and a mutation is appended to the outbox in the same
// transaction, so the two never diverge.
func (s *Store) SaveOfflineFirst(ctx context.Context, kind entity.Kind, rec Record, op entity.MutationOp) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving %s %s: %w", kind, rec.ID, err)
	}
	defer tx.Rollback()

	if err := s.put(ctx, tx, kind, rec); err != nil {
		return err
	}

	m := entity.Mutation{
		ID:         uuid.New(),
		Op:         op,
		Kind:       kind,
		Payload:    rec.Data,
		EnqueuedAt: time.Now(),
	}

	if err := s.enqueue(ctx, tx, m); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("saving %s %s: %w", kind, rec.ID, err)
	}

	return nil
}
