// Package postgres implements the ledger store backed by PostgreSQL. The
// snapshot lives in a single-row table as jsonb; events are journaled in an
// append-only table ordered by a sequence column.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	tokendomain "github.com/R3E-Network/ledger_layer/internal/app/domain/token"
	"github.com/R3E-Network/ledger_layer/internal/app/storage"
	"github.com/R3E-Network/ledger_layer/internal/token"
)

// Store implements storage.LedgerStore backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.LedgerStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the ledger tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_snapshots (
			id         smallint PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			payload    jsonb NOT NULL,
			updated_at timestamptz NOT NULL
		);
		CREATE TABLE IF NOT EXISTS ledger_events (
			seq        bigserial PRIMARY KEY,
			id         uuid NOT NULL UNIQUE,
			type       text NOT NULL,
			from_addr  text NOT NULL DEFAULT '',
			to_addr    text NOT NULL DEFAULT '',
			owner_addr text NOT NULL DEFAULT '',
			spender    text NOT NULL DEFAULT '',
			amount     text NOT NULL DEFAULT '',
			uri        text NOT NULL DEFAULT '',
			updated_by text NOT NULL DEFAULT '',
			created_at timestamptz NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

func (s *Store) SaveSnapshot(ctx context.Context, snap token.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ledger_snapshots (id, payload, updated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET payload = $1, updated_at = $2
	`, payload, time.Now().UTC())
	return err
}

func (s *Store) LoadSnapshot(ctx context.Context) (token.Snapshot, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM ledger_snapshots WHERE id = 1
	`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return token.Snapshot{}, false, nil
	}
	if err != nil {
		return token.Snapshot{}, false, err
	}

	var snap token.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return token.Snapshot{}, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, true, nil
}

func (s *Store) AppendEvent(ctx context.Context, ev tokendomain.EventRecord) (tokendomain.EventRecord, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO ledger_events (id, type, from_addr, to_addr, owner_addr, spender, amount, uri, updated_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING seq
	`, ev.ID, ev.Type, ev.From, ev.To, ev.Owner, ev.Spender, ev.Amount, ev.URI, ev.By, ev.CreatedAt).Scan(&ev.Sequence)
	if err != nil {
		return tokendomain.EventRecord{}, err
	}
	return ev, nil
}

func (s *Store) ListEvents(ctx context.Context, limit int) ([]tokendomain.EventRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, type, from_addr, to_addr, owner_addr, spender, amount, uri, updated_by, created_at
		FROM ledger_events
		ORDER BY seq DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tokendomain.EventRecord
	for rows.Next() {
		var ev tokendomain.EventRecord
		if err := rows.Scan(&ev.Sequence, &ev.ID, &ev.Type, &ev.From, &ev.To,
			&ev.Owner, &ev.Spender, &ev.Amount, &ev.URI, &ev.By, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
