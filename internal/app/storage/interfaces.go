package storage

import (
	"context"

	tokendomain "github.com/R3E-Network/ledger_layer/internal/app/domain/token"
	"github.com/R3E-Network/ledger_layer/internal/token"
)

// LedgerStore persists ledger state snapshots and the append-only event
// journal.
type LedgerStore interface {
	// SaveSnapshot replaces the stored ledger snapshot.
	SaveSnapshot(ctx context.Context, snap token.Snapshot) error
	// LoadSnapshot returns the stored snapshot; the bool is false when no
	// snapshot has been saved yet.
	LoadSnapshot(ctx context.Context) (token.Snapshot, bool, error)

	// AppendEvent journals an event, assigning its ID, sequence number and
	// timestamp when unset, and returns the stored record.
	AppendEvent(ctx context.Context, ev tokendomain.EventRecord) (tokendomain.EventRecord, error)
	// ListEvents returns the most recent events, newest first, capped at
	// limit (<=0 applies a default cap).
	ListEvents(ctx context.Context, limit int) ([]tokendomain.EventRecord, error)
}
