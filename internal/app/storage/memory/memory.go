package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	tokendomain "github.com/R3E-Network/ledger_layer/internal/app/domain/token"
	"github.com/R3E-Network/ledger_layer/internal/app/storage"
	"github.com/R3E-Network/ledger_layer/internal/token"
)

const defaultEventLimit = 100

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local
// development.
type Store struct {
	mu       sync.RWMutex
	snapshot *token.Snapshot
	nextSeq  int64
	events   []tokendomain.EventRecord
}

var _ storage.LedgerStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{nextSeq: 1}
}

func (s *Store) SaveSnapshot(_ context.Context, snap token.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := cloneSnapshot(snap)
	s.snapshot = &clone
	return nil
}

func (s *Store) LoadSnapshot(_ context.Context) (token.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return token.Snapshot{}, false, nil
	}
	return cloneSnapshot(*s.snapshot), true, nil
}

func (s *Store) AppendEvent(_ context.Context, ev tokendomain.EventRecord) (tokendomain.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	ev.Sequence = s.nextSeq
	s.nextSeq++
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	s.events = append(s.events, ev)
	return ev, nil
}

func (s *Store) ListEvents(_ context.Context, limit int) ([]tokendomain.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = defaultEventLimit
	}
	if limit > len(s.events) {
		limit = len(s.events)
	}

	out := make([]tokendomain.EventRecord, 0, limit)
	for i := len(s.events) - 1; i >= len(s.events)-limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

func cloneSnapshot(snap token.Snapshot) token.Snapshot {
	out := snap
	out.Balances = make(map[string]string, len(snap.Balances))
	for k, v := range snap.Balances {
		out.Balances[k] = v
	}
	if snap.Allowances != nil {
		out.Allowances = make(map[string]map[string]string, len(snap.Allowances))
		for owner, inner := range snap.Allowances {
			m := make(map[string]string, len(inner))
			for spender, v := range inner {
				m[spender] = v
			}
			out.Allowances[owner] = m
		}
	}
	return out
}
