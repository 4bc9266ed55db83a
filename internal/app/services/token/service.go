// Package token wraps the ledger core as an application service: it
// serializes mutations behind a single writer lock, persists snapshots and
// the event journal, and publishes notifications.
package token

import (
	"context"
	"fmt"
	"sync"

	tokendomain "github.com/R3E-Network/ledger_layer/internal/app/domain/token"
	"github.com/R3E-Network/ledger_layer/internal/app/events"
	"github.com/R3E-Network/ledger_layer/internal/app/metrics"
	"github.com/R3E-Network/ledger_layer/internal/app/storage"
	coretoken "github.com/R3E-Network/ledger_layer/internal/token"
	"github.com/R3E-Network/ledger_layer/pkg/logger"
)

// Service owns the ledger state record. The core ledger has no locking of its
// own; every mutation goes through the service's writer lock so concurrent
// API calls observe the same all-or-nothing semantics as a serialized host.
type Service struct {
	mu     sync.RWMutex
	ledger *coretoken.Ledger
	store  storage.LedgerStore
	pub    events.Publisher
	log    *logger.Logger
}

// Info is the read-only token descriptor.
type Info struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	TotalSupply string `json:"total_supply"`
	MaxSupply   string `json:"max_supply"`
	Owner       string `json:"owner"`
	Paused      bool   `json:"paused"`
	AssetInfo   string `json:"asset_info"`
}

// New wraps an existing ledger.
func New(ledger *coretoken.Ledger, store storage.LedgerStore, pub events.Publisher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("token")
	}
	return &Service{ledger: ledger, store: store, pub: pub, log: log}
}

// Load restores the ledger from a stored snapshot, or constructs a fresh one
// from cfg and persists its genesis snapshot when the store is empty.
func Load(ctx context.Context, cfg coretoken.Config, store storage.LedgerStore, pub events.Publisher, log *logger.Logger) (*Service, error) {
	if log == nil {
		log = logger.NewDefault("token")
	}

	snap, found, err := store.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var ledger *coretoken.Ledger
	if found {
		ledger, err = coretoken.Restore(snap)
		if err != nil {
			return nil, fmt.Errorf("restore ledger: %w", err)
		}
		log.WithField("total_supply", ledger.TotalSupply().Dec()).Info("ledger restored from snapshot")
	} else {
		ledger, err = coretoken.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("construct ledger: %w", err)
		}
		if err := store.SaveSnapshot(ctx, ledger.Snapshot()); err != nil {
			return nil, fmt.Errorf("persist genesis snapshot: %w", err)
		}
		log.WithField("symbol", cfg.Symbol).
			WithField("initial_supply", cfg.InitialSupply.Dec()).
			WithField("max_supply", cfg.MaxSupply.Dec()).
			Info("ledger created")
	}

	metrics.SetSupply(ledger.TotalSupply().Dec())
	metrics.SetHalted(ledger.Paused())
	return New(ledger, store, pub, log), nil
}

// Mutating operations ---------------------------------------------------------

// Transfer moves amount from caller to another account.
func (s *Service) Transfer(ctx context.Context, caller, to coretoken.Address, amount *coretoken.Amount) (tokendomain.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := s.ledger.Transfer(caller, to, amount)
	metrics.RecordOperation("transfer", err)
	if err != nil {
		return tokendomain.EventRecord{}, err
	}
	rec := s.commit(ctx, ev)
	s.log.WithField("from", string(caller)).
		WithField("to", string(to)).
		WithField("amount", amount.Dec()).
		Info("transfer applied")
	return rec, nil
}

// Approve overwrites the allowance of spender over the caller's balance.
func (s *Service) Approve(ctx context.Context, caller, spender coretoken.Address, amount *coretoken.Amount) (tokendomain.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := s.ledger.Approve(caller, spender, amount)
	metrics.RecordOperation("approve", err)
	if err != nil {
		return tokendomain.EventRecord{}, err
	}
	rec := s.commit(ctx, ev)
	s.log.WithField("owner", string(caller)).
		WithField("spender", string(spender)).
		WithField("amount", amount.Dec()).
		Info("allowance set")
	return rec, nil
}

// TransferFrom spends a prior approval.
func (s *Service) TransferFrom(ctx context.Context, caller, from, to coretoken.Address, amount *coretoken.Amount) (tokendomain.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := s.ledger.TransferFrom(caller, from, to, amount)
	metrics.RecordOperation("transfer_from", err)
	if err != nil {
		return tokendomain.EventRecord{}, err
	}
	rec := s.commit(ctx, ev)
	s.log.WithField("caller", string(caller)).
		WithField("from", string(from)).
		WithField("to", string(to)).
		WithField("amount", amount.Dec()).
		Info("delegated transfer applied")
	return rec, nil
}

// Mint issues new supply. Owner-only.
func (s *Service) Mint(ctx context.Context, caller, to coretoken.Address, amount *coretoken.Amount) (tokendomain.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := s.ledger.Mint(caller, to, amount)
	metrics.RecordOperation("mint", err)
	if err != nil {
		return tokendomain.EventRecord{}, err
	}
	rec := s.commit(ctx, ev)
	s.log.WithField("to", string(to)).
		WithField("amount", amount.Dec()).
		WithField("total_supply", s.ledger.TotalSupply().Dec()).
		Info("supply minted")
	return rec, nil
}

// Burn destroys supply from the owner's own balance. Owner-only.
func (s *Service) Burn(ctx context.Context, caller coretoken.Address, amount *coretoken.Amount) (tokendomain.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := s.ledger.Burn(caller, amount)
	metrics.RecordOperation("burn", err)
	if err != nil {
		return tokendomain.EventRecord{}, err
	}
	rec := s.commit(ctx, ev)
	s.log.WithField("amount", amount.Dec()).
		WithField("total_supply", s.ledger.TotalSupply().Dec()).
		Info("supply burned")
	return rec, nil
}

// Pause halts gated operations. Owner-only.
func (s *Service) Pause(ctx context.Context, caller coretoken.Address) (tokendomain.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := s.ledger.Pause(caller)
	metrics.RecordOperation("pause", err)
	if err != nil {
		return tokendomain.EventRecord{}, err
	}
	rec := s.commit(ctx, ev)
	s.log.Warn("ledger halted")
	return rec, nil
}

// Unpause restores gated operations. Owner-only.
func (s *Service) Unpause(ctx context.Context, caller coretoken.Address) (tokendomain.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := s.ledger.Unpause(caller)
	metrics.RecordOperation("unpause", err)
	if err != nil {
		return tokendomain.EventRecord{}, err
	}
	rec := s.commit(ctx, ev)
	s.log.Info("ledger resumed")
	return rec, nil
}

// SetAssetInfo overwrites the asset-info pointer. Owner-only, never gated by
// the operational switch.
func (s *Service) SetAssetInfo(ctx context.Context, caller coretoken.Address, uri string) (tokendomain.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := s.ledger.SetAssetInfo(caller, uri)
	metrics.RecordOperation("set_asset_info", err)
	if err != nil {
		return tokendomain.EventRecord{}, err
	}
	rec := s.commit(ctx, ev)
	s.log.WithField("uri", uri).Info("asset info updated")
	return rec, nil
}

// TransferOwnership reassigns the administrative capability.
func (s *Service) TransferOwnership(ctx context.Context, caller, newOwner coretoken.Address) (tokendomain.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := s.ledger.TransferOwnership(caller, newOwner)
	metrics.RecordOperation("transfer_ownership", err)
	if err != nil {
		return tokendomain.EventRecord{}, err
	}
	rec := s.commit(ctx, ev)
	s.log.WithField("new_owner", string(newOwner)).Info("ownership transferred")
	return rec, nil
}

// RenounceOwnership permanently clears the owner. Irreversible.
func (s *Service) RenounceOwnership(ctx context.Context, caller coretoken.Address) (tokendomain.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := s.ledger.RenounceOwnership(caller)
	metrics.RecordOperation("renounce_ownership", err)
	if err != nil {
		return tokendomain.EventRecord{}, err
	}
	rec := s.commit(ctx, ev)
	s.log.Warn("ownership renounced; administrative operations are permanently disabled")
	return rec, nil
}

// Read-only operations ---------------------------------------------------------

// TokenInfo returns the current token descriptor.
func (s *Service) TokenInfo(_ context.Context) Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Info{
		Name:        s.ledger.Name(),
		Symbol:      s.ledger.Symbol(),
		Decimals:    s.ledger.Decimals(),
		TotalSupply: s.ledger.TotalSupply().Dec(),
		MaxSupply:   s.ledger.MaxSupply().Dec(),
		Owner:       string(s.ledger.Owner()),
		Paused:      s.ledger.Paused(),
		AssetInfo:   s.ledger.AssetInfo(),
	}
}

// BalanceOf returns an account balance.
func (s *Service) BalanceOf(_ context.Context, account coretoken.Address) *coretoken.Amount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.BalanceOf(account)
}

// Allowance returns the remaining allowance of spender over owner's balance.
func (s *Service) Allowance(_ context.Context, owner, spender coretoken.Address) *coretoken.Amount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Allowance(owner, spender)
}

// Events returns the most recent journal entries, newest first.
func (s *Service) Events(ctx context.Context, limit int) ([]tokendomain.EventRecord, error) {
	return s.store.ListEvents(ctx, limit)
}

// CheckInvariants verifies the supply invariants against live state.
func (s *Service) CheckInvariants() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.CheckInvariants()
}

// commit persists and publishes the outcome of a successful mutation. The
// in-memory ledger is authoritative; persistence failures are surfaced in the
// logs and the operation still succeeds for the caller.
func (s *Service) commit(ctx context.Context, ev coretoken.Event) tokendomain.EventRecord {
	if err := s.store.SaveSnapshot(ctx, s.ledger.Snapshot()); err != nil {
		s.log.WithError(err).Warn("snapshot persist failed")
	}

	rec := recordFromEvent(ev)
	stored, err := s.store.AppendEvent(ctx, rec)
	if err != nil {
		s.log.WithError(err).Warn("journal append failed")
	} else {
		rec = stored
	}

	if s.pub != nil {
		if err := s.pub.Publish(ctx, rec); err != nil {
			s.log.WithError(err).Warn("event publish failed")
		}
	}

	metrics.SetSupply(s.ledger.TotalSupply().Dec())
	metrics.SetHalted(s.ledger.Paused())
	return rec
}

func recordFromEvent(ev coretoken.Event) tokendomain.EventRecord {
	rec := tokendomain.EventRecord{
		Type:    string(ev.Type),
		From:    string(ev.From),
		To:      string(ev.To),
		Owner:   string(ev.Owner),
		Spender: string(ev.Spender),
		URI:     ev.URI,
		By:      string(ev.By),
	}
	if ev.Amount != nil {
		rec.Amount = ev.Amount.Dec()
	}
	return rec
}
