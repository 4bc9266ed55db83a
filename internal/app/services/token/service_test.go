package token

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"github.com/R3E-Network/ledger_layer/internal/app/events"
	"github.com/R3E-Network/ledger_layer/internal/app/storage/memory"
	coretoken "github.com/R3E-Network/ledger_layer/internal/token"
)

const (
	owner coretoken.Address = "NOwner000000000000000000000000000000"
	buyer coretoken.Address = "NBuyer000000000000000000000000000000"
)

func amt(v uint64) *coretoken.Amount { return uint256.NewInt(v) }

func testConfig() coretoken.Config {
	return coretoken.Config{
		Name:          "Simulated Asset",
		Symbol:        "SIM",
		Decimals:      8,
		InitialSupply: amt(1000),
		MaxSupply:     amt(5000),
		Owner:         owner,
	}
}

func TestLoadCreatesAndRestores(t *testing.T) {
	store := memory.New()

	svc, err := Load(context.Background(), testConfig(), store, nil, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := svc.Transfer(context.Background(), owner, buyer, amt(250)); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	// A second Load against the same store must pick up the snapshot, not
	// re-run genesis.
	restored, err := Load(context.Background(), testConfig(), store, nil, nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := restored.BalanceOf(context.Background(), buyer); !got.Eq(amt(250)) {
		t.Fatalf("restored buyer balance = %s, want 250", got.Dec())
	}
	if got := restored.TokenInfo(context.Background()).TotalSupply; got != "1000" {
		t.Fatalf("restored total supply = %s, want 1000", got)
	}
}

func TestMutationsAreJournaled(t *testing.T) {
	store := memory.New()
	svc, err := Load(context.Background(), testConfig(), store, nil, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if _, err := svc.Transfer(context.Background(), owner, buyer, amt(10)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if _, err := svc.Approve(context.Background(), owner, buyer, amt(50)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.Mint(context.Background(), owner, buyer, amt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	recs, err := svc.Events(context.Background(), 10)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 journal entries, got %d", len(recs))
	}
	// Newest first.
	if recs[0].Type != "transfer" || recs[0].From != "" {
		t.Fatalf("mint journal entry should be a transfer from the null identity, got %+v", recs[0])
	}
	if recs[1].Type != "approval" || recs[1].Amount != "50" {
		t.Fatalf("unexpected approval entry %+v", recs[1])
	}
	for _, rec := range recs {
		if rec.ID == "" || rec.Sequence == 0 || rec.CreatedAt.IsZero() {
			t.Fatalf("journal entry missing identity fields: %+v", rec)
		}
	}
}

func TestFailedOperationLeavesNoTrace(t *testing.T) {
	store := memory.New()
	svc, err := Load(context.Background(), testConfig(), store, nil, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if _, err := svc.Mint(context.Background(), buyer, buyer, amt(1)); !errors.Is(err, coretoken.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if _, err := svc.Transfer(context.Background(), buyer, owner, amt(1)); !errors.Is(err, coretoken.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	recs, err := svc.Events(context.Background(), 10)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("failed operations must not be journaled, got %d entries", len(recs))
	}
	if err := svc.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func TestPauseScenario(t *testing.T) {
	store := memory.New()
	svc, err := Load(context.Background(), testConfig(), store, nil, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if _, err := svc.Pause(context.Background(), owner); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := svc.Transfer(context.Background(), owner, buyer, amt(1)); !errors.Is(err, coretoken.ErrHalted) {
		t.Fatalf("expected ErrHalted, got %v", err)
	}
	// Metadata updates stay available while halted.
	if _, err := svc.SetAssetInfo(context.Background(), owner, "ipfs://QmX"); err != nil {
		t.Fatalf("setAssetInfo while halted: %v", err)
	}

	// The halted flag survives a reload.
	restored, err := Load(context.Background(), testConfig(), store, nil, nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !restored.TokenInfo(context.Background()).Paused {
		t.Fatal("restored ledger should still be halted")
	}

	if _, err := svc.Unpause(context.Background(), owner); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if _, err := svc.Transfer(context.Background(), owner, buyer, amt(1)); err != nil {
		t.Fatalf("transfer after unpause: %v", err)
	}
}

func TestEventsArePublished(t *testing.T) {
	store := memory.New()
	broadcaster := events.NewBroadcaster()
	ch, cancel := broadcaster.Subscribe(4)
	defer cancel()

	svc, err := Load(context.Background(), testConfig(), store, broadcaster, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := svc.Transfer(context.Background(), owner, buyer, amt(42)); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Type != "transfer" || ev.Amount != "42" {
			t.Fatalf("unexpected published event %+v", ev)
		}
	default:
		t.Fatal("expected a published event")
	}
}

func TestAuditor(t *testing.T) {
	store := memory.New()
	svc, err := Load(context.Background(), testConfig(), store, nil, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	auditor, err := NewAuditor(svc, "@every 1m", nil)
	if err != nil {
		t.Fatalf("new auditor: %v", err)
	}
	auditor.RunOnce() // must not panic or log an error for a healthy ledger

	if _, err := NewAuditor(svc, "not a schedule", nil); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}
