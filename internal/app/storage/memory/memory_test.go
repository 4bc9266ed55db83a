package memory

import (
	"context"
	"testing"

	tokendomain "github.com/R3E-Network/ledger_layer/internal/app/domain/token"
	"github.com/R3E-Network/ledger_layer/internal/token"
)

func TestSnapshotRoundTrip(t *testing.T) {
	store := New()

	if _, found, err := store.LoadSnapshot(context.Background()); err != nil || found {
		t.Fatalf("empty store: found=%v err=%v", found, err)
	}

	snap := token.Snapshot{
		Symbol:      "SIM",
		TotalSupply: "1000",
		MaxSupply:   "5000",
		Owner:       "NOwner",
		Balances:    map[string]string{"NOwner": "1000"},
	}
	if err := store.SaveSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating the caller's copy must not reach the stored snapshot.
	snap.Balances["NOwner"] = "tampered"

	loaded, found, err := store.LoadSnapshot(context.Background())
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if loaded.Balances["NOwner"] != "1000" {
		t.Fatalf("stored snapshot was mutated: %v", loaded.Balances)
	}
}

func TestEventJournal(t *testing.T) {
	store := New()

	for _, amount := range []string{"1", "2", "3"} {
		if _, err := store.AppendEvent(context.Background(), tokendomain.EventRecord{
			Type:   "transfer",
			Amount: amount,
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	recs, err := store.ListEvents(context.Background(), 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(recs))
	}
	// Newest first.
	if recs[0].Amount != "3" || recs[1].Amount != "2" {
		t.Fatalf("unexpected order %v", recs)
	}
	if recs[0].Sequence <= recs[1].Sequence {
		t.Fatalf("sequence must increase, got %d then %d", recs[1].Sequence, recs[0].Sequence)
	}
	if recs[0].ID == "" || recs[0].CreatedAt.IsZero() {
		t.Fatalf("missing assigned fields %+v", recs[0])
	}

	all, err := store.ListEvents(context.Background(), 0)
	if err != nil {
		t.Fatalf("list default: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected all 3 events with default limit, got %d", len(all))
	}
}
