package events

import (
	"context"
	"testing"

	tokendomain "github.com/R3E-Network/ledger_layer/internal/app/domain/token"
)

func TestBroadcasterFanOut(t *testing.T) {
	b := NewBroadcaster()
	ch1, cancel1 := b.Subscribe(2)
	ch2, cancel2 := b.Subscribe(2)
	defer cancel2()

	if err := b.Publish(context.Background(), tokendomain.EventRecord{Type: "transfer"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	for i, ch := range []<-chan tokendomain.EventRecord{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Type != "transfer" {
				t.Fatalf("subscriber %d got %+v", i, ev)
			}
		default:
			t.Fatalf("subscriber %d received nothing", i)
		}
	}

	cancel1()
	if _, ok := <-ch1; ok {
		t.Fatal("cancelled subscription should be closed")
	}
	// Publishing after a cancel must not panic or block.
	if err := b.Publish(context.Background(), tokendomain.EventRecord{Type: "approval"}); err != nil {
		t.Fatalf("publish after cancel: %v", err)
	}
}

func TestBroadcasterDropsWhenFull(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe(1)
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := b.Publish(context.Background(), tokendomain.EventRecord{Amount: "1"}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	// Exactly one buffered event; the rest were dropped, not blocked on.
	<-ch
	select {
	case <-ch:
		t.Fatal("expected only one buffered event")
	default:
	}
}
