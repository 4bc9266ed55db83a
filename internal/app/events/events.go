// Package events delivers journaled ledger notifications to external
// consumers.
package events

import (
	"context"
	"sync"

	tokendomain "github.com/R3E-Network/ledger_layer/internal/app/domain/token"
)

// Publisher delivers ledger event records to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, ev tokendomain.EventRecord) error
}

// Broadcaster is an in-memory publisher fanning events out to subscribers.
// Slow subscribers have events dropped rather than blocking the ledger's
// write path.
type Broadcaster struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan tokendomain.EventRecord
}

var _ Publisher = (*Broadcaster)(nil)

// NewBroadcaster creates a broadcaster with no subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan tokendomain.EventRecord)}
}

// Publish fans the event out to all current subscribers.
func (b *Broadcaster) Publish(_ context.Context, ev tokendomain.EventRecord) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribe registers a buffered subscription and returns the channel plus a
// cancel function. The channel is closed on cancel.
func (b *Broadcaster) Subscribe(buffer int) (<-chan tokendomain.EventRecord, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan tokendomain.EventRecord, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}
