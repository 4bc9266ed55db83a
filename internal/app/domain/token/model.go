// Package token holds the persisted record shapes for the token ledger.
package token

import "time"

// EventRecord is a journaled ledger notification. Addresses are empty strings
// for the null identity; Amount is a decimal string, empty for events that
// carry no amount.
type EventRecord struct {
	ID        string    `json:"id"`
	Sequence  int64     `json:"sequence"`
	Type      string    `json:"type"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Owner     string    `json:"owner,omitempty"`
	Spender   string    `json:"spender,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	URI       string    `json:"uri,omitempty"`
	By        string    `json:"by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
