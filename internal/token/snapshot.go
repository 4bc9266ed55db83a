package token

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Snapshot is the serializable form of the full ledger state. Amounts are
// decimal strings to survive JSON and SQL round-trips without precision loss.
type Snapshot struct {
	Name        string                       `json:"name"`
	Symbol      string                       `json:"symbol"`
	Decimals    uint8                        `json:"decimals"`
	TotalSupply string                       `json:"total_supply"`
	MaxSupply   string                       `json:"max_supply"`
	Owner       string                       `json:"owner"`
	Paused      bool                         `json:"paused"`
	AssetInfo   string                       `json:"asset_info,omitempty"`
	Balances    map[string]string            `json:"balances"`
	Allowances  map[string]map[string]string `json:"allowances,omitempty"`
}

// Snapshot captures the current state for persistence.
func (l *Ledger) Snapshot() Snapshot {
	snap := Snapshot{
		Name:        l.name,
		Symbol:      l.symbol,
		Decimals:    l.decimals,
		TotalSupply: l.totalSupply.Dec(),
		MaxSupply:   l.maxSupply.Dec(),
		Owner:       string(l.owner),
		Paused:      l.paused,
		AssetInfo:   l.assetInfo,
		Balances:    make(map[string]string, len(l.balances)),
	}
	for addr, bal := range l.balances {
		snap.Balances[string(addr)] = bal.Dec()
	}
	if len(l.allowances) > 0 {
		snap.Allowances = make(map[string]map[string]string, len(l.allowances))
		for owner, inner := range l.allowances {
			m := make(map[string]string, len(inner))
			for spender, a := range inner {
				m[string(spender)] = a.Dec()
			}
			snap.Allowances[string(owner)] = m
		}
	}
	return snap
}

// Restore rebuilds a ledger from a snapshot. Note that a restored ledger may
// legitimately have a zero owner if ownership was renounced before the
// snapshot was taken.
func Restore(snap Snapshot) (*Ledger, error) {
	total, err := uint256.FromDecimal(snap.TotalSupply)
	if err != nil {
		return nil, fmt.Errorf("token: restore total supply: %w", err)
	}
	max, err := uint256.FromDecimal(snap.MaxSupply)
	if err != nil {
		return nil, fmt.Errorf("token: restore max supply: %w", err)
	}
	if total.Gt(max) {
		return nil, fmt.Errorf("token: snapshot total supply %s over cap %s", snap.TotalSupply, snap.MaxSupply)
	}

	l := &Ledger{
		name:        snap.Name,
		symbol:      snap.Symbol,
		decimals:    snap.Decimals,
		totalSupply: total,
		maxSupply:   max,
		balances:    make(map[Address]*Amount, len(snap.Balances)),
		allowances:  make(map[Address]map[Address]*Amount, len(snap.Allowances)),
		owner:       Address(snap.Owner),
		paused:      snap.Paused,
		assetInfo:   snap.AssetInfo,
	}
	for addr, dec := range snap.Balances {
		bal, err := uint256.FromDecimal(dec)
		if err != nil {
			return nil, fmt.Errorf("token: restore balance of %s: %w", addr, err)
		}
		if !bal.IsZero() {
			l.balances[Address(addr)] = bal
		}
	}
	for owner, inner := range snap.Allowances {
		m := make(map[Address]*Amount, len(inner))
		for spender, dec := range inner {
			a, err := uint256.FromDecimal(dec)
			if err != nil {
				return nil, fmt.Errorf("token: restore allowance %s/%s: %w", owner, spender, err)
			}
			m[Address(spender)] = a
		}
		l.allowances[Address(owner)] = m
	}
	if err := l.CheckInvariants(); err != nil {
		return nil, err
	}
	return l, nil
}
