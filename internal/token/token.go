// Package token implements the fungible-token ledger core: balance and
// allowance accounting, supply governance under a hard cap, a pausable
// operational switch, and single-owner access control.
//
// A Ledger is a plain state record with no locking of its own. The host
// execution model is assumed to serialize mutating operations; callers in a
// concurrent setting (the service layer) must hold a single writer lock
// around every mutating call. Every operation validates fully before touching
// state, so a failed call leaves the ledger exactly as it was.
package token

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Address identifies an account. It is opaque to the ledger. The zero value
// is the null identity: it is rejected as a transfer or approval target and
// appears in Transfer events to mark issuance and destruction.
type Address string

// ZeroAddress is the null identity.
const ZeroAddress Address = ""

// IsZero reports whether the address is the null identity.
func (a Address) IsZero() bool { return a == ZeroAddress }

// Amount is a 256-bit unsigned token quantity.
type Amount = uint256.Int

// Unlimited returns the sentinel allowance that is never decremented by
// TransferFrom.
func Unlimited() *Amount {
	u := new(uint256.Int)
	u.SetAllOne()
	return u
}

// Config holds the construction parameters of a ledger.
type Config struct {
	Name          string
	Symbol        string
	Decimals      uint8
	InitialSupply *Amount
	MaxSupply     *Amount
	Owner         Address // creator; receives the initial supply
}

// Ledger is the token state record. MaxSupply is fixed at construction and
// never mutated afterward.
type Ledger struct {
	name     string
	symbol   string
	decimals uint8

	maxSupply   *Amount
	totalSupply *Amount
	balances    map[Address]*Amount
	allowances  map[Address]map[Address]*Amount

	owner     Address
	paused    bool
	assetInfo string
}

// New constructs a ledger, crediting the initial supply to the owner. It
// fails if the owner is the null identity or the initial supply exceeds the
// max supply.
func New(cfg Config) (*Ledger, error) {
	if cfg.Owner.IsZero() {
		return nil, fmt.Errorf("%w: owner", ErrZeroAddress)
	}
	if cfg.InitialSupply == nil || cfg.MaxSupply == nil {
		return nil, fmt.Errorf("%w: initial and max supply", ErrNilAmount)
	}
	if cfg.InitialSupply.Gt(cfg.MaxSupply) {
		return nil, fmt.Errorf("token: initial supply %s exceeds max supply %s",
			cfg.InitialSupply.Dec(), cfg.MaxSupply.Dec())
	}

	l := &Ledger{
		name:        cfg.Name,
		symbol:      cfg.Symbol,
		decimals:    cfg.Decimals,
		maxSupply:   cfg.MaxSupply.Clone(),
		totalSupply: cfg.InitialSupply.Clone(),
		balances:    make(map[Address]*Amount),
		allowances:  make(map[Address]map[Address]*Amount),
		owner:       cfg.Owner,
	}
	if !cfg.InitialSupply.IsZero() {
		l.balances[cfg.Owner] = cfg.InitialSupply.Clone()
	}
	return l, nil
}

// Read-only accessors ---------------------------------------------------------

func (l *Ledger) Name() string      { return l.name }
func (l *Ledger) Symbol() string    { return l.symbol }
func (l *Ledger) Decimals() uint8   { return l.decimals }
func (l *Ledger) Owner() Address    { return l.owner }
func (l *Ledger) Paused() bool      { return l.paused }
func (l *Ledger) AssetInfo() string { return l.assetInfo }

// TotalSupply returns the current total supply.
func (l *Ledger) TotalSupply() *Amount { return l.totalSupply.Clone() }

// MaxSupply returns the immutable supply cap.
func (l *Ledger) MaxSupply() *Amount { return l.maxSupply.Clone() }

// BalanceOf returns the balance of an account. Unknown accounts hold zero.
func (l *Ledger) BalanceOf(account Address) *Amount {
	if bal, ok := l.balances[account]; ok {
		return bal.Clone()
	}
	return new(uint256.Int)
}

// Allowance returns how much spender may still move from owner's balance.
func (l *Ledger) Allowance(owner, spender Address) *Amount {
	if inner, ok := l.allowances[owner]; ok {
		if a, ok := inner[spender]; ok {
			return a.Clone()
		}
	}
	return new(uint256.Int)
}

// Guards ----------------------------------------------------------------------

// requireOwner gates administrative operations. Once ownership is renounced
// the owner is the null identity and this fails for every caller.
func (l *Ledger) requireOwner(caller Address) error {
	if l.owner.IsZero() || caller != l.owner {
		return ErrNotOwner
	}
	return nil
}

func (l *Ledger) requireActive() error {
	if l.paused {
		return ErrHalted
	}
	return nil
}

// move is the shared credit/debit primitive behind every balance mutation.
// A zero from marks issuance, a zero to marks destruction. The operational
// switch is consulted here, so transfer, mint and burn paths are all gated
// through the same branch. Both legs are validated before either mutates.
func (l *Ledger) move(from, to Address, amount *Amount) error {
	if amount == nil {
		return ErrNilAmount
	}
	if err := l.requireActive(); err != nil {
		return err
	}
	if !from.IsZero() {
		bal := l.balances[from]
		if bal == nil || bal.Lt(amount) {
			return fmt.Errorf("%w: have %s, need %s",
				ErrInsufficientBalance, l.BalanceOf(from).Dec(), amount.Dec())
		}
	}
	if !from.IsZero() {
		l.debit(from, amount)
	}
	if !to.IsZero() {
		l.credit(to, amount)
	}
	return nil
}

func (l *Ledger) credit(account Address, amount *Amount) {
	bal, ok := l.balances[account]
	if !ok {
		bal = new(uint256.Int)
		l.balances[account] = bal
	}
	bal.Add(bal, amount)
}

func (l *Ledger) debit(account Address, amount *Amount) {
	bal := l.balances[account]
	bal.Sub(bal, amount)
	if bal.IsZero() {
		delete(l.balances, account)
	}
}

// Ledger operations -----------------------------------------------------------

// Transfer moves amount from the caller to another account.
func (l *Ledger) Transfer(caller, to Address, amount *Amount) (Event, error) {
	if to.IsZero() {
		return Event{}, fmt.Errorf("%w: transfer target", ErrZeroAddress)
	}
	if err := l.move(caller, to, amount); err != nil {
		return Event{}, err
	}
	return Event{Type: EventTransfer, From: caller, To: to, Amount: amount.Clone()}, nil
}

// Approve sets (overwrites, never adds to) the allowance of spender over the
// caller's balance. The overwrite admits the well-known allowance race across
// concurrent approvals; callers wanting safety should set to zero first.
func (l *Ledger) Approve(caller, spender Address, amount *Amount) (Event, error) {
	if err := l.requireActive(); err != nil {
		return Event{}, err
	}
	if spender.IsZero() {
		return Event{}, fmt.Errorf("%w: spender", ErrZeroAddress)
	}
	if amount == nil {
		return Event{}, ErrNilAmount
	}

	inner, ok := l.allowances[caller]
	if !ok {
		inner = make(map[Address]*Amount)
		l.allowances[caller] = inner
	}
	inner[spender] = amount.Clone()
	return Event{Type: EventApproval, Owner: caller, Spender: spender, Amount: amount.Clone()}, nil
}

// TransferFrom moves amount from the from account to another account on the
// strength of a prior approval. The operational switch is consulted before the
// allowance, so a halted ledger rejects regardless of what was granted. The
// allowance is decremented unless it is the Unlimited sentinel, and only after
// both balance legs succeed.
func (l *Ledger) TransferFrom(caller, from, to Address, amount *Amount) (Event, error) {
	if err := l.requireActive(); err != nil {
		return Event{}, err
	}
	if to.IsZero() {
		return Event{}, fmt.Errorf("%w: transfer target", ErrZeroAddress)
	}
	if amount == nil {
		return Event{}, ErrNilAmount
	}

	var granted *Amount
	if inner, ok := l.allowances[from]; ok {
		granted = inner[caller]
	}
	unlimited := granted != nil && granted.Eq(Unlimited())
	if !unlimited && (granted == nil || granted.Lt(amount)) {
		have := new(uint256.Int)
		if granted != nil {
			have = granted
		}
		return Event{}, fmt.Errorf("%w: have %s, need %s",
			ErrInsufficientAllowance, have.Dec(), amount.Dec())
	}

	if err := l.move(from, to, amount); err != nil {
		return Event{}, err
	}
	if !unlimited {
		granted.Sub(granted, amount)
	}
	return Event{Type: EventTransfer, From: from, To: to, Amount: amount.Clone()}, nil
}

// Supply governance -----------------------------------------------------------

// Mint issues new supply to an account. Owner-only. The cap is checked before
// any mutation; an issuance that would exceed it is rejected, never clamped.
func (l *Ledger) Mint(caller, to Address, amount *Amount) (Event, error) {
	if err := l.requireOwner(caller); err != nil {
		return Event{}, err
	}
	if err := l.requireActive(); err != nil {
		return Event{}, err
	}
	if to.IsZero() {
		return Event{}, fmt.Errorf("%w: mint target", ErrZeroAddress)
	}
	if amount == nil {
		return Event{}, ErrNilAmount
	}

	newTotal, overflow := new(uint256.Int).AddOverflow(l.totalSupply, amount)
	if overflow || newTotal.Gt(l.maxSupply) {
		return Event{}, fmt.Errorf("%w: total %s + %s over cap %s",
			ErrSupplyCapExceeded, l.totalSupply.Dec(), amount.Dec(), l.maxSupply.Dec())
	}
	if err := l.move(ZeroAddress, to, amount); err != nil {
		return Event{}, err
	}
	l.totalSupply = newTotal
	return Event{Type: EventTransfer, From: ZeroAddress, To: to, Amount: amount.Clone()}, nil
}

// Burn destroys supply from the owner's own balance. Owner-only; there is no
// burn-from-other-account capability.
func (l *Ledger) Burn(caller Address, amount *Amount) (Event, error) {
	if err := l.requireOwner(caller); err != nil {
		return Event{}, err
	}
	if err := l.move(caller, ZeroAddress, amount); err != nil {
		return Event{}, err
	}
	l.totalSupply = new(uint256.Int).Sub(l.totalSupply, amount)
	return Event{Type: EventTransfer, From: caller, To: ZeroAddress, Amount: amount.Clone()}, nil
}

// Operational switch ----------------------------------------------------------

// Pause halts transfer, approval, issuance and destruction. Owner-only.
// Pausing an already-halted ledger is an error, not a no-op.
func (l *Ledger) Pause(caller Address) (Event, error) {
	if err := l.requireOwner(caller); err != nil {
		return Event{}, err
	}
	if l.paused {
		return Event{}, ErrAlreadyPaused
	}
	l.paused = true
	return Event{Type: EventPaused, By: caller}, nil
}

// Unpause restores normal operation. Owner-only. Unpausing an active ledger
// is an error.
func (l *Ledger) Unpause(caller Address) (Event, error) {
	if err := l.requireOwner(caller); err != nil {
		return Event{}, err
	}
	if !l.paused {
		return Event{}, ErrNotPaused
	}
	l.paused = false
	return Event{Type: EventUnpaused, By: caller}, nil
}

// Access control ---------------------------------------------------------------

// TransferOwnership reassigns the administrative capability.
func (l *Ledger) TransferOwnership(caller, newOwner Address) (Event, error) {
	if err := l.requireOwner(caller); err != nil {
		return Event{}, err
	}
	if newOwner.IsZero() {
		return Event{}, fmt.Errorf("%w: new owner", ErrZeroAddress)
	}
	prev := l.owner
	l.owner = newOwner
	return Event{Type: EventOwnershipTransferred, From: prev, To: newOwner}, nil
}

// RenounceOwnership clears the owner. This is irreversible: mint, burn,
// pause, unpause, asset-info updates and further ownership changes become
// permanently unreachable. There is no recovery path.
func (l *Ledger) RenounceOwnership(caller Address) (Event, error) {
	if err := l.requireOwner(caller); err != nil {
		return Event{}, err
	}
	prev := l.owner
	l.owner = ZeroAddress
	return Event{Type: EventOwnershipTransferred, From: prev, To: ZeroAddress}, nil
}

// Asset metadata ---------------------------------------------------------------

// SetAssetInfo overwrites the opaque asset-info pointer. Owner-only, never
// gated by the operational switch, and always emits, even for an unchanged
// value.
func (l *Ledger) SetAssetInfo(caller Address, uri string) (Event, error) {
	if err := l.requireOwner(caller); err != nil {
		return Event{}, err
	}
	l.assetInfo = uri
	return Event{Type: EventAssetInfoUpdated, URI: uri, By: caller}, nil
}

// CheckInvariants verifies that the sum of all balances equals the total
// supply and that the total supply does not exceed the cap.
func (l *Ledger) CheckInvariants() error {
	sum := new(uint256.Int)
	for _, bal := range l.balances {
		sum.Add(sum, bal)
	}
	if !sum.Eq(l.totalSupply) {
		return fmt.Errorf("token: balance sum %s != total supply %s", sum.Dec(), l.totalSupply.Dec())
	}
	if l.totalSupply.Gt(l.maxSupply) {
		return fmt.Errorf("token: total supply %s over cap %s", l.totalSupply.Dec(), l.maxSupply.Dec())
	}
	return nil
}
