package token

// EventType identifies the kind of notification emitted by a mutating
// operation.
type EventType string

const (
	EventTransfer             EventType = "transfer"
	EventApproval             EventType = "approval"
	EventPaused               EventType = "paused"
	EventUnpaused             EventType = "unpaused"
	EventAssetInfoUpdated     EventType = "asset_info_updated"
	EventOwnershipTransferred EventType = "ownership_transferred"
)

// Event is the notification emitted by a successful mutating operation. It is
// a flat record; which fields are populated depends on Type:
//
//   - EventTransfer: From, To, Amount. A zero From marks issuance, a zero To
//     marks destruction.
//   - EventApproval: Owner, Spender, Amount.
//   - EventPaused / EventUnpaused: By.
//   - EventAssetInfoUpdated: URI, By.
//   - EventOwnershipTransferred: From (previous owner), To (new owner; zero
//     after renunciation).
type Event struct {
	Type    EventType
	From    Address
	To      Address
	Owner   Address
	Spender Address
	Amount  *Amount
	URI     string
	By      Address
}
