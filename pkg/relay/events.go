package relay

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Relay event types
const (
	TypeTokensDispatched         = "relay.tokens_dispatched"
	TypeChainAllowlistUpdated    = "relay.chain_allowlist_updated"
	TypeTokenSupportUpdated      = "relay.token_support_updated"
	TypeCounterpartUpdated       = "relay.counterpart_updated"
	TypeFundsWithdrawn           = "relay.funds_withdrawn"
	TypePaused                   = "relay.paused"
	TypeUnpaused                 = "relay.unpaused"
	TypeOwnershipTransferStarted = "relay.ownership_transfer_started"
	TypeOwnershipTransferred     = "relay.ownership_transferred"
)

// EventTokensDispatched is emitted when the router accepts a transfer
type EventTokensDispatched struct {
	MessageID        MessageID
	DestinationChain uint64
	Receiver         common.Address
	Token            common.Address
	Amount           *big.Int
	Fee              *big.Int
	FeeAsset         FeeAsset
	GasLimit         uint64
}

// EventType implements events.Event
func (EventTokensDispatched) EventType() string { return TypeTokensDispatched }

// EventChainAllowlistUpdated is emitted on allowlist changes
type EventChainAllowlistUpdated struct {
	Selector uint64
	Allowed  bool
}

// EventType implements events.Event
func (EventChainAllowlistUpdated) EventType() string { return TypeChainAllowlistUpdated }

// EventTokenSupportUpdated is emitted on token support changes
type EventTokenSupportUpdated struct {
	Token     common.Address
	Supported bool
}

// EventType implements events.Event
func (EventTokenSupportUpdated) EventType() string { return TypeTokenSupportUpdated }

// EventCounterpartUpdated is emitted when the ledger pointer changes
type EventCounterpartUpdated struct {
	Old common.Address
	New common.Address
}

// EventType implements events.Event
func (EventCounterpartUpdated) EventType() string { return TypeCounterpartUpdated }

// EventFundsWithdrawn is emitted when the owner sweeps a relay balance
type EventFundsWithdrawn struct {
	Asset  common.Address
	To     common.Address
	Amount *big.Int
}

// EventType implements events.Event
func (EventFundsWithdrawn) EventType() string { return TypeFundsWithdrawn }

// EventPaused is emitted when the relay pauses
type EventPaused struct {
	Account common.Address
}

// EventType implements events.Event
func (EventPaused) EventType() string { return TypePaused }

// EventUnpaused is emitted when the relay unpauses
type EventUnpaused struct {
	Account common.Address
}

// EventType implements events.Event
func (EventUnpaused) EventType() string { return TypeUnpaused }

// EventOwnershipTransferStarted is emitted when an ownership handover is staged
type EventOwnershipTransferStarted struct {
	Current common.Address
	Pending common.Address
}

// EventType implements events.Event
func (EventOwnershipTransferStarted) EventType() string { return TypeOwnershipTransferStarted }

// EventOwnershipTransferred is emitted when the pending owner accepts
type EventOwnershipTransferred struct {
	Previous common.Address
	New      common.Address
}

// EventType implements events.Event
func (EventOwnershipTransferred) EventType() string { return TypeOwnershipTransferred }
