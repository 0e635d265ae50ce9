package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger event types
const (
	TypeTransactionInitiated      = "ledger.transaction_initiated"
	TypeTransactionCompleted      = "ledger.transaction_completed"
	TypeTransactionRefunded       = "ledger.transaction_refunded"
	TypeTokenAdded                = "ledger.token_added"
	TypeTokenRemoved              = "ledger.token_removed"
	TypeSpreadFeeUpdated          = "ledger.spread_fee_updated"
	TypeFeeReceiverUpdated        = "ledger.fee_receiver_updated"
	TypeVaultUpdated              = "ledger.vault_updated"
	TypeTransactionManagerUpdated = "ledger.transaction_manager_updated"
	TypeRelayAddressUpdated       = "ledger.relay_address_updated"
	TypeFeesWithdrawn             = "ledger.fees_withdrawn"
	TypePaused                    = "ledger.paused"
	TypeUnpaused                  = "ledger.unpaused"
	TypeOwnershipTransferStarted  = "ledger.ownership_transfer_started"
	TypeOwnershipTransferred      = "ledger.ownership_transferred"
)

// EventTransactionInitiated is emitted when escrow is locked
type EventTransactionInitiated struct {
	ID        ID
	Depositor common.Address
	Token     common.Address
	Amount    *big.Int
	Fee       *big.Int
}

// EventType implements events.Event
func (EventTransactionInitiated) EventType() string { return TypeTransactionInitiated }

// EventTransactionCompleted is emitted when the fiat leg settles
type EventTransactionCompleted struct {
	ID          ID
	Token       common.Address
	AmountSpent *big.Int
}

// EventType implements events.Event
func (EventTransactionCompleted) EventType() string { return TypeTransactionCompleted }

// EventTransactionRefunded is emitted when escrow returns to the depositor
type EventTransactionRefunded struct {
	ID             ID
	Token          common.Address
	AmountRefunded *big.Int
}

// EventType implements events.Event
func (EventTransactionRefunded) EventType() string { return TypeTransactionRefunded }

// EventTokenAdded is emitted when a token joins the support set
type EventTokenAdded struct {
	Token common.Address
}

// EventType implements events.Event
func (EventTokenAdded) EventType() string { return TypeTokenAdded }

// EventTokenRemoved is emitted when a token leaves the support set
type EventTokenRemoved struct {
	Token common.Address
}

// EventType implements events.Event
func (EventTokenRemoved) EventType() string { return TypeTokenRemoved }

// EventSpreadFeeUpdated is emitted when the spread fee changes
type EventSpreadFeeUpdated struct {
	Old uint32
	New uint32
}

// EventType implements events.Event
func (EventSpreadFeeUpdated) EventType() string { return TypeSpreadFeeUpdated }

// EventFeeReceiverUpdated is emitted when the fee receiver rotates
type EventFeeReceiverUpdated struct {
	Old common.Address
	New common.Address
}

// EventType implements events.Event
func (EventFeeReceiverUpdated) EventType() string { return TypeFeeReceiverUpdated }

// EventVaultUpdated is emitted when the vault rotates
type EventVaultUpdated struct {
	Old common.Address
	New common.Address
}

// EventType implements events.Event
func (EventVaultUpdated) EventType() string { return TypeVaultUpdated }

// EventTransactionManagerUpdated is emitted when the transaction manager rotates
type EventTransactionManagerUpdated struct {
	Old common.Address
	New common.Address
}

// EventType implements events.Event
func (EventTransactionManagerUpdated) EventType() string { return TypeTransactionManagerUpdated }

// EventRelayAddressUpdated is emitted when the relay pointer changes
type EventRelayAddressUpdated struct {
	Old common.Address
	New common.Address
}

// EventType implements events.Event
func (EventRelayAddressUpdated) EventType() string { return TypeRelayAddressUpdated }

// EventFeesWithdrawn is emitted when the owner sweeps a fee accumulator
type EventFeesWithdrawn struct {
	Token  common.Address
	To     common.Address
	Amount *big.Int
}

// EventType implements events.Event
func (EventFeesWithdrawn) EventType() string { return TypeFeesWithdrawn }

// EventPaused is emitted when the ledger pauses
type EventPaused struct {
	Account common.Address
}

// EventType implements events.Event
func (EventPaused) EventType() string { return TypePaused }

// EventUnpaused is emitted when the ledger unpauses
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
