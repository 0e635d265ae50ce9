// Package relay implements the cross-chain relay: a validated front door
// to the external message router. It owns the chain and token allowlists,
// quotes and collects the relay fee in either the fee token or native
// value, and dispatches transfers through the router.
package relay

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// MinTransferAmount is the smallest transferable amount in base units
	MinTransferAmount = 1000
	// MaxGasLimit is the destination execution gas ceiling
	MaxGasLimit = 5_000_000
)

// Account is the book account holding pulled tokens and collected fees
var Account = common.BytesToAddress([]byte("cross-chain-relay"))

var (
	// ErrPaused is returned by transfers while the relay is paused
	ErrPaused = errors.New("relay is paused")
	// ErrChainNotAllowlisted is returned for destinations outside the allowlist
	ErrChainNotAllowlisted = errors.New("destination chain not allowlisted")
	// ErrTokenNotSupported is returned for tokens outside the support set
	ErrTokenNotSupported = errors.New("token not supported")
	// ErrInvalidReceiver is returned for a zero receiver address
	ErrInvalidReceiver = errors.New("invalid receiver address")
	// ErrInvalidAmount is returned for amounts below MinTransferAmount
	ErrInvalidAmount = errors.New("invalid transfer amount")
	// ErrGasLimitTooHigh is returned for gas limits above MaxGasLimit
	ErrGasLimitTooHigh = errors.New("gas limit too high")
	// ErrNoAttachedValue is returned when a native-fee transfer attaches nothing
	ErrNoAttachedValue = errors.New("no attached value")
	// ErrFeePaymentTooLow is returned when the attached value is below the quoted fee
	ErrFeePaymentTooLow = errors.New("attached value below quoted fee")
	// ErrNothingToWithdraw is returned when a sweep finds a zero balance
	ErrNothingToWithdraw = errors.New("nothing to withdraw")
	// ErrNotOwner is returned when the caller is not the relay owner
	ErrNotOwner = errors.New("caller is not the owner")
	// ErrNotPendingOwner is returned when the caller may not accept ownership
	ErrNotPendingOwner = errors.New("caller is not the pending owner")
	// ErrDispatchNotFound is returned for unknown message ids
	ErrDispatchNotFound = errors.New("dispatch not found")
	// ErrZeroAddress is returned when a withdrawal or role update targets the zero address
	ErrZeroAddress = errors.New("zero address")
)

// FeeAsset selects how the relay fee is paid
type FeeAsset uint8

const (
	// FeeAssetToken pays the fee from the caller's fee-token balance
	FeeAssetToken FeeAsset = iota
	// FeeAssetNative pays the fee from value attached to the call
	FeeAssetNative
)

func (fa FeeAsset) String() string {
	if fa == FeeAssetNative {
		return "native"
	}
	return "token"
}

// ParseFeeAsset parses "token" or "native"
func ParseFeeAsset(s string) (FeeAsset, error) {
	switch strings.ToLower(s) {
	case "token", "":
		return FeeAssetToken, nil
	case "native":
		return FeeAssetNative, nil
	default:
		return FeeAssetToken, fmt.Errorf("unknown fee asset %q", s)
	}
}

// DispatchStatus tracks a transfer through the relay state machine
type DispatchStatus string

const (
	// DispatchCreated is the initial state of an accepted request
	DispatchCreated DispatchStatus = "created"
	// DispatchValidated means the validation pipeline passed
	DispatchValidated DispatchStatus = "validated"
	// DispatchFeeCharged means the relay fee and token pull settled
	DispatchFeeCharged DispatchStatus = "fee_charged"
	// DispatchDispatched means the router accepted the message.
	// The relay's responsibility ends here.
	DispatchDispatched DispatchStatus = "dispatched"
)

// MessageID identifies a dispatched router message
type MessageID [32]byte

// Hex returns the 0x-prefixed hex encoding of the message id
func (id MessageID) Hex() string {
	return "0x" + hex.EncodeToString(id[:])
}

// ParseMessageID decodes a 0x-prefixed hex message id
func ParseMessageID(s string) (MessageID, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return MessageID{}, fmt.Errorf("invalid message id: %w", err)
	}
	if len(raw) != 32 {
		return MessageID{}, fmt.Errorf("invalid message id length %d", len(raw))
	}
	var id MessageID
	copy(id[:], raw)
	return id, nil
}

// Dispatch is the record of one relayed transfer
type Dispatch struct {
	MessageID        MessageID
	Caller           common.Address
	DestinationChain uint64
	Receiver         common.Address
	Token            common.Address
	Amount           *big.Int
	Fee              *big.Int
	FeeAsset         FeeAsset
	GasLimit         uint64
	Status           DispatchStatus
	CreatedAt        time.Time
}

// Clone returns a deep copy of the dispatch record
func (d *Dispatch) Clone() *Dispatch {
	if d == nil {
		return nil
	}
	cp := *d
	if d.Amount != nil {
		cp.Amount = new(big.Int).Set(d.Amount)
	}
	if d.Fee != nil {
		cp.Fee = new(big.Int).Set(d.Fee)
	}
	return &cp
}
