// Package ledger implements the fiat bridge transaction ledger: escrow of
// stablecoin deposits against off-chain fiat payouts, spread fee accounting,
// and the initiate/complete/refund settlement machine.
package ledger

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const (
	// MaxSpreadFeeBps caps the spread fee at 5%, inclusive
	MaxSpreadFeeBps = 500
	// BpsDenominator converts basis points to a fraction
	BpsDenominator = 10000
)

// EscrowAccount is the book account holding escrowed funds and collected fees
var EscrowAccount = common.BytesToAddress([]byte("fiat-bridge-escrow"))

var (
	// ErrPaused is returned by initiations while the ledger is paused
	ErrPaused = errors.New("ledger is paused")
	// ErrTokenNotSupported is returned for tokens outside the support set
	ErrTokenNotSupported = errors.New("token not supported")
	// ErrInvalidAmount is returned for zero or negative amounts
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrTransactionNotFound is returned for unknown transaction ids
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrAlreadyProcessed is returned when a transaction was completed or refunded before
	ErrAlreadyProcessed = errors.New("transaction already processed")
	// ErrAmountMismatch is returned when amountSpent differs from the locked amount
	ErrAmountMismatch = errors.New("amount spent does not equal locked amount")
	// ErrFeeTooHigh is returned for spread fees above MaxSpreadFeeBps
	ErrFeeTooHigh = errors.New("fee too high")
	// ErrZeroAddress is returned when a role update targets the zero address
	ErrZeroAddress = errors.New("zero address")
	// ErrNotOwner is returned when the caller is not the ledger owner
	ErrNotOwner = errors.New("caller is not the owner")
	// ErrNotTransactionManager is returned when the caller may not complete transactions
	ErrNotTransactionManager = errors.New("caller is not the transaction manager")
	// ErrNotPendingOwner is returned when the caller may not accept ownership
	ErrNotPendingOwner = errors.New("caller is not the pending owner")
	// ErrNothingToWithdraw is returned when the fee accumulator is empty
	ErrNothingToWithdraw = errors.New("nothing to withdraw")
	// ErrInvalidPriceSource is returned for a zero, unreachable or bad price source
	ErrInvalidPriceSource = errors.New("invalid price source")
)

// ID identifies a ledger transaction
type ID [32]byte

// Hex returns the 0x-prefixed hex encoding of the id
func (id ID) Hex() string {
	return "0x" + hex.EncodeToString(id[:])
}

// ParseID decodes a 0x-prefixed hex transaction id
func ParseID(s string) (ID, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return ID{}, fmt.Errorf("invalid transaction id: %w", err)
	}
	if len(raw) != 32 {
		return ID{}, fmt.Errorf("invalid transaction id length %d", len(raw))
	}
	var id ID
	copy(id[:], raw)
	return id, nil
}

// FiatDetails carries the banking metadata of an oracle-priced initiation
type FiatDetails struct {
	BankAccountRef string
	BankName       string
	RecipientName  string
	Amount         decimal.Decimal
}

// Transaction is one escrow event. LockedAmount and Fee are frozen at
// initiation; AmountSpent is set exactly once, on completion.
type Transaction struct {
	ID           ID
	Depositor    common.Address
	Token        common.Address
	LockedAmount *big.Int
	Fee          *big.Int
	AmountSpent  *big.Int
	Completed    bool
	Refunded     bool
	Fiat         *FiatDetails
	InitiatedAt  time.Time
	SettledAt    *time.Time
}

// Processed reports whether the transaction reached a terminal state
func (t *Transaction) Processed() bool {
	return t.Completed || t.Refunded
}

// Clone returns a deep copy of the transaction
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	cp := *t
	if t.LockedAmount != nil {
		cp.LockedAmount = new(big.Int).Set(t.LockedAmount)
	}
	if t.Fee != nil {
		cp.Fee = new(big.Int).Set(t.Fee)
	}
	if t.AmountSpent != nil {
		cp.AmountSpent = new(big.Int).Set(t.AmountSpent)
	}
	if t.Fiat != nil {
		fiat := *t.Fiat
		cp.Fiat = &fiat
	}
	if t.SettledAt != nil {
		settled := *t.SettledAt
		cp.SettledAt = &settled
	}
	return &cp
}
