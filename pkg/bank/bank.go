// Package bank keeps the custodial balance book: per account and asset
// integer balances in the token's smallest unit. Every escrow lock, fee
// charge and payout in the system is a move inside this book.
package bank

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Native is the pseudo-address used as the asset key for native value,
// following the common EVM convention.
var Native = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

var (
	// ErrInsufficientBalance is returned when a debit exceeds the account balance
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvalidAmount is returned for nil or negative amounts
	ErrInvalidAmount = errors.New("invalid amount")
)

// Book is the balance ledger interface shared by the in-memory and
// Postgres implementations. Amounts are never mutated by the book.
type Book interface {
	// Balance returns the current balance, zero for unknown accounts
	Balance(ctx context.Context, account, asset common.Address) (*big.Int, error)
	// Credit adds amount to the account balance
	Credit(ctx context.Context, account, asset common.Address, amount *big.Int) error
	// Debit subtracts amount from the account balance,
	// failing with ErrInsufficientBalance if it would go negative
	Debit(ctx context.Context, account, asset common.Address, amount *big.Int) error
	// Transfer moves amount between two accounts
	Transfer(ctx context.Context, asset, from, to common.Address, amount *big.Int) error
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	return nil
}
