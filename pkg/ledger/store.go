package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/defi-direct/bridge-middleware/pkg/bank"
)

// Tx is the mutation surface available inside one store transaction.
// It embeds the balance book so escrow moves and record writes commit
// together.
type Tx interface {
	bank.Book

	// GetTransaction loads a transaction, ErrTransactionNotFound when missing
	GetTransaction(ctx context.Context, id ID) (*Transaction, error)
	// PutTransaction inserts or updates a transaction record
	PutTransaction(ctx context.Context, txn *Transaction) error
	// AddCollectedFees adjusts the fee accumulator for a token by delta,
	// which may be negative for refunds and withdrawals
	AddCollectedFees(ctx context.Context, token common.Address, delta *big.Int) error
	// CollectedFees returns the accumulator for a token, zero when absent
	CollectedFees(ctx context.Context, token common.Address) (*big.Int, error)
}

// Store persists ledger transactions, fee accumulators and the balance
// book. WithinTx runs fn atomically: an error rolls every write back.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	// GetTransaction loads a transaction, ErrTransactionNotFound when missing
	GetTransaction(ctx context.Context, id ID) (*Transaction, error)
	// TransactionIDs lists a depositor's transaction ids in insertion order
	TransactionIDs(ctx context.Context, depositor common.Address) ([]ID, error)
	// CollectedFees returns the accumulator for a token, zero when absent
	CollectedFees(ctx context.Context, token common.Address) (*big.Int, error)
	// Balance reads the balance book outside a transaction
	Balance(ctx context.Context, account, asset common.Address) (*big.Int, error)
}
