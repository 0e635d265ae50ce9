package relay

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/defi-direct/bridge-middleware/pkg/bank"
)

// Tx is the mutation surface available inside one store transaction
type Tx interface {
	bank.Book

	// PutDispatch inserts or updates a dispatch record
	PutDispatch(ctx context.Context, d *Dispatch) error
}

// Store persists dispatch records and the balance book. WithinTx runs fn
// atomically: an error rolls every write back, including the token pull
// and fee charge of a failed dispatch.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	// GetDispatch loads a dispatch record, ErrDispatchNotFound when missing
	GetDispatch(ctx context.Context, id MessageID) (*Dispatch, error)
	// Dispatches lists a caller's dispatch records in insertion order
	Dispatches(ctx context.Context, caller common.Address) ([]*Dispatch, error)
	// Balance reads the balance book outside a transaction
	Balance(ctx context.Context, account, asset common.Address) (*big.Int, error)
}
