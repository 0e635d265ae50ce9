// Package pg implements the Postgres relay store on bun.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/uptrace/bun"

	"github.com/defi-direct/bridge-middleware/pkg/bank"
	"github.com/defi-direct/bridge-middleware/pkg/relay"
)

// DispatchDAO is the bun model for the dispatches table
type DispatchDAO struct {
	bun.BaseModel `bun:"table:dispatches,alias:d"`

	MessageID        string    `bun:"message_id,pk,type:varchar(66)"`
	Seq              int64     `bun:"seq,autoincrement,scanonly"`
	Caller           string    `bun:"caller,notnull,type:varchar(42)"`
	DestinationChain uint64    `bun:"destination_chain,notnull"`
	Receiver         string    `bun:"receiver,notnull,type:varchar(42)"`
	Token            string    `bun:"token,notnull,type:varchar(42)"`
	Amount           string    `bun:"amount,notnull,type:numeric(78,0)"`
	Fee              string    `bun:"fee,notnull,type:numeric(78,0)"`
	FeeAsset         string    `bun:"fee_asset,notnull,type:varchar(10)"`
	GasLimit         uint64    `bun:"gas_limit,notnull"`
	Status           string    `bun:"status,notnull,type:varchar(20)"`
	CreatedAt        time.Time `bun:"created_at,notnull"`
}

// Store is the Postgres relay.Store
type Store struct {
	db   *bun.DB
	book *bank.PGBook
}

var _ relay.Store = (*Store)(nil)

// NewStore creates a store over the given bun connection
func NewStore(db *bun.DB) *Store {
	return &Store{db: db, book: bank.NewPGBook(db)}
}

// WithinTx implements relay.Store via bun's RunInTx
func (s *Store) WithinTx(ctx context.Context, fn func(tx relay.Tx) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, dbTx bun.Tx) error {
		return fn(&storeTx{
			PGBook: bank.NewPGBook(dbTx),
			db:     dbTx,
		})
	})
}

// GetDispatch implements relay.Store
func (s *Store) GetDispatch(ctx context.Context, id relay.MessageID) (*relay.Dispatch, error) {
	dao := new(DispatchDAO)
	err := s.db.NewSelect().Model(dao).Where("message_id = ?", id.Hex()).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, relay.ErrDispatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load dispatch: %w", err)
	}
	return fromDAO(dao)
}

// Dispatches implements relay.Store
func (s *Store) Dispatches(ctx context.Context, caller common.Address) ([]*relay.Dispatch, error) {
	var daos []DispatchDAO
	err := s.db.NewSelect().Model(&daos).
		Where("caller = ?", caller.Hex()).
		Order("seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list dispatches: %w", err)
	}
	out := make([]*relay.Dispatch, 0, len(daos))
	for i := range daos {
		d, err := fromDAO(&daos[i])
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Balance implements relay.Store
func (s *Store) Balance(ctx context.Context, account, asset common.Address) (*big.Int, error) {
	return s.book.Balance(ctx, account, asset)
}

// storeTx is the transactional mutation surface
type storeTx struct {
	*bank.PGBook
	db bun.Tx
}

var _ relay.Tx = (*storeTx)(nil)

func (t *storeTx) PutDispatch(ctx context.Context, d *relay.Dispatch) error {
	dao := &DispatchDAO{
		MessageID:        d.MessageID.Hex(),
		Caller:           d.Caller.Hex(),
		DestinationChain: d.DestinationChain,
		Receiver:         d.Receiver.Hex(),
		Token:            d.Token.Hex(),
		Amount:           d.Amount.String(),
		Fee:              d.Fee.String(),
		FeeAsset:         d.FeeAsset.String(),
		GasLimit:         d.GasLimit,
		Status:           string(d.Status),
		CreatedAt:        d.CreatedAt,
	}
	_, err := t.db.NewInsert().Model(dao).
		On("CONFLICT (message_id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store dispatch: %w", err)
	}
	return nil
}

func fromDAO(dao *DispatchDAO) (*relay.Dispatch, error) {
	id, err := relay.ParseMessageID(dao.MessageID)
	if err != nil {
		return nil, fmt.Errorf("corrupt message id %q: %w", dao.MessageID, err)
	}
	amount, ok := new(big.Int).SetString(dao.Amount, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt amount %q", dao.Amount)
	}
	fee, ok := new(big.Int).SetString(dao.Fee, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt fee %q", dao.Fee)
	}
	feeAsset, err := relay.ParseFeeAsset(dao.FeeAsset)
	if err != nil {
		return nil, err
	}
	return &relay.Dispatch{
		MessageID:        id,
		Caller:           common.HexToAddress(dao.Caller),
		DestinationChain: dao.DestinationChain,
		Receiver:         common.HexToAddress(dao.Receiver),
		Token:            common.HexToAddress(dao.Token),
		Amount:           amount,
		Fee:              fee,
		FeeAsset:         feeAsset,
		GasLimit:         dao.GasLimit,
		Status:           relay.DispatchStatus(dao.Status),
		CreatedAt:        dao.CreatedAt,
	}, nil
}
