// Package pg implements the Postgres ledger store on bun.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/uptrace/bun"

	"github.com/defi-direct/bridge-middleware/pkg/bank"
	"github.com/defi-direct/bridge-middleware/pkg/ledger"
)

// Store is the Postgres ledger.Store
type Store struct {
	db   *bun.DB
	book *bank.PGBook
}

var _ ledger.Store = (*Store)(nil)

// NewStore creates a store over the given bun connection
func NewStore(db *bun.DB) *Store {
	return &Store{db: db, book: bank.NewPGBook(db)}
}

// WithinTx implements ledger.Store via bun's RunInTx
func (s *Store) WithinTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, dbTx bun.Tx) error {
		return fn(&storeTx{
			PGBook: bank.NewPGBook(dbTx),
			db:     dbTx,
		})
	})
}

// GetTransaction implements ledger.Store
func (s *Store) GetTransaction(ctx context.Context, id ledger.ID) (*ledger.Transaction, error) {
	return getTransaction(ctx, s.db, id)
}

// TransactionIDs implements ledger.Store
func (s *Store) TransactionIDs(ctx context.Context, depositor common.Address) ([]ledger.ID, error) {
	var daos []TransactionDAO
	err := s.db.NewSelect().Model(&daos).
		Column("id").
		Where("depositor = ?", depositor.Hex()).
		Order("seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transaction ids: %w", err)
	}
	ids := make([]ledger.ID, 0, len(daos))
	for _, dao := range daos {
		id, err := ledger.ParseID(dao.ID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CollectedFees implements ledger.Store
func (s *Store) CollectedFees(ctx context.Context, token common.Address) (*big.Int, error) {
	return collectedFees(ctx, s.db, token)
}

// Balance implements ledger.Store
func (s *Store) Balance(ctx context.Context, account, asset common.Address) (*big.Int, error) {
	return s.book.Balance(ctx, account, asset)
}

// storeTx is the transactional mutation surface
type storeTx struct {
	*bank.PGBook
	db bun.Tx
}

var _ ledger.Tx = (*storeTx)(nil)

func (t *storeTx) GetTransaction(ctx context.Context, id ledger.ID) (*ledger.Transaction, error) {
	return getTransaction(ctx, t.db, id)
}

func (t *storeTx) PutTransaction(ctx context.Context, txn *ledger.Transaction) error {
	dao := toDAO(txn)
	_, err := t.db.NewInsert().Model(dao).
		On("CONFLICT (id) DO UPDATE").
		Set("amount_spent = EXCLUDED.amount_spent").
		Set("completed = EXCLUDED.completed").
		Set("refunded = EXCLUDED.refunded").
		Set("settled_at = EXCLUDED.settled_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store transaction: %w", err)
	}
	return nil
}

func (t *storeTx) AddCollectedFees(ctx context.Context, token common.Address, delta *big.Int) error {
	total, err := collectedFees(ctx, t.db, token)
	if err != nil {
		return err
	}
	dao := &FeeTotalDAO{
		Token:  token.Hex(),
		Amount: total.Add(total, delta).String(),
	}
	_, err = t.db.NewInsert().Model(dao).
		On("CONFLICT (token) DO UPDATE").
		Set("amount = EXCLUDED.amount").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store fee total: %w", err)
	}
	return nil
}

func (t *storeTx) CollectedFees(ctx context.Context, token common.Address) (*big.Int, error) {
	return collectedFees(ctx, t.db, token)
}

func getTransaction(ctx context.Context, db bun.IDB, id ledger.ID) (*ledger.Transaction, error) {
	dao := new(TransactionDAO)
	err := db.NewSelect().Model(dao).Where("id = ?", id.Hex()).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	return fromDAO(dao)
}

func collectedFees(ctx context.Context, db bun.IDB, token common.Address) (*big.Int, error) {
	dao := new(FeeTotalDAO)
	err := db.NewSelect().Model(dao).Where("token = ?", token.Hex()).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load fee total: %w", err)
	}
	amount, ok := new(big.Int).SetString(dao.Amount, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt fee total %q for %s", dao.Amount, token.Hex())
	}
	return amount, nil
}
