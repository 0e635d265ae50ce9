package bank

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/uptrace/bun"
)

// BalanceDAO is the bun model for the balances table
type BalanceDAO struct {
	bun.BaseModel `bun:"table:balances,alias:b"`
	Account       string `bun:"account,pk,type:varchar(42)"`
	Asset         string `bun:"asset,pk,type:varchar(42)"`
	Amount        string `bun:"amount,notnull,type:numeric(78,0)"`
}

// PGBook is a Book over a bun connection or transaction. Mutations are
// expected to run inside a surrounding store transaction; the engines
// serialize writers.
type PGBook struct {
	db bun.IDB
}

// NewPGBook creates a Book over the given bun handle
func NewPGBook(db bun.IDB) *PGBook {
	return &PGBook{db: db}
}

// Balance implements Book
func (b *PGBook) Balance(ctx context.Context, account, asset common.Address) (*big.Int, error) {
	dao := new(BalanceDAO)
	err := b.db.NewSelect().Model(dao).
		Where("account = ?", account.Hex()).
		Where("asset = ?", asset.Hex()).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load balance: %w", err)
	}
	bal, ok := new(big.Int).SetString(dao.Amount, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt balance %q for %s/%s", dao.Amount, account.Hex(), asset.Hex())
	}
	return bal, nil
}

// Credit implements Book
func (b *PGBook) Credit(ctx context.Context, account, asset common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	bal, err := b.Balance(ctx, account, asset)
	if err != nil {
		return err
	}
	return b.put(ctx, account, asset, bal.Add(bal, amount))
}

// Debit implements Book
func (b *PGBook) Debit(ctx context.Context, account, asset common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	bal, err := b.Balance(ctx, account, asset)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	return b.put(ctx, account, asset, bal.Sub(bal, amount))
}

// Transfer implements Book
func (b *PGBook) Transfer(ctx context.Context, asset, from, to common.Address, amount *big.Int) error {
	if err := b.Debit(ctx, from, asset, amount); err != nil {
		return err
	}
	return b.Credit(ctx, to, asset, amount)
}

func (b *PGBook) put(ctx context.Context, account, asset common.Address, amount *big.Int) error {
	dao := &BalanceDAO{
		Account: account.Hex(),
		Asset:   asset.Hex(),
		Amount:  amount.String(),
	}
	_, err := b.db.NewInsert().Model(dao).
		On("CONFLICT (account, asset) DO UPDATE").
		Set("amount = EXCLUDED.amount").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store balance: %w", err)
	}
	return nil
}
