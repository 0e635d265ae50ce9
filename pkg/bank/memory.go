package bank

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

type balanceKey struct {
	account common.Address
	asset   common.Address
}

// MemoryBook is an in-memory Book. It backs the in-memory stores and the
// engine tests, with snapshot support for transaction rollback.
type MemoryBook struct {
	mu       sync.RWMutex
	balances map[balanceKey]*big.Int
}

// NewMemoryBook creates an empty in-memory balance book
func NewMemoryBook() *MemoryBook {
	return &MemoryBook{balances: make(map[balanceKey]*big.Int)}
}

// Balance implements Book
func (b *MemoryBook) Balance(_ context.Context, account, asset common.Address) (*big.Int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if bal, ok := b.balances[balanceKey{account, asset}]; ok {
		return new(big.Int).Set(bal), nil
	}
	return big.NewInt(0), nil
}

// Credit implements Book
func (b *MemoryBook) Credit(_ context.Context, account, asset common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	key := balanceKey{account, asset}
	bal, ok := b.balances[key]
	if !ok {
		bal = big.NewInt(0)
		b.balances[key] = bal
	}
	bal.Add(bal, amount)
	return nil
}

// Debit implements Book
func (b *MemoryBook) Debit(_ context.Context, account, asset common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	key := balanceKey{account, asset}
	bal, ok := b.balances[key]
	if !ok || bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	bal.Sub(bal, amount)
	return nil
}

// Transfer implements Book
func (b *MemoryBook) Transfer(ctx context.Context, asset, from, to common.Address, amount *big.Int) error {
	if err := b.Debit(ctx, from, asset, amount); err != nil {
		return err
	}
	return b.Credit(ctx, to, asset, amount)
}

// Snapshot returns a deep copy of the balances for rollback
func (b *MemoryBook) Snapshot() map[balanceKey]*big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	snap := make(map[balanceKey]*big.Int, len(b.balances))
	for k, v := range b.balances {
		snap[k] = new(big.Int).Set(v)
	}
	return snap
}

// Restore replaces the balances with a prior snapshot
func (b *MemoryBook) Restore(snap map[balanceKey]*big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances = snap
}
