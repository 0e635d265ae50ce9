// Package memory provides an in-memory ledger store used by the engine
// tests and by local development runs without Postgres.
package memory

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/defi-direct/bridge-middleware/pkg/bank"
	"github.com/defi-direct/bridge-middleware/pkg/ledger"
)

// Store is an in-memory ledger.Store with snapshot-based rollback
type Store struct {
	mu    sync.Mutex
	book  *bank.MemoryBook
	txns  map[ledger.ID]*ledger.Transaction
	order map[common.Address][]ledger.ID
	fees  map[common.Address]*big.Int
}

var _ ledger.Store = (*Store)(nil)

// New creates a store over the given balance book
func New(book *bank.MemoryBook) *Store {
	return &Store{
		book:  book,
		txns:  make(map[ledger.ID]*ledger.Transaction),
		order: make(map[common.Address][]ledger.ID),
		fees:  make(map[common.Address]*big.Int),
	}
}

// WithinTx implements ledger.Store. State is snapshotted up front and
// restored wholesale if fn fails.
func (s *Store) WithinTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookSnap := s.book.Snapshot()
	txnsSnap := make(map[ledger.ID]*ledger.Transaction, len(s.txns))
	for id, txn := range s.txns {
		txnsSnap[id] = txn.Clone()
	}
	orderSnap := make(map[common.Address][]ledger.ID, len(s.order))
	for depositor, ids := range s.order {
		orderSnap[depositor] = append([]ledger.ID(nil), ids...)
	}
	feesSnap := make(map[common.Address]*big.Int, len(s.fees))
	for token, amount := range s.fees {
		feesSnap[token] = new(big.Int).Set(amount)
	}

	if err := fn(&storeTx{s: s}); err != nil {
		s.book.Restore(bookSnap)
		s.txns = txnsSnap
		s.order = orderSnap
		s.fees = feesSnap
		return err
	}
	return nil
}

// GetTransaction implements ledger.Store
func (s *Store) GetTransaction(ctx context.Context, id ledger.ID) (*ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getTransaction(id)
}

// TransactionIDs implements ledger.Store
func (s *Store) TransactionIDs(ctx context.Context, depositor common.Address) ([]ledger.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ledger.ID(nil), s.order[depositor]...), nil
}

// CollectedFees implements ledger.Store
func (s *Store) CollectedFees(ctx context.Context, token common.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collectedFees(token), nil
}

// Balance implements ledger.Store
func (s *Store) Balance(ctx context.Context, account, asset common.Address) (*big.Int, error) {
	return s.book.Balance(ctx, account, asset)
}

func (s *Store) getTransaction(id ledger.ID) (*ledger.Transaction, error) {
	txn, ok := s.txns[id]
	if !ok {
		return nil, ledger.ErrTransactionNotFound
	}
	return txn.Clone(), nil
}

func (s *Store) collectedFees(token common.Address) *big.Int {
	if amount, ok := s.fees[token]; ok {
		return new(big.Int).Set(amount)
	}
	return big.NewInt(0)
}

// storeTx operates on the store under the mutex held by WithinTx
type storeTx struct {
	s *Store
}

var _ ledger.Tx = (*storeTx)(nil)

func (t *storeTx) Balance(ctx context.Context, account, asset common.Address) (*big.Int, error) {
	return t.s.book.Balance(ctx, account, asset)
}

func (t *storeTx) Credit(ctx context.Context, account, asset common.Address, amount *big.Int) error {
	return t.s.book.Credit(ctx, account, asset, amount)
}

func (t *storeTx) Debit(ctx context.Context, account, asset common.Address, amount *big.Int) error {
	return t.s.book.Debit(ctx, account, asset, amount)
}

func (t *storeTx) Transfer(ctx context.Context, asset, from, to common.Address, amount *big.Int) error {
	return t.s.book.Transfer(ctx, asset, from, to, amount)
}

func (t *storeTx) GetTransaction(ctx context.Context, id ledger.ID) (*ledger.Transaction, error) {
	return t.s.getTransaction(id)
}

func (t *storeTx) PutTransaction(ctx context.Context, txn *ledger.Transaction) error {
	if _, exists := t.s.txns[txn.ID]; !exists {
		t.s.order[txn.Depositor] = append(t.s.order[txn.Depositor], txn.ID)
	}
	t.s.txns[txn.ID] = txn.Clone()
	return nil
}

func (t *storeTx) AddCollectedFees(ctx context.Context, token common.Address, delta *big.Int) error {
	total := t.s.collectedFees(token)
	t.s.fees[token] = total.Add(total, delta)
	return nil
}

func (t *storeTx) CollectedFees(ctx context.Context, token common.Address) (*big.Int, error) {
	return t.s.collectedFees(token), nil
}
