// Package memory provides an in-memory relay store used by the engine
// tests and by local development runs without Postgres.
package memory

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/defi-direct/bridge-middleware/pkg/bank"
	"github.com/defi-direct/bridge-middleware/pkg/relay"
)

// Store is an in-memory relay.Store with snapshot-based rollback
type Store struct {
	mu         sync.Mutex
	book       *bank.MemoryBook
	dispatches map[relay.MessageID]*relay.Dispatch
	order      map[common.Address][]relay.MessageID
}

var _ relay.Store = (*Store)(nil)

// New creates a store over the given balance book
func New(book *bank.MemoryBook) *Store {
	return &Store{
		book:       book,
		dispatches: make(map[relay.MessageID]*relay.Dispatch),
		order:      make(map[common.Address][]relay.MessageID),
	}
}

// WithinTx implements relay.Store. State is snapshotted up front and
// restored wholesale if fn fails.
func (s *Store) WithinTx(ctx context.Context, fn func(tx relay.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookSnap := s.book.Snapshot()
	dispatchSnap := make(map[relay.MessageID]*relay.Dispatch, len(s.dispatches))
	for id, d := range s.dispatches {
		dispatchSnap[id] = d.Clone()
	}
	orderSnap := make(map[common.Address][]relay.MessageID, len(s.order))
	for caller, ids := range s.order {
		orderSnap[caller] = append([]relay.MessageID(nil), ids...)
	}

	if err := fn(&storeTx{s: s}); err != nil {
		s.book.Restore(bookSnap)
		s.dispatches = dispatchSnap
		s.order = orderSnap
		return err
	}
	return nil
}

// GetDispatch implements relay.Store
func (s *Store) GetDispatch(ctx context.Context, id relay.MessageID) (*relay.Dispatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dispatches[id]
	if !ok {
		return nil, relay.ErrDispatchNotFound
	}
	return d.Clone(), nil
}

// Dispatches implements relay.Store
func (s *Store) Dispatches(ctx context.Context, caller common.Address) ([]*relay.Dispatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.order[caller]
	out := make([]*relay.Dispatch, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.dispatches[id].Clone())
	}
	return out, nil
}

// Balance implements relay.Store
func (s *Store) Balance(ctx context.Context, account, asset common.Address) (*big.Int, error) {
	return s.book.Balance(ctx, account, asset)
}

// storeTx operates on the store under the mutex held by WithinTx
type storeTx struct {
	s *Store
}

var _ relay.Tx = (*storeTx)(nil)

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

func (t *storeTx) PutDispatch(ctx context.Context, d *relay.Dispatch) error {
	if _, exists := t.s.dispatches[d.MessageID]; !exists {
		t.s.order[d.Caller] = append(t.s.order[d.Caller], d.MessageID)
	}
	t.s.dispatches[d.MessageID] = d.Clone()
	return nil
}
