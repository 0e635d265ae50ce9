package ledger

import (
	"context"
	"encoding/binary"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	apperrors "github.com/defi-direct/bridge-middleware/pkg/app/errors"
	"github.com/defi-direct/bridge-middleware/pkg/bank"
	"github.com/defi-direct/bridge-middleware/pkg/events"
	"github.com/defi-direct/bridge-middleware/pkg/quote"
)

// Service is the transaction ledger interface consumed by the HTTP layer
type Service interface {
	Initiate(ctx context.Context, depositor, token common.Address, amount *big.Int) (ID, error)
	InitiateWithOracle(ctx context.Context, depositor, token common.Address, amount *big.Int, source common.Address, fiat FiatDetails) (ID, error)
	Complete(ctx context.Context, caller common.Address, id ID, amountSpent *big.Int) error
	Refund(ctx context.Context, caller common.Address, id ID) error

	AddSupportedToken(ctx context.Context, caller, token common.Address, decimals uint8) error
	RemoveSupportedToken(ctx context.Context, caller, token common.Address) error
	UpdateSpreadFee(ctx context.Context, caller common.Address, bps uint32) error
	SetFeeReceiver(ctx context.Context, caller, addr common.Address) error
	SetVault(ctx context.Context, caller, addr common.Address) error
	SetTransactionManager(ctx context.Context, caller, addr common.Address) error
	SetRelayAddress(ctx context.Context, caller, addr common.Address) error
	WithdrawFees(ctx context.Context, caller, token, to common.Address) (*big.Int, error)
	Pause(ctx context.Context, caller common.Address) error
	Unpause(ctx context.Context, caller common.Address) error
	TransferOwnership(ctx context.Context, caller, candidate common.Address) error
	AcceptOwnership(ctx context.Context, caller common.Address) error

	Transaction(ctx context.Context, id ID) (*Transaction, error)
	TransactionIDs(ctx context.Context, depositor common.Address) ([]ID, error)
	CollectedFees(ctx context.Context, token common.Address) (*big.Int, error)
	IsTokenSupported(token common.Address) bool
	SpreadFee() uint32
	FeeReceiver() common.Address
	Vault() common.Address
	TransactionManager() common.Address
	Owner() common.Address
	Paused() bool
}

var _ Service = (*Engine)(nil)

// EngineConfig seeds the engine's role and token state
type EngineConfig struct {
	Owner              common.Address
	TransactionManager common.Address
	FeeReceiver        common.Address
	Vault              common.Address
	SpreadFeeBps       uint32
	// SupportedTokens maps token address to its decimals
	SupportedTokens map[common.Address]uint8
}

// Engine runs the ledger state machine. Mutating calls hold one mutex and
// apply their effects inside a single store transaction, so each call
// commits fully or not at all.
type Engine struct {
	mu      sync.RWMutex
	store   Store
	oracle  quote.PriceOracle
	emitter events.Emitter

	owner        common.Address
	pendingOwner common.Address
	txManager    common.Address
	feeReceiver  common.Address
	vault        common.Address
	relayAddr    common.Address
	spreadBps    uint32
	tokens       map[common.Address]uint8
	paused       bool

	seq  uint64
	nowF func() time.Time
}

// NewEngine creates a ledger engine over the given store and collaborators
func NewEngine(store Store, oracle quote.PriceOracle, emitter events.Emitter, cfg EngineConfig) *Engine {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	tokens := make(map[common.Address]uint8, len(cfg.SupportedTokens))
	for token, decimals := range cfg.SupportedTokens {
		tokens[token] = decimals
	}
	return &Engine{
		store:       store,
		oracle:      oracle,
		emitter:     emitter,
		owner:       cfg.Owner,
		txManager:   cfg.TransactionManager,
		feeReceiver: cfg.FeeReceiver,
		vault:       cfg.Vault,
		spreadBps:   cfg.SpreadFeeBps,
		tokens:      tokens,
		nowF:        time.Now,
	}
}

// newID derives a collision-resistant transaction id. The sequence counter
// disambiguates two initiations from one depositor in the same instant.
func (e *Engine) newID(depositor, token common.Address, amount *big.Int, at time.Time) ID {
	e.seq++
	var tail [16]byte
	binary.BigEndian.PutUint64(tail[:8], uint64(at.UnixNano()))
	binary.BigEndian.PutUint64(tail[8:], e.seq)
	return ID(crypto.Keccak256Hash(depositor.Bytes(), token.Bytes(), amount.Bytes(), tail[:]))
}

// spreadFeeOf computes floor(amount * spreadBps / 10000)
func spreadFeeOf(amount *big.Int, spreadBps uint32) *big.Int {
	fee := new(big.Int).Mul(amount, big.NewInt(int64(spreadBps)))
	return fee.Div(fee, big.NewInt(BpsDenominator))
}

func (e *Engine) checkInitiate(token common.Address, amount *big.Int) error {
	if e.paused {
		return apperrors.LockedError(ErrPaused, "ledger is paused")
	}
	if _, ok := e.tokens[token]; !ok {
		return apperrors.BadRequestError(ErrTokenNotSupported, "token not supported")
	}
	if amount == nil || amount.Sign() <= 0 {
		return apperrors.BadRequestError(ErrInvalidAmount, "amount must be positive")
	}
	return nil
}

// lockEscrow pulls principal plus fee into escrow and records the transaction
func (e *Engine) lockEscrow(ctx context.Context, txn *Transaction) error {
	total := new(big.Int).Add(txn.LockedAmount, txn.Fee)
	return e.store.WithinTx(ctx, func(tx Tx) error {
		if err := tx.Transfer(ctx, txn.Token, txn.Depositor, EscrowAccount, total); err != nil {
			if errors.Is(err, bank.ErrInsufficientBalance) {
				return apperrors.InsufficientFundsError(err, "insufficient token balance")
			}
			return apperrors.GeneralError(err)
		}
		if err := tx.PutTransaction(ctx, txn); err != nil {
			return apperrors.GeneralError(err)
		}
		if err := tx.AddCollectedFees(ctx, txn.Token, txn.Fee); err != nil {
			return apperrors.GeneralError(err)
		}
		return nil
	})
}

// Initiate escrows amount plus the spread fee against an off-chain payout
func (e *Engine) Initiate(ctx context.Context, depositor, token common.Address, amount *big.Int) (ID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkInitiate(token, amount); err != nil {
		return ID{}, err
	}

	now := e.nowF()
	txn := &Transaction{
		ID:           e.newID(depositor, token, amount, now),
		Depositor:    depositor,
		Token:        token,
		LockedAmount: new(big.Int).Set(amount),
		Fee:          spreadFeeOf(amount, e.spreadBps),
		InitiatedAt:  now,
	}
	if err := e.lockEscrow(ctx, txn); err != nil {
		return ID{}, err
	}

	e.emitter.Emit(EventTransactionInitiated{
		ID:        txn.ID,
		Depositor: depositor,
		Token:     token,
		Amount:    txn.LockedAmount,
		Fee:       txn.Fee,
	})
	return txn.ID, nil
}

// InitiateWithOracle escrows with a fee priced through the USD notional:
// the oracle answer converts the amount to USD, the spread applies there,
// and the USD fee converts back to token units, flooring at each step.
func (e *Engine) InitiateWithOracle(ctx context.Context, depositor, token common.Address, amount *big.Int, source common.Address, fiat FiatDetails) (ID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkInitiate(token, amount); err != nil {
		return ID{}, err
	}
	if source == (common.Address{}) {
		return ID{}, apperrors.BadRequestError(ErrInvalidPriceSource, "invalid price source")
	}
	q, err := e.oracle.Quote(ctx, source)
	if err != nil {
		return ID{}, apperrors.BadRequestError(errors.Join(ErrInvalidPriceSource, err), "invalid price source")
	}
	if !q.Valid() {
		return ID{}, apperrors.BadRequestError(ErrInvalidPriceSource, "invalid price source")
	}

	now := e.nowF()
	txn := &Transaction{
		ID:           e.newID(depositor, token, amount, now),
		Depositor:    depositor,
		Token:        token,
		LockedAmount: new(big.Int).Set(amount),
		Fee:          oracleFeeOf(amount, q.Answer, e.tokens[token], e.spreadBps),
		Fiat:         &fiat,
		InitiatedAt:  now,
	}
	if err := e.lockEscrow(ctx, txn); err != nil {
		return ID{}, err
	}

	e.emitter.Emit(EventTransactionInitiated{
		ID:        txn.ID,
		Depositor: depositor,
		Token:     token,
		Amount:    txn.LockedAmount,
		Fee:       txn.Fee,
	})
	return txn.ID, nil
}

// oracleFeeOf prices the spread fee through the USD notional
func oracleFeeOf(amount, answer *big.Int, tokenDecimals uint8, spreadBps uint32) *big.Int {
	pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(tokenDecimals)), nil)
	notional := new(big.Int).Mul(amount, answer)
	notional.Div(notional, pow)
	feeUSD := new(big.Int).Mul(notional, big.NewInt(int64(spreadBps)))
	feeUSD.Div(feeUSD, big.NewInt(BpsDenominator))
	fee := new(big.Int).Mul(feeUSD, pow)
	return fee.Div(fee, answer)
}

// Complete settles a transaction after the fiat leg was paid out.
// Only the transaction manager may call it, and amountSpent must equal
// the locked amount exactly.
func (e *Engine) Complete(ctx context.Context, caller common.Address, id ID, amountSpent *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.txManager {
		return apperrors.UnAuthorizedError(ErrNotTransactionManager, "caller is not the transaction manager")
	}

	var completed *Transaction
	err := e.store.WithinTx(ctx, func(tx Tx) error {
		txn, err := tx.GetTransaction(ctx, id)
		if err != nil {
			if errors.Is(err, ErrTransactionNotFound) {
				return apperrors.ResourceNotFoundError(err, "transaction not found")
			}
			return apperrors.GeneralError(err)
		}
		if txn.Processed() {
			return apperrors.ConflictError(ErrAlreadyProcessed, "transaction already processed")
		}
		if amountSpent == nil || amountSpent.Cmp(txn.LockedAmount) != 0 {
			return apperrors.BadRequestError(ErrAmountMismatch, "amount spent does not equal locked amount")
		}
		if err := tx.Transfer(ctx, txn.Token, EscrowAccount, e.feeReceiver, txn.Fee); err != nil {
			return apperrors.GeneralError(err)
		}
		if err := tx.Transfer(ctx, txn.Token, EscrowAccount, e.vault, txn.LockedAmount); err != nil {
			return apperrors.GeneralError(err)
		}
		// The fee settles to the receiver here, so it leaves the
		// withdrawable accumulator with it.
		if err := tx.AddCollectedFees(ctx, txn.Token, new(big.Int).Neg(txn.Fee)); err != nil {
			return apperrors.GeneralError(err)
		}
		now := e.nowF()
		txn.Completed = true
		txn.AmountSpent = new(big.Int).Set(amountSpent)
		txn.SettledAt = &now
		if err := tx.PutTransaction(ctx, txn); err != nil {
			return apperrors.GeneralError(err)
		}
		completed = txn
		return nil
	})
	if err != nil {
		return err
	}

	e.emitter.Emit(EventTransactionCompleted{ID: id, Token: completed.Token, AmountSpent: completed.AmountSpent})
	return nil
}

// Refund returns escrow including the fee to the depositor. Owner only.
func (e *Engine) Refund(ctx context.Context, caller common.Address, id ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		return apperrors.UnAuthorizedError(ErrNotOwner, "caller is not the owner")
	}

	var refunded *big.Int
	var refundedToken common.Address
	err := e.store.WithinTx(ctx, func(tx Tx) error {
		txn, err := tx.GetTransaction(ctx, id)
		if err != nil {
			if errors.Is(err, ErrTransactionNotFound) {
				return apperrors.ResourceNotFoundError(err, "transaction not found")
			}
			return apperrors.GeneralError(err)
		}
		if txn.Processed() {
			return apperrors.ConflictError(ErrAlreadyProcessed, "transaction already processed")
		}
		total := new(big.Int).Add(txn.LockedAmount, txn.Fee)
		if err := tx.Transfer(ctx, txn.Token, EscrowAccount, txn.Depositor, total); err != nil {
			return apperrors.GeneralError(err)
		}
		// The accumulator stays a true withdrawable balance: the refunded
		// fee leaves it with the refund.
		if err := tx.AddCollectedFees(ctx, txn.Token, new(big.Int).Neg(txn.Fee)); err != nil {
			return apperrors.GeneralError(err)
		}
		now := e.nowF()
		txn.Refunded = true
		txn.SettledAt = &now
		if err := tx.PutTransaction(ctx, txn); err != nil {
			return apperrors.GeneralError(err)
		}
		refunded = total
		refundedToken = txn.Token
		return nil
	})
	if err != nil {
		return err
	}

	e.emitter.Emit(EventTransactionRefunded{ID: id, Token: refundedToken, AmountRefunded: refunded})
	return nil
}

// WithdrawFees sweeps the fee accumulator for a token to an address. Owner only.
func (e *Engine) WithdrawFees(ctx context.Context, caller, token, to common.Address) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		return nil, apperrors.UnAuthorizedError(ErrNotOwner, "caller is not the owner")
	}
	if to == (common.Address{}) {
		return nil, apperrors.BadRequestError(ErrZeroAddress, "withdrawal target is the zero address")
	}

	var swept *big.Int
	err := e.store.WithinTx(ctx, func(tx Tx) error {
		amount, err := tx.CollectedFees(ctx, token)
		if err != nil {
			return apperrors.GeneralError(err)
		}
		if amount.Sign() == 0 {
			return apperrors.InsufficientFundsError(ErrNothingToWithdraw, "nothing to withdraw")
		}
		if err := tx.Transfer(ctx, token, EscrowAccount, to, amount); err != nil {
			return apperrors.GeneralError(err)
		}
		if err := tx.AddCollectedFees(ctx, token, new(big.Int).Neg(amount)); err != nil {
			return apperrors.GeneralError(err)
		}
		swept = amount
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.emitter.Emit(EventFeesWithdrawn{Token: token, To: to, Amount: swept})
	return swept, nil
}

func (e *Engine) requireOwner(caller common.Address) error {
	if caller != e.owner {
		return apperrors.UnAuthorizedError(ErrNotOwner, "caller is not the owner")
	}
	return nil
}

// AddSupportedToken admits a token to the initiate path. Owner only.
func (e *Engine) AddSupportedToken(ctx context.Context, caller, token common.Address, decimals uint8) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if token == (common.Address{}) {
		return apperrors.BadRequestError(ErrZeroAddress, "token is the zero address")
	}
	e.tokens[token] = decimals
	e.emitter.Emit(EventTokenAdded{Token: token})
	return nil
}

// RemoveSupportedToken removes a token from the initiate path. Owner only.
func (e *Engine) RemoveSupportedToken(ctx context.Context, caller, token common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	delete(e.tokens, token)
	e.emitter.Emit(EventTokenRemoved{Token: token})
	return nil
}

// UpdateSpreadFee sets the spread in basis points, capped at 500 inclusive.
// Owner only. Affects only subsequently initiated transactions.
func (e *Engine) UpdateSpreadFee(ctx context.Context, caller common.Address, bps uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if bps > MaxSpreadFeeBps {
		return apperrors.BadRequestError(ErrFeeTooHigh, "fee too high")
	}
	old := e.spreadBps
	e.spreadBps = bps
	e.emitter.Emit(EventSpreadFeeUpdated{Old: old, New: bps})
	return nil
}

// SetFeeReceiver rotates the fee receiver. Owner only, non-zero address.
func (e *Engine) SetFeeReceiver(ctx context.Context, caller, addr common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if addr == (common.Address{}) {
		return apperrors.BadRequestError(ErrZeroAddress, "fee receiver is the zero address")
	}
	old := e.feeReceiver
	e.feeReceiver = addr
	e.emitter.Emit(EventFeeReceiverUpdated{Old: old, New: addr})
	return nil
}

// SetVault rotates the vault. Owner only, non-zero address.
func (e *Engine) SetVault(ctx context.Context, caller, addr common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if addr == (common.Address{}) {
		return apperrors.BadRequestError(ErrZeroAddress, "vault is the zero address")
	}
	old := e.vault
	e.vault = addr
	e.emitter.Emit(EventVaultUpdated{Old: old, New: addr})
	return nil
}

// SetTransactionManager rotates the transaction manager. Owner only, non-zero address.
func (e *Engine) SetTransactionManager(ctx context.Context, caller, addr common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if addr == (common.Address{}) {
		return apperrors.BadRequestError(ErrZeroAddress, "transaction manager is the zero address")
	}
	old := e.txManager
	e.txManager = addr
	e.emitter.Emit(EventTransactionManagerUpdated{Old: old, New: addr})
	return nil
}

// SetRelayAddress stores the relay counterpart pointer. Owner only.
func (e *Engine) SetRelayAddress(ctx context.Context, caller, addr common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	old := e.relayAddr
	e.relayAddr = addr
	e.emitter.Emit(EventRelayAddressUpdated{Old: old, New: addr})
	return nil
}

// Pause gates initiations. Owner only.
func (e *Engine) Pause(ctx context.Context, caller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if e.paused {
		return apperrors.ConflictError(ErrPaused, "ledger already paused")
	}
	e.paused = true
	e.emitter.Emit(EventPaused{Account: caller})
	return nil
}

// Unpause reopens initiations. Owner only.
func (e *Engine) Unpause(ctx context.Context, caller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if !e.paused {
		return apperrors.ConflictError(errors.New("ledger is not paused"), "ledger is not paused")
	}
	e.paused = false
	e.emitter.Emit(EventUnpaused{Account: caller})
	return nil
}

// TransferOwnership stages a pending owner. The current owner stays
// authoritative until the candidate accepts.
func (e *Engine) TransferOwnership(ctx context.Context, caller, candidate common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.pendingOwner = candidate
	e.emitter.Emit(EventOwnershipTransferStarted{Current: e.owner, Pending: candidate})
	return nil
}

// AcceptOwnership completes a staged ownership handover
func (e *Engine) AcceptOwnership(ctx context.Context, caller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pendingOwner == (common.Address{}) || caller != e.pendingOwner {
		return apperrors.UnAuthorizedError(ErrNotPendingOwner, "caller is not the pending owner")
	}
	previous := e.owner
	e.owner = caller
	e.pendingOwner = common.Address{}
	e.emitter.Emit(EventOwnershipTransferred{Previous: previous, New: caller})
	return nil
}

// Transaction returns a transaction by id
func (e *Engine) Transaction(ctx context.Context, id ID) (*Transaction, error) {
	txn, err := e.store.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTransactionNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "transaction not found")
		}
		return nil, apperrors.GeneralError(err)
	}
	return txn, nil
}

// TransactionIDs lists a depositor's transaction ids in insertion order
func (e *Engine) TransactionIDs(ctx context.Context, depositor common.Address) ([]ID, error) {
	ids, err := e.store.TransactionIDs(ctx, depositor)
	if err != nil {
		return nil, apperrors.GeneralError(err)
	}
	return ids, nil
}

// CollectedFees returns the withdrawable fee balance for a token
func (e *Engine) CollectedFees(ctx context.Context, token common.Address) (*big.Int, error) {
	fees, err := e.store.CollectedFees(ctx, token)
	if err != nil {
		return nil, apperrors.GeneralError(err)
	}
	return fees, nil
}

// IsTokenSupported reports support-set membership
func (e *Engine) IsTokenSupported(token common.Address) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.tokens[token]
	return ok
}

// SpreadFee returns the current spread in basis points
func (e *Engine) SpreadFee() uint32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.spreadBps
}

// FeeReceiver returns the fee receiver address
func (e *Engine) FeeReceiver() common.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.feeReceiver
}

// Vault returns the vault address
func (e *Engine) Vault() common.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.vault
}

// TransactionManager returns the transaction manager address
func (e *Engine) TransactionManager() common.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.txManager
}

// Owner returns the current owner
func (e *Engine) Owner() common.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.owner
}

// Paused reports the pause flag
func (e *Engine) Paused() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.paused
}
