package relay

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	apperrors "github.com/defi-direct/bridge-middleware/pkg/app/errors"
	"github.com/defi-direct/bridge-middleware/pkg/bank"
	"github.com/defi-direct/bridge-middleware/pkg/events"
	"github.com/defi-direct/bridge-middleware/pkg/quote"
)

// Service is the relay interface consumed by the HTTP layer
type Service interface {
	EstimateFee(ctx context.Context, destination uint64, receiver, token common.Address, amount *big.Int, feeAsset FeeAsset, gasLimit uint64) (*big.Int, error)
	TransferPayFeeToken(ctx context.Context, caller common.Address, destination uint64, receiver, token common.Address, amount *big.Int, gasLimit uint64) (MessageID, error)
	TransferPayNative(ctx context.Context, caller common.Address, destination uint64, receiver, token common.Address, amount *big.Int, gasLimit uint64, attachedValue *big.Int) (MessageID, error)

	AllowlistChain(ctx context.Context, caller common.Address, selector uint64, allowed bool) error
	SetTokenSupport(ctx context.Context, caller, token common.Address, supported bool) error
	WithdrawNative(ctx context.Context, caller, to common.Address) (*big.Int, error)
	WithdrawToken(ctx context.Context, caller, to, token common.Address) (*big.Int, error)
	UpdateCounterpartAddress(ctx context.Context, caller, addr common.Address) error
	Pause(ctx context.Context, caller common.Address) error
	Unpause(ctx context.Context, caller common.Address) error
	TransferOwnership(ctx context.Context, caller, candidate common.Address) error
	AcceptOwnership(ctx context.Context, caller common.Address) error

	GetDispatch(ctx context.Context, id MessageID) (*Dispatch, error)
	Dispatches(ctx context.Context, caller common.Address) ([]*Dispatch, error)
	IsChainAllowlisted(selector uint64) bool
	IsTokenSupported(token common.Address) bool
	Counterpart() common.Address
	Owner() common.Address
	Paused() bool
}

// EngineConfig seeds the engine's role and allowlist state
type EngineConfig struct {
	Owner    common.Address
	FeeToken common.Address
	// Counterpart is the transaction ledger pointer
	Counterpart     common.Address
	AllowedChains   []uint64
	SupportedTokens []common.Address
}

// Engine runs the relay state machine. Mutating calls hold one mutex; the
// token pull, fee charge and router dispatch of a transfer share one store
// transaction, so a router failure rolls the balances back.
type Engine struct {
	mu      sync.RWMutex
	store   Store
	router  quote.Router
	emitter events.Emitter

	owner        common.Address
	pendingOwner common.Address
	counterpart  common.Address
	feeToken     common.Address
	chains       map[uint64]bool
	tokens       map[common.Address]bool
	paused       bool

	nowF func() time.Time
}

var _ Service = (*Engine)(nil)

// NewEngine creates a relay engine over the given store and router
func NewEngine(store Store, router quote.Router, emitter events.Emitter, cfg EngineConfig) *Engine {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	chains := make(map[uint64]bool, len(cfg.AllowedChains))
	for _, selector := range cfg.AllowedChains {
		chains[selector] = true
	}
	tokens := make(map[common.Address]bool, len(cfg.SupportedTokens))
	for _, token := range cfg.SupportedTokens {
		tokens[token] = true
	}
	return &Engine{
		store:       store,
		router:      router,
		emitter:     emitter,
		owner:       cfg.Owner,
		counterpart: cfg.Counterpart,
		feeToken:    cfg.FeeToken,
		chains:      chains,
		tokens:      tokens,
		nowF:        time.Now,
	}
}

// validateTransfer runs the fail-closed pipeline in its fixed order,
// each check with a distinct error
func (e *Engine) validateTransfer(destination uint64, receiver, token common.Address, amount *big.Int, gasLimit uint64) error {
	if e.paused {
		return apperrors.LockedError(ErrPaused, "relay is paused")
	}
	if !e.chains[destination] {
		return apperrors.BadRequestError(ErrChainNotAllowlisted, "destination chain not allowlisted")
	}
	if !e.tokens[token] {
		return apperrors.BadRequestError(ErrTokenNotSupported, "token not supported")
	}
	if receiver == (common.Address{}) {
		return apperrors.BadRequestError(ErrInvalidReceiver, "invalid receiver address")
	}
	if amount == nil || amount.Cmp(big.NewInt(MinTransferAmount)) < 0 {
		return apperrors.BadRequestError(ErrInvalidAmount, "invalid transfer amount")
	}
	if gasLimit > MaxGasLimit {
		return apperrors.BadRequestError(ErrGasLimitTooHigh, "gas limit too high")
	}
	return nil
}

// EstimateFee quotes the relay fee without moving funds. Available while
// paused; only the gas ceiling is enforced.
func (e *Engine) EstimateFee(ctx context.Context, destination uint64, receiver, token common.Address, amount *big.Int, feeAsset FeeAsset, gasLimit uint64) (*big.Int, error) {
	if gasLimit > MaxGasLimit {
		return nil, apperrors.BadRequestError(ErrGasLimitTooHigh, "gas limit too high")
	}
	fee, err := e.router.QuoteFee(ctx, quote.DispatchRequest{
		DestinationChain: destination,
		Receiver:         receiver,
		Token:            token,
		Amount:           amount,
		GasLimit:         gasLimit,
		PayFeesInNative:  feeAsset == FeeAssetNative,
	})
	if err != nil {
		return nil, apperrors.DependencyFailureError(err, "fee quote failed")
	}
	return fee, nil
}

// TransferPayFeeToken relays a transfer, paying the fee from the caller's
// fee-token balance
func (e *Engine) TransferPayFeeToken(ctx context.Context, caller common.Address, destination uint64, receiver, token common.Address, amount *big.Int, gasLimit uint64) (MessageID, error) {
	return e.transfer(ctx, caller, destination, receiver, token, amount, gasLimit, FeeAssetToken, nil)
}

// TransferPayNative relays a transfer, consuming attached native value for
// the fee and refunding any excess over the quote
func (e *Engine) TransferPayNative(ctx context.Context, caller common.Address, destination uint64, receiver, token common.Address, amount *big.Int, gasLimit uint64, attachedValue *big.Int) (MessageID, error) {
	return e.transfer(ctx, caller, destination, receiver, token, amount, gasLimit, FeeAssetNative, attachedValue)
}

func (e *Engine) transfer(ctx context.Context, caller common.Address, destination uint64, receiver, token common.Address, amount *big.Int, gasLimit uint64, feeAsset FeeAsset, attachedValue *big.Int) (MessageID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := &Dispatch{
		Caller:           caller,
		DestinationChain: destination,
		Receiver:         receiver,
		Token:            token,
		Amount:           amount,
		FeeAsset:         feeAsset,
		GasLimit:         gasLimit,
		Status:           DispatchCreated,
		CreatedAt:        e.nowF(),
	}

	if err := e.validateTransfer(destination, receiver, token, amount, gasLimit); err != nil {
		return MessageID{}, err
	}
	d.Status = DispatchValidated
	d.Amount = new(big.Int).Set(amount)

	routerReq := quote.DispatchRequest{
		DestinationChain: destination,
		Receiver:         receiver,
		Token:            token,
		Amount:           amount,
		GasLimit:         gasLimit,
		PayFeesInNative:  feeAsset == FeeAssetNative,
	}
	fee, err := e.router.QuoteFee(ctx, routerReq)
	if err != nil {
		return MessageID{}, apperrors.DependencyFailureError(err, "fee quote failed")
	}
	d.Fee = fee

	if feeAsset == FeeAssetNative {
		if attachedValue == nil || attachedValue.Sign() == 0 {
			return MessageID{}, apperrors.InsufficientFundsError(ErrNoAttachedValue, "no attached value")
		}
		if attachedValue.Cmp(fee) < 0 {
			return MessageID{}, apperrors.InsufficientFundsError(ErrFeePaymentTooLow, "attached value below quoted fee")
		}
	}

	var messageID MessageID
	err = e.store.WithinTx(ctx, func(tx Tx) error {
		// Pull the transferred tokens first, then settle the fee.
		if err := tx.Transfer(ctx, token, caller, Account, amount); err != nil {
			if errors.Is(err, bank.ErrInsufficientBalance) {
				return apperrors.InsufficientFundsError(err, "insufficient token balance")
			}
			return apperrors.GeneralError(err)
		}
		switch feeAsset {
		case FeeAssetNative:
			if err := tx.Transfer(ctx, bank.Native, caller, Account, attachedValue); err != nil {
				if errors.Is(err, bank.ErrInsufficientBalance) {
					return apperrors.InsufficientFundsError(err, "insufficient native balance")
				}
				return apperrors.GeneralError(err)
			}
			excess := new(big.Int).Sub(attachedValue, fee)
			if excess.Sign() > 0 {
				if err := tx.Transfer(ctx, bank.Native, Account, caller, excess); err != nil {
					return apperrors.GeneralError(err)
				}
			}
		default:
			if err := tx.Transfer(ctx, e.feeToken, caller, Account, fee); err != nil {
				if errors.Is(err, bank.ErrInsufficientBalance) {
					return apperrors.InsufficientFundsError(err, "insufficient fee token balance")
				}
				return apperrors.GeneralError(err)
			}
		}
		d.Status = DispatchFeeCharged

		id, err := e.router.Dispatch(ctx, routerReq)
		if err != nil {
			return apperrors.DependencyFailureError(err, "router dispatch failed")
		}
		messageID = MessageID(id)
		d.MessageID = messageID
		d.Status = DispatchDispatched
		if err := tx.PutDispatch(ctx, d); err != nil {
			return apperrors.GeneralError(err)
		}
		return nil
	})
	if err != nil {
		return MessageID{}, err
	}

	e.emitter.Emit(EventTokensDispatched{
		MessageID:        messageID,
		DestinationChain: destination,
		Receiver:         receiver,
		Token:            token,
		Amount:           d.Amount,
		Fee:              d.Fee,
		FeeAsset:         feeAsset,
		GasLimit:         d.GasLimit,
	})
	return messageID, nil
}

func (e *Engine) requireOwner(caller common.Address) error {
	if caller != e.owner {
		return apperrors.UnAuthorizedError(ErrNotOwner, "caller is not the owner")
	}
	return nil
}

// AllowlistChain adds or removes a destination chain. Owner only.
func (e *Engine) AllowlistChain(ctx context.Context, caller common.Address, selector uint64, allowed bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if allowed {
		e.chains[selector] = true
	} else {
		delete(e.chains, selector)
	}
	e.emitter.Emit(EventChainAllowlistUpdated{Selector: selector, Allowed: allowed})
	return nil
}

// SetTokenSupport adds or removes a transferable token. Owner only.
func (e *Engine) SetTokenSupport(ctx context.Context, caller, token common.Address, supported bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if supported {
		e.tokens[token] = true
	} else {
		delete(e.tokens, token)
	}
	e.emitter.Emit(EventTokenSupportUpdated{Token: token, Supported: supported})
	return nil
}

// WithdrawNative sweeps the relay's native balance to an address. Owner only.
func (e *Engine) WithdrawNative(ctx context.Context, caller, to common.Address) (*big.Int, error) {
	return e.withdraw(ctx, caller, to, bank.Native)
}

// WithdrawToken sweeps the relay's balance of a token to an address. Owner only.
func (e *Engine) WithdrawToken(ctx context.Context, caller, to, token common.Address) (*big.Int, error) {
	return e.withdraw(ctx, caller, to, token)
}

func (e *Engine) withdraw(ctx context.Context, caller, to, asset common.Address) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return nil, err
	}
	if to == (common.Address{}) {
		return nil, apperrors.BadRequestError(ErrZeroAddress, "withdrawal target is the zero address")
	}

	var swept *big.Int
	err := e.store.WithinTx(ctx, func(tx Tx) error {
		balance, err := tx.Balance(ctx, Account, asset)
		if err != nil {
			return apperrors.GeneralError(err)
		}
		if balance.Sign() == 0 {
			return apperrors.InsufficientFundsError(ErrNothingToWithdraw, "nothing to withdraw")
		}
		if err := tx.Transfer(ctx, asset, Account, to, balance); err != nil {
			return apperrors.GeneralError(err)
		}
		swept = balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.emitter.Emit(EventFundsWithdrawn{Asset: asset, To: to, Amount: swept})
	return swept, nil
}

// UpdateCounterpartAddress stores the ledger pointer. Owner only.
func (e *Engine) UpdateCounterpartAddress(ctx context.Context, caller, addr common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	old := e.counterpart
	e.counterpart = addr
	e.emitter.Emit(EventCounterpartUpdated{Old: old, New: addr})
	return nil
}

// Pause gates the transfer entry points. Owner only.
func (e *Engine) Pause(ctx context.Context, caller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if e.paused {
		return apperrors.ConflictError(ErrPaused, "relay already paused")
	}
	e.paused = true
	e.emitter.Emit(EventPaused{Account: caller})
	return nil
}

// Unpause reopens the transfer entry points. Owner only.
func (e *Engine) Unpause(ctx context.Context, caller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if !e.paused {
		return apperrors.ConflictError(errors.New("relay is not paused"), "relay is not paused")
	}
	e.paused = false
	e.emitter.Emit(EventUnpaused{Account: caller})
	return nil
}

// TransferOwnership stages a pending owner
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

// GetDispatch returns a dispatch record by message id
func (e *Engine) GetDispatch(ctx context.Context, id MessageID) (*Dispatch, error) {
	d, err := e.store.GetDispatch(ctx, id)
	if err != nil {
		if errors.Is(err, ErrDispatchNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "dispatch not found")
		}
		return nil, apperrors.GeneralError(err)
	}
	return d, nil
}

// Dispatches lists a caller's dispatch records
func (e *Engine) Dispatches(ctx context.Context, caller common.Address) ([]*Dispatch, error) {
	ds, err := e.store.Dispatches(ctx, caller)
	if err != nil {
		return nil, apperrors.GeneralError(err)
	}
	return ds, nil
}

// IsChainAllowlisted reports allowlist membership
func (e *Engine) IsChainAllowlisted(selector uint64) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.chains[selector]
}

// IsTokenSupported reports support-set membership
func (e *Engine) IsTokenSupported(token common.Address) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tokens[token]
}

// Counterpart returns the ledger pointer
func (e *Engine) Counterpart() common.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.counterpart
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
