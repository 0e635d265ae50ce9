package ledger_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	apperrors "github.com/defi-direct/bridge-middleware/pkg/app/errors"
	"github.com/defi-direct/bridge-middleware/pkg/bank"
	"github.com/defi-direct/bridge-middleware/pkg/ledger/store/memory"
	"github.com/defi-direct/bridge-middleware/pkg/quote"
	. "github.com/defi-direct/bridge-middleware/pkg/ledger"
)

var (
	owner       = common.HexToAddress("0x1000000000000000000000000000000000000001")
	txManager   = common.HexToAddress("0x1000000000000000000000000000000000000002")
	feeReceiver = common.HexToAddress("0x1000000000000000000000000000000000000003")
	vault       = common.HexToAddress("0x1000000000000000000000000000000000000004")
	depositor   = common.HexToAddress("0x2000000000000000000000000000000000000001")
	stranger    = common.HexToAddress("0x2000000000000000000000000000000000000002")
	usdc        = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	feedAddr    = common.HexToAddress("0x3000000000000000000000000000000000000001")
)

type fixture struct {
	engine *Engine
	book   *bank.MemoryBook
	oracle *quote.ManualOracle
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	book := bank.NewMemoryBook()
	oracle := quote.NewManualOracle()
	engine := NewEngine(memory.New(book), oracle, nil, EngineConfig{
		Owner:              owner,
		TransactionManager: txManager,
		FeeReceiver:        feeReceiver,
		Vault:              vault,
		SpreadFeeBps:       100,
		SupportedTokens:    map[common.Address]uint8{usdc: 6},
	})
	return &fixture{engine: engine, book: book, oracle: oracle}
}

func (f *fixture) fund(t *testing.T, account common.Address, amount int64) {
	t.Helper()
	if err := f.book.Credit(context.Background(), account, usdc, big.NewInt(amount)); err != nil {
		t.Fatalf("Credit() failed: %v", err)
	}
}

func (f *fixture) balance(t *testing.T, account common.Address) *big.Int {
	t.Helper()
	bal, err := f.book.Balance(context.Background(), account, usdc)
	if err != nil {
		t.Fatalf("Balance() failed: %v", err)
	}
	return bal
}

func (f *fixture) initiate(t *testing.T, amount int64) ID {
	t.Helper()
	id, err := f.engine.Initiate(context.Background(), depositor, usdc, big.NewInt(amount))
	if err != nil {
		t.Fatalf("Initiate() failed: %v", err)
	}
	return id
}

func TestInitiate_LocksAmountPlusFee(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	// 1000 units of a 6-decimal token at 100 bps spread
	f.fund(t, depositor, 1010_000_000)

	id, err := f.engine.Initiate(ctx, depositor, usdc, big.NewInt(1000_000_000))
	if err != nil {
		t.Fatalf("Initiate() failed: %v", err)
	}

	txn, err := f.engine.Transaction(ctx, id)
	if err != nil {
		t.Fatalf("Transaction() failed: %v", err)
	}
	if txn.Fee.Cmp(big.NewInt(10_000_000)) != 0 {
		t.Fatalf("expected fee 10 units, got %s", txn.Fee)
	}
	if txn.LockedAmount.Cmp(big.NewInt(1000_000_000)) != 0 {
		t.Fatalf("expected locked 1000 units, got %s", txn.LockedAmount)
	}
	if txn.Processed() {
		t.Fatal("fresh transaction must not be processed")
	}

	if got := f.balance(t, depositor); got.Sign() != 0 {
		t.Fatalf("expected depositor fully drained, got %s", got)
	}
	if got := f.balance(t, EscrowAccount); got.Cmp(big.NewInt(1010_000_000)) != 0 {
		t.Fatalf("expected escrow to hold amount+fee, got %s", got)
	}

	fees, err := f.engine.CollectedFees(ctx, usdc)
	if err != nil {
		t.Fatalf("CollectedFees() failed: %v", err)
	}
	if fees.Cmp(big.NewInt(10_000_000)) != 0 {
		t.Fatalf("expected accumulator 10 units, got %s", fees)
	}

	ids, err := f.engine.TransactionIDs(ctx, depositor)
	if err != nil {
		t.Fatalf("TransactionIDs() failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != id {
		t.Fatalf("expected [%s], got %v", id.Hex(), ids)
	}
}

func TestInitiate_FeeFloors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fund(t, depositor, 2000)

	// floor(999 * 100 / 10000) = 9
	id, err := f.engine.Initiate(ctx, depositor, usdc, big.NewInt(999))
	if err != nil {
		t.Fatalf("Initiate() failed: %v", err)
	}
	txn, _ := f.engine.Transaction(ctx, id)
	if txn.Fee.Cmp(big.NewInt(9)) != 0 {
		t.Fatalf("expected floored fee 9, got %s", txn.Fee)
	}
}

func TestInitiate_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fund(t, depositor, 10_000)

	_, err := f.engine.Initiate(ctx, depositor, stranger, big.NewInt(100))
	if !errors.Is(err, ErrTokenNotSupported) {
		t.Fatalf("expected ErrTokenNotSupported, got %v", err)
	}
	if !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Fatalf("expected CategoryBadRequest, got %v", err)
	}

	_, err = f.engine.Initiate(ctx, depositor, usdc, big.NewInt(0))
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	_, err = f.engine.Initiate(ctx, depositor, usdc, nil)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for nil amount, got %v", err)
	}
}

func TestInitiate_Paused(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fund(t, depositor, 10_000)

	if err := f.engine.Pause(ctx, owner); err != nil {
		t.Fatalf("Pause() failed: %v", err)
	}

	_, err := f.engine.Initiate(ctx, depositor, usdc, big.NewInt(100))
	if !errors.Is(err, ErrPaused) {
		t.Fatalf("expected ErrPaused, got %v", err)
	}
	if !apperrors.Is(err, apperrors.CategoryLocked) {
		t.Fatalf("expected CategoryLocked, got %v", err)
	}

	// Queries stay available while paused
	if _, err := f.engine.TransactionIDs(ctx, depositor); err != nil {
		t.Fatalf("TransactionIDs() failed while paused: %v", err)
	}

	if err := f.engine.Unpause(ctx, owner); err != nil {
		t.Fatalf("Unpause() failed: %v", err)
	}
	if _, err := f.engine.Initiate(ctx, depositor, usdc, big.NewInt(100)); err != nil {
		t.Fatalf("Initiate() after unpause failed: %v", err)
	}
}

func TestInitiate_InsufficientBalanceRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fund(t, depositor, 1000) // needs 1010 for amount 1000

	_, err := f.engine.Initiate(ctx, depositor, usdc, big.NewInt(1000))
	if !apperrors.Is(err, apperrors.CategoryInsufficientFunds) {
		t.Fatalf("expected CategoryInsufficientFunds, got %v", err)
	}

	if got := f.balance(t, depositor); got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("expected depositor balance untouched, got %s", got)
	}
	fees, _ := f.engine.CollectedFees(ctx, usdc)
	if fees.Sign() != 0 {
		t.Fatalf("expected empty accumulator after rollback, got %s", fees)
	}
	ids, _ := f.engine.TransactionIDs(ctx, depositor)
	if len(ids) != 0 {
		t.Fatalf("expected no transaction recorded, got %v", ids)
	}
}

func TestInitiate_IDsAreUnique(t *testing.T) {
	f := newFixture(t)
	f.fund(t, depositor, 1_000_000)

	first := f.initiate(t, 1000)
	second := f.initiate(t, 1000)
	if first == second {
		t.Fatal("identical initiations must produce distinct ids")
	}
}

func TestInitiateWithOracle_FeeThroughNotional(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fund(t, depositor, 1010_000_000)
	// $1.00 answer at 8 feed decimals: fee matches the plain spread path
	f.oracle.SetQuote(feedAddr, quote.PriceQuote{Answer: big.NewInt(100_000_000), Decimals: 8})

	fiat := FiatDetails{
		BankAccountRef: "0123456789",
		BankName:       "Access Bank",
		RecipientName:  "A. Trader",
		Amount:         decimal.NewFromInt(1_500_000),
	}
	id, err := f.engine.InitiateWithOracle(ctx, depositor, usdc, big.NewInt(1000_000_000), feedAddr, fiat)
	if err != nil {
		t.Fatalf("InitiateWithOracle() failed: %v", err)
	}

	txn, _ := f.engine.Transaction(ctx, id)
	if txn.Fee.Cmp(big.NewInt(10_000_000)) != 0 {
		t.Fatalf("expected oracle-priced fee 10 units, got %s", txn.Fee)
	}
	if txn.Fiat == nil || txn.Fiat.BankName != "Access Bank" {
		t.Fatalf("expected fiat metadata on transaction, got %+v", txn.Fiat)
	}
}

func TestInitiateWithOracle_InvalidSource(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fund(t, depositor, 10_000)

	// Zero source
	_, err := f.engine.InitiateWithOracle(ctx, depositor, usdc, big.NewInt(100), common.Address{}, FiatDetails{})
	if !errors.Is(err, ErrInvalidPriceSource) {
		t.Fatalf("expected ErrInvalidPriceSource for zero source, got %v", err)
	}

	// Unknown source: oracle has no quote
	_, err = f.engine.InitiateWithOracle(ctx, depositor, usdc, big.NewInt(100), feedAddr, FiatDetails{})
	if !errors.Is(err, ErrInvalidPriceSource) {
		t.Fatalf("expected ErrInvalidPriceSource for unknown source, got %v", err)
	}
	if !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Fatalf("expected CategoryBadRequest, got %v", err)
	}

	// Non-positive answer
	f.oracle.SetQuote(feedAddr, quote.PriceQuote{Answer: big.NewInt(0), Decimals: 8})
	_, err = f.engine.InitiateWithOracle(ctx, depositor, usdc, big.NewInt(100), feedAddr, FiatDetails{})
	if !errors.Is(err, ErrInvalidPriceSource) {
		t.Fatalf("expected ErrInvalidPriceSource for zero answer, got %v", err)
	}
}

func TestComplete_SplitsEscrow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fund(t, depositor, 1010_000_000)
	id := f.initiate(t, 1000_000_000)

	if err := f.engine.Complete(ctx, txManager, id, big.NewInt(1000_000_000)); err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}

	if got := f.balance(t, feeReceiver); got.Cmp(big.NewInt(10_000_000)) != 0 {
		t.Fatalf("expected fee receiver +10 units, got %s", got)
	}
	if got := f.balance(t, vault); got.Cmp(big.NewInt(1000_000_000)) != 0 {
		t.Fatalf("expected vault +1000 units, got %s", got)
	}
	if got := f.balance(t, EscrowAccount); got.Sign() != 0 {
		t.Fatalf("expected escrow emptied, got %s", got)
	}

	txn, _ := f.engine.Transaction(ctx, id)
	if !txn.Completed || txn.Refunded {
		t.Fatalf("expected completed state, got completed=%v refunded=%v", txn.Completed, txn.Refunded)
	}
	if txn.AmountSpent.Cmp(big.NewInt(1000_000_000)) != 0 {
		t.Fatalf("expected amountSpent recorded, got %s", txn.AmountSpent)
	}
	if txn.SettledAt == nil {
		t.Fatal("expected SettledAt set")
	}

	fees, _ := f.engine.CollectedFees(ctx, usdc)
	if fees.Sign() != 0 {
		t.Fatalf("expected accumulator drained by settlement, got %s", fees)
	}
}

func TestComplete_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fund(t, depositor, 2020)
	id := f.initiate(t, 1000)

	// Wrong caller
	err := f.engine.Complete(ctx, stranger, id, big.NewInt(1000))
	if !errors.Is(err, ErrNotTransactionManager) {
		t.Fatalf("expected ErrNotTransactionManager, got %v", err)
	}
	if !apperrors.Is(err, apperrors.CategoryUnauthorized) {
		t.Fatalf("expected CategoryUnAuthorized, got %v", err)
	}

	// Unknown id
	err = f.engine.Complete(ctx, txManager, ID{0xde, 0xad}, big.NewInt(1000))
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
	if !apperrors.Is(err, apperrors.CategoryResourceNotFound) {
		t.Fatalf("expected CategoryResourceNotFound, got %v", err)
	}

	// Amount mismatch is a hard validation error, not partial settlement
	err = f.engine.Complete(ctx, txManager, id, big.NewInt(999))
	if !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("expected ErrAmountMismatch, got %v", err)
	}
	if got := f.balance(t, vault); got.Sign() != 0 {
		t.Fatalf("expected no partial settlement, vault got %s", got)
	}

	// Double settlement
	if err := f.engine.Complete(ctx, txManager, id, big.NewInt(1000)); err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}
	err = f.engine.Complete(ctx, txManager, id, big.NewInt(1000))
	if !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("expected ErrAlreadyProcessed, got %v", err)
	}
	if !apperrors.Is(err, apperrors.CategoryDataConflict) {
		t.Fatalf("expected CategoryDataConflict, got %v", err)
	}
}

func TestRefund_ReturnsEscrowIncludingFee(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fund(t, depositor, 1010)
	id := f.initiate(t, 1000)

	if err := f.engine.Refund(ctx, owner, id); err != nil {
		t.Fatalf("Refund() failed: %v", err)
	}

	if got := f.balance(t, depositor); got.Cmp(big.NewInt(1010)) != 0 {
		t.Fatalf("expected full refund including fee, got %s", got)
	}
	fees, _ := f.engine.CollectedFees(ctx, usdc)
	if fees.Sign() != 0 {
		t.Fatalf("expected accumulator decremented on refund, got %s", fees)
	}

	txn, _ := f.engine.Transaction(ctx, id)
	if !txn.Refunded || txn.Completed {
		t.Fatalf("expected refunded state, got completed=%v refunded=%v", txn.Completed, txn.Refunded)
	}

	// Refund after refund conflicts
	err := f.engine.Refund(ctx, owner, id)
	if !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("expected ErrAlreadyProcessed, got %v", err)
	}

	// Complete after refund conflicts too
	err = f.engine.Complete(ctx, txManager, id, big.NewInt(1000))
	if !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("expected ErrAlreadyProcessed, got %v", err)
	}
}

func TestRefund_OwnerOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fund(t, depositor, 1010)
	id := f.initiate(t, 1000)

	err := f.engine.Refund(ctx, txManager, id)
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestWithdrawFees(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fund(t, depositor, 2020)
	f.initiate(t, 1000)
	f.initiate(t, 1000)

	swept, err := f.engine.WithdrawFees(ctx, owner, usdc, feeReceiver)
	if err != nil {
		t.Fatalf("WithdrawFees() failed: %v", err)
	}
	if swept.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("expected 20 swept, got %s", swept)
	}
	if got := f.balance(t, feeReceiver); got.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("expected fee receiver balance 20, got %s", got)
	}

	// Accumulator is now empty
	_, err = f.engine.WithdrawFees(ctx, owner, usdc, feeReceiver)
	if !errors.Is(err, ErrNothingToWithdraw) {
		t.Fatalf("expected ErrNothingToWithdraw, got %v", err)
	}
	if !apperrors.Is(err, apperrors.CategoryInsufficientFunds) {
		t.Fatalf("expected CategoryInsufficientFunds, got %v", err)
	}

	// Not for strangers, not to the zero address
	if _, err := f.engine.WithdrawFees(ctx, stranger, usdc, feeReceiver); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if _, err := f.engine.WithdrawFees(ctx, owner, usdc, common.Address{}); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("expected ErrZeroAddress, got %v", err)
	}
}

func TestUpdateSpreadFee(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fund(t, depositor, 10_000)

	// 500 bps is the inclusive cap
	if err := f.engine.UpdateSpreadFee(ctx, owner, 500); err != nil {
		t.Fatalf("UpdateSpreadFee(500) failed: %v", err)
	}
	if got := f.engine.SpreadFee(); got != 500 {
		t.Fatalf("expected spread 500, got %d", got)
	}

	err := f.engine.UpdateSpreadFee(ctx, owner, 501)
	if !errors.Is(err, ErrFeeTooHigh) {
		t.Fatalf("expected ErrFeeTooHigh, got %v", err)
	}

	if err := f.engine.UpdateSpreadFee(ctx, stranger, 50); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	// New spread applies to subsequent initiations
	id := f.initiate(t, 1000)
	txn, _ := f.engine.Transaction(ctx, id)
	if txn.Fee.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("expected fee 50 at 500 bps, got %s", txn.Fee)
	}
}

func TestTokenSupport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	dai := common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")

	if f.engine.IsTokenSupported(dai) {
		t.Fatal("dai must start unsupported")
	}
	if err := f.engine.AddSupportedToken(ctx, owner, dai, 18); err != nil {
		t.Fatalf("AddSupportedToken() failed: %v", err)
	}
	if !f.engine.IsTokenSupported(dai) {
		t.Fatal("dai must be supported after add")
	}
	if err := f.engine.RemoveSupportedToken(ctx, owner, dai); err != nil {
		t.Fatalf("RemoveSupportedToken() failed: %v", err)
	}
	if f.engine.IsTokenSupported(dai) {
		t.Fatal("dai must be unsupported after remove")
	}

	if err := f.engine.AddSupportedToken(ctx, owner, common.Address{}, 18); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("expected ErrZeroAddress, got %v", err)
	}
	if err := f.engine.AddSupportedToken(ctx, stranger, dai, 18); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestRoleRotation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	next := common.HexToAddress("0x4000000000000000000000000000000000000001")

	if err := f.engine.SetFeeReceiver(ctx, owner, next); err != nil {
		t.Fatalf("SetFeeReceiver() failed: %v", err)
	}
	if got := f.engine.FeeReceiver(); got != next {
		t.Fatalf("expected fee receiver %s, got %s", next.Hex(), got.Hex())
	}
	if err := f.engine.SetFeeReceiver(ctx, owner, common.Address{}); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("expected ErrZeroAddress, got %v", err)
	}

	if err := f.engine.SetVault(ctx, owner, next); err != nil {
		t.Fatalf("SetVault() failed: %v", err)
	}
	if err := f.engine.SetTransactionManager(ctx, owner, next); err != nil {
		t.Fatalf("SetTransactionManager() failed: %v", err)
	}
	if got := f.engine.TransactionManager(); got != next {
		t.Fatalf("expected transaction manager %s, got %s", next.Hex(), got.Hex())
	}
}

func TestPause_Conflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if err := f.engine.Unpause(ctx, owner); !apperrors.Is(err, apperrors.CategoryDataConflict) {
		t.Fatalf("expected conflict unpausing an active ledger, got %v", err)
	}
	if err := f.engine.Pause(ctx, owner); err != nil {
		t.Fatalf("Pause() failed: %v", err)
	}
	if err := f.engine.Pause(ctx, owner); !apperrors.Is(err, apperrors.CategoryDataConflict) {
		t.Fatalf("expected conflict pausing twice, got %v", err)
	}
	if err := f.engine.Pause(ctx, stranger); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestOwnership_TwoStep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	candidate := common.HexToAddress("0x5000000000000000000000000000000000000001")

	if err := f.engine.TransferOwnership(ctx, owner, candidate); err != nil {
		t.Fatalf("TransferOwnership() failed: %v", err)
	}
	// Current owner stays authoritative until acceptance
	if got := f.engine.Owner(); got != owner {
		t.Fatalf("expected owner unchanged before acceptance, got %s", got.Hex())
	}
	if err := f.engine.Pause(ctx, candidate); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("pending owner must not hold owner powers yet, got %v", err)
	}

	if err := f.engine.AcceptOwnership(ctx, stranger); !errors.Is(err, ErrNotPendingOwner) {
		t.Fatalf("expected ErrNotPendingOwner, got %v", err)
	}
	if err := f.engine.AcceptOwnership(ctx, candidate); err != nil {
		t.Fatalf("AcceptOwnership() failed: %v", err)
	}
	if got := f.engine.Owner(); got != candidate {
		t.Fatalf("expected new owner %s, got %s", candidate.Hex(), got.Hex())
	}

	// Handover is consumed
	if err := f.engine.AcceptOwnership(ctx, candidate); !errors.Is(err, ErrNotPendingOwner) {
		t.Fatalf("expected ErrNotPendingOwner after handover, got %v", err)
	}

	// Old owner lost its powers
	if err := f.engine.Pause(ctx, owner); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner for previous owner, got %v", err)
	}
}

func TestSetRelayAddress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	relayAddr := common.HexToAddress("0x6000000000000000000000000000000000000001")

	if err := f.engine.SetRelayAddress(ctx, stranger, relayAddr); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := f.engine.SetRelayAddress(ctx, owner, relayAddr); err != nil {
		t.Fatalf("SetRelayAddress() failed: %v", err)
	}
}

func TestTransaction_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.engine.Transaction(ctx, ID{0x01})
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
	if !apperrors.Is(err, apperrors.CategoryResourceNotFound) {
		t.Fatalf("expected CategoryResourceNotFound, got %v", err)
	}
}

func TestID_HexRoundTrip(t *testing.T) {
	id := ID{0xab, 0xcd}
	parsed, err := ParseID(id.Hex())
	if err != nil {
		t.Fatalf("ParseID() failed: %v", err)
	}
	if parsed != id {
		t.Fatalf("expected %s, got %s", id.Hex(), parsed.Hex())
	}

	if _, err := ParseID("0x1234"); err == nil {
		t.Fatal("expected error for short id")
	}
}
