package bank

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	alice = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	usdc  = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

func TestMemoryBook_CreditAndBalance(t *testing.T) {
	ctx := context.Background()
	book := NewMemoryBook()

	bal, err := book.Balance(ctx, alice, usdc)
	if err != nil {
		t.Fatalf("Balance() failed: %v", err)
	}
	if bal.Sign() != 0 {
		t.Fatalf("expected zero balance for unknown account, got %s", bal)
	}

	if err := book.Credit(ctx, alice, usdc, big.NewInt(1000)); err != nil {
		t.Fatalf("Credit() failed: %v", err)
	}
	if err := book.Credit(ctx, alice, usdc, big.NewInt(500)); err != nil {
		t.Fatalf("Credit() failed: %v", err)
	}

	bal, err = book.Balance(ctx, alice, usdc)
	if err != nil {
		t.Fatalf("Balance() failed: %v", err)
	}
	if bal.Cmp(big.NewInt(1500)) != 0 {
		t.Fatalf("expected balance 1500, got %s", bal)
	}
}

func TestMemoryBook_DebitInsufficient(t *testing.T) {
	ctx := context.Background()
	book := NewMemoryBook()

	if err := book.Credit(ctx, alice, usdc, big.NewInt(100)); err != nil {
		t.Fatalf("Credit() failed: %v", err)
	}

	err := book.Debit(ctx, alice, usdc, big.NewInt(101))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// Failed debit must not change the balance
	bal, _ := book.Balance(ctx, alice, usdc)
	if bal.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected balance 100 after failed debit, got %s", bal)
	}
}

func TestMemoryBook_Transfer(t *testing.T) {
	ctx := context.Background()
	book := NewMemoryBook()

	if err := book.Credit(ctx, alice, usdc, big.NewInt(300)); err != nil {
		t.Fatalf("Credit() failed: %v", err)
	}
	if err := book.Transfer(ctx, usdc, alice, bob, big.NewInt(120)); err != nil {
		t.Fatalf("Transfer() failed: %v", err)
	}

	aliceBal, _ := book.Balance(ctx, alice, usdc)
	bobBal, _ := book.Balance(ctx, bob, usdc)
	if aliceBal.Cmp(big.NewInt(180)) != 0 {
		t.Fatalf("expected sender balance 180, got %s", aliceBal)
	}
	if bobBal.Cmp(big.NewInt(120)) != 0 {
		t.Fatalf("expected receiver balance 120, got %s", bobBal)
	}
}

func TestMemoryBook_TransferInsufficientLeavesBothUntouched(t *testing.T) {
	ctx := context.Background()
	book := NewMemoryBook()

	if err := book.Credit(ctx, alice, usdc, big.NewInt(50)); err != nil {
		t.Fatalf("Credit() failed: %v", err)
	}
	err := book.Transfer(ctx, usdc, alice, bob, big.NewInt(60))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	aliceBal, _ := book.Balance(ctx, alice, usdc)
	bobBal, _ := book.Balance(ctx, bob, usdc)
	if aliceBal.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("expected sender balance 50, got %s", aliceBal)
	}
	if bobBal.Sign() != 0 {
		t.Fatalf("expected receiver balance 0, got %s", bobBal)
	}
}

func TestMemoryBook_InvalidAmount(t *testing.T) {
	ctx := context.Background()
	book := NewMemoryBook()

	if err := book.Credit(ctx, alice, usdc, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for nil, got %v", err)
	}
	if err := book.Credit(ctx, alice, usdc, big.NewInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative, got %v", err)
	}
}

func TestMemoryBook_SnapshotRestore(t *testing.T) {
	ctx := context.Background()
	book := NewMemoryBook()

	if err := book.Credit(ctx, alice, usdc, big.NewInt(700)); err != nil {
		t.Fatalf("Credit() failed: %v", err)
	}

	snap := book.Snapshot()

	if err := book.Transfer(ctx, usdc, alice, bob, big.NewInt(700)); err != nil {
		t.Fatalf("Transfer() failed: %v", err)
	}
	book.Restore(snap)

	aliceBal, _ := book.Balance(ctx, alice, usdc)
	bobBal, _ := book.Balance(ctx, bob, usdc)
	if aliceBal.Cmp(big.NewInt(700)) != 0 {
		t.Fatalf("expected restored balance 700, got %s", aliceBal)
	}
	if bobBal.Sign() != 0 {
		t.Fatalf("expected restored receiver balance 0, got %s", bobBal)
	}
}

func TestMemoryBook_BalanceReturnsCopy(t *testing.T) {
	ctx := context.Background()
	book := NewMemoryBook()

	if err := book.Credit(ctx, alice, usdc, big.NewInt(10)); err != nil {
		t.Fatalf("Credit() failed: %v", err)
	}

	bal, _ := book.Balance(ctx, alice, usdc)
	bal.SetInt64(9999)

	fresh, _ := book.Balance(ctx, alice, usdc)
	if fresh.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("mutating a returned balance leaked into the book: %s", fresh)
	}
}
