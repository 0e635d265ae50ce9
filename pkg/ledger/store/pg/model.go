package pg

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/defi-direct/bridge-middleware/pkg/ledger"
)

// TransactionDAO is the bun model for the transactions table. Seq is a
// serial column giving per-depositor insertion order.
type TransactionDAO struct {
	bun.BaseModel `bun:"table:transactions,alias:t"`

	ID             string     `bun:"id,pk,type:varchar(66)"`
	Seq            int64      `bun:"seq,autoincrement,scanonly"`
	Depositor      string     `bun:"depositor,notnull,type:varchar(42)"`
	Token          string     `bun:"token,notnull,type:varchar(42)"`
	LockedAmount   string     `bun:"locked_amount,notnull,type:numeric(78,0)"`
	Fee            string     `bun:"fee,notnull,type:numeric(78,0)"`
	AmountSpent    *string    `bun:"amount_spent,type:numeric(78,0)"`
	Completed      bool       `bun:"completed,notnull,default:false"`
	Refunded       bool       `bun:"refunded,notnull,default:false"`
	BankAccountRef *string    `bun:"bank_account_ref,type:varchar(255)"`
	BankName       *string    `bun:"bank_name,type:varchar(255)"`
	RecipientName  *string    `bun:"recipient_name,type:varchar(255)"`
	FiatAmount     *string    `bun:"fiat_amount,type:numeric(38,18)"`
	InitiatedAt    time.Time  `bun:"initiated_at,notnull"`
	SettledAt      *time.Time `bun:"settled_at"`
}

// FeeTotalDAO is the bun model for the fee_totals table
type FeeTotalDAO struct {
	bun.BaseModel `bun:"table:fee_totals,alias:ft"`

	Token  string `bun:"token,pk,type:varchar(42)"`
	Amount string `bun:"amount,notnull,type:numeric(78,0)"`
}

func toDAO(txn *ledger.Transaction) *TransactionDAO {
	dao := &TransactionDAO{
		ID:           txn.ID.Hex(),
		Depositor:    txn.Depositor.Hex(),
		Token:        txn.Token.Hex(),
		LockedAmount: txn.LockedAmount.String(),
		Fee:          txn.Fee.String(),
		Completed:    txn.Completed,
		Refunded:     txn.Refunded,
		InitiatedAt:  txn.InitiatedAt,
		SettledAt:    txn.SettledAt,
	}
	if txn.AmountSpent != nil {
		spent := txn.AmountSpent.String()
		dao.AmountSpent = &spent
	}
	if txn.Fiat != nil {
		fiatAmount := txn.Fiat.Amount.String()
		dao.BankAccountRef = &txn.Fiat.BankAccountRef
		dao.BankName = &txn.Fiat.BankName
		dao.RecipientName = &txn.Fiat.RecipientName
		dao.FiatAmount = &fiatAmount
	}
	return dao
}

func fromDAO(dao *TransactionDAO) (*ledger.Transaction, error) {
	id, err := ledger.ParseID(dao.ID)
	if err != nil {
		return nil, fmt.Errorf("corrupt transaction id %q: %w", dao.ID, err)
	}
	locked, ok := new(big.Int).SetString(dao.LockedAmount, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt locked amount %q", dao.LockedAmount)
	}
	fee, ok := new(big.Int).SetString(dao.Fee, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt fee %q", dao.Fee)
	}
	txn := &ledger.Transaction{
		ID:           id,
		Depositor:    common.HexToAddress(dao.Depositor),
		Token:        common.HexToAddress(dao.Token),
		LockedAmount: locked,
		Fee:          fee,
		Completed:    dao.Completed,
		Refunded:     dao.Refunded,
		InitiatedAt:  dao.InitiatedAt,
		SettledAt:    dao.SettledAt,
	}
	if dao.AmountSpent != nil {
		spent, ok := new(big.Int).SetString(*dao.AmountSpent, 10)
		if !ok {
			return nil, fmt.Errorf("corrupt amount spent %q", *dao.AmountSpent)
		}
		txn.AmountSpent = spent
	}
	if dao.BankAccountRef != nil {
		fiat := &ledger.FiatDetails{BankAccountRef: *dao.BankAccountRef}
		if dao.BankName != nil {
			fiat.BankName = *dao.BankName
		}
		if dao.RecipientName != nil {
			fiat.RecipientName = *dao.RecipientName
		}
		if dao.FiatAmount != nil {
			amount, err := decimal.NewFromString(*dao.FiatAmount)
			if err != nil {
				return nil, fmt.Errorf("corrupt fiat amount %q: %w", *dao.FiatAmount, err)
			}
			fiat.Amount = amount
		}
		txn.Fiat = fiat
	}
	return txn, nil
}
