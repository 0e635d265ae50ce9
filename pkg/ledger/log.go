package ledger

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const serviceName = "TransactionLedger"

// logService wraps Service with logging of the settlement methods.
// Query methods pass through untouched.
type logService struct {
	Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the ledger Service
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{Service: svc, logger: logger}
}

// Initiate wraps the service method with logging
func (ls *logService) Initiate(ctx context.Context, depositor, token common.Address, amount *big.Int) (id ID, err error) {
	start := time.Now()
	ls.logger.Info("Initiate started",
		zap.String("service", serviceName),
		zap.String("depositor", depositor.Hex()),
		zap.String("token", token.Hex()),
		zap.String("amount", amount.String()),
	)
	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Error("Initiate failed",
				zap.String("service", serviceName),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("Initiate completed",
				zap.String("service", serviceName),
				zap.String("transaction_id", id.Hex()),
				zap.Duration("duration", duration),
			)
		}
	}()
	return ls.Service.Initiate(ctx, depositor, token, amount)
}

// InitiateWithOracle wraps the service method with logging
func (ls *logService) InitiateWithOracle(ctx context.Context, depositor, token common.Address, amount *big.Int, source common.Address, fiat FiatDetails) (id ID, err error) {
	start := time.Now()
	ls.logger.Info("InitiateWithOracle started",
		zap.String("service", serviceName),
		zap.String("depositor", depositor.Hex()),
		zap.String("token", token.Hex()),
		zap.String("amount", amount.String()),
		zap.String("price_source", source.Hex()),
		zap.String("fiat_amount", fiat.Amount.String()),
	)
	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Error("InitiateWithOracle failed",
				zap.String("service", serviceName),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("InitiateWithOracle completed",
				zap.String("service", serviceName),
				zap.String("transaction_id", id.Hex()),
				zap.Duration("duration", duration),
			)
		}
	}()
	return ls.Service.InitiateWithOracle(ctx, depositor, token, amount, source, fiat)
}

// Complete wraps the service method with logging
func (ls *logService) Complete(ctx context.Context, caller common.Address, id ID, amountSpent *big.Int) (err error) {
	start := time.Now()
	ls.logger.Info("Complete started",
		zap.String("service", serviceName),
		zap.String("caller", caller.Hex()),
		zap.String("transaction_id", id.Hex()),
		zap.String("amount_spent", amountSpent.String()),
	)
	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Error("Complete failed",
				zap.String("service", serviceName),
				zap.String("transaction_id", id.Hex()),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("Complete completed",
				zap.String("service", serviceName),
				zap.String("transaction_id", id.Hex()),
				zap.Duration("duration", duration),
			)
		}
	}()
	return ls.Service.Complete(ctx, caller, id, amountSpent)
}

// Refund wraps the service method with logging
func (ls *logService) Refund(ctx context.Context, caller common.Address, id ID) (err error) {
	start := time.Now()
	ls.logger.Info("Refund started",
		zap.String("service", serviceName),
		zap.String("caller", caller.Hex()),
		zap.String("transaction_id", id.Hex()),
	)
	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Error("Refund failed",
				zap.String("service", serviceName),
				zap.String("transaction_id", id.Hex()),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("Refund completed",
				zap.String("service", serviceName),
				zap.String("transaction_id", id.Hex()),
				zap.Duration("duration", duration),
			)
		}
	}()
	return ls.Service.Refund(ctx, caller, id)
}

// WithdrawFees wraps the service method with logging
func (ls *logService) WithdrawFees(ctx context.Context, caller, token, to common.Address) (amount *big.Int, err error) {
	start := time.Now()
	ls.logger.Info("WithdrawFees started",
		zap.String("service", serviceName),
		zap.String("caller", caller.Hex()),
		zap.String("token", token.Hex()),
		zap.String("to", to.Hex()),
	)
	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Error("WithdrawFees failed",
				zap.String("service", serviceName),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("WithdrawFees completed",
				zap.String("service", serviceName),
				zap.String("amount", amount.String()),
				zap.Duration("duration", duration),
			)
		}
	}()
	return ls.Service.WithdrawFees(ctx, caller, token, to)
}
