package relay

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const serviceName = "CrossChainRelay"

// logService wraps Service with logging of the transfer and withdrawal
// methods. Query methods pass through untouched.
type logService struct {
	Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the relay Service
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{Service: svc, logger: logger}
}

// TransferPayFeeToken wraps the service method with logging
func (ls *logService) TransferPayFeeToken(ctx context.Context, caller common.Address, destination uint64, receiver, token common.Address, amount *big.Int, gasLimit uint64) (id MessageID, err error) {
	start := time.Now()
	ls.logger.Info("TransferPayFeeToken started",
		zap.String("service", serviceName),
		zap.String("caller", caller.Hex()),
		zap.Uint64("destination_chain", destination),
		zap.String("token", token.Hex()),
		zap.String("amount", amount.String()),
	)
	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Error("TransferPayFeeToken failed",
				zap.String("service", serviceName),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("TransferPayFeeToken completed",
				zap.String("service", serviceName),
				zap.String("message_id", id.Hex()),
				zap.Duration("duration", duration),
			)
		}
	}()
	return ls.Service.TransferPayFeeToken(ctx, caller, destination, receiver, token, amount, gasLimit)
}

// TransferPayNative wraps the service method with logging
func (ls *logService) TransferPayNative(ctx context.Context, caller common.Address, destination uint64, receiver, token common.Address, amount *big.Int, gasLimit uint64, attachedValue *big.Int) (id MessageID, err error) {
	start := time.Now()
	ls.logger.Info("TransferPayNative started",
		zap.String("service", serviceName),
		zap.String("caller", caller.Hex()),
		zap.Uint64("destination_chain", destination),
		zap.String("token", token.Hex()),
		zap.String("amount", amount.String()),
		zap.String("attached_value", attachedValue.String()),
	)
	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Error("TransferPayNative failed",
				zap.String("service", serviceName),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("TransferPayNative completed",
				zap.String("service", serviceName),
				zap.String("message_id", id.Hex()),
				zap.Duration("duration", duration),
			)
		}
	}()
	return ls.Service.TransferPayNative(ctx, caller, destination, receiver, token, amount, gasLimit, attachedValue)
}

// WithdrawNative wraps the service method with logging
func (ls *logService) WithdrawNative(ctx context.Context, caller, to common.Address) (amount *big.Int, err error) {
	start := time.Now()
	ls.logger.Info("WithdrawNative started",
		zap.String("service", serviceName),
		zap.String("caller", caller.Hex()),
		zap.String("to", to.Hex()),
	)
	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Error("WithdrawNative failed",
				zap.String("service", serviceName),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("WithdrawNative completed",
				zap.String("service", serviceName),
				zap.String("amount", amount.String()),
				zap.Duration("duration", duration),
			)
		}
	}()
	return ls.Service.WithdrawNative(ctx, caller, to)
}

// WithdrawToken wraps the service method with logging
func (ls *logService) WithdrawToken(ctx context.Context, caller, to, token common.Address) (amount *big.Int, err error) {
	start := time.Now()
	ls.logger.Info("WithdrawToken started",
		zap.String("service", serviceName),
		zap.String("caller", caller.Hex()),
		zap.String("to", to.Hex()),
		zap.String("token", token.Hex()),
	)
	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Error("WithdrawToken failed",
				zap.String("service", serviceName),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("WithdrawToken completed",
				zap.String("service", serviceName),
				zap.String("amount", amount.String()),
				zap.Duration("duration", duration),
			)
		}
	}()
	return ls.Service.WithdrawToken(ctx, caller, to, token)
}
