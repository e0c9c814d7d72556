package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/wallet_ledger_app/internal/apperrors"
	portssvc "github.com/SscSPs/wallet_ledger_app/internal/core/ports/services"
	"github.com/shopspring/decimal"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RiskConfig holds the screening thresholds. A zero value disables that check.
type RiskConfig struct {
	TransferLimit            decimal.Decimal
	LargeWithdrawalThreshold decimal.Decimal
	MaxTransfersPerMinute    int64
}

// riskService implements RiskScreenSvc.
type riskService struct {
	BaseService
	cfg      RiskConfig
	velocity *limiter.Limiter
}

// NewRiskService creates a risk screen with the given thresholds.
func NewRiskService(cfg RiskConfig) portssvc.RiskScreenSvc {
	svc := &riskService{cfg: cfg}
	if cfg.MaxTransfersPerMinute > 0 {
		svc.velocity = limiter.New(memory.NewStore(), limiter.Rate{
			Period: time.Minute,
			Limit:  cfg.MaxTransfersPerMinute,
		})
	}
	return svc
}

var _ portssvc.RiskScreenSvc = (*riskService)(nil)

func (s *riskService) ScreenWithdrawal(ctx context.Context, accountID string, amount decimal.Decimal) {
	if s.cfg.LargeWithdrawalThreshold.IsPositive() && amount.GreaterThanOrEqual(s.cfg.LargeWithdrawalThreshold) {
		s.LogWarn(ctx, "Large withdrawal flagged",
			slog.String("account_id", accountID),
			slog.String("amount", amount.String()),
			slog.String("threshold", s.cfg.LargeWithdrawalThreshold.String()))
	}
}

func (s *riskService) ScreenTransfer(ctx context.Context, senderID string, amount decimal.Decimal) error {
	if s.cfg.TransferLimit.IsPositive() && amount.GreaterThan(s.cfg.TransferLimit) {
		s.LogWarn(ctx, "Transfer rejected above limit",
			slog.String("sender_id", senderID),
			slog.String("amount", amount.String()),
			slog.String("limit", s.cfg.TransferLimit.String()))
		return fmt.Errorf("transfer of %s exceeds the limit of %s: %w", amount.String(), s.cfg.TransferLimit.String(), apperrors.ErrLimitExceeded)
	}

	if s.velocity == nil {
		return nil
	}
	lctx, err := s.velocity.Get(ctx, senderID)
	if err != nil {
		// Velocity is advisory, never block on it
		s.LogError(ctx, err, "Failed to check transfer velocity", slog.String("sender_id", senderID))
		return nil
	}
	if lctx.Reached {
		s.LogWarn(ctx, "High transfer velocity flagged",
			slog.String("sender_id", senderID),
			slog.Int64("limit_per_minute", lctx.Limit))
	}
	return nil
}
