package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/wallet_ledger_app/internal/apperrors"
	"github.com/SscSPs/wallet_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/wallet_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/wallet_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/wallet_ledger_app/internal/dto"
	"github.com/SscSPs/wallet_ledger_app/internal/utils/accounting"
	"github.com/SscSPs/wallet_ledger_app/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// queryService serves read-only views of the ledger.
type queryService struct {
	BaseService
	store portsrepo.LedgerStoreFacade
}

// NewQueryService creates a new query service.
func NewQueryService(store portsrepo.LedgerStoreFacade) portssvc.QuerySvcFacade {
	return &queryService{store: store}
}

var _ portssvc.QuerySvcFacade = (*queryService)(nil)

func (s *queryService) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	account, err := s.store.FindAccountByID(ctx, accountID)
	if err != nil {
		s.logLookupError(ctx, err, "Failed to get balance", accountID)
		return decimal.Zero, err
	}
	return account.Balance, nil
}

func (s *queryService) ListTransactions(ctx context.Context, accountID string) ([]domain.TransactionRecord, error) {
	records, err := s.store.ListFor(ctx, accountID)
	if err != nil {
		s.logLookupError(ctx, err, "Failed to list transactions", accountID)
		return nil, err
	}
	return records, nil
}

func (s *queryService) ListTransactionsPage(ctx context.Context, accountID string, params dto.ListTransactionsParams) (*dto.TransactionPage, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	var afterID uint64
	if params.NextToken != "" {
		id, err := pagination.DecodeSequenceToken(params.NextToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		afterID = id
	}

	// Fetch one extra record to learn whether another page exists
	records, err := s.store.ListAfter(ctx, accountID, afterID, limit+1)
	if err != nil {
		s.logLookupError(ctx, err, "Failed to list transactions page", accountID)
		return nil, err
	}

	page := &dto.TransactionPage{Transactions: records}
	if len(records) > limit {
		page.Transactions = records[:limit]
		token := pagination.EncodeSequenceToken(page.Transactions[limit-1].TransactionID)
		page.NextToken = &token
	}
	return page, nil
}

// Reconcile reads the balance and the log from one snapshot, so both reflect the same commits.
func (s *queryService) Reconcile(ctx context.Context, accountID string) (*domain.Reconciliation, error) {
	account, records, err := s.store.Snapshot(ctx, accountID)
	if err != nil {
		s.logLookupError(ctx, err, "Failed to reconcile account", accountID)
		return nil, err
	}

	sum := accounting.SumSigned(records)
	report := &domain.Reconciliation{
		AccountID:        accountID,
		Balance:          account.Balance,
		LedgerSum:        sum,
		TransactionCount: len(records),
		Balanced:         sum.Equal(account.Balance),
	}
	if !report.Balanced {
		s.LogError(ctx, apperrors.ErrInternal, "Account balance does not match its ledger",
			slog.String("account_id", accountID),
			slog.String("balance", account.Balance.String()),
			slog.String("ledger_sum", sum.String()))
	}
	return report, nil
}

func (s *queryService) logLookupError(ctx context.Context, err error, msg string, accountID string) {
	if errors.Is(err, apperrors.ErrAccountNotFound) {
		return
	}
	s.LogError(ctx, err, msg, slog.String("account_id", accountID))
}
