package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/SscSPs/wallet_ledger_app/internal/apperrors"
	"github.com/SscSPs/wallet_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/wallet_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/wallet_ledger_app/internal/core/ports/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultAmountPrecision is the number of fractional digits an amount may carry.
const DefaultAmountPrecision int32 = 2

// DefaultMaxAmountDigits bounds the integer digits of an amount.
const DefaultMaxAmountDigits int32 = 15

// DefaultNotifyTimeout bounds the archive and publish calls made after each commit.
const DefaultNotifyTimeout = 5 * time.Second

// ledgerEngine is the sole writer of the ledger.
type ledgerEngine struct {
	BaseService
	store     portsrepo.LedgerStoreFacade
	archive   portsrepo.TransactionArchive
	publisher portssvc.EventPublisher
	risk      portssvc.RiskScreenSvc
	precision int32
	maxDigits int32

	notifyTimeout time.Duration
}

// LedgerEngineOption is a functional option for configuring the ledger engine
type LedgerEngineOption func(*ledgerEngine)

// WithTransactionArchive hands committed records to an external archive.
func WithTransactionArchive(archive portsrepo.TransactionArchive) LedgerEngineOption {
	return func(s *ledgerEngine) {
		s.archive = archive
	}
}

// WithEventPublisher publishes a TransactionCommitted event per committed operation.
func WithEventPublisher(publisher portssvc.EventPublisher) LedgerEngineOption {
	return func(s *ledgerEngine) {
		s.publisher = publisher
	}
}

// WithRiskScreen screens withdrawals and transfers before they touch the ledger.
func WithRiskScreen(risk portssvc.RiskScreenSvc) LedgerEngineOption {
	return func(s *ledgerEngine) {
		s.risk = risk
	}
}

// WithAmountPrecision sets how many fractional digits an amount may carry.
func WithAmountPrecision(precision int32) LedgerEngineOption {
	return func(s *ledgerEngine) {
		if precision >= 0 {
			s.precision = precision
		}
	}
}

// WithMaxAmountDigits sets how many integer digits an amount may carry.
func WithMaxAmountDigits(maxDigits int32) LedgerEngineOption {
	return func(s *ledgerEngine) {
		if maxDigits > 0 {
			s.maxDigits = maxDigits
		}
	}
}

// WithNotifyTimeout bounds each archive and publish call made after a commit.
func WithNotifyTimeout(timeout time.Duration) LedgerEngineOption {
	return func(s *ledgerEngine) {
		if timeout > 0 {
			s.notifyTimeout = timeout
		}
	}
}

// NewLedgerEngine creates a new ledger engine with the provided options
func NewLedgerEngine(store portsrepo.LedgerStoreFacade, options ...LedgerEngineOption) portssvc.LedgerEngineSvcFacade {
	svc := &ledgerEngine{
		store:         store,
		precision:     DefaultAmountPrecision,
		maxDigits:     DefaultMaxAmountDigits,
		notifyTimeout: DefaultNotifyTimeout,
	}

	// Apply all options
	for _, option := range options {
		option(svc)
	}

	return svc
}

// Ensure ledgerEngine implements the LedgerEngineSvcFacade interface
var _ portssvc.LedgerEngineSvcFacade = (*ledgerEngine)(nil)

func (s *ledgerEngine) Register(ctx context.Context) (*domain.Account, error) {
	account, err := s.store.Register(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to register account")
		return nil, err
	}

	s.LogInfo(ctx, "Account registered successfully", slog.String("account_id", account.AccountID))
	return &account, nil
}

func (s *ledgerEngine) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateAmount(amount, s.precision, s.maxDigits); err != nil {
		return decimal.Zero, err
	}

	tx, err := s.store.Begin(ctx, accountID)
	if err != nil {
		return decimal.Zero, s.logFailure(ctx, err, "Failed to begin deposit", slog.String("account_id", accountID))
	}
	defer tx.Rollback(ctx)

	if err := tx.Credit(accountID, amount); err != nil {
		return decimal.Zero, s.logFailure(ctx, err, "Failed to credit account", slog.String("account_id", accountID))
	}
	if err := tx.Append(domain.TransactionRecord{
		AccountID: accountID,
		Kind:      domain.Deposit,
		Amount:    amount,
	}); err != nil {
		return decimal.Zero, s.logFailure(ctx, err, "Failed to record deposit", slog.String("account_id", accountID))
	}

	newBalance, err := tx.Balance(accountID)
	if err != nil {
		return decimal.Zero, err
	}
	committed, err := tx.Commit(ctx)
	if err != nil {
		return decimal.Zero, s.logFailure(ctx, err, "Failed to commit deposit", slog.String("account_id", accountID))
	}

	s.LogInfo(ctx, "Deposit committed",
		slog.String("account_id", accountID),
		slog.String("amount", amount.String()),
		slog.String("balance", newBalance.String()))
	s.notifyCommitted(ctx, domain.Deposit, "", committed)
	return newBalance, nil
}

func (s *ledgerEngine) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateAmount(amount, s.precision, s.maxDigits); err != nil {
		return decimal.Zero, err
	}
	if s.risk != nil {
		if err := s.requireAccounts(ctx, accountID); err != nil {
			return decimal.Zero, err
		}
		s.risk.ScreenWithdrawal(ctx, accountID, amount)
	}

	tx, err := s.store.Begin(ctx, accountID)
	if err != nil {
		return decimal.Zero, s.logFailure(ctx, err, "Failed to begin withdrawal", slog.String("account_id", accountID))
	}
	defer tx.Rollback(ctx)

	if err := tx.Debit(accountID, amount); err != nil {
		return decimal.Zero, s.logFailure(ctx, err, "Failed to debit account", slog.String("account_id", accountID))
	}
	if err := tx.Append(domain.TransactionRecord{
		AccountID: accountID,
		Kind:      domain.Withdraw,
		Amount:    amount,
	}); err != nil {
		return decimal.Zero, s.logFailure(ctx, err, "Failed to record withdrawal", slog.String("account_id", accountID))
	}

	newBalance, err := tx.Balance(accountID)
	if err != nil {
		return decimal.Zero, err
	}
	committed, err := tx.Commit(ctx)
	if err != nil {
		return decimal.Zero, s.logFailure(ctx, err, "Failed to commit withdrawal", slog.String("account_id", accountID))
	}

	s.LogInfo(ctx, "Withdrawal committed",
		slog.String("account_id", accountID),
		slog.String("amount", amount.String()),
		slog.String("balance", newBalance.String()))
	s.notifyCommitted(ctx, domain.Withdraw, "", committed)
	return newBalance, nil
}

// Transfer debits the sender and credits the recipient as one unit of work.
// Both guards are taken in the store's global order, whatever the argument order.
func (s *ledgerEngine) Transfer(ctx context.Context, senderID string, recipientID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateAmount(amount, s.precision, s.maxDigits); err != nil {
		return decimal.Zero, err
	}
	if senderID == recipientID {
		return decimal.Zero, fmt.Errorf("cannot transfer to the same account: %w", apperrors.ErrInvalidOperation)
	}
	if s.risk != nil {
		// Unknown accounts are reported before any limit
		if err := s.requireAccounts(ctx, senderID, recipientID); err != nil {
			return decimal.Zero, err
		}
		if err := s.risk.ScreenTransfer(ctx, senderID, amount); err != nil {
			return decimal.Zero, err
		}
	}

	tx, err := s.store.Begin(ctx, senderID, recipientID)
	if err != nil {
		return decimal.Zero, s.logFailure(ctx, err, "Failed to begin transfer",
			slog.String("sender_id", senderID),
			slog.String("recipient_id", recipientID))
	}
	defer tx.Rollback(ctx)

	if err := tx.Debit(senderID, amount); err != nil {
		return decimal.Zero, s.logFailure(ctx, err, "Failed to debit sender", slog.String("sender_id", senderID))
	}
	if err := tx.Credit(recipientID, amount); err != nil {
		return decimal.Zero, s.logFailure(ctx, err, "Failed to credit recipient", slog.String("recipient_id", recipientID))
	}

	transferID := uuid.NewString()
	legs := []domain.TransactionRecord{
		{AccountID: senderID, Kind: domain.TransferOut, Amount: amount, CounterpartyID: recipientID, TransferID: transferID},
		{AccountID: recipientID, Kind: domain.TransferIn, Amount: amount, CounterpartyID: senderID, TransferID: transferID},
	}
	for _, leg := range legs {
		if err := tx.Append(leg); err != nil {
			return decimal.Zero, s.logFailure(ctx, err, "Failed to record transfer leg",
				slog.String("transfer_id", transferID),
				slog.String("kind", string(leg.Kind)))
		}
	}

	senderBalance, err := tx.Balance(senderID)
	if err != nil {
		return decimal.Zero, err
	}
	committed, err := tx.Commit(ctx)
	if err != nil {
		return decimal.Zero, s.logFailure(ctx, err, "Failed to commit transfer", slog.String("transfer_id", transferID))
	}

	s.LogInfo(ctx, "Transfer committed",
		slog.String("transfer_id", transferID),
		slog.String("sender_id", senderID),
		slog.String("recipient_id", recipientID),
		slog.String("amount", amount.String()))
	s.notifyCommitted(ctx, domain.TransferOut, transferID, committed)
	return senderBalance, nil
}

// notifyCommitted runs after the account guards are released. Failures are logged
// only; the operation has already committed.
func (s *ledgerEngine) notifyCommitted(ctx context.Context, operation domain.TransactionKind, transferID string, committed []domain.TransactionRecord) {
	if len(committed) == 0 || (s.archive == nil && s.publisher == nil) {
		return
	}
	ctx = context.WithoutCancel(ctx)

	if s.archive != nil {
		archiveCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
		err := s.archive.ArchiveTransactions(archiveCtx, committed)
		cancel()
		if err != nil {
			s.LogError(ctx, err, "Failed to archive committed transactions",
				slog.Int("records", len(committed)))
		}
	}

	if s.publisher != nil {
		event := domain.TransactionCommitted{
			EventID:     strconv.FormatUint(committed[0].TransactionID, 10),
			Operation:   operation,
			TransferID:  transferID,
			Records:     committed,
			CommittedAt: committed[0].Timestamp,
		}
		publishCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
		err := s.publisher.Publish(publishCtx, event.Key(), event)
		cancel()
		if err != nil {
			s.LogError(ctx, err, "Failed to publish transaction committed event",
				slog.String("event_id", event.EventID))
		}
	}
}

// requireAccounts fails with ErrAccountNotFound for the first unknown account.
// Accounts are never removed, so a positive answer stays true.
func (s *ledgerEngine) requireAccounts(ctx context.Context, accountIDs ...string) error {
	for _, id := range accountIDs {
		if !s.store.Exists(ctx, id) {
			s.LogDebug(ctx, "Rejected request for unknown account", slog.String("account_id", id))
			return fmt.Errorf("account %s: %w", id, apperrors.ErrAccountNotFound)
		}
	}
	return nil
}

// logFailure logs unexpected failures. Expected business outcomes are logged at debug level.
func (s *ledgerEngine) logFailure(ctx context.Context, err error, msg string, keyvals ...any) error {
	if isBusinessError(err) {
		s.LogDebug(ctx, msg, append(keyvals, slog.String("reason", err.Error()))...)
	} else {
		s.LogError(ctx, err, msg, keyvals...)
	}
	return err
}

func isBusinessError(err error) bool {
	return errors.Is(err, apperrors.ErrAccountNotFound) ||
		errors.Is(err, apperrors.ErrInsufficientFunds) ||
		errors.Is(err, apperrors.ErrInvalidAmount) ||
		errors.Is(err, apperrors.ErrInvalidOperation)
}

// ValidateAmount rejects non-positive amounts, amounts finer than precision and
// amounts with more than maxDigits integer digits. The exponent is bounded before
// any rescaling so that huge exponents are never expanded.
func ValidateAmount(amount decimal.Decimal, precision int32, maxDigits int32) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be greater than zero, got %s: %w", amount.String(), apperrors.ErrInvalidAmount)
	}
	exp := amount.Exponent()
	if exp >= maxDigits || exp < -(precision+maxDigits) {
		return fmt.Errorf("amount exponent %d is out of range: %w", exp, apperrors.ErrInvalidAmount)
	}
	if int64(amount.NumDigits())+int64(exp) > int64(maxDigits) {
		return fmt.Errorf("amount has more than %d integer digits: %w", maxDigits, apperrors.ErrInvalidAmount)
	}
	if !amount.Equal(amount.Truncate(precision)) {
		return fmt.Errorf("amount %s has more than %d decimal places: %w", amount.String(), precision, apperrors.ErrInvalidAmount)
	}
	return nil
}
