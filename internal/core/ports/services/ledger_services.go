package services

import (
	"context"

	"github.com/SscSPs/wallet_ledger_app/internal/core/domain"
	"github.com/SscSPs/wallet_ledger_app/internal/dto"
	"github.com/shopspring/decimal"
)

// AccountRegistrarSvc defines account registration.
type AccountRegistrarSvc interface {
	// Register creates a new account with a zero balance.
	// Each call creates a distinct account; retry safety is left to the caller.
	Register(ctx context.Context) (*domain.Account, error)
}

// LedgerMutatorSvc defines the balance-mutating ledger operations.
// Every operation is atomic: it either applies all of its effects or none.
type LedgerMutatorSvc interface {
	// Deposit credits the account and returns its new balance.
	Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error)

	// Withdraw debits the account and returns its new balance.
	Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error)

	// Transfer moves amount from sender to recipient and returns the sender's new balance.
	Transfer(ctx context.Context, senderID string, recipientID string, amount decimal.Decimal) (decimal.Decimal, error)
}

// LedgerEngineSvcFacade combines registration and mutation.
type LedgerEngineSvcFacade interface {
	AccountRegistrarSvc
	LedgerMutatorSvc
}

// QuerySvcFacade defines the read-only ledger operations.
type QuerySvcFacade interface {
	// GetBalance returns the most recently committed balance of the account.
	GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error)

	// ListTransactions returns the full transaction history of the account in commit order.
	ListTransactions(ctx context.Context, accountID string) ([]domain.TransactionRecord, error)

	// ListTransactionsPage returns one page of the account history in commit order.
	ListTransactionsPage(ctx context.Context, accountID string, params dto.ListTransactionsParams) (*dto.TransactionPage, error)

	// Reconcile compares the balance against the sum of the account's signed records.
	Reconcile(ctx context.Context, accountID string) (*domain.Reconciliation, error)
}

// RiskScreenSvc screens mutating requests before they reach the ledger.
type RiskScreenSvc interface {
	// ScreenWithdrawal flags unusually large withdrawals. It never blocks.
	ScreenWithdrawal(ctx context.Context, accountID string, amount decimal.Decimal)

	// ScreenTransfer rejects transfers above the limit and flags high transfer velocity.
	ScreenTransfer(ctx context.Context, senderID string, amount decimal.Decimal) error
}

// EventPublisher publishes ledger events to an external broker.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}
