package repositories

import (
	"context"

	"github.com/SscSPs/wallet_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccountStore defines account registration and lookup.
type AccountStore interface {
	// Register creates a new account with a zero balance and a fresh unique ID.
	Register(ctx context.Context) (domain.Account, error)

	// Exists reports whether an account with the given ID has been registered.
	Exists(ctx context.Context, accountID string) bool

	// FindAccountByID returns the committed state of an account.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
}

// TransactionLog defines read access to the per-account append-only logs.
type TransactionLog interface {
	// ListFor returns every record of the account in append order.
	// It returns an empty slice for an account without activity.
	ListFor(ctx context.Context, accountID string) ([]domain.TransactionRecord, error)

	// ListAfter returns up to limit records with a TransactionID greater than afterID, in append order.
	ListAfter(ctx context.Context, accountID string, afterID uint64, limit int) ([]domain.TransactionRecord, error)
}

// LedgerTx is a unit of work holding exclusive access to a fixed set of accounts.
// Changes are staged and only become visible on Commit.
type LedgerTx interface {
	Balance(accountID string) (decimal.Decimal, error)
	Debit(accountID string, amount decimal.Decimal) error
	Credit(accountID string, amount decimal.Decimal) error
	Append(record domain.TransactionRecord) error
	// Commit applies every staged change at once and returns the records as committed.
	Commit(ctx context.Context) ([]domain.TransactionRecord, error)
	// Rollback discards staged changes and releases access. It is a no-op after Commit.
	Rollback(ctx context.Context) error
}

// LedgerWriter opens units of work over accounts.
type LedgerWriter interface {
	// Begin acquires exclusive access to the given accounts in a fixed global order.
	Begin(ctx context.Context, accountIDs ...string) (LedgerTx, error)
}

// LedgerSnapshotReader reads an account's balance and log under a single guard.
type LedgerSnapshotReader interface {
	Snapshot(ctx context.Context, accountID string) (domain.Account, []domain.TransactionRecord, error)
}

// LedgerStoreFacade combines every ledger store capability.
type LedgerStoreFacade interface {
	AccountStore
	TransactionLog
	LedgerWriter
	LedgerSnapshotReader
}

// TransactionArchive receives committed records for external retention.
type TransactionArchive interface {
	ArchiveTransactions(ctx context.Context, records []domain.TransactionRecord) error
}
