package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	LedgerStore LedgerStoreFacade
	Archive     TransactionArchive // Optional, nil when no archive is configured
}
