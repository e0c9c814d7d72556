package pgsql

import (
	portsrepo "github.com/SscSPs/wallet_ledger_app/internal/core/ports/repositories"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires the Postgres backed repositories around the in-memory ledger.
// The ledger itself stays in memory; Postgres only keeps a copy of committed records.
func NewRepositoryProvider(ledger portsrepo.LedgerStoreFacade, dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	provider := portsrepo.RepositoryProvider{LedgerStore: ledger}
	if dbPool != nil {
		provider.Archive = newPgxArchiveRepository(dbPool, uuid.NewString())
	}
	return provider
}
