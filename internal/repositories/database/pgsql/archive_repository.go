package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/wallet_ledger_app/internal/apperrors"
	"github.com/SscSPs/wallet_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/wallet_ledger_app/internal/core/ports/repositories"
	"github.com/SscSPs/wallet_ledger_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxArchiveRepository copies committed ledger records into Postgres.
// Sequence IDs restart with every process, so rows are keyed by ledger instance too.
type PgxArchiveRepository struct {
	BaseRepository
	instanceID string
}

// newPgxArchiveRepository creates a new archive repository for one ledger instance.
func newPgxArchiveRepository(pool *pgxpool.Pool, instanceID string) *PgxArchiveRepository {
	return &PgxArchiveRepository{
		BaseRepository: BaseRepository{Pool: pool},
		instanceID:     instanceID,
	}
}

var _ portsrepo.TransactionArchive = (*PgxArchiveRepository)(nil)

const insertArchivedTransactionQuery = `
	INSERT INTO wallet_transactions (
		ledger_instance_id, transaction_id, account_id, kind, amount, counterparty_id, transfer_id, committed_at, archived_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (ledger_instance_id, transaction_id) DO NOTHING;
`

// ArchiveTransactions stores the records of one committed operation in a single database transaction.
// Records already archived are skipped, so redelivery is safe.
func (r *PgxArchiveRepository) ArchiveTransactions(ctx context.Context, records []domain.TransactionRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	// Defer rollback in case of error
	defer r.Rollback(ctx, tx) // Will be ignored if transaction is committed successfully

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, record := range records {
		row := mapping.ToModelTransaction(record)
		row.ArchivedAt = now
		batch.Queue(insertArchivedTransactionQuery,
			r.instanceID,
			row.TransactionID,
			row.AccountID,
			row.Kind,
			row.Amount,
			row.CounterpartyID,
			row.TransferID,
			row.CommittedAt,
			row.ArchivedAt,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for _, record := range records {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to archive transaction %d: %w: %w", record.TransactionID, apperrors.ErrInternal, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close archive batch: %w: %w", apperrors.ErrInternal, err)
	}

	return r.Commit(ctx, tx)
}
