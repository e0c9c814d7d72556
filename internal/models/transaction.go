package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletTransaction is one row of the wallet_transactions archive table.
type WalletTransaction struct {
	TransactionID  int64           `db:"transaction_id"` // Ledger sequence, primary key
	AccountID      string          `db:"account_id"`
	Kind           string          `db:"kind"` // deposit, withdraw, transfer_out, transfer_in
	Amount         decimal.Decimal `db:"amount"`
	CounterpartyID *string         `db:"counterparty_id"` // Nullable, transfer legs only
	TransferID     *string         `db:"transfer_id"`     // Nullable, transfer legs only
	CommittedAt    time.Time       `db:"committed_at"`
	ArchivedAt     time.Time       `db:"archived_at"`
}
