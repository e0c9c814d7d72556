package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind identifies the operation that produced a transaction record.
type TransactionKind string

const (
	Deposit     TransactionKind = "deposit"
	Withdraw    TransactionKind = "withdraw"
	TransferOut TransactionKind = "transfer_out"
	TransferIn  TransactionKind = "transfer_in"
)

// IsTransfer reports whether the kind is one leg of a transfer.
func (k TransactionKind) IsTransfer() bool {
	return k == TransferOut || k == TransferIn
}

// IsCredit reports whether the kind increases the owning account's balance.
func (k TransactionKind) IsCredit() bool {
	return k == Deposit || k == TransferIn
}

// TransactionRecord is one immutable entry in an account's transaction log.
type TransactionRecord struct {
	TransactionID  uint64          `json:"transactionID"`            // Ledger-wide sequence, assigned at commit
	AccountID      string          `json:"accountID"`                // Owning account
	Kind           TransactionKind `json:"kind"`                     // deposit, withdraw, transfer_out, transfer_in
	Amount         decimal.Decimal `json:"amount"`                   // Always positive; sign implied by Kind
	CounterpartyID string          `json:"counterpartyID,omitempty"` // Set only for transfer legs
	TransferID     string          `json:"transferID,omitempty"`     // Shared by both legs of a transfer
	Timestamp      time.Time       `json:"timestamp"`                // Assigned at commit
}

// Validate checks the structural invariants of a record before it is appended.
func (r TransactionRecord) Validate() error {
	if r.AccountID == "" {
		return fmt.Errorf("account ID is required")
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", r.Amount.String())
	}
	switch r.Kind {
	case Deposit, Withdraw:
		if r.CounterpartyID != "" {
			return fmt.Errorf("%s record must not have a counterparty", r.Kind)
		}
	case TransferOut, TransferIn:
		if r.CounterpartyID == "" {
			return fmt.Errorf("%s record requires a counterparty", r.Kind)
		}
		if r.CounterpartyID == r.AccountID {
			return fmt.Errorf("%s record counterparty must differ from the owning account", r.Kind)
		}
		if r.TransferID == "" {
			return fmt.Errorf("%s record requires a transfer ID", r.Kind)
		}
	default:
		return fmt.Errorf("unknown transaction kind '%s'", r.Kind)
	}
	return nil
}
