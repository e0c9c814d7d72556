package mapping

import (
	"github.com/SscSPs/wallet_ledger_app/internal/core/domain"
	"github.com/SscSPs/wallet_ledger_app/internal/models"
)

// ToModelTransaction converts a domain TransactionRecord to an archive row.
func ToModelTransaction(d domain.TransactionRecord) models.WalletTransaction {
	return models.WalletTransaction{
		TransactionID:  int64(d.TransactionID),
		AccountID:      d.AccountID,
		Kind:           string(d.Kind),
		Amount:         d.Amount,
		CounterpartyID: nullableString(d.CounterpartyID),
		TransferID:     nullableString(d.TransferID),
		CommittedAt:    d.Timestamp,
	}
}

// ToDomainTransaction converts an archive row to a domain TransactionRecord.
func ToDomainTransaction(m models.WalletTransaction) domain.TransactionRecord {
	r := domain.TransactionRecord{
		TransactionID: uint64(m.TransactionID),
		AccountID:     m.AccountID,
		Kind:          domain.TransactionKind(m.Kind),
		Amount:        m.Amount,
		Timestamp:     m.CommittedAt,
	}
	if m.CounterpartyID != nil {
		r.CounterpartyID = *m.CounterpartyID
	}
	if m.TransferID != nil {
		r.TransferID = *m.TransferID
	}
	return r
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
