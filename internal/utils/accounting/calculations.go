package accounting

import (
	"github.com/SscSPs/wallet_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SignedAmount applies the sign implied by the record kind to its amount.
// This is used by both the store and the query service to ensure consistent ledger arithmetic.
//
// deposit, transfer_in -> Positive (+)
// withdraw, transfer_out -> Negative (-)
func SignedAmount(record domain.TransactionRecord) decimal.Decimal {
	if record.Kind.IsCredit() {
		return record.Amount
	}
	return record.Amount.Neg()
}

// SumSigned returns the signed total of the records.
func SumSigned(records []domain.TransactionRecord) decimal.Decimal {
	sum := decimal.Zero
	for _, record := range records {
		sum = sum.Add(SignedAmount(record))
	}
	return sum
}
