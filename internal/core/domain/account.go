package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a wallet account within the core domain.
// The balance is only ever mutated by the ledger engine and never drops below zero.
type Account struct {
	AccountID string          `json:"accountID"` // Opaque unique identifier (UUID)
	Balance   decimal.Decimal `json:"balance"`   // Non-negative fixed-point amount
	CreatedAt time.Time       `json:"createdAt"`
}

// Reconciliation compares an account balance with the sum of its recorded transactions.
type Reconciliation struct {
	AccountID        string          `json:"accountID"`
	Balance          decimal.Decimal `json:"balance"`
	LedgerSum        decimal.Decimal `json:"ledgerSum"`
	TransactionCount int             `json:"transactionCount"`
	Balanced         bool            `json:"balanced"`
}
