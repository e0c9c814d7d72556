package dto

import (
	"encoding/json"
	"time"

	"github.com/SscSPs/wallet_ledger_app/internal/core/domain"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// AmountRequest carries an amount accepted as a JSON string or number.
// It is decoded straight into a decimal, never through float64.
type AmountRequest struct {
	Amount *decimal.Decimal `json:"amount" binding:"required" swaggertype:"string" example:"100.00"`
}

// DepositRequest defines the data needed to deposit into an account.
type DepositRequest struct {
	UserID string `json:"user_id" binding:"required,account_id"`
	AmountRequest
}

// WithdrawRequest defines the data needed to withdraw from an account.
type WithdrawRequest struct {
	UserID string `json:"user_id" binding:"required,account_id"`
	AmountRequest
}

// TransferRequest defines the data needed to move funds between two accounts.
type TransferRequest struct {
	SenderID    string `json:"sender_id" binding:"required,account_id"`
	RecipientID string `json:"recipient_id" binding:"required,account_id"`
	AmountRequest
}

// RegisterResponse is returned when an account is created.
type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// BalanceMutationResponse is returned by deposit, withdraw and transfer.
type BalanceMutationResponse struct {
	Message string      `json:"message"`
	Balance json.Number `json:"balance" swaggertype:"number"`
}

// BalanceResponse is returned by the balance lookup.
type BalanceResponse struct {
	UserID  string      `json:"user_id"`
	Balance json.Number `json:"balance" swaggertype:"number"`
}

// TransactionResponse defines the data returned for a transaction record.
// Action and Target repeat Kind and CounterpartyID for older clients.
type TransactionResponse struct {
	ID             uint64      `json:"id"`
	Kind           string      `json:"kind"`
	Action         string      `json:"action"`
	Amount         json.Number `json:"amount" swaggertype:"number"`
	CounterpartyID *string     `json:"counterparty_id"`
	Target         *string     `json:"target"`
	TransferID     string      `json:"transfer_id,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}

// ListTransactionsParams defines the paging query of the history endpoint.
type ListTransactionsParams struct {
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken string `form:"next_token"`
}

// TransactionPage is one page of an account history.
type TransactionPage struct {
	Transactions []domain.TransactionRecord
	NextToken    *string // nil on the last page
}

// ListTransactionsResponse wraps an account history.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"next_token,omitempty"`
}

// ReconciliationResponse reports whether an account balance matches its ledger.
type ReconciliationResponse struct {
	UserID           string      `json:"user_id"`
	Balance          json.Number `json:"balance" swaggertype:"number"`
	LedgerSum        json.Number `json:"ledger_sum" swaggertype:"number"`
	TransactionCount int         `json:"transaction_count"`
	Balanced         bool        `json:"balanced"`
}

// AmountNumber renders a decimal as a JSON number literal with a fixed number of places.
func AmountNumber(amount decimal.Decimal, precision int32) json.Number {
	return json.Number(amount.StringFixed(precision))
}

// ToTransactionResponse converts a domain.TransactionRecord to TransactionResponse DTO.
func ToTransactionResponse(record domain.TransactionRecord, precision int32) TransactionResponse {
	var counterparty *string
	if record.CounterpartyID != "" {
		counterparty = lo.ToPtr(record.CounterpartyID)
	}
	return TransactionResponse{
		ID:             record.TransactionID,
		Kind:           string(record.Kind),
		Action:         string(record.Kind),
		Amount:         AmountNumber(record.Amount, precision),
		CounterpartyID: counterparty,
		Target:         counterparty,
		TransferID:     record.TransferID,
		Timestamp:      record.Timestamp,
	}
}

// ToTransactionResponses converts a slice of domain.TransactionRecord to []TransactionResponse.
func ToTransactionResponses(records []domain.TransactionRecord, precision int32) []TransactionResponse {
	return lo.Map(records, func(record domain.TransactionRecord, _ int) TransactionResponse {
		return ToTransactionResponse(record, precision)
	})
}

// ToReconciliationResponse converts a domain.Reconciliation to ReconciliationResponse DTO.
func ToReconciliationResponse(report *domain.Reconciliation, precision int32) ReconciliationResponse {
	return ReconciliationResponse{
		UserID:           report.AccountID,
		Balance:          AmountNumber(report.Balance, precision),
		LedgerSum:        AmountNumber(report.LedgerSum, precision),
		TransactionCount: report.TransactionCount,
		Balanced:         report.Balanced,
	}
}
