package memory

import (
	"context"
	"fmt"

	"github.com/SscSPs/wallet_ledger_app/internal/apperrors"
	"github.com/SscSPs/wallet_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/wallet_ledger_app/internal/core/ports/repositories"
	"github.com/SscSPs/wallet_ledger_app/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

type stagedBalance struct {
	start   decimal.Decimal
	current decimal.Decimal
}

// ledgerTx stages balance changes and records while holding the guards of its accounts.
type ledgerTx struct {
	store    *LedgerStore
	order    []*accountEntry // lock order, released in reverse
	held     map[string]*accountEntry
	balances map[string]stagedBalance
	pending  []domain.TransactionRecord
	done     bool
}

var _ portsrepo.LedgerTx = (*ledgerTx)(nil)

func (tx *ledgerTx) staged(accountID string) (stagedBalance, error) {
	if tx.done {
		return stagedBalance{}, fmt.Errorf("ledger transaction already finished: %w", apperrors.ErrInvalidOperation)
	}
	b, ok := tx.balances[accountID]
	if !ok {
		return stagedBalance{}, fmt.Errorf("account %s is not part of this ledger transaction: %w", accountID, apperrors.ErrInvalidOperation)
	}
	return b, nil
}

// Balance returns the staged balance of a held account.
func (tx *ledgerTx) Balance(accountID string) (decimal.Decimal, error) {
	b, err := tx.staged(accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return b.current, nil
}

// Debit lowers the staged balance. It never lets the balance go negative.
func (tx *ledgerTx) Debit(accountID string, amount decimal.Decimal) error {
	b, err := tx.staged(accountID)
	if err != nil {
		return err
	}
	if !amount.IsPositive() {
		return fmt.Errorf("debit of %s: %w", amount.String(), apperrors.ErrInvalidAmount)
	}
	if b.current.LessThan(amount) {
		return fmt.Errorf("account %s has %s, needs %s: %w", accountID, b.current.String(), amount.String(), apperrors.ErrInsufficientFunds)
	}
	b.current = b.current.Sub(amount)
	tx.balances[accountID] = b
	return nil
}

// Credit raises the staged balance.
func (tx *ledgerTx) Credit(accountID string, amount decimal.Decimal) error {
	b, err := tx.staged(accountID)
	if err != nil {
		return err
	}
	if !amount.IsPositive() {
		return fmt.Errorf("credit of %s: %w", amount.String(), apperrors.ErrInvalidAmount)
	}
	b.current = b.current.Add(amount)
	tx.balances[accountID] = b
	return nil
}

// Append stages a record for a held account. ID and timestamp are assigned on Commit.
func (tx *ledgerTx) Append(record domain.TransactionRecord) error {
	if _, err := tx.staged(record.AccountID); err != nil {
		return err
	}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	tx.pending = append(tx.pending, record)
	return nil
}

// Commit publishes every staged change at once, then releases the guards.
// Staged balances must match the staged records exactly, otherwise nothing is applied.
func (tx *ledgerTx) Commit(ctx context.Context) ([]domain.TransactionRecord, error) {
	if tx.done {
		return nil, fmt.Errorf("ledger transaction already finished: %w", apperrors.ErrInvalidOperation)
	}
	defer tx.release()

	if err := tx.checkBalanced(); err != nil {
		return nil, err
	}

	// One timestamp for the whole commit, never earlier than any held log's tail.
	ts := tx.store.now()
	for _, entry := range tx.order {
		if n := len(entry.records); n > 0 && entry.records[n-1].Timestamp.After(ts) {
			ts = entry.records[n-1].Timestamp
		}
	}

	committed := make([]domain.TransactionRecord, len(tx.pending))
	for i, record := range tx.pending {
		record.TransactionID = tx.store.seq.Add(1)
		record.Timestamp = ts
		committed[i] = record
	}

	for id, b := range tx.balances {
		tx.held[id].account.Balance = b.current
	}
	for _, record := range committed {
		entry := tx.held[record.AccountID]
		entry.records = append(entry.records, record)
	}
	return committed, nil
}

// checkBalanced verifies that each account's staged delta equals its staged records' signed sum.
func (tx *ledgerTx) checkBalanced() error {
	sums := make(map[string]decimal.Decimal, len(tx.balances))
	for _, record := range tx.pending {
		sums[record.AccountID] = sums[record.AccountID].Add(accounting.SignedAmount(record))
	}
	for id, b := range tx.balances {
		delta := b.current.Sub(b.start)
		if !delta.Equal(sums[id]) {
			return fmt.Errorf("account %s: staged balance change %s does not match staged records %s: %w",
				id, delta.String(), sums[id].String(), apperrors.ErrInternal)
		}
	}
	return nil
}

// Rollback discards staged changes. It is a no-op once the transaction has finished.
func (tx *ledgerTx) Rollback(ctx context.Context) error {
	if tx.done {
		return nil
	}
	tx.release()
	return nil
}

func (tx *ledgerTx) release() {
	if tx.done {
		return
	}
	tx.done = true
	for i := len(tx.order) - 1; i >= 0; i-- {
		tx.order[i].mu.Unlock()
	}
	tx.pending = nil
}
