package services_test

import (
	"context"
	"testing"

	"github.com/SscSPs/wallet_ledger_app/internal/apperrors"
	"github.com/SscSPs/wallet_ledger_app/internal/core/services"
	"github.com/SscSPs/wallet_ledger_app/internal/dto"
	"github.com/SscSPs/wallet_ledger_app/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedHistory(t *testing.T, n int) (*memory.LedgerStore, string) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewLedgerStore()
	engine := services.NewLedgerEngine(store)

	account, err := engine.Register(ctx)
	require.NoError(t, err)
	for range n {
		_, err := engine.Deposit(ctx, account.AccountID, dec("1"))
		require.NoError(t, err)
	}
	return store, account.AccountID
}

func TestListTransactionsPage_WalksWholeHistory(t *testing.T) {
	store, accountID := seedHistory(t, 7)
	query := services.NewQueryService(store)
	ctx := context.Background()

	var seen []uint64
	params := dto.ListTransactionsParams{Limit: 3}
	pages := 0
	for {
		page, err := query.ListTransactionsPage(ctx, accountID, params)
		require.NoError(t, err)
		pages++
		for _, record := range page.Transactions {
			seen = append(seen, record.TransactionID)
		}
		if page.NextToken == nil {
			break
		}
		params.NextToken = *page.NextToken
	}

	assert.Equal(t, 3, pages)
	require.Len(t, seen, 7)
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i], seen[i-1])
	}
}

func TestListTransactionsPage_ExactPageHasNoToken(t *testing.T) {
	store, accountID := seedHistory(t, 4)
	query := services.NewQueryService(store)

	page, err := query.ListTransactionsPage(context.Background(), accountID, dto.ListTransactionsParams{Limit: 4})
	require.NoError(t, err)
	assert.Len(t, page.Transactions, 4)
	assert.Nil(t, page.NextToken)
}

func TestListTransactionsPage_DefaultsAndCaps(t *testing.T) {
	store, accountID := seedHistory(t, 120)
	query := services.NewQueryService(store)
	ctx := context.Background()

	page, err := query.ListTransactionsPage(ctx, accountID, dto.ListTransactionsParams{})
	require.NoError(t, err)
	assert.Len(t, page.Transactions, 20)
	assert.NotNil(t, page.NextToken)

	page, err = query.ListTransactionsPage(ctx, accountID, dto.ListTransactionsParams{Limit: 500})
	require.NoError(t, err)
	assert.Len(t, page.Transactions, 100)
}

func TestListTransactionsPage_RejectsBadToken(t *testing.T) {
	store, accountID := seedHistory(t, 1)
	query := services.NewQueryService(store)

	_, err := query.ListTransactionsPage(context.Background(), accountID, dto.ListTransactionsParams{NextToken: "not a token"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestListTransactionsPage_UnknownAccount(t *testing.T) {
	query := services.NewQueryService(memory.NewLedgerStore())

	_, err := query.ListTransactionsPage(context.Background(), "missing", dto.ListTransactionsParams{})
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
}

func TestListTransactions_EmptyHistoryIsEmptySlice(t *testing.T) {
	store, accountID := seedHistory(t, 0)
	query := services.NewQueryService(store)

	records, err := query.ListTransactions(context.Background(), accountID)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	store := memory.NewLedgerStore()
	engine := services.NewLedgerEngine(store)
	query := services.NewQueryService(store)

	a, err := engine.Register(ctx)
	require.NoError(t, err)
	b, err := engine.Register(ctx)
	require.NoError(t, err)

	_, err = engine.Deposit(ctx, a.AccountID, dec("100.25"))
	require.NoError(t, err)
	_, err = engine.Withdraw(ctx, a.AccountID, dec("0.25"))
	require.NoError(t, err)
	_, err = engine.Transfer(ctx, a.AccountID, b.AccountID, dec("30"))
	require.NoError(t, err)

	report, err := query.Reconcile(ctx, a.AccountID)
	require.NoError(t, err)
	assert.True(t, report.Balanced)
	assert.Equal(t, "70", report.Balance.String())
	assert.Equal(t, "70", report.LedgerSum.String())
	assert.Equal(t, 3, report.TransactionCount)

	report, err = query.Reconcile(ctx, b.AccountID)
	require.NoError(t, err)
	assert.True(t, report.Balanced)
	assert.Equal(t, "30", report.Balance.String())
	assert.Equal(t, 1, report.TransactionCount)

	_, err = query.Reconcile(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
}
