package pgsql

import (
	"testing"

	"github.com/SscSPs/wallet_ledger_app/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
)

func TestNewRepositoryProvider_WithoutPoolHasNoArchive(t *testing.T) {
	ledger := memory.NewLedgerStore()

	provider := NewRepositoryProvider(ledger, nil)

	assert.Same(t, ledger, provider.LedgerStore)
	assert.Nil(t, provider.Archive)
}
