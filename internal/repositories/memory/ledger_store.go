package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SscSPs/wallet_ledger_app/internal/apperrors"
	"github.com/SscSPs/wallet_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/wallet_ledger_app/internal/core/ports/repositories"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// maxIDAttempts bounds the collision retries of Register.
const maxIDAttempts = 8

// accountEntry is one partition of the ledger: an account and its log, behind one guard.
type accountEntry struct {
	mu      sync.RWMutex
	account domain.Account
	records []domain.TransactionRecord
}

// LedgerStore is the in-memory ledger aggregate.
// Accounts and their logs live in the same entry so that the AccountStore and
// TransactionLog views can never disagree.
type LedgerStore struct {
	mu       sync.RWMutex // guards the accounts map only, never an entry's contents
	accounts map[string]*accountEntry

	seq   atomic.Uint64
	newID func() string
	now   func() time.Time
}

// StoreOption is a functional option for configuring the ledger store
type StoreOption func(*LedgerStore)

// WithIDGenerator replaces the account ID generator.
func WithIDGenerator(gen func() string) StoreOption {
	return func(s *LedgerStore) {
		s.newID = gen
	}
}

// WithClock replaces the commit clock.
func WithClock(now func() time.Time) StoreOption {
	return func(s *LedgerStore) {
		s.now = now
	}
}

// NewLedgerStore creates an empty ledger.
func NewLedgerStore(options ...StoreOption) *LedgerStore {
	s := &LedgerStore{
		accounts: make(map[string]*accountEntry),
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(s)
	}
	return s
}

var _ portsrepo.LedgerStoreFacade = (*LedgerStore)(nil)

// Register creates a new account with a zero balance.
func (s *LedgerStore) Register(ctx context.Context) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for range maxIDAttempts {
		id := s.newID()
		if _, taken := s.accounts[id]; taken {
			continue
		}
		entry := &accountEntry{
			account: domain.Account{AccountID: id, CreatedAt: s.now()},
		}
		s.accounts[id] = entry
		return entry.account, nil
	}
	return domain.Account{}, fmt.Errorf("could not allocate a unique account ID after %d attempts: %w", maxIDAttempts, apperrors.ErrInternal)
}

func (s *LedgerStore) lookup(accountID string) (*accountEntry, error) {
	s.mu.RLock()
	entry, ok := s.accounts[accountID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountID, apperrors.ErrAccountNotFound)
	}
	return entry, nil
}

// Exists reports whether the account has been registered.
func (s *LedgerStore) Exists(ctx context.Context, accountID string) bool {
	_, err := s.lookup(accountID)
	return err == nil
}

// FindAccountByID returns the committed state of the account.
func (s *LedgerStore) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	entry, err := s.lookup(accountID)
	if err != nil {
		return nil, err
	}
	entry.mu.RLock()
	account := entry.account
	entry.mu.RUnlock()
	return &account, nil
}

// ListFor returns a copy of the account's full log.
func (s *LedgerStore) ListFor(ctx context.Context, accountID string) ([]domain.TransactionRecord, error) {
	entry, err := s.lookup(accountID)
	if err != nil {
		return nil, err
	}
	entry.mu.RLock()
	defer entry.mu.RUnlock()
	return cloneRecords(entry.records), nil
}

// ListAfter returns up to limit records whose TransactionID is greater than afterID.
// Record IDs grow with append order, so the log is searched by binary search.
func (s *LedgerStore) ListAfter(ctx context.Context, accountID string, afterID uint64, limit int) ([]domain.TransactionRecord, error) {
	entry, err := s.lookup(accountID)
	if err != nil {
		return nil, err
	}
	entry.mu.RLock()
	defer entry.mu.RUnlock()

	start := sort.Search(len(entry.records), func(i int) bool {
		return entry.records[i].TransactionID > afterID
	})
	end := len(entry.records)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return cloneRecords(entry.records[start:end]), nil
}

// Snapshot returns the account and its log as of the same committed point.
func (s *LedgerStore) Snapshot(ctx context.Context, accountID string) (domain.Account, []domain.TransactionRecord, error) {
	entry, err := s.lookup(accountID)
	if err != nil {
		return domain.Account{}, nil, err
	}
	entry.mu.RLock()
	defer entry.mu.RUnlock()
	return entry.account, cloneRecords(entry.records), nil
}

// Begin takes the exclusive guards of the given accounts in ascending ID order.
// Every ID is resolved before the first guard is taken, so an unknown ID fails
// without holding anything.
func (s *LedgerStore) Begin(ctx context.Context, accountIDs ...string) (portsrepo.LedgerTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids := lo.Uniq(accountIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("a ledger transaction needs at least one account: %w", apperrors.ErrInvalidOperation)
	}
	sort.Strings(ids)

	entries := make([]*accountEntry, len(ids))
	for i, id := range ids {
		entry, err := s.lookup(id)
		if err != nil {
			return nil, err
		}
		entries[i] = entry
	}

	tx := &ledgerTx{
		store:    s,
		order:    entries,
		held:     make(map[string]*accountEntry, len(ids)),
		balances: make(map[string]stagedBalance, len(ids)),
	}
	for i, entry := range entries {
		entry.mu.Lock()
		tx.held[ids[i]] = entry
		tx.balances[ids[i]] = stagedBalance{start: entry.account.Balance, current: entry.account.Balance}
	}
	return tx, nil
}

func cloneRecords(records []domain.TransactionRecord) []domain.TransactionRecord {
	if len(records) == 0 {
		return []domain.TransactionRecord{}
	}
	return slices.Clone(records)
}
