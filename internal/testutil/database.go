// Package testutil provides test helpers for packages that need a real store.
// It offers an in-memory SQLite database with migrations applied and fluent
// builders for seeding accounts and transactions.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/Veraticus/bankweave/internal/model"
	"github.com/Veraticus/bankweave/internal/service"
	"github.com/Veraticus/bankweave/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	account := db.CreateAccount("revolut", "Main")
//	db.Seed(account.ID, testutil.NewTransaction("2024-05-10", "-4.50", "Coffee").Build())
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// CreateAccount stores an account and fails the test on error.
func (db *TestDB) CreateAccount(provider, displayName string, opts ...AccountOption) *model.Account {
	db.t.Helper()

	account := &model.Account{
		ID:          fmt.Sprintf("%s-%s", provider, displayName),
		Provider:    provider,
		DisplayName: displayName,
	}
	for _, opt := range opts {
		opt(account)
	}
	if err := db.Storage.CreateAccount(context.Background(), account); err != nil {
		db.t.Fatalf("failed to create account %q: %v", displayName, err)
	}
	return account
}

// AccountOption customizes an account created by CreateAccount.
type AccountOption func(*model.Account)

// AsCreditCard marks the account as a credit card.
func AsCreditCard() AccountOption {
	return func(a *model.Account) { a.IsCreditCard = true }
}

// WithCurrency sets the account currency.
func WithCurrency(code string) AccountOption {
	return func(a *model.Account) { a.CurrencyCode = code }
}

// Seed inserts transactions into accountID and fails the test on error.
// Transactions without an ID are given one derived from their position.
func (db *TestDB) Seed(accountID string, txns ...model.Transaction) []model.Transaction {
	db.t.Helper()

	ctx := context.Background()
	seeded := make([]model.Transaction, 0, len(txns))
	for i, txn := range txns {
		txn.AccountID = accountID
		if txn.ID == "" {
			txn.ID = fmt.Sprintf("%s-seed-%d", accountID, i)
		}
		if err := db.Storage.InsertTransaction(ctx, &txn); err != nil {
			db.t.Fatalf("failed to seed transaction %d: %v", i, err)
		}
		seeded = append(seeded, txn)
	}
	return seeded
}

// MustGet returns a stored transaction or fails the test.
func (db *TestDB) MustGet(id string) *model.Transaction {
	db.t.Helper()
	txn, err := db.Storage.GetTransaction(context.Background(), id)
	if err != nil {
		db.t.Fatalf("failed to get transaction %q: %v", id, err)
	}
	return txn
}

// All returns every transaction of accountID in insertion order.
func (db *TestDB) All(accountID string) []model.Transaction {
	db.t.Helper()
	txns, err := db.Storage.ListTransactions(context.Background(), service.TransactionFilter{AccountID: accountID})
	if err != nil {
		db.t.Fatalf("failed to list transactions: %v", err)
	}
	return txns
}

// WithTransaction executes the given function within a database transaction.
// The transaction is automatically rolled back after the function completes.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	ctx := context.Background()
	tx, err := db.Storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}
