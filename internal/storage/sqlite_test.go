package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/bankweave/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err, "failed to create storage")

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })
	return store
}

// createTestAccount stores an account named name for provider "generic".
func createTestAccount(t *testing.T, store *SQLiteStorage, id string) *model.Account {
	t.Helper()
	account := &model.Account{
		ID:          id,
		Provider:    "generic",
		DisplayName: "Account " + id,
	}
	require.NoError(t, store.CreateAccount(context.Background(), account))
	return account
}

var baseDate = time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

func newTestTransaction(id, accountID string, day int, amount string, description string) *model.Transaction {
	return &model.Transaction{
		ID:                  id,
		AccountID:           accountID,
		SourceTransactionID: "src-" + id,
		TransactionDate:     baseDate.AddDate(0, 0, day),
		Amount:              decimal.RequireFromString(amount),
		CurrencyCode:        "EUR",
		Description:         description,
		CreatedAt:           baseDate.Add(time.Duration(day) * time.Minute),
	}
}

func TestNewSQLiteStorage(t *testing.T) {
	t.Run("creates nested directories", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "a", "b", "bank.db")
		store, err := NewSQLiteStorage(dbPath)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		require.NoError(t, store.Migrate(context.Background()))
		version, err := store.SchemaVersion(context.Background())
		require.NoError(t, err)
		assert.Equal(t, ExpectedSchemaVersion, version)
	})

	t.Run("rejects empty path", func(t *testing.T) {
		_, err := NewSQLiteStorage(" ")
		assert.ErrorIs(t, err, ErrEmptyString)
	})

	t.Run("in-memory database", func(t *testing.T) {
		store, err := NewSQLiteStorage(":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		assert.NoError(t, store.Migrate(context.Background()))
	})
}

func TestMigrate_Idempotent(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestMigrate_RejectsNewerSchema(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx, "PRAGMA user_version = 99")
	require.NoError(t, err)

	assert.Error(t, store.Migrate(ctx))
}

func TestBeginTx_RollbackDiscardsWrites(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	createTestAccount(t, store, "acc1")

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertTransaction(ctx, newTestTransaction("t1", "acc1", 0, "-5.00", "Coffee")))
	require.NoError(t, tx.Rollback())

	txns, err := store.ListTransactions(ctx, filterAll())
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestBeginTx_CommitPersistsWrites(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	account := createTestAccount(t, store, "acc1")

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertTransaction(ctx, newTestTransaction("t1", "acc1", 0, "-5.00", "Coffee")))
	account.CurrentBalance = decimal.RequireFromString("120.55")
	require.NoError(t, tx.UpdateAccount(ctx, account))
	require.NoError(t, tx.Commit())

	got, err := store.GetAccount(ctx, "acc1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("120.55").Equal(got.CurrentBalance))

	_, err = store.GetTransaction(ctx, "t1")
	assert.NoError(t, err)
}
