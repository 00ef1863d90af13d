package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Accounts and transactions",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS accounts (
					id TEXT PRIMARY KEY,
					provider TEXT NOT NULL,
					display_name TEXT NOT NULL,
					currency_code TEXT NOT NULL DEFAULT 'EUR',
					current_balance TEXT NOT NULL DEFAULT '0',
					is_credit_card INTEGER NOT NULL DEFAULT 0,
					last_synced_at TEXT,
					created_at TEXT NOT NULL,
					UNIQUE(provider, display_name)
				)`,
				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
					source_transaction_id TEXT NOT NULL DEFAULT '',
					external_id TEXT NOT NULL DEFAULT '',
					transaction_date TEXT NOT NULL,
					booking_date TEXT NOT NULL,
					amount TEXT NOT NULL,
					currency_code TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					counterparty_name TEXT NOT NULL DEFAULT '',
					category TEXT NOT NULL DEFAULT '',
					is_essential_expense INTEGER NOT NULL DEFAULT 0,
					created_at TEXT NOT NULL
				)`,
				`CREATE UNIQUE INDEX idx_transactions_source_id
					ON transactions(account_id, source_transaction_id)
					WHERE source_transaction_id != ''`,
				`CREATE INDEX idx_transactions_fuzzy ON transactions(account_id, transaction_date, amount)`,
				`CREATE INDEX idx_transactions_external_id ON transactions(account_id, external_id)
					WHERE external_id != ''`,
			}
			return execAll(tx, queries)
		},
	},
	{
		Version:     2,
		Description: "Categorization rules",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS categorization_rules (
					id TEXT PRIMARY KEY,
					pattern TEXT NOT NULL,
					category TEXT NOT NULL,
					is_regex INTEGER NOT NULL DEFAULT 0,
					case_sensitive INTEGER NOT NULL DEFAULT 0,
					priority INTEGER NOT NULL DEFAULT 0,
					mark_as_essential INTEGER NOT NULL DEFAULT 0,
					transaction_type TEXT NOT NULL DEFAULT 'Any'
						CHECK (transaction_type IN ('Any', 'Positive', 'Negative')),
					times_used INTEGER NOT NULL DEFAULT 0,
					last_used_at TEXT,
					created_at TEXT NOT NULL
				)`,
				`CREATE INDEX idx_rules_order ON categorization_rules(priority DESC, created_at ASC)`,
			}
			return execAll(tx, queries)
		},
	},
	{
		Version:     3,
		Description: "Index categories for recategorization sweeps",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE INDEX idx_transactions_category ON transactions(category)`,
			})
		},
	},
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate runs all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if currentVersion > ExpectedSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", currentVersion, ExpectedSchemaVersion)
	}

	// Apply migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		// PRAGMA does not accept bound parameters.
		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion); err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion returns the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
