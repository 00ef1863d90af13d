package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/model"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, provider, display_name, currency_code, current_balance,
	is_credit_card, last_synced_at, created_at`

// CreateAccount stores a new account. A second account with the same provider
// and display name is rejected with common.ErrConflict.
func (s *SQLiteStorage) CreateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}
	if account.CurrencyCode == "" {
		account.CurrencyCode = model.DefaultCurrency
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		account.ID,
		account.Provider,
		account.DisplayName,
		account.CurrencyCode,
		account.CurrentBalance.StringFixed(2),
		account.IsCreditCard,
		formatNullTime(account.LastSyncedAt),
		formatTime(account.CreatedAt),
	)
	if err != nil {
		return translateWriteError(err, fmt.Sprintf("account %s/%s", account.Provider, account.DisplayName))
	}
	return nil
}

// GetAccount returns an account by id.
func (s *SQLiteStorage) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return scanAccountRow(s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
}

// FindAccount returns the account with the given provider and display name.
func (s *SQLiteStorage) FindAccount(ctx context.Context, provider, displayName string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return scanAccountRow(s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE provider = ? AND display_name = ?
	`, provider, displayName))
}

// ListAccounts returns all accounts ordered by provider and name.
func (s *SQLiteStorage) ListAccounts(ctx context.Context) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY provider, display_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

// UpdateAccount stores the balance, credit-card flag and sync time of an account.
func (s *SQLiteStorage) UpdateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}
	return s.updateAccountTx(ctx, s.db, account)
}

func (s *SQLiteStorage) updateAccountTx(ctx context.Context, q queryable, account *model.Account) error {
	result, err := q.ExecContext(ctx, `
		UPDATE accounts
		SET current_balance = ?, is_credit_card = ?, last_synced_at = ?
		WHERE id = ?
	`,
		account.CurrentBalance.StringFixed(2),
		account.IsCreditCard,
		formatNullTime(account.LastSyncedAt),
		account.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return checkRowsAffected(result, "account "+account.ID)
}

func scanAccountRow(row *sql.Row) (*model.Account, error) {
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account: %w", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return account, nil
}

func scanAccount(row scanner) (*model.Account, error) {
	var (
		account    model.Account
		balance    string
		lastSynced sql.NullString
		createdAt  string
	)
	if err := row.Scan(
		&account.ID,
		&account.Provider,
		&account.DisplayName,
		&account.CurrencyCode,
		&balance,
		&account.IsCreditCard,
		&lastSynced,
		&createdAt,
	); err != nil {
		return nil, err
	}

	var err error
	if account.CurrentBalance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("failed to parse stored balance %q: %w", balance, err)
	}
	if account.LastSyncedAt, err = parseNullTime(lastSynced); err != nil {
		return nil, err
	}
	if account.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &account, nil
}
