package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/model"
	"github.com/Veraticus/bankweave/internal/service"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, account_id, source_transaction_id, external_id, transaction_date,
	booking_date, amount, currency_code, description, counterparty_name, category,
	is_essential_expense, created_at`

// needsCategorizingClause matches rows with no category or a placeholder one.
func needsCategorizingClause() (string, []any) {
	placeholders, args := inClause(append([]string{""}, model.PlaceholderCategories()...))
	return "category IN (" + placeholders + ")", args
}

// InsertTransaction stores a new transaction.
func (s *SQLiteStorage) InsertTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	return s.insertTransactionTx(ctx, s.db, txn)
}

func (s *SQLiteStorage) insertTransactionTx(ctx context.Context, q queryable, txn *model.Transaction) error {
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
	bookingDate := txn.BookingDate
	if bookingDate.IsZero() {
		bookingDate = txn.TransactionDate
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		txn.ID,
		txn.AccountID,
		txn.SourceTransactionID,
		txn.ExternalID,
		formatTime(txn.TransactionDate),
		formatTime(bookingDate),
		txn.Amount.StringFixed(2),
		txn.CurrencyCode,
		txn.Description,
		txn.CounterpartyName,
		txn.Category,
		txn.IsEssentialExpense,
		formatTime(txn.CreatedAt),
	)
	if err != nil {
		return translateWriteError(err, "transaction "+txn.ID)
	}
	return nil
}

// UpdateTransaction overwrites the mutable fields of a stored transaction.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	return s.updateTransactionTx(ctx, s.db, txn)
}

func (s *SQLiteStorage) updateTransactionTx(ctx context.Context, q queryable, txn *model.Transaction) error {
	result, err := q.ExecContext(ctx, `
		UPDATE transactions
		SET source_transaction_id = ?, external_id = ?, description = ?, counterparty_name = ?,
			category = ?, is_essential_expense = ?
		WHERE id = ?
	`,
		txn.SourceTransactionID,
		txn.ExternalID,
		txn.Description,
		txn.CounterpartyName,
		txn.Category,
		txn.IsEssentialExpense,
		txn.ID,
	)
	if err != nil {
		return translateWriteError(err, "transaction "+txn.ID)
	}
	return checkRowsAffected(result, "transaction "+txn.ID)
}

// DeleteTransactions removes transactions by id and returns how many were deleted.
func (s *SQLiteStorage) DeleteTransactions(ctx context.Context, ids []string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return s.deleteTransactionsTx(ctx, s.db, ids)
}

func (s *SQLiteStorage) deleteTransactionsTx(ctx context.Context, q queryable, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders, args := inClause(ids)
	result, err := q.ExecContext(ctx, `DELETE FROM transactions WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete transactions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

// BulkUpdateCategory sets category on every listed transaction.
func (s *SQLiteStorage) BulkUpdateCategory(ctx context.Context, ids []string, category string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var updated int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		placeholders, args := inClause(ids)
		args = append([]any{category}, args...)
		result, err := tx.ExecContext(ctx,
			`UPDATE transactions SET category = ? WHERE id IN (`+placeholders+`)`, args...)
		if err != nil {
			return fmt.Errorf("failed to update categories: %w", err)
		}
		updated, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return int(updated), nil
}

// GetTransaction returns a transaction by id.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.queryOne(ctx, s.db, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
}

// FindBySourceID returns the account's transaction carrying sourceID.
func (s *SQLiteStorage) FindBySourceID(ctx context.Context, accountID, sourceID string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sourceID, "sourceID"); err != nil {
		return nil, err
	}
	return s.queryOne(ctx, s.db, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = ? AND source_transaction_id = ?
	`, accountID, sourceID)
}

// FindByExternalID returns the oldest transaction of the account carrying externalID.
func (s *SQLiteStorage) FindByExternalID(ctx context.Context, accountID, externalID string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(externalID, "externalID"); err != nil {
		return nil, err
	}
	return s.queryOne(ctx, s.db, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = ? AND external_id = ?
		ORDER BY created_at ASC, rowid ASC
		LIMIT 1
	`, accountID, externalID)
}

// FindFuzzyDuplicate returns a transaction with the same date and amount whose
// description matches, or whose counterparty matches when counterparty is non-empty.
func (s *SQLiteStorage) FindFuzzyDuplicate(ctx context.Context, accountID string, date time.Time, amount decimal.Decimal, description, counterparty string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryOne(ctx, s.db, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = ? AND transaction_date = ? AND amount = ?
			AND (description = ? OR (? != '' AND counterparty_name = ?))
		ORDER BY created_at ASC, rowid ASC
		LIMIT 1
	`, accountID, formatTime(date), amount.StringFixed(2), description, counterparty, counterparty)
}

// FindTransactionsMatchingIdentifier returns transactions whose description or
// counterparty contains identifier. Matching is case-sensitive.
func (s *SQLiteStorage) FindTransactionsMatchingIdentifier(ctx context.Context, identifier string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(identifier, "identifier"); err != nil {
		return nil, err
	}
	return s.queryMany(ctx, s.db, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE instr(counterparty_name, ?) > 0 OR instr(description, ?) > 0
		ORDER BY created_at ASC, rowid ASC
	`, identifier, identifier)
}

// ListTransactions returns transactions matching filter in insertion order.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		conditions []string
		args       []any
	)
	if filter.AccountID != "" {
		conditions = append(conditions, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if len(filter.IDs) > 0 {
		placeholders, idArgs := inClause(filter.IDs)
		conditions = append(conditions, "id IN ("+placeholders+")")
		args = append(args, idArgs...)
	}
	if filter.NeedsCategorizing {
		clause, categoryArgs := needsCategorizingClause()
		conditions = append(conditions, clause)
		args = append(args, categoryArgs...)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC, rowid ASC"

	return s.queryMany(ctx, s.db, query, args...)
}

func (s *SQLiteStorage) queryOne(ctx context.Context, q queryable, query string, args ...any) (*model.Transaction, error) {
	txn, err := scanTransaction(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction: %w", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	return txn, nil
}

func (s *SQLiteStorage) queryMany(ctx context.Context, q queryable, query string, args ...any) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}

	return transactions, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*model.Transaction, error) {
	var (
		txn                               model.Transaction
		transactionDate, bookingDate, cAt string
		amount                            string
	)
	err := row.Scan(
		&txn.ID,
		&txn.AccountID,
		&txn.SourceTransactionID,
		&txn.ExternalID,
		&transactionDate,
		&bookingDate,
		&amount,
		&txn.CurrencyCode,
		&txn.Description,
		&txn.CounterpartyName,
		&txn.Category,
		&txn.IsEssentialExpense,
		&cAt,
	)
	if err != nil {
		return nil, err
	}

	if txn.TransactionDate, err = parseTime(transactionDate); err != nil {
		return nil, err
	}
	if txn.BookingDate, err = parseTime(bookingDate); err != nil {
		return nil, err
	}
	if txn.CreatedAt, err = parseTime(cAt); err != nil {
		return nil, err
	}
	if txn.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("failed to parse stored amount %q: %w", amount, err)
	}
	return &txn, nil
}

func inClause(ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}
