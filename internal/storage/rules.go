package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/model"
)

const ruleColumns = `id, pattern, category, is_regex, case_sensitive, priority,
	mark_as_essential, transaction_type, times_used, last_used_at, created_at`

// CreateRule stores a new categorization rule.
func (s *SQLiteStorage) CreateRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}
	if rule.TransactionType == "" {
		rule.TransactionType = model.TransactionTypeAny
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categorization_rules (`+ruleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rule.ID,
		rule.Pattern,
		rule.Category,
		rule.IsRegex,
		rule.CaseSensitive,
		rule.Priority,
		rule.MarkAsEssential,
		string(rule.TransactionType),
		rule.TimesUsed,
		formatNullTime(rule.LastUsedAt),
		formatTime(rule.CreatedAt),
	)
	if err != nil {
		return translateWriteError(err, "rule "+rule.ID)
	}
	return nil
}

// GetRule retrieves a rule by id.
func (s *SQLiteStorage) GetRule(ctx context.Context, id string) (*model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	rule, err := scanRule(s.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM categorization_rules WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rule %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return rule, nil
}

// ListRules returns all rules, highest priority first and oldest first within a priority.
func (s *SQLiteStorage) ListRules(ctx context.Context) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ruleColumns+` FROM categorization_rules
		ORDER BY priority DESC, created_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

// UpdateRule overwrites the editable fields of a rule.
func (s *SQLiteStorage) UpdateRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE categorization_rules
		SET pattern = ?, category = ?, is_regex = ?, case_sensitive = ?, priority = ?,
			mark_as_essential = ?, transaction_type = ?
		WHERE id = ?
	`,
		rule.Pattern,
		rule.Category,
		rule.IsRegex,
		rule.CaseSensitive,
		rule.Priority,
		rule.MarkAsEssential,
		string(rule.TransactionType),
		rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}
	return checkRowsAffected(result, "rule "+rule.ID)
}

// DeleteRule removes a rule.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM categorization_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	return checkRowsAffected(result, "rule "+id)
}

// RecordRuleUsage increments times_used and moves last_used_at forward for each event.
func (s *SQLiteStorage) RecordRuleUsage(ctx context.Context, usage ...model.RuleUsage) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(usage) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.recordRuleUsageTx(ctx, tx, usage)
	})
}

func (s *SQLiteStorage) recordRuleUsageTx(ctx context.Context, q queryable, usage []model.RuleUsage) error {
	for _, u := range usage {
		// A deleted rule has nothing left to count.
		_, err := q.ExecContext(ctx, `
			UPDATE categorization_rules
			SET times_used = times_used + 1,
				last_used_at = CASE
					WHEN last_used_at IS NULL OR last_used_at < ? THEN ?
					ELSE last_used_at
				END
			WHERE id = ?
		`, formatTime(u.UsedAt), formatTime(u.UsedAt), u.RuleID)
		if err != nil {
			return fmt.Errorf("failed to record usage of rule %s: %w", u.RuleID, err)
		}
	}
	return nil
}

func scanRule(row scanner) (*model.Rule, error) {
	var (
		rule      model.Rule
		txnType   string
		lastUsed  sql.NullString
		createdAt string
	)
	if err := row.Scan(
		&rule.ID,
		&rule.Pattern,
		&rule.Category,
		&rule.IsRegex,
		&rule.CaseSensitive,
		&rule.Priority,
		&rule.MarkAsEssential,
		&txnType,
		&rule.TimesUsed,
		&lastUsed,
		&createdAt,
	); err != nil {
		return nil, err
	}

	rule.TransactionType = model.TransactionType(txnType)
	var err error
	if rule.LastUsedAt, err = parseNullTime(lastUsed); err != nil {
		return nil, err
	}
	if rule.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &rule, nil
}
