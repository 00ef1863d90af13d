// Package storage provides the SQLite persistence layer for bankweave.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/bankweave/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidAccount     = errors.New("invalid account")
	ErrInvalidRule        = errors.New("invalid rule")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransaction validates a single transaction before it is written.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.AccountID == "" {
		return fmt.Errorf("%w: missing account ID", ErrInvalidTransaction)
	}
	if txn.TransactionDate.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	return nil
}

// validateAccount validates an account before it is written.
func validateAccount(account *model.Account) error {
	if account == nil {
		return fmt.Errorf("%w: account", ErrNilParameter)
	}
	if account.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidAccount)
	}
	if strings.TrimSpace(account.DisplayName) == "" {
		return fmt.Errorf("%w: missing display name", ErrInvalidAccount)
	}
	if strings.TrimSpace(account.Provider) == "" {
		return fmt.Errorf("%w: missing provider", ErrInvalidAccount)
	}
	return nil
}

// validateRule validates a rule before it is written.
func validateRule(rule *model.Rule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if rule.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRule)
	}
	if strings.TrimSpace(rule.Pattern) == "" {
		return fmt.Errorf("%w: missing pattern", ErrInvalidRule)
	}
	if strings.TrimSpace(rule.Category) == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidRule)
	}
	return nil
}
