// Package learning propagates user category corrections to similar transactions.
package learning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/model"
	"github.com/Veraticus/bankweave/internal/service"
)

// paymentPrefixes are stripped from counterparty names before matching.
var paymentPrefixes = []string{
	"Card debit - ",
	"Card payment - ",
	"Direct Debit - ",
	"Standing Order - ",
}

// Store answers "has the user corrected transactions like this before?".
type Store struct {
	store  service.LearningStore
	logger *slog.Logger
}

// NewStore creates a learning store backed by storage.
func NewStore(store service.LearningStore) *Store {
	return &Store{
		store:  store,
		logger: common.Component("learning"),
	}
}

// ExtractIdentifier derives the merchant identifier used to relate transactions.
// The counterparty is preferred, minus one known payment-method prefix.
func ExtractIdentifier(counterparty, description string) (string, bool) {
	if counterparty != "" {
		identifier := counterparty
		for _, prefix := range paymentPrefixes {
			if len(identifier) >= len(prefix) && strings.EqualFold(identifier[:len(prefix)], prefix) {
				identifier = identifier[len(prefix):]
				break
			}
		}
		identifier = strings.TrimSpace(identifier)
		if identifier != "" {
			return identifier, true
		}
	}

	identifier := strings.TrimSpace(description)
	return identifier, identifier != ""
}

// RecordCorrection sets the category of a transaction and of every transaction
// sharing its identifier. It returns the number of rows touched, the corrected one included.
func (s *Store) RecordCorrection(ctx context.Context, transactionID, category string) (int, error) {
	txn, err := s.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return 0, err
	}

	ids := []string{txn.ID}

	identifier, ok := ExtractIdentifier(txn.CounterpartyName, txn.Description)
	if ok {
		related, err := s.store.FindTransactionsMatchingIdentifier(ctx, identifier)
		if err != nil {
			return 0, fmt.Errorf("failed to find related transactions: %w", err)
		}
		for _, r := range related {
			if r.ID != txn.ID {
				ids = append(ids, r.ID)
			}
		}
	}

	updated, err := s.store.BulkUpdateCategory(ctx, ids, category)
	if err != nil {
		return 0, fmt.Errorf("failed to propagate category: %w", err)
	}

	s.logger.Info("Learned category from correction",
		"transaction_id", transactionID,
		"identifier", identifier,
		"category", category,
		"updated", updated)
	return updated, nil
}

// Lookup returns the category of the first earlier transaction sharing the
// identifier that carries a real category.
func (s *Store) Lookup(ctx context.Context, counterparty, description string) (string, bool, error) {
	identifier, ok := ExtractIdentifier(counterparty, description)
	if !ok {
		return "", false, nil
	}

	candidates, err := s.store.FindTransactionsMatchingIdentifier(ctx, identifier)
	if err != nil {
		return "", false, fmt.Errorf("failed to look up learned category: %w", err)
	}

	for _, c := range candidates {
		if c.Category != "" && c.Category != model.FallbackCategory {
			return c.Category, true, nil
		}
	}
	return "", false, nil
}
