package engine

import (
	"context"

	"github.com/Veraticus/bankweave/internal/model"
	"github.com/Veraticus/bankweave/internal/pattern"
	"github.com/Veraticus/bankweave/internal/service"
	"github.com/shopspring/decimal"
)

// RuleEvaluator finds the user rule that applies to a transaction.
type RuleEvaluator interface {
	Evaluate(ctx context.Context, description string, amount decimal.Decimal) (pattern.Match, bool, error)
}

// Learner answers lookups from, and records, user corrections.
type Learner interface {
	Lookup(ctx context.Context, counterparty, description string) (string, bool, error)
	RecordCorrection(ctx context.Context, transactionID, category string) (int, error)
}

// Fallback is the always-answering last stage.
type Fallback interface {
	Classify(description, counterparty string, amount decimal.Decimal) string
}

// Storage is the storage surface the categorizer writes through.
type Storage interface {
	ListTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	RecordRuleUsage(ctx context.Context, usage ...model.RuleUsage) error
}
