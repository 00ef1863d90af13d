// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/bankweave/internal/model"
	"github.com/shopspring/decimal"
)

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	AccountID         string
	IDs               []string
	NeedsCategorizing bool
}

// RuleStore persists categorization rules.
type RuleStore interface {
	// ListRules returns every rule ordered by priority descending, then creation time ascending.
	ListRules(ctx context.Context) ([]model.Rule, error)
	GetRule(ctx context.Context, id string) (*model.Rule, error)
	CreateRule(ctx context.Context, rule *model.Rule) error
	UpdateRule(ctx context.Context, rule *model.Rule) error
	DeleteRule(ctx context.Context, id string) error
	RecordRuleUsage(ctx context.Context, usage ...model.RuleUsage) error
}

// LearningStore is the slice of storage the learning store reads and writes.
type LearningStore interface {
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	// FindTransactionsMatchingIdentifier returns transactions whose description or
	// counterparty contains identifier, in insertion order.
	FindTransactionsMatchingIdentifier(ctx context.Context, identifier string) ([]model.Transaction, error)
	BulkUpdateCategory(ctx context.Context, ids []string, category string) (int, error)
}

// TransactionWriter is the write half shared by the storage and its transactions.
type TransactionWriter interface {
	InsertTransaction(ctx context.Context, txn *model.Transaction) error
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransactions(ctx context.Context, ids []string) (int, error)
	RecordRuleUsage(ctx context.Context, usage ...model.RuleUsage) error
	UpdateAccount(ctx context.Context, account *model.Account) error
}

// Transaction represents a database transaction.
type Transaction interface {
	TransactionWriter
	Commit() error
	Rollback() error
}

// LedgerStore is what the reconciliation engine needs from storage.
type LedgerStore interface {
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	FindBySourceID(ctx context.Context, accountID, sourceID string) (*model.Transaction, error)
	FindFuzzyDuplicate(ctx context.Context, accountID string, date time.Time, amount decimal.Decimal, description, counterparty string) (*model.Transaction, error)
	FindByExternalID(ctx context.Context, accountID, externalID string) (*model.Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	BeginTx(ctx context.Context) (Transaction, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	RuleStore
	LearningStore
	LedgerStore
	TransactionWriter

	// Account operations
	CreateAccount(ctx context.Context, account *model.Account) error
	FindAccount(ctx context.Context, provider, displayName string) (*model.Account, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// TransactionSource fetches normalized records from a remote API.
type TransactionSource interface {
	Fetch(ctx context.Context) (*model.ParseResult, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
