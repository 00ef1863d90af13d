// Package model defines the core data structures for the bankweave application.
package model

import (
	"crypto/sha256"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// FallbackCategory is the label the keyword classifier returns when nothing else applies.
const FallbackCategory = "Other"

// placeholderCategories are treated as "not really classified".
var placeholderCategories = map[string]bool{
	FallbackCategory: true,
	"Income":         true,
	"Expenses":       true,
	"Large Expense":  true,
}

// Transaction is the normalized record every adapter produces and the
// row shape the store persists. ID is empty until the record is stored.
type Transaction struct {
	TransactionDate     time.Time
	BookingDate         time.Time
	CreatedAt           time.Time
	Amount              decimal.Decimal
	ID                  string
	AccountID           string
	SourceTransactionID string
	ExternalID          string
	CurrencyCode        string
	Description         string
	CounterpartyName    string
	Category            string
	IsEssentialExpense  bool
}

// PlaceholderCategories returns the generic labels re-categorization sweeps
// may replace, sorted.
func PlaceholderCategories() []string {
	return slices.Sorted(maps.Keys(placeholderCategories))
}

// ContentHash returns a stable short hash over date, amount and description.
// Adapters use it to build source ids that survive re-imports.
func (t *Transaction) ContentHash() string {
	data := fmt.Sprintf("%s|%s|%s",
		t.TransactionDate.UTC().Format(time.RFC3339),
		t.Amount.StringFixed(2),
		t.Description)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash[:8])
}

// RoundAmount rounds a monetary value to two fractional digits.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
