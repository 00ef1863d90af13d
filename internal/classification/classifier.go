// Package classification provides the static keyword fallback classifier.
package classification

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	largeExpenseThreshold = decimal.NewFromInt(-500)
	billsThreshold        = decimal.NewFromInt(-100)
)

// KeywordClassifier maps free text onto a category using an ordered keyword table.
type KeywordClassifier struct {
	table []KeywordSet
}

// NewKeywordClassifier creates a classifier over the default keyword table.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{table: DefaultKeywords()}
}

// Classify always returns a category. Zero amounts are treated as outbound.
func (c *KeywordClassifier) Classify(description, counterparty string, amount decimal.Decimal) string {
	text := strings.ToLower(description + " " + counterparty)

	if amount.IsPositive() {
		switch {
		case containsAny(text, salaryKeywords):
			return CategorySalary
		case containsAny(text, transferKeywords):
			return CategoryTransferIn
		default:
			return CategoryIncome
		}
	}

	if containsAny(text, cashKeywords) {
		return CategoryCashWithdrawal
	}

	for _, set := range c.table {
		if containsAny(text, set.Keywords) {
			return set.Category
		}
	}

	switch {
	case amount.LessThan(largeExpenseThreshold):
		return CategoryLargeExpense
	case amount.LessThan(billsThreshold):
		return CategoryBills
	default:
		return CategoryOther
	}
}

// Classify runs the default keyword classifier.
func Classify(description, counterparty string, amount decimal.Decimal) string {
	return defaultClassifier.Classify(description, counterparty, amount)
}

var defaultClassifier = NewKeywordClassifier()

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
