package pattern

import (
	"errors"
	"strings"

	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/model"
)

var (
	errEmptyPattern  = errors.New("pattern cannot be empty")
	errEmptyCategory = errors.New("category cannot be empty")
)

// ValidateRule checks a rule before it is stored. Regex patterns must compile.
func ValidateRule(rule *model.Rule) error {
	if strings.TrimSpace(rule.Pattern) == "" {
		return common.NewValidationError(0, "pattern", errEmptyPattern)
	}
	if strings.TrimSpace(rule.Category) == "" {
		return common.NewValidationError(0, "category", errEmptyCategory)
	}
	txnType, err := model.ParseTransactionType(string(rule.TransactionType))
	if err != nil {
		return common.NewValidationError(0, "transaction_type", err)
	}
	rule.TransactionType = txnType

	if rule.IsRegex {
		if _, err := compileRulePattern(*rule); err != nil {
			return common.NewValidationError(0, "pattern", err)
		}
	}
	return nil
}
