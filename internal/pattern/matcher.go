package pattern

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/model"
	"github.com/shopspring/decimal"
)

// Matcher evaluates descriptions against an ordered rule set.
// It is immutable after construction and safe for concurrent use.
type Matcher struct {
	compiledRegex map[string]*regexp.Regexp
	patternErrors map[string]error
	logger        *slog.Logger
	rules         []model.Rule
}

// NewMatcher creates a matcher for rules, which must already be in evaluation order.
func NewMatcher(rules []model.Rule) *Matcher {
	m := &Matcher{
		rules:         rules,
		compiledRegex: make(map[string]*regexp.Regexp),
		patternErrors: make(map[string]error),
		logger:        common.Component("rules"),
	}

	// Pre-compile regex patterns
	for _, rule := range rules {
		if !rule.IsRegex {
			continue
		}
		re, err := compileRulePattern(rule)
		if err != nil {
			m.patternErrors[rule.ID] = err
			continue
		}
		m.compiledRegex[rule.ID] = re
	}

	return m
}

// Len returns the number of rules the matcher holds.
func (m *Matcher) Len() int {
	return len(m.rules)
}

// Evaluate returns the first rule matching description and amount. It does
// not mutate anything; the returned Match carries the usage event stamped with now.
func (m *Matcher) Evaluate(description string, amount decimal.Decimal, now time.Time) (Match, bool) {
	if strings.TrimSpace(description) == "" {
		return Match{}, false
	}

	for _, rule := range m.rules {
		if !appliesToAmount(rule.TransactionType, amount) {
			continue
		}

		if err, bad := m.patternErrors[rule.ID]; bad {
			m.logger.Warn("Skipping rule with invalid pattern", "rule_id", rule.ID, "error", err)
			continue
		}

		if !m.matchesPattern(rule, description) {
			continue
		}

		m.logger.Debug("Rule matched",
			"rule_id", rule.ID,
			"pattern", rule.Pattern,
			"category", rule.Category)

		return Match{
			RuleID:          rule.ID,
			Category:        rule.Category,
			MarkAsEssential: rule.MarkAsEssential,
			Usage:           model.RuleUsage{RuleID: rule.ID, UsedAt: now},
		}, true
	}

	return Match{}, false
}

func (m *Matcher) matchesPattern(rule model.Rule, description string) bool {
	if rule.IsRegex {
		re, ok := m.compiledRegex[rule.ID]
		return ok && re.MatchString(description)
	}

	if rule.CaseSensitive {
		return strings.Contains(description, rule.Pattern)
	}
	return strings.Contains(strings.ToLower(description), strings.ToLower(rule.Pattern))
}

// appliesToAmount filters by sign. Zero is neither positive nor negative.
func appliesToAmount(txnType model.TransactionType, amount decimal.Decimal) bool {
	switch txnType {
	case model.TransactionTypePositive:
		return amount.IsPositive()
	case model.TransactionTypeNegative:
		return amount.IsNegative()
	default:
		return true
	}
}

func compileRulePattern(rule model.Rule) (*regexp.Regexp, error) {
	expr := rule.Pattern
	if !rule.CaseSensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &common.PatternError{RuleID: rule.ID, Pattern: rule.Pattern, Err: err}
	}
	return re, nil
}
