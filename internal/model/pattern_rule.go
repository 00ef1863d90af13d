package model

import (
	"fmt"
	"strings"
	"time"
)

// TransactionType restricts a rule to transactions of a given sign.
type TransactionType string

// Transaction type constants.
const (
	TransactionTypeAny      TransactionType = "Any"
	TransactionTypePositive TransactionType = "Positive"
	TransactionTypeNegative TransactionType = "Negative"
)

// ParseTransactionType parses a case-insensitive transaction type. Empty means Any.
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return TransactionTypeAny, nil
	case "positive":
		return TransactionTypePositive, nil
	case "negative":
		return TransactionTypeNegative, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

// Rule is a user-defined categorization rule.
type Rule struct {
	CreatedAt       time.Time       `json:"created_at"`
	LastUsedAt      *time.Time      `json:"last_used_at,omitempty"`
	ID              string          `json:"id"`
	Pattern         string          `json:"pattern"`
	Category        string          `json:"category"`
	TransactionType TransactionType `json:"transaction_type"`
	Priority        int             `json:"priority"`
	TimesUsed       int             `json:"times_used"`
	IsRegex         bool            `json:"is_regex"`
	CaseSensitive   bool            `json:"case_sensitive"`
	MarkAsEssential bool            `json:"mark_as_essential"`
}

// RuleUpdate carries the fields of a partial rule update. Nil fields are left unchanged.
type RuleUpdate struct {
	Pattern         *string
	Category        *string
	IsRegex         *bool
	CaseSensitive   *bool
	Priority        *int
	MarkAsEssential *bool
	TransactionType *TransactionType
}

// Apply copies the non-nil fields onto rule.
func (u RuleUpdate) Apply(rule *Rule) {
	if u.Pattern != nil {
		rule.Pattern = *u.Pattern
	}
	if u.Category != nil {
		rule.Category = *u.Category
	}
	if u.IsRegex != nil {
		rule.IsRegex = *u.IsRegex
	}
	if u.CaseSensitive != nil {
		rule.CaseSensitive = *u.CaseSensitive
	}
	if u.Priority != nil {
		rule.Priority = *u.Priority
	}
	if u.MarkAsEssential != nil {
		rule.MarkAsEssential = *u.MarkAsEssential
	}
	if u.TransactionType != nil {
		rule.TransactionType = *u.TransactionType
	}
}

// RuleUsage records that a rule was the matching rule for a classification.
type RuleUsage struct {
	UsedAt time.Time
	RuleID string
}
