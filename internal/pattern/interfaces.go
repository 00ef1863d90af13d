// Package pattern evaluates user-defined categorization rules and manages their lifecycle.
package pattern

import (
	"context"
	"time"

	"github.com/Veraticus/bankweave/internal/model"
)

// Clock returns the current time. Tests inject a fixed clock.
type Clock func() time.Time

// RuleLoader loads the ordered rule set.
type RuleLoader interface {
	ListRules(ctx context.Context) ([]model.Rule, error)
}

// Match is the outcome of a successful rule evaluation. Usage is the side
// effect the caller should persist.
type Match struct {
	Usage           model.RuleUsage
	RuleID          string
	Category        string
	MarkAsEssential bool
}
