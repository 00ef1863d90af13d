package pattern

import (
	"context"

	"github.com/shopspring/decimal"
)

// Engine evaluates transactions against the cached rule set.
type Engine struct {
	cache *Cache
}

// NewEngine creates a rule engine reading through cache.
func NewEngine(cache *Cache) *Engine {
	return &Engine{cache: cache}
}

// Evaluate returns the first matching rule for description and amount.
// The usage event in the match is not persisted here.
func (e *Engine) Evaluate(ctx context.Context, description string, amount decimal.Decimal) (Match, bool, error) {
	matcher, err := e.cache.Matcher(ctx)
	if err != nil {
		return Match{}, false, err
	}
	match, ok := matcher.Evaluate(description, amount, e.cache.Now())
	return match, ok, nil
}
