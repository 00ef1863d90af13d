package engine

import (
	"context"
	"fmt"

	"github.com/Veraticus/bankweave/internal/model"
	"github.com/Veraticus/bankweave/internal/service"
)

// ProgressFunc receives the number of processed and total transactions.
type ProgressFunc func(done, total int)

// RecategorizeBatch re-runs the cascade over transactions with no category or
// a placeholder one. An empty ids slice sweeps every such transaction.
// Only transactions whose category changes are written.
func (c *Categorizer) RecategorizeBatch(ctx context.Context, ids []string, progress ProgressFunc) (int, error) {
	txns, err := c.storage.ListTransactions(ctx, service.TransactionFilter{
		IDs:               ids,
		NeedsCategorizing: true,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to load transactions: %w", err)
	}

	c.logger.Info("Starting recategorization", "candidates", len(txns))

	updated := 0
	for i := range txns {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		txn := &txns[i]
		decision, err := c.Categorize(ctx, txn.Description, txn.CounterpartyName, txn.Amount)
		if err != nil {
			return updated, fmt.Errorf("failed to categorize transaction %s: %w", txn.ID, err)
		}

		if decision.Category != txn.Category {
			txn.Category = decision.Category
			txn.IsEssentialExpense = decision.Essential
			if err := c.storage.UpdateTransaction(ctx, txn); err != nil {
				return updated, fmt.Errorf("failed to update transaction %s: %w", txn.ID, err)
			}
			updated++
		}

		c.report(progress, i+1, len(txns))
	}

	c.logger.Info("Recategorization complete", "candidates", len(txns), "updated", updated)
	return updated, nil
}

// ApplyRules runs only the rule stage over every transaction, overwriting the
// category and essential flag wherever a rule matches and changes something.
func (c *Categorizer) ApplyRules(ctx context.Context, progress ProgressFunc) (int, error) {
	txns, err := c.storage.ListTransactions(ctx, service.TransactionFilter{})
	if err != nil {
		return 0, fmt.Errorf("failed to load transactions: %w", err)
	}

	updated := 0
	var usage []model.RuleUsage
	for i := range txns {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		txn := &txns[i]
		match, ok, err := c.rules.Evaluate(ctx, txn.Description, txn.Amount)
		if err != nil {
			return updated, fmt.Errorf("failed to evaluate rules: %w", err)
		}
		if ok {
			usage = append(usage, match.Usage)
			if match.Category != txn.Category || match.MarkAsEssential != txn.IsEssentialExpense {
				txn.Category = match.Category
				txn.IsEssentialExpense = match.MarkAsEssential
				if err := c.storage.UpdateTransaction(ctx, txn); err != nil {
					return updated, fmt.Errorf("failed to update transaction %s: %w", txn.ID, err)
				}
				updated++
			}
		}

		c.report(progress, i+1, len(txns))
	}

	if len(usage) > 0 {
		if err := c.storage.RecordRuleUsage(ctx, usage...); err != nil {
			c.logger.Warn("Failed to record rule usage", "events", len(usage), "error", err)
		}
	}

	c.logger.Info("Applied rules to existing transactions", "scanned", len(txns), "updated", updated)
	return updated, nil
}

func (c *Categorizer) report(progress ProgressFunc, done, total int) {
	if progress == nil {
		return
	}
	if done%c.config.ProgressEvery == 0 || done == total {
		progress(done, total)
	}
}
