package reconcile

import (
	"context"
	"fmt"

	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/service"
)

type duplicateKey struct {
	date         string
	amount       string
	description  string
	counterparty string
}

// RemoveDuplicates deletes rows of accountID that repeat an earlier row's
// date, amount, description and counterparty. The oldest row of each group is kept.
func (e *Engine) RemoveDuplicates(ctx context.Context, accountID string) (int, error) {
	unlock, err := e.locks.Lock(ctx, accountID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	txns, err := e.store.ListTransactions(ctx, service.TransactionFilter{AccountID: accountID})
	if err != nil {
		return 0, fmt.Errorf("failed to load transactions: %w", err)
	}

	seen := make(map[duplicateKey]bool, len(txns))
	var duplicates []string
	for _, txn := range txns {
		key := duplicateKey{
			date:         txn.TransactionDate.UTC().String(),
			amount:       txn.Amount.StringFixed(2),
			description:  txn.Description,
			counterparty: txn.CounterpartyName,
		}
		if seen[key] {
			duplicates = append(duplicates, txn.ID)
			continue
		}
		seen[key] = true
	}

	if len(duplicates) == 0 {
		return 0, nil
	}

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return 0, &common.StorageError{Op: "remove duplicates", Err: err}
	}
	removed, err := tx.DeleteTransactions(ctx, duplicates)
	if err != nil {
		_ = tx.Rollback()
		return 0, &common.StorageError{Op: "remove duplicates", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return 0, &common.StorageError{Op: "remove duplicates", Err: err}
	}

	e.logger.Info("Removed duplicate transactions", "account_id", accountID, "removed", removed)
	return removed, nil
}
