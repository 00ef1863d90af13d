package plaid

import (
	"context"
	"time"

	"github.com/Veraticus/bankweave/internal/model"
	"github.com/shopspring/decimal"
)

// TransactionFetcher defines the contract for fetching transaction data.
// This interface allows for easy mocking in tests and swapping data sources.
type TransactionFetcher interface {
	GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error)
	// Balance returns the current balance of the configured account, or nil
	// when the item holds several accounts and none was selected.
	Balance(ctx context.Context) (*decimal.Decimal, error)
}
