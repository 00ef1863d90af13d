package plaid

import (
	"context"
	"time"

	"github.com/Veraticus/bankweave/internal/model"
	"github.com/Veraticus/bankweave/internal/service"
)

// DefaultLookbackDays is how far back a sync reaches when no window is configured.
const DefaultLookbackDays = 90

// Source adapts a TransactionFetcher to service.TransactionSource.
type Source struct {
	fetcher      TransactionFetcher
	now          func() time.Time
	lookbackDays int
}

// NewSource syncs the last lookbackDays days from fetcher.
func NewSource(fetcher TransactionFetcher, lookbackDays int) *Source {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	return &Source{fetcher: fetcher, lookbackDays: lookbackDays, now: time.Now}
}

// Fetch implements service.TransactionSource.
func (s *Source) Fetch(ctx context.Context) (*model.ParseResult, error) {
	end := s.now().UTC()
	start := end.AddDate(0, 0, -s.lookbackDays)

	balance, err := s.fetcher.Balance(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.fetcher.GetTransactions(ctx, start, end)
	if err != nil {
		return nil, err
	}

	return &model.ParseResult{
		Records:          records,
		DetectedBalance:  balance,
		HasBalanceColumn: balance != nil,
		APISource:        true,
	}, nil
}

var _ service.TransactionSource = (*Source)(nil)
