package plaid

import (
	"context"
	"time"

	"github.com/Veraticus/bankweave/internal/model"
	"github.com/shopspring/decimal"
)

// MockClient is a mock implementation of TransactionFetcher for testing.
type MockClient struct {
	// Functions that can be set by tests to control behavior
	GetTransactionsFn func(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error)
	BalanceFn         func(ctx context.Context) (*decimal.Decimal, error)

	// Call tracking
	GetTransactionsCalls []GetTransactionsCall
	BalanceCalls         int
}

// GetTransactionsCall records the parameters of a GetTransactions call.
type GetTransactionsCall struct {
	StartDate time.Time
	EndDate   time.Time
}

// NewMockClient creates a new mock Plaid client.
func NewMockClient() *MockClient {
	return &MockClient{
		GetTransactionsCalls: []GetTransactionsCall{},
	}
}

// GetTransactions implements TransactionFetcher.GetTransactions.
func (m *MockClient) GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error) {
	m.GetTransactionsCalls = append(m.GetTransactionsCalls, GetTransactionsCall{
		StartDate: startDate,
		EndDate:   endDate,
	})

	if m.GetTransactionsFn != nil {
		return m.GetTransactionsFn(ctx, startDate, endDate)
	}

	return []model.Transaction{}, nil
}

// Balance implements TransactionFetcher.Balance.
func (m *MockClient) Balance(ctx context.Context) (*decimal.Decimal, error) {
	m.BalanceCalls++

	if m.BalanceFn != nil {
		return m.BalanceFn(ctx)
	}

	return nil, nil
}

// Reset clears all call tracking.
func (m *MockClient) Reset() {
	m.GetTransactionsCalls = []GetTransactionsCall{}
	m.BalanceCalls = 0
}

// Ensure MockClient implements TransactionFetcher interface.
var _ TransactionFetcher = (*MockClient)(nil)
