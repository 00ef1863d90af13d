package trading212

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_Fetch(t *testing.T) {
	client := newTestClient(t, &fakeAPI{}, "key", "secret")

	result, err := NewSource(client).Fetch(context.Background())
	require.NoError(t, err)

	require.NotNil(t, result.DetectedBalance)
	assert.Equal(t, "1320.75", result.DetectedBalance.StringFixed(2))
	assert.True(t, result.HasBalanceColumn)
	assert.True(t, result.APISource)
	assert.Empty(t, result.RowErrors)

	require.Len(t, result.Records, 3)
	deposit := result.Records[0]
	assert.Equal(t, "t212-api-5f0e7c2a-1111-4d4d-9e9e-0123456789ab", deposit.SourceTransactionID)
	assert.Equal(t, "5f0e7c2a-1111-4d4d-9e9e-0123456789ab", deposit.ExternalID)
	assert.Equal(t, "DEPOSIT - 5f0e7c2a-1111-4d4d-9e9e-0123456789ab", deposit.Description)
	assert.Equal(t, "EUR", deposit.CurrencyCode)
	assert.Equal(t, "Income", deposit.Category)
	assert.Equal(t, deposit.TransactionDate, deposit.BookingDate)

	assert.Equal(t, "Interest", result.Records[1].Category)

	card := result.Records[2]
	assert.Equal(t, "t212-api-4242", card.SourceTransactionID)
	assert.Equal(t, "4242", card.ExternalID)
	assert.Equal(t, "-8.40", card.Amount.StringFixed(2))
	assert.Empty(t, card.Category)
}

func TestSource_FetchStopsOnBalanceError(t *testing.T) {
	client := newTestClient(t, &fakeAPI{}, "key", "nope")

	_, err := NewSource(client).Fetch(context.Background())
	assert.Error(t, err)
}

func TestToTransaction_RoundsAndNormalizesTime(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	txn := toTransaction(HistoryItem{
		DateTime:  time.Date(2024, 5, 1, 1, 30, 0, 0, cet),
		Amount:    decimal.RequireFromString("10.005"),
		Type:      "WITHDRAW",
		Reference: "ref-1",
	})

	assert.Equal(t, time.Date(2024, 5, 1, 0, 30, 0, 0, time.UTC), txn.TransactionDate)
	assert.Equal(t, "10.01", txn.Amount.StringFixed(2))
	assert.Equal(t, "Expenses", txn.Category)
}

func TestHistoryCategory(t *testing.T) {
	tests := map[string]string{
		"INTEREST":      "Interest",
		"CARD_DEBIT":    "",
		"DEPOSIT":       "Income",
		"CASHBACK":      "Income",
		"WITHDRAW":      "Expenses",
		"TRANSFER":      "Other",
		"Interest paid": "Interest",
	}
	for kind, want := range tests {
		t.Run(kind, func(t *testing.T) {
			assert.Equal(t, want, historyCategory(kind))
		})
	}
}
