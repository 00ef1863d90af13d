package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when an account or record carries no currency code.
const DefaultCurrency = "EUR"

// Account holds transactions from one provider.
type Account struct {
	CreatedAt      time.Time
	LastSyncedAt   *time.Time
	CurrentBalance decimal.Decimal
	ID             string
	Provider       string
	DisplayName    string
	CurrencyCode   string
	IsCreditCard   bool
}
