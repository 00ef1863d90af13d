package testutil

import (
	"time"

	"github.com/Veraticus/bankweave/internal/model"
	"github.com/shopspring/decimal"
)

// TransactionBuilder provides a fluent interface for constructing normalized records.
type TransactionBuilder struct {
	txn model.Transaction
}

// NewTransaction starts a record dated date (YYYY-MM-DD, UTC) with amount and description.
// It panics on malformed input since fixtures are literals.
func NewTransaction(date, amount, description string) *TransactionBuilder {
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		panic(err)
	}
	return &TransactionBuilder{txn: model.Transaction{
		TransactionDate: day,
		Amount:          decimal.RequireFromString(amount),
		CurrencyCode:    model.DefaultCurrency,
		Description:     description,
	}}
}

// WithSourceID sets the provider-scoped source id.
func (b *TransactionBuilder) WithSourceID(id string) *TransactionBuilder {
	b.txn.SourceTransactionID = id
	return b
}

// WithExternalID sets the cross-source correlation key.
func (b *TransactionBuilder) WithExternalID(id string) *TransactionBuilder {
	b.txn.ExternalID = id
	return b
}

// WithCounterparty sets the counterparty name.
func (b *TransactionBuilder) WithCounterparty(name string) *TransactionBuilder {
	b.txn.CounterpartyName = name
	return b
}

// WithCategory sets the category.
func (b *TransactionBuilder) WithCategory(category string) *TransactionBuilder {
	b.txn.Category = category
	return b
}

// WithCurrency overrides the currency code.
func (b *TransactionBuilder) WithCurrency(code string) *TransactionBuilder {
	b.txn.CurrencyCode = code
	return b
}

// WithID sets the persisted id, for seeding.
func (b *TransactionBuilder) WithID(id string) *TransactionBuilder {
	b.txn.ID = id
	return b
}

// CreatedAt sets the creation time, for seeding rows in a known order.
func (b *TransactionBuilder) CreatedAt(t time.Time) *TransactionBuilder {
	b.txn.CreatedAt = t
	return b
}

// Build returns the record.
func (b *TransactionBuilder) Build() model.Transaction {
	return b.txn
}
