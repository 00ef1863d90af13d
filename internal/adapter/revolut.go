package adapter

import (
	"context"
	"io"
	"strings"

	"github.com/Veraticus/bankweave/internal/model"
)

const revolutCreditCardHeader = "type,started date,completed date,description,amount,fee,balance"

// revolutColumns locates the fields of one Revolut layout.
type revolutColumns struct {
	completed   int
	description int
	amount      int
	currency    int
	balance     int
	minColumns  int
}

var (
	// Type,Product,Started Date,Completed Date,Description,Amount,Fee,Currency,State,Balance
	revolutAccountLayout = revolutColumns{
		completed: 3, description: 4, amount: 5, currency: 7, balance: 9, minColumns: 6,
	}
	// Type,Started Date,Completed Date,Description,Amount,Fee,Balance
	revolutCreditCardLayout = revolutColumns{
		completed: 2, description: 3, amount: 4, currency: -1, balance: 6, minColumns: 5,
	}
)

// Revolut parses Revolut account and credit card statements. The balance
// of the last row that has one becomes the detected balance.
type Revolut struct{}

// Parse implements Adapter.
func (a *Revolut) Parse(ctx context.Context, r io.Reader, accountHint string) (*model.ParseResult, error) {
	file, err := readCSV(ctx, r)
	if err != nil {
		return nil, err
	}

	layout := revolutAccountLayout
	dialect := "revolut"
	if strings.Contains(file.headerLine(), revolutCreditCardHeader) {
		layout = revolutCreditCardLayout
		dialect = "revolut-credit-card"
	}

	out := newCollector(dialect)
	ids := newSourceIDs("revolut")

	for _, rec := range file.rows {
		if len(rec.fields) < layout.minColumns {
			out.fail(rec.line, "row", errMissingColumns)
			continue
		}

		date, err := parseDate(rec.field(layout.completed))
		if err != nil {
			out.fail(rec.line, "date", err)
			continue
		}
		amount, err := parseAmount(rec.field(layout.amount))
		if err != nil {
			out.fail(rec.line, "amount", err)
			continue
		}

		if balance, err := parseAmount(rec.field(layout.balance)); err == nil {
			out.result.DetectedBalance = &balance
		}

		txn := model.Transaction{
			TransactionDate: date,
			Amount:          amount,
			Description:     rec.field(layout.description),
		}
		if layout.currency >= 0 {
			txn.CurrencyCode = rec.field(layout.currency)
		}
		txn.SourceTransactionID = ids.next(&txn)
		out.add(txn)
	}

	out.result.HasBalanceColumn = out.result.DetectedBalance != nil
	return out.done(accountHint), nil
}
