package adapter

import (
	"context"
	"io"

	"github.com/Veraticus/bankweave/internal/model"
)

// Generic parses the fallback layout: date, description, amount and an optional currency.
type Generic struct{}

// Parse implements Adapter.
func (g *Generic) Parse(ctx context.Context, r io.Reader, accountHint string) (*model.ParseResult, error) {
	file, err := readCSV(ctx, r)
	if err != nil {
		return nil, err
	}
	return parseSimple(file, accountHint, simpleLayout{dialect: "generic", prefix: "csv", minColumns: 3}), nil
}

// Raisin parses Raisin savings statements. Every movement is categorized as Savings.
type Raisin struct{}

// Parse implements Adapter.
func (a *Raisin) Parse(ctx context.Context, r io.Reader, accountHint string) (*model.ParseResult, error) {
	file, err := readCSV(ctx, r)
	if err != nil {
		return nil, err
	}
	return parseSimple(file, accountHint, simpleLayout{
		dialect:    "raisin",
		prefix:     "raisin",
		minColumns: 3,
		category:   "Savings",
	}), nil
}

// TradeRepublic parses Trade Republic exports: date, description, amount, currency.
// Every movement is categorized as Investment.
type TradeRepublic struct{}

// Parse implements Adapter.
func (a *TradeRepublic) Parse(ctx context.Context, r io.Reader, accountHint string) (*model.ParseResult, error) {
	file, err := readCSV(ctx, r)
	if err != nil {
		return nil, err
	}
	return parseSimple(file, accountHint, simpleLayout{
		dialect:    "traderepublic",
		prefix:     "tr",
		minColumns: 4,
		category:   "Investment",
	}), nil
}

// simpleLayout describes the date/description/amount[/currency] family of dialects.
type simpleLayout struct {
	dialect    string
	prefix     string
	category   string
	minColumns int
}

func parseSimple(file *csvFile, accountHint string, layout simpleLayout) *model.ParseResult {
	out := newCollector(layout.dialect)
	ids := newSourceIDs(layout.prefix)

	for _, rec := range file.rows {
		if len(rec.fields) < layout.minColumns {
			out.fail(rec.line, "row", errMissingColumns)
			continue
		}

		date, err := parseDate(rec.field(0))
		if err != nil {
			out.fail(rec.line, "date", err)
			continue
		}
		amount, err := parseAmount(rec.field(2))
		if err != nil {
			out.fail(rec.line, "amount", err)
			continue
		}

		txn := model.Transaction{
			TransactionDate: date,
			Amount:          amount,
			Description:     rec.field(1),
			CurrencyCode:    rec.field(3),
			Category:        layout.category,
		}
		txn.SourceTransactionID = ids.next(&txn)
		out.add(txn)
	}
	return out.done(accountHint)
}
