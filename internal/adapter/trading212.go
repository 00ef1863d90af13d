package adapter

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/bankweave/internal/model"
)

// Trading212 parses Trading 212 account activity exports:
//
//	Action,Time,Notes,ID,Total,Currency (Total),Currency conversion fee,
//	Currency (Currency conversion fee),Merchant name,Merchant category
//
// The event UUID (from "DEPOSIT: <uuid>" style notes, else the ID column)
// becomes the external id so API rows for the same event link to these.
type Trading212 struct{}

// Parse implements Adapter.
func (a *Trading212) Parse(ctx context.Context, r io.Reader, accountHint string) (*model.ParseResult, error) {
	file, err := readCSV(ctx, r)
	if err != nil {
		return nil, err
	}

	out := newCollector("trading212")
	hashes := newSourceIDs("t212")

	for _, rec := range file.rows {
		if len(rec.fields) < 5 {
			out.fail(rec.line, "row", errMissingColumns)
			continue
		}

		date, err := parseDate(rec.field(1))
		if err != nil {
			out.fail(rec.line, "time", err)
			continue
		}
		amount, err := parseAmount(rec.field(4))
		if err != nil {
			out.fail(rec.line, "total", err)
			continue
		}

		action := rec.field(0)
		notes := rec.field(2)
		txn := model.Transaction{
			TransactionDate:  date,
			Amount:           amount,
			CurrencyCode:     rec.field(5),
			Description:      trading212Description(action, notes, rec.field(8)),
			CounterpartyName: rec.field(8),
			Category:         trading212Category(action),
		}

		if id := trading212EventID(notes, rec.field(3)); id != "" {
			txn.ExternalID = id
			txn.SourceTransactionID = "t212-" + id
		} else {
			txn.SourceTransactionID = hashes.next(&txn)
		}
		out.add(txn)
	}

	return out.done(accountHint), nil
}

// trading212EventID prefers the UUID after the colon in notes, then a non-zero ID column.
func trading212EventID(notes, id string) string {
	if i := strings.Index(notes, ":"); i > 0 && i < len(notes)-1 {
		if extracted := strings.TrimSpace(notes[i+1:]); extracted != "" {
			return extracted
		}
	}
	if id != "" && id != "0" {
		return id
	}
	return ""
}

func trading212Description(action, notes, merchant string) string {
	switch {
	case merchant != "":
		return fmt.Sprintf("%s - %s", action, merchant)
	case notes != "":
		return fmt.Sprintf("%s - %s", action, notes)
	default:
		return action
	}
}

// trading212Category labels interest and investment activity. Card spending is
// left for the categorization pipeline.
func trading212Category(action string) string {
	switch {
	case strings.Contains(action, "Interest"):
		return "Interest"
	case strings.Contains(action, "Card"):
		return ""
	default:
		return "Investment"
	}
}
