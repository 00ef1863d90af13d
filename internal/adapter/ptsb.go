package adapter

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/Veraticus/bankweave/internal/model"
	"github.com/shopspring/decimal"
)

var errNoAmount = errors.New("neither money in nor money out is set")

// PTSB parses Permanent TSB statements:
//
//	"Date","Description","Money in (€)","Money out (€)","Balance (€)"
//
// The first row carries the current balance. Pending rows have no date and
// are dated today.
type PTSB struct {
	now func() time.Time
}

// Parse implements Adapter.
func (a *PTSB) Parse(ctx context.Context, r io.Reader, accountHint string) (*model.ParseResult, error) {
	file, err := readCSV(ctx, r)
	if err != nil {
		return nil, err
	}

	now := a.now
	if now == nil {
		now = time.Now
	}

	out := newCollector("ptsb")
	out.result.HasBalanceColumn = true
	ids := newSourceIDs("ptsb")

	for _, rec := range file.rows {
		if len(rec.fields) < 4 {
			out.fail(rec.line, "row", errMissingColumns)
			continue
		}

		if out.result.DetectedBalance == nil {
			if balance, err := parseAmount(rec.field(4)); err == nil {
				out.result.DetectedBalance = &balance
			}
		}

		var date time.Time
		if rec.field(0) == "" {
			date = now().UTC().Truncate(24 * time.Hour)
		} else {
			date, err = parseDate(rec.field(0), "02 Jan 2006", "2 Jan 2006")
			if err != nil {
				date, err = parseDate(rec.field(0))
			}
			if err != nil {
				out.fail(rec.line, "date", err)
				continue
			}
		}

		amount, err := ptsbAmount(rec.field(2), rec.field(3))
		if err != nil {
			out.fail(rec.line, "amount", err)
			continue
		}

		txn := model.Transaction{
			TransactionDate: date,
			Amount:          amount,
			Description:     rec.field(1),
		}
		txn.SourceTransactionID = ids.next(&txn)
		out.add(txn)
	}

	return out.done(accountHint), nil
}

// ptsbAmount signs the money-in or money-out column. Money in wins when both are set.
func ptsbAmount(in, out string) (decimal.Decimal, error) {
	if in != "" {
		amount, err := parseAmount(in)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return amount.Abs(), nil
	}
	if out != "" {
		amount, err := parseAmount(out)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return amount.Abs().Neg(), nil
	}
	return decimal.Decimal{}, errNoAmount
}
