package adapter

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/model"
	"github.com/shopspring/decimal"
)

var (
	errMissingColumns = errors.New("not enough columns")
	errEmptyValue     = errors.New("value is empty")
)

// dateLayouts are tried in order when a dialect does not pin its own.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
	"02/01/2006",
	"02.01.2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// row is one data line of a CSV file together with its 1-based line number.
type row struct {
	fields []string
	line   int
}

func (r row) field(i int) string {
	if i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// csvFile is a parsed CSV file: the header and the data rows.
type csvFile struct {
	header []string
	rows   []row
}

// readCSV reads every row of r. Rows may have differing widths; blank lines are dropped.
func readCSV(ctx context.Context, r io.Reader) (*csvFile, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	file := &csvFile{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if file.header == nil {
			record[0] = strings.TrimPrefix(record[0], "\ufeff")
			file.header = record
			continue
		}
		if isBlank(record) {
			continue
		}
		file.rows = append(file.rows, row{fields: record, line: line})
	}
	return file, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// headerLine returns the lower-cased header joined by commas, for layout detection.
func (f *csvFile) headerLine() string {
	parts := make([]string, len(f.header))
	for i, h := range f.header {
		parts[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return strings.Join(parts, ",")
}

// parseDate parses value with layouts, or dateLayouts when none are given. Results are UTC.
func parseDate(value string, layouts ...string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errEmptyValue
	}
	if len(layouts) == 0 {
		layouts = dateLayouts
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// parseAmount parses a monetary value, tolerating currency symbols and thousands separators.
func parseAmount(value string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(",", "", "€", "", "£", "", "$", "", " ", "").Replace(value)
	if cleaned == "" {
		return decimal.Decimal{}, errEmptyValue
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("unrecognized amount %q", value)
	}
	return amount, nil
}

// sourceIDs assigns stable source ids, numbering repeats of the same content.
type sourceIDs struct {
	seen   map[string]int
	prefix string
}

func newSourceIDs(prefix string) *sourceIDs {
	return &sourceIDs{prefix: prefix, seen: make(map[string]int)}
}

// next returns "<prefix>-<hash>" for the first occurrence and "<prefix>-<hash>-n" after.
func (s *sourceIDs) next(txn *model.Transaction) string {
	hash := txn.ContentHash()
	n := s.seen[hash]
	s.seen[hash] = n + 1
	if n == 0 {
		return fmt.Sprintf("%s-%s", s.prefix, hash)
	}
	return fmt.Sprintf("%s-%s-%d", s.prefix, hash, n)
}

// collector gathers parsed records and row failures for one file.
type collector struct {
	result *model.ParseResult
	logger *slog.Logger
}

func newCollector(dialect string) *collector {
	return &collector{
		result: &model.ParseResult{},
		logger: common.Component("adapter").With("dialect", dialect),
	}
}

func (c *collector) add(txn model.Transaction) {
	txn.Amount = model.RoundAmount(txn.Amount)
	if txn.BookingDate.IsZero() {
		txn.BookingDate = txn.TransactionDate
	}
	c.result.Records = append(c.result.Records, txn)
}

func (c *collector) fail(line int, field string, err error) {
	c.logger.Warn("Skipping row", "line", line, "field", field, "error", err)
	c.result.RowErrors = append(c.result.RowErrors, model.RowError{
		Line: line,
		Err:  common.NewValidationError(line, field, err),
	})
}

func (c *collector) done(accountHint string) *model.ParseResult {
	c.logger.Info("Parsed file",
		"account", accountHint,
		"records", len(c.result.Records),
		"failures", len(c.result.RowErrors))
	return c.result
}
