package model

import (
	"github.com/shopspring/decimal"
)

// ParseResult is what an adapter hands to the reconciliation engine.
// APISource marks batches fetched from a provider API; only those may relink
// a stored row to their own source id.
type ParseResult struct {
	DetectedBalance  *decimal.Decimal
	Records          []Transaction
	RowErrors        []RowError
	HasBalanceColumn bool
	APISource        bool
}

// RowError describes an input row an adapter could not normalize.
type RowError struct {
	Err  error
	Line int
}

// RowOutcome is the decision taken for a single incoming record.
type RowOutcome string

// Row outcomes.
const (
	OutcomeImported    RowOutcome = "imported"
	OutcomeDuplicateID RowOutcome = "duplicate_id"
	OutcomeDuplicate   RowOutcome = "duplicate"
	OutcomeLinked      RowOutcome = "linked"
	OutcomeFailed      RowOutcome = "failed"
)

// RowResult is the per-row entry of an import report. Index is the record's
// position in the batch; Line is set instead for rows the adapter rejected.
type RowResult struct {
	Err                 error
	SourceTransactionID string
	TransactionID       string
	Outcome             RowOutcome
	Index               int
	Line                int
}

// ImportReport tallies one reconciliation batch.
type ImportReport struct {
	DetectedBalance *decimal.Decimal
	AccountID       string
	Rows            []RowResult
	Imported        int
	Skipped         int
	Linked          int
	Failed          int
	BalanceDetected bool
	BalanceUpdated  bool
}

// Partial reports whether some rows could not be processed.
func (r *ImportReport) Partial() bool {
	return r.Failed > 0
}

// Record appends a row result and updates the counters.
func (r *ImportReport) Record(row RowResult) {
	r.Rows = append(r.Rows, row)
	switch row.Outcome {
	case OutcomeImported:
		r.Imported++
	case OutcomeDuplicateID, OutcomeDuplicate:
		r.Skipped++
	case OutcomeLinked:
		r.Linked++
	case OutcomeFailed:
		r.Failed++
	}
}
