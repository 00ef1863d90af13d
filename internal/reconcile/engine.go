// Package reconcile merges normalized records into an account without
// duplicating money movements.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/engine"
	"github.com/Veraticus/bankweave/internal/model"
	"github.com/Veraticus/bankweave/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	errMissingDate     = errors.New("transaction date is required")
	errInvalidCurrency = errors.New("currency code must have three letters")
)

// Categorizer decides categories for new records without side effects.
type Categorizer interface {
	Decide(ctx context.Context, description, counterparty string, amount decimal.Decimal) (engine.Decision, error)
}

// Engine reconciles batches of normalized records against stored transactions.
type Engine struct {
	store       service.LedgerStore
	categorizer Categorizer
	locks       *AccountLocks
	newID       func() string
	now         func() time.Time
	logger      *slog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for creation and sync timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides how persisted identities are assigned.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithLocks shares a lock set between engines working on the same store.
func WithLocks(locks *AccountLocks) Option {
	return func(e *Engine) { e.locks = locks }
}

// New creates a reconciliation engine.
func New(store service.LedgerStore, categorizer Categorizer, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		categorizer: categorizer,
		locks:       NewAccountLocks(),
		newID:       uuid.NewString,
		now:         time.Now,
		logger:      common.Component("reconcile"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// batchPlan accumulates the writes of one batch until they are committed together.
type batchPlan struct {
	seenSourceIDs map[string]bool
	claimed       map[string]bool
	inserts       []*model.Transaction
	links         []*model.Transaction
	usage         []model.RuleUsage
}

func newBatchPlan() *batchPlan {
	return &batchPlan{
		seenSourceIDs: make(map[string]bool),
		claimed:       make(map[string]bool),
	}
}

// ImportFrom fetches a batch from source and imports it into accountID.
func (e *Engine) ImportFrom(ctx context.Context, accountID string, source service.TransactionSource) (*model.ImportReport, error) {
	batch, err := source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return e.ImportBatch(ctx, accountID, batch)
}

// ImportBatch reconciles batch into accountID. Rows are processed in order:
// exact source id, correlation key, fuzzy duplicate, then new record. A
// correlation key hit from an API batch relinks the stored row to the API id;
// from a file export it is a duplicate.
// Malformed rows are counted as failed; a storage failure fails the whole
// batch and nothing is written.
func (e *Engine) ImportBatch(ctx context.Context, accountID string, batch *model.ParseResult) (*model.ImportReport, error) {
	if batch == nil {
		batch = &model.ParseResult{}
	}

	unlock, err := e.locks.Lock(ctx, accountID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	account, err := e.store.GetAccount(ctx, accountID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", common.ErrInvalidAccount, accountID)
	}
	if err != nil {
		return nil, &common.StorageError{Op: "load account", Err: err}
	}

	report := &model.ImportReport{AccountID: account.ID}
	for _, rowErr := range batch.RowErrors {
		report.Record(model.RowResult{Index: -1, Line: rowErr.Line, Outcome: model.OutcomeFailed, Err: rowErr.Err})
	}

	plan := newBatchPlan()
	for i := range batch.Records {
		row, err := e.reconcileRecord(ctx, account, i, batch.Records[i], batch.APISource, plan)
		if err != nil {
			return nil, &common.StorageError{Op: "reconcile", Err: err}
		}
		report.Record(row)
	}

	if batch.DetectedBalance != nil {
		report.BalanceDetected = true
		balance := model.RoundAmount(*batch.DetectedBalance)
		report.DetectedBalance = &balance
		if !account.IsCreditCard && batch.HasBalanceColumn {
			account.CurrentBalance = balance
			report.BalanceUpdated = true
		}
	}
	now := e.now().UTC()
	account.LastSyncedAt = &now

	if err := e.commit(ctx, plan, account); err != nil {
		return nil, &common.StorageError{Op: "import", Err: err}
	}

	e.logger.Info("Imported batch",
		"account_id", account.ID,
		"imported", report.Imported,
		"skipped", report.Skipped,
		"linked", report.Linked,
		"failed", report.Failed,
		"balance_updated", report.BalanceUpdated)
	return report, nil
}

func (e *Engine) reconcileRecord(ctx context.Context, account *model.Account, index int, rec model.Transaction, apiSource bool, plan *batchPlan) (model.RowResult, error) {
	row := model.RowResult{Index: index, SourceTransactionID: rec.SourceTransactionID}

	if err := normalize(&rec, account); err != nil {
		row.Outcome = model.OutcomeFailed
		row.Err = err
		e.logger.Warn("Skipping malformed record", "account_id", account.ID, "index", index, "error", err)
		return row, nil
	}

	if rec.SourceTransactionID != "" {
		if plan.seenSourceIDs[rec.SourceTransactionID] {
			row.Outcome = model.OutcomeDuplicateID
			return row, nil
		}
		existing, err := e.store.FindBySourceID(ctx, account.ID, rec.SourceTransactionID)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return row, err
		}
		if existing != nil {
			row.Outcome = model.OutcomeDuplicateID
			row.TransactionID = existing.ID
			return row, nil
		}
	}

	if rec.ExternalID != "" && rec.SourceTransactionID != "" {
		target, err := e.store.FindByExternalID(ctx, account.ID, rec.ExternalID)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return row, err
		}
		if target != nil && !plan.claimed[target.ID] {
			plan.claimed[target.ID] = true
			row.TransactionID = target.ID
			if !apiSource {
				// Already recorded, possibly under its API id; file exports never take it back.
				row.Outcome = model.OutcomeDuplicate
				return row, nil
			}
			e.logger.Debug("Linking record to existing transaction",
				"transaction_id", target.ID,
				"from", target.SourceTransactionID,
				"to", rec.SourceTransactionID)
			plan.seenSourceIDs[rec.SourceTransactionID] = true
			target.SourceTransactionID = rec.SourceTransactionID
			plan.links = append(plan.links, target)
			row.Outcome = model.OutcomeLinked
			return row, nil
		}
	}

	existing, err := e.store.FindFuzzyDuplicate(ctx, account.ID, rec.TransactionDate, rec.Amount, rec.Description, rec.CounterpartyName)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return row, err
	}
	if existing != nil {
		row.Outcome = model.OutcomeDuplicate
		row.TransactionID = existing.ID
		return row, nil
	}

	if rec.Category == "" {
		decision, err := e.categorizer.Decide(ctx, rec.Description, rec.CounterpartyName, rec.Amount)
		if err != nil {
			return row, err
		}
		rec.Category = decision.Category
		rec.IsEssentialExpense = decision.Essential
		if decision.Usage != nil {
			plan.usage = append(plan.usage, *decision.Usage)
		}
	}

	rec.ID = e.newID()
	rec.CreatedAt = e.now().UTC()
	if rec.SourceTransactionID != "" {
		plan.seenSourceIDs[rec.SourceTransactionID] = true
	}
	plan.inserts = append(plan.inserts, &rec)

	row.Outcome = model.OutcomeImported
	row.TransactionID = rec.ID
	return row, nil
}

func (e *Engine) commit(ctx context.Context, plan *batchPlan, account *model.Account) (err error) {
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, txn := range plan.inserts {
		if err = tx.InsertTransaction(ctx, txn); err != nil {
			return err
		}
	}
	for _, txn := range plan.links {
		if err = tx.UpdateTransaction(ctx, txn); err != nil {
			return err
		}
	}
	if len(plan.usage) > 0 {
		if err = tx.RecordRuleUsage(ctx, plan.usage...); err != nil {
			return err
		}
	}
	if err = tx.UpdateAccount(ctx, account); err != nil {
		return err
	}
	return tx.Commit()
}

// normalize fills defaults and rejects records that cannot be stored.
func normalize(rec *model.Transaction, account *model.Account) error {
	if rec.TransactionDate.IsZero() {
		return common.NewValidationError(0, "transaction_date", errMissingDate)
	}
	rec.TransactionDate = rec.TransactionDate.UTC()
	if rec.BookingDate.IsZero() {
		rec.BookingDate = rec.TransactionDate
	}
	rec.BookingDate = rec.BookingDate.UTC()

	rec.CurrencyCode = strings.ToUpper(strings.TrimSpace(rec.CurrencyCode))
	if rec.CurrencyCode == "" {
		rec.CurrencyCode = account.CurrencyCode
	}
	if rec.CurrencyCode == "" {
		rec.CurrencyCode = model.DefaultCurrency
	}
	if len(rec.CurrencyCode) != 3 {
		return common.NewValidationError(0, "currency_code", fmt.Errorf("%w: %q", errInvalidCurrency, rec.CurrencyCode))
	}

	rec.AccountID = account.ID
	rec.Amount = model.RoundAmount(rec.Amount)
	return nil
}
