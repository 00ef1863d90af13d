package cli

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRenderImportReport(t *testing.T) {
	account := &model.Account{
		ID:             "revolut-main",
		Provider:       "revolut",
		DisplayName:    "Main",
		CurrencyCode:   "EUR",
		CurrentBalance: decimal.RequireFromString("589.01"),
	}
	report := &model.ImportReport{AccountID: account.ID, BalanceDetected: true, BalanceUpdated: true}
	report.Record(model.RowResult{Index: 0, Outcome: model.OutcomeImported})
	report.Record(model.RowResult{Index: 1, Outcome: model.OutcomeDuplicate})
	report.Record(model.RowResult{Index: 2, Outcome: model.OutcomeLinked})
	report.Record(model.RowResult{
		Index:   3,
		Outcome: model.OutcomeFailed,
		Err:     common.NewValidationError(0, "currency", errors.New("currency code must have three letters")),
	})
	report.Record(model.RowResult{
		Index:   -1,
		Line:    9,
		Outcome: model.OutcomeFailed,
		Err:     common.NewValidationError(9, "amount", errors.New("not a number")),
	})

	out := RenderImportReport(account, report)

	assert.Contains(t, out, "Main (revolut)")
	assert.Contains(t, out, "1 imported")
	assert.Contains(t, out, "1 linked")
	assert.Contains(t, out, "1 skipped")
	assert.Contains(t, out, "2 failed")
	assert.Contains(t, out, "row 4: invalid currency")
	assert.Contains(t, out, "line 9: invalid amount: not a number")
	assert.NotContains(t, out, "row 0")
	assert.Contains(t, out, "Balance set to 589.01 EUR")
	assert.Contains(t, out, "partially completed")
}

func TestRenderImportReport_CleanRunWithIgnoredBalance(t *testing.T) {
	detected := decimal.RequireFromString("-120.00")
	account := &model.Account{Provider: "revolut", DisplayName: "Card", IsCreditCard: true}
	report := &model.ImportReport{BalanceDetected: true, DetectedBalance: &detected}
	report.Record(model.RowResult{Outcome: model.OutcomeImported})

	out := RenderImportReport(account, report)

	assert.Contains(t, out, "-120.00 detected but not applied")
	assert.NotContains(t, out, "failed")
	assert.NotContains(t, out, "partially completed")
}

func TestRenderRowErrors(t *testing.T) {
	assert.Empty(t, RenderRowErrors(nil))

	out := RenderRowErrors([]model.RowError{
		{Line: 3, Err: common.NewValidationError(3, "date", errors.New("unrecognized date"))},
	})
	assert.Contains(t, out, "1 rows could not be parsed")
	assert.Contains(t, out, "line 3: invalid date")
}

func TestRenderAccounts(t *testing.T) {
	synced := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	out := RenderAccounts([]model.Account{
		{ID: "ptsb-current", Provider: "ptsb", DisplayName: "Current", CurrencyCode: "EUR", CurrentBalance: decimal.RequireFromString("3210.5"), LastSyncedAt: &synced},
		{ID: "revolut-card", Provider: "revolut", DisplayName: "Card", CurrencyCode: "EUR", IsCreditCard: true},
	})

	assert.True(t, strings.HasPrefix(out, TitleStyle.Render(BankIcon+" Accounts (2)")))
	table := out[strings.Index(out, "ID"):]
	lines := strings.Split(table, "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "PROVIDER")
	assert.Contains(t, lines[1], "3210.50 EUR")
	assert.Contains(t, lines[1], "2024-06-01 09:30")
	assert.Contains(t, lines[2], "credit card")
	assert.Contains(t, lines[2], "never")
}

func TestRenderRules(t *testing.T) {
	out := RenderRules([]model.Rule{
		{ID: "r1", Priority: 10, Pattern: "^SALARY", Category: "Salary", IsRegex: true, TransactionType: model.TransactionTypePositive, TimesUsed: 3},
		{ID: "r2", Priority: 1, Pattern: "TESCO", Category: "Groceries", MarkAsEssential: true, TransactionType: model.TransactionTypeAny},
	})

	assert.Contains(t, out, "regex")
	assert.Contains(t, out, "essential")
	assert.Contains(t, out, "Positive")
	assert.Less(t, strings.Index(out, "^SALARY"), strings.Index(out, "TESCO"))
}

func TestRenderTable_AlignsColumns(t *testing.T) {
	out := RenderTable([]string{"A", "B"}, [][]string{{"long value", "x"}, {"s", "y"}})
	lines := strings.Split(out, "\n")

	assert.Len(t, lines, 3)
	assert.Equal(t, strings.Index(lines[1], "x"), strings.Index(lines[2], "y"))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "-3.50 EUR", FormatAmount(decimal.RequireFromString("-3.5"), "EUR"))
	assert.Equal(t, "10.00", FormatAmount(decimal.NewFromInt(10), ""))
}
