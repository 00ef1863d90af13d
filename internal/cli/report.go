package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/bankweave/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// FormatAmount renders a monetary amount with two decimals and its currency code.
func FormatAmount(amount decimal.Decimal, currency string) string {
	if currency == "" {
		return amount.StringFixed(2)
	}
	return amount.StringFixed(2) + " " + currency
}

// RenderImportReport summarizes a reconciliation batch. Failed rows are listed
// so the user can tell a partial import from a clean one.
func RenderImportReport(account *model.Account, report *model.ImportReport) string {
	lines := []string{
		fmt.Sprintf("%s %d imported", SuccessIcon, report.Imported),
		fmt.Sprintf("%s %d linked to existing transactions", LinkIcon, report.Linked),
		SubtleStyle.Render(fmt.Sprintf("  %d skipped as duplicates", report.Skipped)),
	}
	if report.Failed > 0 {
		lines = append(lines, ErrorStyle.Render(fmt.Sprintf("%s %d failed", ErrorIcon, report.Failed)))
	}

	switch {
	case report.BalanceUpdated:
		lines = append(lines, fmt.Sprintf("Balance set to %s", FormatAmount(account.CurrentBalance, account.CurrencyCode)))
	case report.BalanceDetected && report.DetectedBalance != nil:
		lines = append(lines, SubtleStyle.Render(fmt.Sprintf("Balance %s detected but not applied to this account",
			report.DetectedBalance.StringFixed(2))))
	}

	for _, row := range report.Rows {
		if row.Outcome != model.OutcomeFailed || row.Err == nil {
			continue
		}
		if row.Line > 0 {
			// Adapter errors already name their input line.
			lines = append(lines, ErrorStyle.Render(fmt.Sprintf("  %v", row.Err)))
			continue
		}
		lines = append(lines, ErrorStyle.Render(fmt.Sprintf("  row %d: %v", row.Index+1, row.Err)))
	}

	title := fmt.Sprintf("%s (%s)", account.DisplayName, account.Provider)
	out := RenderBox(title, strings.Join(lines, "\n"))
	if report.Partial() {
		out += "\n" + FormatWarning("Import partially completed, see failed rows above")
	}
	return out
}

// RenderRowErrors lists rows an adapter could not parse.
func RenderRowErrors(rowErrors []model.RowError) string {
	if len(rowErrors) == 0 {
		return ""
	}
	lines := make([]string, 0, len(rowErrors)+1)
	lines = append(lines, FormatWarning(fmt.Sprintf("%d rows could not be parsed", len(rowErrors))))
	for _, rowErr := range rowErrors {
		lines = append(lines, ErrorStyle.Render(fmt.Sprintf("  %v", rowErr.Err)))
	}
	return strings.Join(lines, "\n")
}

// RenderAccounts renders accounts as a titled table.
func RenderAccounts(accounts []model.Account) string {
	rows := make([][]string, 0, len(accounts))
	for _, a := range accounts {
		synced := "never"
		if a.LastSyncedAt != nil {
			synced = a.LastSyncedAt.Format("2006-01-02 15:04")
		}
		kind := "bank"
		if a.IsCreditCard {
			kind = "credit card"
		}
		rows = append(rows, []string{a.ID, a.Provider, a.DisplayName, kind, FormatAmount(a.CurrentBalance, a.CurrencyCode), synced})
	}
	title := FormatTitle(fmt.Sprintf("Accounts (%d)", len(accounts)))
	return title + "\n" + RenderTable([]string{"ID", "PROVIDER", "NAME", "TYPE", "BALANCE", "LAST SYNC"}, rows)
}

// RenderRules renders rules in evaluation order.
func RenderRules(rules []model.Rule) string {
	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		flags := make([]string, 0, 3)
		if r.IsRegex {
			flags = append(flags, "regex")
		}
		if r.CaseSensitive {
			flags = append(flags, "case")
		}
		if r.MarkAsEssential {
			flags = append(flags, "essential")
		}
		rows = append(rows, []string{
			r.ID,
			strconv.Itoa(r.Priority),
			r.Pattern,
			r.Category,
			string(r.TransactionType),
			strings.Join(flags, ","),
			strconv.Itoa(r.TimesUsed),
		})
	}
	return RenderTable([]string{"ID", "PRIO", "PATTERN", "CATEGORY", "TYPE", "FLAGS", "USED"}, rows)
}

// RenderTable lays out rows under headers with padded columns.
func RenderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := range headers {
			if i < len(row) && lipgloss.Width(row[i]) > widths[i] {
				widths[i] = lipgloss.Width(row[i])
			}
		}
	}

	var b strings.Builder
	b.WriteString(renderRow(TableHeaderStyle, headers, widths))
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(renderRow(TableCellStyle, row, widths))
	}
	return b.String()
}

func renderRow(style lipgloss.Style, cells []string, widths []int) string {
	rendered := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		rendered[i] = style.Width(w + style.GetPaddingRight()).Render(cell)
	}
	return strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, rendered...), " ")
}
