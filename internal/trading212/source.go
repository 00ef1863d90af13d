package trading212

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/bankweave/internal/model"
	"github.com/Veraticus/bankweave/internal/service"
)

// Source adapts the API to service.TransactionSource. The cash total becomes
// the detected balance.
type Source struct {
	client *Client
}

// NewSource wraps client as a transaction source.
func NewSource(client *Client) *Source {
	return &Source{client: client}
}

// Fetch implements service.TransactionSource.
func (s *Source) Fetch(ctx context.Context) (*model.ParseResult, error) {
	cash, err := s.client.CashBalance(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.client.Transactions(ctx)
	if err != nil {
		return nil, err
	}

	total := cash.Total
	result := &model.ParseResult{
		Records:          make([]model.Transaction, 0, len(items)),
		DetectedBalance:  &total,
		HasBalanceColumn: true,
		APISource:        true,
	}
	for _, item := range items {
		result.Records = append(result.Records, toTransaction(item))
	}
	return result, nil
}

// toTransaction maps a history item. The reference is the event UUID that
// CSV exports carry in their notes, so it becomes the external id.
func toTransaction(item HistoryItem) model.Transaction {
	uniqueID := item.Reference
	if uniqueID == "" {
		uniqueID = strconv.FormatInt(item.ID, 10)
	}

	date := item.DateTime.UTC()
	return model.Transaction{
		SourceTransactionID: "t212-api-" + uniqueID,
		ExternalID:          uniqueID,
		TransactionDate:     date,
		BookingDate:         date,
		Amount:              model.RoundAmount(item.Amount),
		CurrencyCode:        "EUR",
		Description:         fmt.Sprintf("%s - %s", item.Type, item.Reference),
		Category:            historyCategory(item.Type),
	}
}

// historyCategory labels history types. Card payments are left to the
// categorization pipeline; other types get a placeholder so recategorize
// sweeps can refine them.
func historyCategory(kind string) string {
	kind = strings.ToLower(kind)
	switch {
	case strings.Contains(kind, "interest"):
		return "Interest"
	case strings.Contains(kind, "card"):
		return ""
	case strings.Contains(kind, "deposit"), strings.Contains(kind, "cashback"):
		return "Income"
	case strings.Contains(kind, "withdraw"):
		return "Expenses"
	default:
		return model.FallbackCategory
	}
}

var _ service.TransactionSource = (*Source)(nil)
