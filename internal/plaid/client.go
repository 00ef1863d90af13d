// Package plaid provides a client for interacting with the Plaid API.
package plaid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/model"
	"github.com/Veraticus/bankweave/internal/service"
	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/shopspring/decimal"
)

const serviceName = "plaid"

// Config holds Plaid API configuration.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
	AccessToken string
	// AccountID restricts the sync to one account of the item.
	AccountID string
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("%w: plaid client ID is required", common.ErrMissingConfig)
	}
	if c.Secret == "" {
		return fmt.Errorf("%w: plaid secret is required", common.ErrMissingConfig)
	}
	if c.AccessToken == "" {
		return fmt.Errorf("%w: plaid access token is required", common.ErrMissingConfig)
	}
	if c.Environment == "" {
		return fmt.Errorf("%w: plaid environment is required", common.ErrMissingConfig)
	}

	validEnvs := map[string]bool{
		"sandbox":    true,
		"production": true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("%w: invalid Plaid environment: must be sandbox or production", common.ErrInvalidConfig)
	}

	return nil
}

// Client implements the TransactionFetcher interface.
type Client struct {
	client      *plaid.APIClient
	logger      *slog.Logger
	retryOpts   *service.RetryOptions
	accessToken string
	accountID   string
}

// NewClient creates a new Plaid client with the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Configure Plaid client based on environment
	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)

	switch cfg.Environment {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	}

	return &Client{
		client:      plaid.NewAPIClient(configuration),
		accessToken: cfg.AccessToken,
		accountID:   cfg.AccountID,
		logger:      common.Component("plaid"),
		retryOpts: &service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// GetTransactions fetches posted transactions from Plaid within the specified date range.
func (c *Client) GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	if startDate.After(endDate) {
		return nil, fmt.Errorf("start date must be before end date")
	}

	c.logger.Info("Fetching transactions from Plaid",
		"start_date", startDate.Format(time.DateOnly),
		"end_date", endDate.Format(time.DateOnly))

	var allTransactions []plaid.Transaction
	offset := int32(0)
	const pageSize = int32(500) // Plaid's max page size

	// Fetch all transactions with pagination
	for {
		var plaidTransactions []plaid.Transaction

		retryErr := common.WithRetry(ctx, func() error {
			request := plaid.NewTransactionsGetRequest(
				c.accessToken,
				startDate.Format(time.DateOnly),
				endDate.Format(time.DateOnly),
			)
			options := plaid.TransactionsGetRequestOptions{
				Count:  plaid.PtrInt32(pageSize),
				Offset: plaid.PtrInt32(offset),
			}
			request.SetOptions(options)

			resp, _, err := c.client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*request).Execute()
			if err != nil {
				return c.classify(err, "fetch transactions")
			}

			plaidTransactions = resp.GetTransactions()

			c.logger.Debug("Fetched transaction batch",
				"count", len(plaidTransactions),
				"offset", offset,
				"total", resp.GetTotalTransactions())

			return nil
		}, *c.retryOpts)

		if retryErr != nil {
			return nil, retryErr
		}

		allTransactions = append(allTransactions, plaidTransactions...)

		if len(plaidTransactions) < int(pageSize) {
			break
		}

		offset += pageSize
	}

	transactions := make([]model.Transaction, 0, len(allTransactions))
	for _, pt := range allTransactions {
		if c.accountID != "" && pt.GetAccountId() != c.accountID {
			continue
		}
		if pt.GetPending() {
			// Pending transactions get a new id once posted.
			c.logger.Debug("Skipping pending transaction", "transaction_id", pt.GetTransactionId())
			continue
		}
		tx, err := toTransaction(pt)
		if err != nil {
			c.logger.Warn("Skipping transaction", "transaction_id", pt.GetTransactionId(), "error", err)
			continue
		}
		transactions = append(transactions, tx)
	}

	c.logger.Info("Fetched all transactions", "fetched", len(allTransactions), "kept", len(transactions))
	return transactions, nil
}

// Balance returns the current balance of the configured account.
func (c *Client) Balance(ctx context.Context) (*decimal.Decimal, error) {
	var accounts []plaid.AccountBase
	retryErr := common.WithRetry(ctx, func() error {
		request := plaid.NewAccountsGetRequest(c.accessToken)
		resp, _, err := c.client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*request).Execute()
		if err != nil {
			return c.classify(err, "fetch accounts")
		}
		accounts = resp.GetAccounts()
		return nil
	}, *c.retryOpts)
	if retryErr != nil {
		return nil, retryErr
	}

	c.logger.Info("Fetched accounts", "count", len(accounts))

	account := selectAccount(accounts, c.accountID)
	if account == nil {
		return nil, nil
	}
	balances := account.GetBalances()
	current, ok := balances.GetCurrentOk()
	if !ok || current == nil {
		return nil, nil
	}
	value := model.RoundAmount(decimal.NewFromFloat(*current))
	return &value, nil
}

// selectAccount picks accountID, or the only account when none is configured.
func selectAccount(accounts []plaid.AccountBase, accountID string) *plaid.AccountBase {
	if accountID == "" {
		if len(accounts) == 1 {
			return &accounts[0]
		}
		return nil
	}
	for i := range accounts {
		if accounts[i].GetAccountId() == accountID {
			return &accounts[i]
		}
	}
	return nil
}

// classify turns a Plaid API error into a retryable rate-limit error or an
// upstream error, which common.WithRetry never repeats.
func (c *Client) classify(err error, op string) error {
	plaidError := extractPlaidError(err)
	if plaidError == nil {
		return &common.UpstreamError{Service: serviceName, Err: fmt.Errorf("failed to %s: %w", op, err)}
	}
	return classifyPlaidError(*plaidError, c.logger)
}

func classifyPlaidError(plaidError plaid.PlaidError, logger *slog.Logger) error {
	switch plaidError.ErrorCode {
	case "RATE_LIMIT_EXCEEDED", "TRANSACTIONS_LIMIT", "ACCOUNTS_LIMIT":
		logger.Warn("Rate limit hit, will retry", "error", plaidError.ErrorMessage)
		return &common.RetryableError{
			Err:       fmt.Errorf("%w: %s", common.ErrPlaidRateLimit, plaidError.ErrorMessage),
			Retryable: true,
		}
	case "INVALID_API_KEYS", "INVALID_ACCESS_TOKEN", "ITEM_LOGIN_REQUIRED", "UNAUTHORIZED_ENVIRONMENT":
		return &common.UpstreamError{
			Service: serviceName,
			Err:     fmt.Errorf("%w: %s", common.ErrUnauthorized, plaidError.ErrorMessage),
		}
	}
	return &common.UpstreamError{
		Service: serviceName,
		Err:     errors.New(plaidError.ErrorCode + " - " + plaidError.ErrorMessage),
	}
}

// toTransaction converts a Plaid transaction to a normalized record.
// Plaid reports money out as positive amounts, so the sign is flipped.
func toTransaction(pt plaid.Transaction) (model.Transaction, error) {
	posted, err := time.Parse(time.DateOnly, pt.GetDate())
	if err != nil {
		return model.Transaction{}, fmt.Errorf("invalid date %q: %w", pt.GetDate(), err)
	}
	date := posted
	if authorized, err := time.Parse(time.DateOnly, pt.GetAuthorizedDate()); err == nil {
		date = authorized
	}

	// Get merchant name, falling back to name if not available
	merchantName := pt.GetMerchantName()
	if merchantName == "" {
		merchantName = pt.GetName()
	}

	return model.Transaction{
		SourceTransactionID: "plaid-" + pt.GetTransactionId(),
		TransactionDate:     date,
		BookingDate:         posted,
		Amount:              model.RoundAmount(decimal.NewFromFloat(pt.GetAmount()).Neg()),
		CurrencyCode:        strings.ToUpper(pt.GetIsoCurrencyCode()),
		Description:         strings.TrimSpace(pt.GetName()),
		CounterpartyName:    cleanMerchantName(merchantName),
	}, nil
}

// cleanMerchantName standardizes merchant names by removing common suffixes and normalizing format.
func cleanMerchantName(name string) string {
	// Convert to title case manually to avoid deprecated strings.Title
	words := strings.Fields(strings.ToLower(name))
	for i, word := range words {
		runes := []rune(word)
		for j := 0; j < len(runes); j++ {
			if j == 0 || !isLetter(runes[j-1]) {
				runes[j] = toUpper(runes[j])
			}
		}
		words[i] = string(runes)
	}

	// A trailing run of more than five digits is a processor reference, not part of the name.
	if len(words) > 1 {
		lastPart := words[len(words)-1]
		if len(lastPart) > 5 && isAllDigits(lastPart) {
			words = words[:len(words)-1]
		}
	}
	name = strings.Join(words, " ")

	suffixes := []string{
		" Llc",
		" Inc",
		" Corp",
		" Corporation",
		" Company",
		" Co",
		" Ltd",
		" Limited",
	}

	// Keep removing suffixes until none are found (handles multiple suffixes)
	changed := true
	for changed {
		changed = false
		for _, suffix := range suffixes {
			if strings.HasSuffix(name, suffix) {
				name = strings.TrimSuffix(name, suffix)
				changed = true
			}
		}
	}

	return strings.TrimSpace(name)
}

// isAllDigits checks if a string contains only digits.
func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isLetter checks if a rune is a letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// toUpper converts a rune to uppercase.
func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 32
	}
	return r
}

// extractPlaidError attempts to extract a Plaid error from a generic error.
func extractPlaidError(err error) *plaid.PlaidError {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return nil
	}
	return &plaidErr
}

// Ensure Client implements TransactionFetcher interface.
var _ TransactionFetcher = (*Client)(nil)
