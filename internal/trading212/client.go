// Package trading212 syncs cash balance and account history from the Trading 212 public API.
package trading212

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Veraticus/bankweave/internal/common"
	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the live API root.
const DefaultBaseURL = "https://live.trading212.com/api/v0"

const (
	serviceName      = "trading212"
	defaultPageLimit = 50
	maxPages         = 1000
)

// Config holds Trading 212 API configuration.
type Config struct {
	HTTPClient *http.Client
	APIKey     string
	// APISecret may be empty when APIKey is stored as "key:secret".
	APISecret string
	BaseURL   string
	PageLimit int
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: trading212 API key is required", common.ErrMissingConfig)
	}
	if c.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
			return fmt.Errorf("%w: trading212 base URL: %v", common.ErrInvalidConfig, err)
		}
	}
	return nil
}

// Client talks to the Trading 212 REST API.
type Client struct {
	http      *http.Client
	logger    *slog.Logger
	baseURL   *url.URL
	apiKey    string
	apiSecret string
	pageLimit int
}

// NewClient creates a new Trading 212 client with the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	raw := cfg.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimSuffix(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: trading212 base URL: %v", common.ErrInvalidConfig, err)
	}

	key, secret := cfg.APIKey, cfg.APISecret
	if secret == "" {
		if k, s, ok := strings.Cut(key, ":"); ok {
			key, secret = k, s
		}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	pageLimit := cfg.PageLimit
	if pageLimit <= 0 {
		pageLimit = defaultPageLimit
	}

	return &Client{
		http:      httpClient,
		logger:    common.Component("trading212"),
		baseURL:   base,
		apiKey:    key,
		apiSecret: secret,
		pageLimit: pageLimit,
	}, nil
}

// Cash is the cash summary of the account.
type Cash struct {
	Free     decimal.Decimal `json:"free"`
	Total    decimal.Decimal `json:"total"`
	Ppl      decimal.Decimal `json:"ppl"`
	Result   decimal.Decimal `json:"result"`
	Invested decimal.Decimal `json:"invested"`
}

// HistoryItem is one cash movement from the account history.
type HistoryItem struct {
	DateTime  time.Time       `json:"dateTime"`
	Amount    decimal.Decimal `json:"amount"`
	Type      string          `json:"type"`
	Reference string          `json:"reference"`
	ID        int64           `json:"id"`
}

type historyPage struct {
	NextPagePath string        `json:"nextPagePath"`
	Items        []HistoryItem `json:"items"`
}

// CashBalance fetches the cash summary.
func (c *Client) CashBalance(ctx context.Context) (*Cash, error) {
	var cash Cash
	if err := c.get(ctx, c.endpoint("/equity/account/cash"), &cash); err != nil {
		return nil, err
	}
	c.logger.Info("Fetched cash balance", "total", cash.Total.StringFixed(2))
	return &cash, nil
}

// Transactions fetches the full cash history, following nextPagePath until it is empty.
func (c *Client) Transactions(ctx context.Context) ([]HistoryItem, error) {
	next := c.endpoint(fmt.Sprintf("/equity/history/transactions?limit=%d", c.pageLimit))
	seen := make(map[string]bool)

	var items []HistoryItem
	for page := 0; next != ""; page++ {
		if page >= maxPages || seen[next] {
			return nil, &common.UpstreamError{
				Service: serviceName,
				Err:     fmt.Errorf("pagination did not terminate at %s", next),
			}
		}
		seen[next] = true

		var resp historyPage
		if err := c.get(ctx, next, &resp); err != nil {
			return nil, err
		}
		items = append(items, resp.Items...)

		c.logger.Debug("Fetched history page", "page", page, "count", len(resp.Items))

		next = ""
		if resp.NextPagePath != "" {
			resolved, err := c.resolve(resp.NextPagePath)
			if err != nil {
				return nil, &common.UpstreamError{Service: serviceName, Err: err}
			}
			next = resolved
		}
	}

	c.logger.Info("Fetched account history", "count", len(items))
	return items, nil
}

// endpoint joins path (which may carry a query) onto the base URL.
func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

// resolve turns a server-provided page path into an absolute URL.
func (c *Client) resolve(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid nextPagePath %q: %w", path, err)
	}
	return c.baseURL.ResolveReference(ref).String(), nil
}

func (c *Client) get(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &common.UpstreamError{Service: serviceName, Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", "error", closeErr)
		}
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &common.UpstreamError{Service: serviceName, StatusCode: resp.StatusCode, Err: common.ErrUnauthorized}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("Trading 212 API error", "status", resp.StatusCode, "url", req.URL.Path, "response", string(body))
		return &common.UpstreamError{
			Service:    serviceName,
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &common.UpstreamError{Service: serviceName, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
