package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout = 180 * time.Second // large institutions return thousands of records

	transactionsSyncPath    = "/transactions/sync"
	accountsBalancePath     = "/accounts/balance/get"
	linkTokenCreatePath     = "/link/token/create"
	publicTokenExchangePath = "/item/public_token/exchange"
	holdingsGetPath         = "/investments/holdings/get"
)

// environments maps a configured environment name to the provider base URL.
var environments = map[string]string{
	"sandbox":     "https://sandbox.plaid.com",
	"development": "https://development.plaid.com",
	"production":  "https://production.plaid.com",
}

// Client handles communication with the account-aggregation API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string
}

// Ensure Client implements API
var _ API = (*Client)(nil)

// NewClient creates a new aggregation API client for the given environment.
func NewClient(clientID, secret, environment string) (*Client, error) {
	baseURL, ok := environments[environment]
	if !ok {
		return nil, fmt.Errorf("unknown environment %q (expected sandbox, development or production)", environment)
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		clientID:   clientID,
		secret:     secret,
	}, nil
}

// RawTransaction represents a transaction record as returned by the provider.
// Amount is a pointer so a missing field is distinguishable from zero; the
// category fields are raw JSON because their shape has varied across the
// provider's products (object, array, plain string, or absent).
type RawTransaction struct {
	TransactionID           string          `json:"transaction_id"`
	AccountID               string          `json:"account_id"`
	Amount                  *float64        `json:"amount"`
	Date                    string          `json:"date"` // "2006-01-02"
	Name                    string          `json:"name"`
	MerchantName            string          `json:"merchant_name"`
	Pending                 bool            `json:"pending"`
	PersonalFinanceCategory json.RawMessage `json:"personal_finance_category"`
	Category                json.RawMessage `json:"category"`
}

// GetDate parses the transaction date.
func (t *RawTransaction) GetDate() (*time.Time, error) {
	if t.Date == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", t.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to parse date '%s': %w", t.Date, err)
	}
	return &parsed, nil
}

// RemovedTransaction is a reference to a transaction deleted at the provider.
type RemovedTransaction struct {
	TransactionID string `json:"transaction_id"`
}

// SyncResponse is one page of the cursor-based transactions/sync endpoint.
type SyncResponse struct {
	Added      []RawTransaction     `json:"added"`
	Modified   []RawTransaction     `json:"modified"`
	Removed    []RemovedTransaction `json:"removed"`
	NextCursor string               `json:"next_cursor"`
	HasMore    bool                 `json:"has_more"`
}

// RawAccount represents an account record from the balance endpoint.
type RawAccount struct {
	AccountID    string      `json:"account_id"`
	Name         string      `json:"name"`
	OfficialName *string     `json:"official_name"`
	Type         string      `json:"type"`
	Subtype      string      `json:"subtype"`
	Mask         *string     `json:"mask"`
	Balances     RawBalances `json:"balances"`
}

// RawBalances holds nullable balance figures.
type RawBalances struct {
	Current   *float64 `json:"current"`
	Available *float64 `json:"available"`
}

// AccountsResponse is the accounts/balance response body.
type AccountsResponse struct {
	Accounts []RawAccount `json:"accounts"`
}

// RawHolding is one position from the investments holdings endpoint.
type RawHolding struct {
	AccountID        string   `json:"account_id"`
	SecurityID       string   `json:"security_id"`
	Quantity         float64  `json:"quantity"`
	CostBasis        *float64 `json:"cost_basis"`
	InstitutionPrice float64  `json:"institution_price"`
	InstitutionValue float64  `json:"institution_value"`
	ISOCurrencyCode  *string  `json:"iso_currency_code"`
}

// RawSecurity describes an instrument referenced by holdings.
type RawSecurity struct {
	SecurityID   string   `json:"security_id"`
	Name         *string  `json:"name"`
	TickerSymbol *string  `json:"ticker_symbol"`
	Type         *string  `json:"type"`
	ClosePrice   *float64 `json:"close_price"`
}

// HoldingsResponse is the investments/holdings response body.
type HoldingsResponse struct {
	Holdings   []RawHolding  `json:"holdings"`
	Securities []RawSecurity `json:"securities"`
}

// apiError is the provider's error envelope.
type apiError struct {
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// TransactionsSync fetches one page of the cursor-based sync feed. An empty
// cursor starts reconciliation from the provider's earliest available page.
func (c *Client) TransactionsSync(ctx context.Context, accessToken, cursor string) (*SyncResponse, error) {
	body := map[string]any{
		"client_id":    c.clientID,
		"secret":       c.secret,
		"access_token": accessToken,
		"count":        500,
	}
	if cursor != "" {
		body["cursor"] = cursor
	}

	var syncResp SyncResponse
	if err := c.post(ctx, transactionsSyncPath, body, &syncResp); err != nil {
		return nil, err
	}
	return &syncResp, nil
}

// AccountsGet fetches current account balances for one institution.
func (c *Client) AccountsGet(ctx context.Context, accessToken string) ([]RawAccount, error) {
	body := map[string]any{
		"client_id":    c.clientID,
		"secret":       c.secret,
		"access_token": accessToken,
	}

	var accountsResp AccountsResponse
	if err := c.post(ctx, accountsBalancePath, body, &accountsResp); err != nil {
		return nil, err
	}
	return accountsResp.Accounts, nil
}

// InvestmentsHoldingsGet fetches holdings and their securities.
func (c *Client) InvestmentsHoldingsGet(ctx context.Context, accessToken string) (*HoldingsResponse, error) {
	body := map[string]any{
		"client_id":    c.clientID,
		"secret":       c.secret,
		"access_token": accessToken,
	}

	var holdingsResp HoldingsResponse
	if err := c.post(ctx, holdingsGetPath, body, &holdingsResp); err != nil {
		return nil, err
	}
	return &holdingsResp, nil
}

// LinkTokenCreate creates a short-lived token for the client-side link flow.
func (c *Client) LinkTokenCreate(ctx context.Context, clientUserID string) (string, error) {
	body := map[string]any{
		"client_id":     c.clientID,
		"secret":        c.secret,
		"client_name":   "MoneyMosaic",
		"language":      "en",
		"country_codes": []string{"US", "CA"},
		"products":      []string{"transactions", "investments"},
		"user":          map[string]string{"client_user_id": clientUserID},
	}

	var resp struct {
		LinkToken string `json:"link_token"`
	}
	if err := c.post(ctx, linkTokenCreatePath, body, &resp); err != nil {
		return "", err
	}
	return resp.LinkToken, nil
}

// ItemPublicTokenExchange trades the public token from a completed link flow
// for the long-lived access token and item id.
func (c *Client) ItemPublicTokenExchange(ctx context.Context, publicToken string) (accessToken, itemID string, err error) {
	body := map[string]any{
		"client_id":    c.clientID,
		"secret":       c.secret,
		"public_token": publicToken,
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		ItemID      string `json:"item_id"`
	}
	if err := c.post(ctx, publicTokenExchangePath, body, &resp); err != nil {
		return "", "", err
	}
	return resp.AccessToken, resp.ItemID, nil
}

// post executes one JSON request against the provider and decodes the
// response into out, translating non-200 statuses into API errors.
func (c *Client) post(ctx context.Context, path string, reqBody map[string]any, out any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp apiError
		if err := json.Unmarshal(respBody, &errResp); err != nil {
			return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
		}
		return fmt.Errorf("API error (status %d): %s/%s - %s", resp.StatusCode, errResp.ErrorType, errResp.ErrorCode, errResp.ErrorMessage)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
