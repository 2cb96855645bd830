package plaid

import (
	"context"
)

// API defines the methods required from the aggregation API client
type API interface {
	TransactionsSync(ctx context.Context, accessToken, cursor string) (*SyncResponse, error)
	AccountsGet(ctx context.Context, accessToken string) ([]RawAccount, error)
	InvestmentsHoldingsGet(ctx context.Context, accessToken string) (*HoldingsResponse, error)
	LinkTokenCreate(ctx context.Context, clientUserID string) (string, error)
	ItemPublicTokenExchange(ctx context.Context, publicToken string) (accessToken, itemID string, err error)
}
