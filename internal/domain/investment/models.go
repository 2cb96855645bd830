package investment

import (
	"context"
	"time"
)

// Security describes an instrument referenced by one or more holdings.
type Security struct {
	ID           int64     `json:"id"`
	SecurityID   string    `json:"securityId"`
	Name         *string   `json:"name"`
	TickerSymbol *string   `json:"tickerSymbol"`
	Type         *string   `json:"type"`
	ClosePrice   *float64  `json:"closePrice"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Holding is one position in an investment account.
type Holding struct {
	ID               int64     `json:"id"`
	AccountID        string    `json:"accountId"`
	SecurityID       string    `json:"securityId"`
	InstitutionID    int64     `json:"institutionId"`
	Quantity         float64   `json:"quantity"`
	CostBasis        *float64  `json:"costBasis"`
	InstitutionPrice float64   `json:"institutionPrice"`
	InstitutionValue float64   `json:"institutionValue"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// SecurityUpsertParams carries provider-sourced security fields.
type SecurityUpsertParams struct {
	SecurityID   string
	Name         *string
	TickerSymbol *string
	Type         *string
	ClosePrice   *float64
}

// HoldingUpsertParams carries provider-sourced holding fields; the
// (account, security) pair is the conflict key.
type HoldingUpsertParams struct {
	AccountID        string
	SecurityID       string
	InstitutionID    int64
	Quantity         float64
	CostBasis        *float64
	InstitutionPrice float64
	InstitutionValue float64
}

// Position is one row of a portfolio summary, a holding joined with its
// security.
type Position struct {
	SecurityID   string   `json:"securityId"`
	Name         *string  `json:"name"`
	TickerSymbol *string  `json:"tickerSymbol"`
	Type         *string  `json:"type"`
	Quantity     float64  `json:"quantity"`
	CostBasis    *float64 `json:"costBasis"`
	Value        float64  `json:"value"`
}

// Repository defines storage operations for securities and holdings.
type Repository interface {
	UpsertSecurity(ctx context.Context, params SecurityUpsertParams) error
	UpsertHolding(ctx context.Context, params HoldingUpsertParams) error
	ListPositions(ctx context.Context) ([]*Position, error)
}
