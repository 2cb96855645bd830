package account

import (
	"context"
	"time"
)

// Account is a financial account belonging to exactly one institution.
type Account struct {
	ID               int64     `json:"id"`
	AccountID        string    `json:"accountId"`
	InstitutionID    int64     `json:"institutionId"`
	Name             string    `json:"name"`
	OfficialName     *string   `json:"officialName,omitempty"`
	Type             string    `json:"type"`
	Subtype          string    `json:"subtype"`
	Mask             *string   `json:"mask,omitempty"`
	CurrentBalance   *float64  `json:"currentBalance"`
	AvailableBalance *float64  `json:"availableBalance"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// UpsertParams holds provider-sourced account fields. The external account id
// is the conflict key; balances overwrite on every refresh.
type UpsertParams struct {
	AccountID        string
	InstitutionID    int64
	Name             string
	OfficialName     *string
	Type             string
	Subtype          string
	Mask             *string
	CurrentBalance   *float64
	AvailableBalance *float64
}

// Repository defines storage operations for accounts.
type Repository interface {
	Upsert(ctx context.Context, params UpsertParams) error
	GetByAccountID(ctx context.Context, accountID string) (*Account, error)
	ListByInstitution(ctx context.Context, institutionID int64) ([]*Account, error)
	List(ctx context.Context) ([]*Account, error)
}
