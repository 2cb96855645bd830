package transaction

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Update when no row matches the external id.
// Callers in the sync path treat it as non-fatal.
var ErrNotFound = errors.New("transaction not found")

// Entry is one ledger row. Amounts follow the provider convention:
// positive = outflow (expense), negative = inflow (income).
type Entry struct {
	ID               int64     `json:"id"`
	TransactionID    string    `json:"transactionId"`
	AccountID        string    `json:"accountId"`
	InstitutionID    int64     `json:"institutionId"`
	Amount           float64   `json:"amount"`
	Date             time.Time `json:"date"`
	Name             string    `json:"name"`
	MerchantName     *string   `json:"merchantName,omitempty"`
	CategoryPrimary  string    `json:"categoryPrimary"`
	CategoryDetailed string    `json:"categoryDetailed"`
	Type             string    `json:"type"` // "expense" or "income"
	Pending          bool      `json:"pending"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// UpsertParams carries a full provider record. The external transaction id is
// the conflict key; a second upsert with the same id overwrites every field.
type UpsertParams struct {
	TransactionID    string
	AccountID        string
	InstitutionID    int64
	Amount           float64
	Date             time.Time
	Name             string
	MerchantName     *string
	CategoryPrimary  string
	CategoryDetailed string
	Type             string
	Pending          bool
}

// UpdateParams overwrites selected fields of an existing entry. Nil fields
// are left untouched.
type UpdateParams struct {
	Amount           *float64
	Date             *time.Time
	Name             *string
	MerchantName     *string
	CategoryPrimary  *string
	CategoryDetailed *string
	Type             *string
	Pending          *bool
}

// Sortable fields accepted by Filter.SortBy.
const (
	SortByDate   = "date"
	SortByAmount = "amount"
	SortByName   = "name"
)

// Filter describes a ledger query. All predicate fields are optional; zero
// values mean "no constraint". Values are always bound positionally.
type Filter struct {
	InstitutionID *int64
	AccountIDs    []string
	Category      string
	StartDate     *time.Time
	EndDate       *time.Time
	Search        string
	MinAmount     *float64
	MaxAmount     *float64
	Pending       *bool
	SortBy        string // date (default), amount, name
	SortAsc       bool   // zero value keeps the newest-first default
	Limit         int
	Offset        int
}

// CategoryTotal is one row of a per-category aggregate.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// InstitutionTotal is one row of a per-institution aggregate.
type InstitutionTotal struct {
	InstitutionID int64   `json:"institutionId"`
	Name          string  `json:"name"`
	Total         float64 `json:"total"`
	Count         int     `json:"count"`
}

// Summary holds grouped sums over the signed-amount convention: spending is
// the sum of positive amounts, income the absolute sum of negative ones.
type Summary struct {
	TotalSpending float64            `json:"totalSpending"`
	TotalIncome   float64            `json:"totalIncome"`
	ByCategory    []CategoryTotal    `json:"byCategory"`
	ByInstitution []InstitutionTotal `json:"byInstitution"`
}

// Repository defines ledger storage operations.
type Repository interface {
	Upsert(ctx context.Context, params UpsertParams) error
	Update(ctx context.Context, transactionID string, params UpdateParams) error
	Delete(ctx context.Context, transactionID string) error
	Query(ctx context.Context, filter Filter) ([]*Entry, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	Summarize(ctx context.Context, filter Filter) (*Summary, error)
}
