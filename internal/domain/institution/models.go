package institution

import (
	"context"
	"strings"
	"time"
)

// Institution represents one linked bank or brokerage connection at the
// aggregation provider, identified by a long-lived access token.
type Institution struct {
	ID            int64     `json:"id"`
	InstitutionID string    `json:"institutionId"`
	Name          string    `json:"name"`
	AccessToken   string    `json:"-"`
	ItemID        string    `json:"itemId"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CreateParams holds the fields required to persist a new institution
// after a successful public-token exchange.
type CreateParams struct {
	InstitutionID string
	Name          string
	AccessToken   string
	ItemID        string
}

// Repository defines storage operations for institutions.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Institution, error)
	GetByID(ctx context.Context, id int64) (*Institution, error)
	ListActive(ctx context.Context) ([]*Institution, error)
	List(ctx context.Context) ([]*Institution, error)
	TouchUpdatedAt(ctx context.Context, id int64) error
	// RemoveCascade deletes the institution together with its accounts,
	// transactions and holdings inside a single database transaction.
	RemoveCascade(ctx context.Context, id int64) error
}

// accessTokenPrefixes are the only token formats the provider issues.
var accessTokenPrefixes = []string{
	"access-sandbox-",
	"access-development-",
	"access-production-",
}

// ValidAccessToken reports whether a token has a recognized provider prefix.
// Used as a pre-flight check so malformed credentials never reach the network.
func ValidAccessToken(token string) bool {
	for _, prefix := range accessTokenPrefixes {
		if strings.HasPrefix(token, prefix) {
			return true
		}
	}
	return false
}

// HealthStale is the age of updated_at beyond which an institution's sync
// is considered unhealthy.
const HealthStale = 24 * time.Hour

// Healthy reports whether the institution synced within the staleness window.
func (i *Institution) Healthy(now time.Time) bool {
	return now.Sub(i.UpdatedAt) < HealthStale
}
