package budget

import (
	"context"
	"time"
)

// Budget is a per-category monthly spending limit.
type Budget struct {
	ID           int64     `json:"id"`
	Category     string    `json:"category"`
	MonthlyLimit float64   `json:"monthlyLimit"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Repository defines storage operations for budgets. Set upserts on
// category so re-submitting a budget adjusts its limit.
type Repository interface {
	Set(ctx context.Context, category string, monthlyLimit float64) (*Budget, error)
	List(ctx context.Context) ([]*Budget, error)
	Delete(ctx context.Context, category string) error
}
