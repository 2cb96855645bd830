package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/transaction"
)

// Insight reports how far a category's current-month spending has progressed
// against its budget.
type Insight struct {
	Category     string  `json:"category"`
	MonthlyLimit float64 `json:"monthlyLimit"`
	Spent        float64 `json:"spent"`
	Remaining    float64 `json:"remaining"`
	ProgressPct  float64 `json:"progressPct"`
	OverBudget   bool    `json:"overBudget"`
}

// Service computes budget insights from the ledger.
type Service struct {
	budgets Repository
	entries transaction.Repository
}

// NewService creates a budget service.
func NewService(budgets Repository, entries transaction.Repository) *Service {
	return &Service{budgets: budgets, entries: entries}
}

// Insights returns one entry per budget, measured against the current
// month's spending in that category. Only expenses (positive amounts) count.
func (s *Service) Insights(ctx context.Context, now time.Time) ([]*Insight, error) {
	budgets, err := s.budgets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	insights := make([]*Insight, 0, len(budgets))
	for _, b := range budgets {
		summary, err := s.entries.Summarize(ctx, transaction.Filter{
			Category:  b.Category,
			StartDate: &monthStart,
			EndDate:   &now,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to summarize category %q: %w", b.Category, err)
		}

		spent := decimal.NewFromFloat(summary.TotalSpending)
		limit := decimal.NewFromFloat(b.MonthlyLimit)
		remaining := limit.Sub(spent)

		pct := decimal.Zero
		if limit.GreaterThan(decimal.Zero) {
			pct = spent.Div(limit).Mul(decimal.NewFromInt(100))
		}

		spentF, _ := spent.Float64()
		remainingF, _ := remaining.Float64()
		pctF, _ := pct.Float64()

		insights = append(insights, &Insight{
			Category:     b.Category,
			MonthlyLimit: b.MonthlyLimit,
			Spent:        spentF,
			Remaining:    remainingF,
			ProgressPct:  pctF,
			OverBudget:   spent.GreaterThan(limit),
		})
	}

	return insights, nil
}
