package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/transaction"
)

// DailyTotal is one day of spending and income.
type DailyTotal struct {
	Date     string  `json:"date"` // YYYY-MM-DD
	Spending float64 `json:"spending"`
	Income   float64 `json:"income"`
}

// CategoryShare is a category's total and its share of overall spending.
type CategoryShare struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
	SharePct float64 `json:"sharePct"`
}

// UnusualCategory flags a category whose current-period spending exceeds its
// historical mean by the configured multiplier.
type UnusualCategory struct {
	Category       string  `json:"category"`
	CurrentSpend   float64 `json:"currentSpend"`
	HistoricalMean float64 `json:"historicalMean"`
	Ratio          float64 `json:"ratio"`
}

// Config tunes the unusual-spending heuristic.
type Config struct {
	// Multiplier over the historical mean above which spending is unusual.
	UnusualMultiplier float64
	// LookbackPeriods is how many prior windows feed the mean.
	LookbackPeriods int
}

// DefaultConfig matches the dashboard's defaults.
func DefaultConfig() Config {
	return Config{UnusualMultiplier: 1.5, LookbackPeriods: 3}
}

// Service computes read-side analytics over the ledger.
type Service struct {
	entries transaction.Repository
	cfg     Config
}

// NewService creates an analytics service.
func NewService(entries transaction.Repository, cfg Config) *Service {
	if cfg.UnusualMultiplier <= 0 {
		cfg.UnusualMultiplier = DefaultConfig().UnusualMultiplier
	}
	if cfg.LookbackPeriods <= 0 {
		cfg.LookbackPeriods = DefaultConfig().LookbackPeriods
	}
	return &Service{entries: entries, cfg: cfg}
}

// Trends buckets the window's entries into daily spending/income totals,
// oldest day first. Days with no activity are omitted.
func (s *Service) Trends(ctx context.Context, now time.Time, days int) ([]*DailyTotal, error) {
	start := now.AddDate(0, 0, -days)
	entries, err := s.entries.Query(ctx, transaction.Filter{StartDate: &start, EndDate: &now})
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}

	type bucket struct {
		spending decimal.Decimal
		income   decimal.Decimal
	}
	buckets := make(map[string]*bucket)

	for _, entry := range entries {
		day := entry.Date.Format("2006-01-02")
		b, ok := buckets[day]
		if !ok {
			b = &bucket{spending: decimal.Zero, income: decimal.Zero}
			buckets[day] = b
		}
		amount := decimal.NewFromFloat(entry.Amount)
		if amount.GreaterThan(decimal.Zero) {
			b.spending = b.spending.Add(amount)
		} else {
			b.income = b.income.Add(amount.Abs())
		}
	}

	totals := make([]*DailyTotal, 0, len(buckets))
	for day, b := range buckets {
		spending, _ := b.spending.Float64()
		income, _ := b.income.Float64()
		totals = append(totals, &DailyTotal{Date: day, Spending: spending, Income: income})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Date < totals[j].Date })

	return totals, nil
}

// CategoryBreakdown returns per-category spending totals with percentage
// shares of the window's overall spending.
func (s *Service) CategoryBreakdown(ctx context.Context, now time.Time, days int) ([]*CategoryShare, error) {
	start := now.AddDate(0, 0, -days)
	summary, err := s.entries.Summarize(ctx, transaction.Filter{StartDate: &start, EndDate: &now})
	if err != nil {
		return nil, fmt.Errorf("failed to summarize entries: %w", err)
	}

	total := decimal.NewFromFloat(summary.TotalSpending)

	shares := make([]*CategoryShare, 0, len(summary.ByCategory))
	for _, ct := range summary.ByCategory {
		// Income-only categories have negative grouped sums; the
		// breakdown reports spending.
		if ct.Total <= 0 {
			continue
		}
		share := decimal.Zero
		if total.GreaterThan(decimal.Zero) {
			share = decimal.NewFromFloat(ct.Total).Div(total).Mul(decimal.NewFromInt(100))
		}
		sharePct, _ := share.Float64()
		shares = append(shares, &CategoryShare{
			Category: ct.Category,
			Total:    ct.Total,
			Count:    ct.Count,
			SharePct: sharePct,
		})
	}

	return shares, nil
}

// UnusualSpending compares each category's spending in the current window
// against the mean of the preceding lookback windows and flags categories
// exceeding mean * multiplier. Categories with no history are never flagged.
func (s *Service) UnusualSpending(ctx context.Context, now time.Time, days int) ([]*UnusualCategory, error) {
	current, err := s.categorySpend(ctx, now.AddDate(0, 0, -days), now)
	if err != nil {
		return nil, err
	}

	history := make(map[string][]decimal.Decimal)
	end := now.AddDate(0, 0, -days)
	for i := 0; i < s.cfg.LookbackPeriods; i++ {
		start := end.AddDate(0, 0, -days)
		period, err := s.categorySpend(ctx, start, end)
		if err != nil {
			return nil, err
		}
		for category, spend := range period {
			history[category] = append(history[category], spend)
		}
		end = start
	}

	multiplier := decimal.NewFromFloat(s.cfg.UnusualMultiplier)

	var unusual []*UnusualCategory
	for category, spend := range current {
		past, ok := history[category]
		if !ok || len(past) == 0 {
			continue
		}

		sum := decimal.Zero
		for _, v := range past {
			sum = sum.Add(v)
		}
		mean := sum.Div(decimal.NewFromInt(int64(len(past))))
		if !mean.GreaterThan(decimal.Zero) {
			continue
		}

		if spend.GreaterThan(mean.Mul(multiplier)) {
			spendF, _ := spend.Float64()
			meanF, _ := mean.Float64()
			ratioF, _ := spend.Div(mean).Float64()
			unusual = append(unusual, &UnusualCategory{
				Category:       category,
				CurrentSpend:   spendF,
				HistoricalMean: meanF,
				Ratio:          ratioF,
			})
		}
	}

	sort.Slice(unusual, func(i, j int) bool { return unusual[i].Ratio > unusual[j].Ratio })
	return unusual, nil
}

// categorySpend returns per-category spending (positive amounts only) for a
// date range.
func (s *Service) categorySpend(ctx context.Context, start, end time.Time) (map[string]decimal.Decimal, error) {
	summary, err := s.entries.Summarize(ctx, transaction.Filter{StartDate: &start, EndDate: &end})
	if err != nil {
		return nil, fmt.Errorf("failed to summarize %s..%s: %w",
			start.Format("2006-01-02"), end.Format("2006-01-02"), err)
	}

	spend := make(map[string]decimal.Decimal, len(summary.ByCategory))
	for _, ct := range summary.ByCategory {
		if ct.Total > 0 {
			spend[ct.Category] = decimal.NewFromFloat(ct.Total)
		}
	}
	return spend, nil
}
