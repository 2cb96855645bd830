package investment

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/institution"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/infrastructure/plaid"
)

// PortfolioSummary aggregates all holdings across institutions.
type PortfolioSummary struct {
	TotalValue     float64     `json:"totalValue"`
	TotalCostBasis float64     `json:"totalCostBasis"`
	GainLoss       float64     `json:"gainLoss"`
	GainLossPct    float64     `json:"gainLossPct"`
	Positions      []*Position `json:"positions"`
}

// SyncResult contains the results of one institution's holdings sync.
type SyncResult struct {
	InstitutionID int64
	Securities    int
	Holdings      int
	Skipped       int
}

// Service syncs holdings from the aggregation API and computes portfolio
// summaries.
type Service struct {
	client plaid.API
	repo   Repository
}

// NewService creates an investment service.
func NewService(client plaid.API, repo Repository) *Service {
	return &Service{client: client, repo: repo}
}

// SyncInstitution fetches and upserts the institution's holdings and their
// securities. Institutions without investment accounts typically return an
// empty response, which is not an error.
func (s *Service) SyncInstitution(ctx context.Context, inst *institution.Institution) (*SyncResult, error) {
	resp, err := s.client.InvestmentsHoldingsGet(ctx, inst.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch holdings for institution %d: %w", inst.ID, err)
	}

	result := &SyncResult{InstitutionID: inst.ID}

	// Securities first so holdings can reference them.
	for i := range resp.Securities {
		raw := &resp.Securities[i]
		if raw.SecurityID == "" {
			result.Skipped++
			continue
		}
		err := s.repo.UpsertSecurity(ctx, SecurityUpsertParams{
			SecurityID:   raw.SecurityID,
			Name:         raw.Name,
			TickerSymbol: raw.TickerSymbol,
			Type:         raw.Type,
			ClosePrice:   raw.ClosePrice,
		})
		if err != nil {
			return result, fmt.Errorf("failed to upsert security %s: %w", raw.SecurityID, err)
		}
		result.Securities++
	}

	for i := range resp.Holdings {
		raw := &resp.Holdings[i]
		if raw.AccountID == "" || raw.SecurityID == "" {
			log.Printf("Skipping holding with missing ids for institution %d", inst.ID)
			result.Skipped++
			continue
		}
		err := s.repo.UpsertHolding(ctx, HoldingUpsertParams{
			AccountID:        raw.AccountID,
			SecurityID:       raw.SecurityID,
			InstitutionID:    inst.ID,
			Quantity:         raw.Quantity,
			CostBasis:        raw.CostBasis,
			InstitutionPrice: raw.InstitutionPrice,
			InstitutionValue: raw.InstitutionValue,
		})
		if err != nil {
			return result, fmt.Errorf("failed to upsert holding %s/%s: %w", raw.AccountID, raw.SecurityID, err)
		}
		result.Holdings++
	}

	log.Printf("Holdings sync completed for institution %d: securities=%d, holdings=%d, skipped=%d",
		inst.ID, result.Securities, result.Holdings, result.Skipped)

	return result, nil
}

// PortfolioSummary computes total value, cost basis and gain/loss across all
// stored positions with decimal arithmetic.
func (s *Service) PortfolioSummary(ctx context.Context) (*PortfolioSummary, error) {
	positions, err := s.repo.ListPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	value := decimal.Zero
	cost := decimal.Zero
	for _, p := range positions {
		value = value.Add(decimal.NewFromFloat(p.Value))
		if p.CostBasis != nil {
			cost = cost.Add(decimal.NewFromFloat(*p.CostBasis))
		}
	}

	gain := value.Sub(cost)
	pct := decimal.Zero
	if cost.GreaterThan(decimal.Zero) {
		pct = gain.Div(cost).Mul(decimal.NewFromInt(100))
	}

	totalValue, _ := value.Float64()
	totalCost, _ := cost.Float64()
	gainLoss, _ := gain.Float64()
	gainLossPct, _ := pct.Float64()

	if positions == nil {
		positions = []*Position{}
	}

	return &PortfolioSummary{
		TotalValue:     totalValue,
		TotalCostBasis: totalCost,
		GainLoss:       gainLoss,
		GainLossPct:    gainLossPct,
		Positions:      positions,
	}, nil
}
