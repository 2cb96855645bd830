package sqlite

import (
	"context"
	"fmt"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/investment"
)

type InvestmentRepository struct {
	db *DB
}

func NewInvestmentRepository(db *DB) *InvestmentRepository {
	return &InvestmentRepository{db: db}
}

func (r *InvestmentRepository) UpsertSecurity(ctx context.Context, params investment.SecurityUpsertParams) error {
	query := `
		INSERT INTO securities (security_id, name, ticker_symbol, type, close_price)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (security_id) DO UPDATE SET
		    name = excluded.name,
		    ticker_symbol = excluded.ticker_symbol,
		    type = excluded.type,
		    close_price = excluded.close_price,
		    updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.ExecContext(ctx, query,
		params.SecurityID, params.Name, params.TickerSymbol, params.Type, params.ClosePrice,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert security: %w", err)
	}
	return nil
}

func (r *InvestmentRepository) UpsertHolding(ctx context.Context, params investment.HoldingUpsertParams) error {
	query := `
		INSERT INTO holdings (account_id, security_id, institution_id, quantity, cost_basis,
		                      institution_price, institution_value)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id, security_id) DO UPDATE SET
		    institution_id = excluded.institution_id,
		    quantity = excluded.quantity,
		    cost_basis = excluded.cost_basis,
		    institution_price = excluded.institution_price,
		    institution_value = excluded.institution_value,
		    updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.ExecContext(ctx, query,
		params.AccountID, params.SecurityID, params.InstitutionID,
		params.Quantity, params.CostBasis, params.InstitutionPrice, params.InstitutionValue,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert holding: %w", err)
	}
	return nil
}

func (r *InvestmentRepository) ListPositions(ctx context.Context) ([]*investment.Position, error) {
	query := `
		SELECT h.security_id, s.name, s.ticker_symbol, s.type,
		       h.quantity, h.cost_basis, h.institution_value
		FROM holdings h
		JOIN securities s ON s.security_id = h.security_id
		ORDER BY h.institution_value DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	defer rows.Close()

	var positions []*investment.Position
	for rows.Next() {
		var p investment.Position
		err := rows.Scan(&p.SecurityID, &p.Name, &p.TickerSymbol, &p.Type, &p.Quantity, &p.CostBasis, &p.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, &p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}
