package sqlite

import (
	"context"
	"fmt"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/budget"
)

type BudgetRepository struct {
	db *DB
}

func NewBudgetRepository(db *DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

func (r *BudgetRepository) Set(ctx context.Context, category string, monthlyLimit float64) (*budget.Budget, error) {
	query := `
		INSERT INTO budgets (category, monthly_limit)
		VALUES (?, ?)
		ON CONFLICT (category) DO UPDATE SET
		    monthly_limit = excluded.monthly_limit,
		    updated_at = CURRENT_TIMESTAMP
	`

	if _, err := r.db.ExecContext(ctx, query, category, monthlyLimit); err != nil {
		return nil, fmt.Errorf("failed to set budget: %w", err)
	}

	var b budget.Budget
	row := r.db.QueryRowContext(ctx,
		`SELECT id, category, monthly_limit, created_at, updated_at FROM budgets WHERE category = ?`, category)
	if err := row.Scan(&b.ID, &b.Category, &b.MonthlyLimit, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to read back budget: %w", err)
	}
	return &b, nil
}

func (r *BudgetRepository) List(ctx context.Context) ([]*budget.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category, monthly_limit, created_at, updated_at FROM budgets ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []*budget.Budget
	for rows.Next() {
		var b budget.Budget
		if err := rows.Scan(&b.ID, &b.Category, &b.MonthlyLimit, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, &b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}

	return budgets, nil
}

func (r *BudgetRepository) Delete(ctx context.Context, category string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE category = ?`, category)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("budget not found")
	}
	return nil
}
