package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/transaction"
)

type TransactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const entryColumns = `id, transaction_id, account_id, institution_id, amount, date, name, merchant_name,
	       category_primary, category_detailed, type, pending, created_at, updated_at`

// Upsert inserts a ledger entry or overwrites it when the external
// transaction id already exists. This is the reconciliation idempotency
// mechanism: re-applying a page is always safe.
func (r *TransactionRepository) Upsert(ctx context.Context, params transaction.UpsertParams) error {
	query := `
		INSERT INTO transactions (transaction_id, account_id, institution_id, amount, date, name,
		                          merchant_name, category_primary, category_detailed, type, pending)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (transaction_id) DO UPDATE SET
		    account_id = excluded.account_id,
		    institution_id = excluded.institution_id,
		    amount = excluded.amount,
		    date = excluded.date,
		    name = excluded.name,
		    merchant_name = excluded.merchant_name,
		    category_primary = excluded.category_primary,
		    category_detailed = excluded.category_detailed,
		    type = excluded.type,
		    pending = excluded.pending,
		    updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.ExecContext(ctx, query,
		params.TransactionID, params.AccountID, params.InstitutionID,
		params.Amount, params.Date, params.Name, params.MerchantName,
		params.CategoryPrimary, params.CategoryDetailed, params.Type, params.Pending,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert transaction: %w", err)
	}
	return nil
}

// Update overwrites the non-nil fields of an existing entry. Returns
// transaction.ErrNotFound when the id is absent.
func (r *TransactionRepository) Update(ctx context.Context, transactionID string, params transaction.UpdateParams) error {
	query := `
		UPDATE transactions
		SET amount = COALESCE(?, amount),
		    date = COALESCE(?, date),
		    name = COALESCE(?, name),
		    merchant_name = COALESCE(?, merchant_name),
		    category_primary = COALESCE(?, category_primary),
		    category_detailed = COALESCE(?, category_detailed),
		    type = COALESCE(?, type),
		    pending = COALESCE(?, pending),
		    updated_at = CURRENT_TIMESTAMP
		WHERE transaction_id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		params.Amount, params.Date, params.Name, params.MerchantName,
		params.CategoryPrimary, params.CategoryDetailed, params.Type, params.Pending,
		transactionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return transaction.ErrNotFound
	}
	return nil
}

// Delete removes an entry. Absent ids are a no-op.
func (r *TransactionRepository) Delete(ctx context.Context, transactionID string) error {
	query := `DELETE FROM transactions WHERE transaction_id = ?`
	if _, err := r.db.ExecContext(ctx, query, transactionID); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) Query(ctx context.Context, filter transaction.Filter) ([]*transaction.Entry, error) {
	where, args := buildWhere(filter)

	query := `SELECT ` + entryColumns + ` FROM transactions` + where + orderClause(filter)
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var entries []*transaction.Entry
	for rows.Next() {
		var entry transaction.Entry
		err := rows.Scan(
			&entry.ID, &entry.TransactionID, &entry.AccountID, &entry.InstitutionID,
			&entry.Amount, &entry.Date, &entry.Name, &entry.MerchantName,
			&entry.CategoryPrimary, &entry.CategoryDetailed, &entry.Type, &entry.Pending,
			&entry.CreatedAt, &entry.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return entries, nil
}

func (r *TransactionRepository) Count(ctx context.Context, filter transaction.Filter) (int64, error) {
	where, args := buildWhere(filter)

	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// Summarize computes grouped sums over the signed-amount convention:
// amount > 0 is spending, amount < 0 is income (absolute value).
func (r *TransactionRepository) Summarize(ctx context.Context, filter transaction.Filter) (*transaction.Summary, error) {
	where, args := buildWhere(filter)

	summary := &transaction.Summary{
		ByCategory:    []transaction.CategoryTotal{},
		ByInstitution: []transaction.InstitutionTotal{},
	}

	totalsQuery := `
		SELECT COALESCE(SUM(CASE WHEN amount > 0 THEN amount ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN amount < 0 THEN -amount ELSE 0 END), 0)
		FROM transactions` + where
	err := r.db.QueryRowContext(ctx, totalsQuery, args...).Scan(&summary.TotalSpending, &summary.TotalIncome)
	if err != nil {
		return nil, fmt.Errorf("failed to compute totals: %w", err)
	}

	categoryQuery := `
		SELECT category_primary, COALESCE(SUM(amount), 0), COUNT(*)
		FROM transactions` + where + `
		GROUP BY category_primary
		ORDER BY SUM(amount) DESC`
	rows, err := r.db.QueryContext(ctx, categoryQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to compute category totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ct transaction.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total, &ct.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		summary.ByCategory = append(summary.ByCategory, ct)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category totals: %w", err)
	}

	qualifiedWhere, qualifiedArgs := buildWhereQualified(filter, "t.")
	institutionQuery := `
		SELECT t.institution_id, i.name, COALESCE(SUM(t.amount), 0), COUNT(*)
		FROM transactions t
		JOIN institutions i ON i.id = t.institution_id` + qualifiedWhere + `
		GROUP BY t.institution_id, i.name
		ORDER BY t.institution_id`
	instRows, err := r.db.QueryContext(ctx, institutionQuery, qualifiedArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to compute institution totals: %w", err)
	}
	defer instRows.Close()

	for instRows.Next() {
		var it transaction.InstitutionTotal
		if err := instRows.Scan(&it.InstitutionID, &it.Name, &it.Total, &it.Count); err != nil {
			return nil, fmt.Errorf("failed to scan institution total: %w", err)
		}
		summary.ByInstitution = append(summary.ByInstitution, it)
	}
	if err = instRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating institution totals: %w", err)
	}

	return summary, nil
}

// buildWhere assembles a WHERE clause from a typed filter. Every value is
// bound positionally; no user input is ever concatenated into the SQL text.
func buildWhere(f transaction.Filter) (string, []any) {
	return buildWhereQualified(f, "")
}

// buildWhereQualified is buildWhere with an optional column qualifier
// (e.g. "t.") for joined queries.
func buildWhereQualified(f transaction.Filter, q string) (string, []any) {
	var conds []string
	var args []any

	if f.InstitutionID != nil {
		conds = append(conds, q+"institution_id = ?")
		args = append(args, *f.InstitutionID)
	}
	if len(f.AccountIDs) > 0 {
		placeholders := strings.Repeat("?,", len(f.AccountIDs))
		conds = append(conds, q+"account_id IN ("+placeholders[:len(placeholders)-1]+")")
		for _, id := range f.AccountIDs {
			args = append(args, id)
		}
	}
	if f.Category != "" {
		conds = append(conds, q+"category_primary = ?")
		args = append(args, f.Category)
	}
	if f.StartDate != nil {
		conds = append(conds, q+"date >= ?")
		args = append(args, *f.StartDate)
	}
	if f.EndDate != nil {
		conds = append(conds, q+"date <= ?")
		args = append(args, *f.EndDate)
	}
	if f.Search != "" {
		conds = append(conds, "("+q+"name LIKE ? OR "+q+"merchant_name LIKE ?)")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern)
	}
	if f.MinAmount != nil {
		conds = append(conds, q+"amount >= ?")
		args = append(args, *f.MinAmount)
	}
	if f.MaxAmount != nil {
		conds = append(conds, q+"amount <= ?")
		args = append(args, *f.MaxAmount)
	}
	if f.Pending != nil {
		conds = append(conds, q+"pending = ?")
		args = append(args, *f.Pending)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// orderClause maps the filter's sort field onto a whitelisted column.
// Unknown fields fall back to date. The direction applies to the default
// date sort as well, so an ascending request without a sort field works.
func orderClause(f transaction.Filter) string {
	column := "date"
	switch f.SortBy {
	case transaction.SortByAmount:
		column = "amount"
	case transaction.SortByName:
		column = "name"
	case transaction.SortByDate, "":
		column = "date"
	}

	dir := "DESC"
	if f.SortAsc {
		dir = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id DESC", column, dir)
}
