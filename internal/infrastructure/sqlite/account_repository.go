package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/account"
)

type AccountRepository struct {
	db *DB
}

func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, account_id, institution_id, name, official_name, type, subtype, mask,
	       current_balance, available_balance, created_at, updated_at`

func (r *AccountRepository) Upsert(ctx context.Context, params account.UpsertParams) error {
	query := `
		INSERT INTO accounts (account_id, institution_id, name, official_name, type, subtype, mask,
		                      current_balance, available_balance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id) DO UPDATE SET
		    institution_id = excluded.institution_id,
		    name = excluded.name,
		    official_name = excluded.official_name,
		    type = excluded.type,
		    subtype = excluded.subtype,
		    mask = excluded.mask,
		    current_balance = excluded.current_balance,
		    available_balance = excluded.available_balance,
		    updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.ExecContext(ctx, query,
		params.AccountID, params.InstitutionID, params.Name, params.OfficialName,
		params.Type, params.Subtype, params.Mask,
		params.CurrentBalance, params.AvailableBalance,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert account: %w", err)
	}
	return nil
}

func (r *AccountRepository) GetByAccountID(ctx context.Context, accountID string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = ?`

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, accountID))
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

func (r *AccountRepository) ListByInstitution(ctx context.Context, institutionID int64) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE institution_id = ? ORDER BY name`
	return r.list(ctx, query, institutionID)
}

func (r *AccountRepository) List(ctx context.Context) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY institution_id, name`
	return r.list(ctx, query)
}

func (r *AccountRepository) list(ctx context.Context, query string, args ...any) ([]*account.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

func scanAccount(row scannable) (*account.Account, error) {
	var acc account.Account
	err := row.Scan(
		&acc.ID, &acc.AccountID, &acc.InstitutionID, &acc.Name, &acc.OfficialName,
		&acc.Type, &acc.Subtype, &acc.Mask,
		&acc.CurrentBalance, &acc.AvailableBalance,
		&acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}
