package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/institution"
)

type InstitutionRepository struct {
	db *DB
}

func NewInstitutionRepository(db *DB) *InstitutionRepository {
	return &InstitutionRepository{db: db}
}

const institutionColumns = `id, institution_id, name, access_token, item_id, is_active, created_at, updated_at`

func (r *InstitutionRepository) Create(ctx context.Context, params institution.CreateParams) (*institution.Institution, error) {
	query := `
		INSERT INTO institutions (institution_id, name, access_token, item_id, is_active)
		VALUES (?, ?, ?, ?, 1)
	`

	result, err := r.db.ExecContext(ctx, query, params.InstitutionID, params.Name, params.AccessToken, params.ItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to create institution: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get institution id: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *InstitutionRepository) GetByID(ctx context.Context, id int64) (*institution.Institution, error) {
	query := `SELECT ` + institutionColumns + ` FROM institutions WHERE id = ?`

	inst, err := scanInstitution(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get institution: %w", err)
	}
	return inst, nil
}

func (r *InstitutionRepository) ListActive(ctx context.Context) ([]*institution.Institution, error) {
	return r.list(ctx, `SELECT `+institutionColumns+` FROM institutions WHERE is_active = 1 ORDER BY id`)
}

func (r *InstitutionRepository) List(ctx context.Context) ([]*institution.Institution, error) {
	return r.list(ctx, `SELECT `+institutionColumns+` FROM institutions ORDER BY id`)
}

func (r *InstitutionRepository) list(ctx context.Context, query string) ([]*institution.Institution, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list institutions: %w", err)
	}
	defer rows.Close()

	var institutions []*institution.Institution
	for rows.Next() {
		inst, err := scanInstitution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan institution: %w", err)
		}
		institutions = append(institutions, inst)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating institutions: %w", err)
	}

	return institutions, nil
}

// TouchUpdatedAt refreshes updated_at after a successful sync; the health
// check derives freshness from this column.
func (r *InstitutionRepository) TouchUpdatedAt(ctx context.Context, id int64) error {
	query := `UPDATE institutions SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to touch institution: %w", err)
	}
	return nil
}

// RemoveCascade deletes the institution's transactions, holdings, accounts
// and finally the institution itself in one transaction. Any failure rolls
// back all of it.
func (r *InstitutionRepository) RemoveCascade(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	steps := []string{
		`DELETE FROM transactions WHERE institution_id = ?`,
		`DELETE FROM holdings WHERE institution_id = ?`,
		`DELETE FROM accounts WHERE institution_id = ?`,
		`DELETE FROM institutions WHERE id = ?`,
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step, id); err != nil {
			return fmt.Errorf("failed to cascade delete institution %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cascade delete: %w", err)
	}
	return nil
}

// scannable lets row and rows share one scan helper.
type scannable interface {
	Scan(dest ...any) error
}

func scanInstitution(row scannable) (*institution.Institution, error) {
	var inst institution.Institution
	err := row.Scan(
		&inst.ID, &inst.InstitutionID, &inst.Name, &inst.AccessToken,
		&inst.ItemID, &inst.IsActive, &inst.CreatedAt, &inst.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inst, nil
}
