package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/institution"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func seedInstitution(t *testing.T, db *DB, name string) *institution.Institution {
	t.Helper()

	inst, err := NewInstitutionRepository(db).Create(context.Background(), institution.CreateParams{
		InstitutionID: "ins_" + name,
		Name:          name,
		AccessToken:   "access-sandbox-" + name,
		ItemID:        "item_" + name,
	})
	require.NoError(t, err)
	require.NotNil(t, inst)

	return inst
}
