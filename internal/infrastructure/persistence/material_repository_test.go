package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/printshop/backend/internal/domain/shared"
	"github.com/printshop/backend/internal/domain/stock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormMaterialRepository_LockByID(t *testing.T) {
	t.Run("share lock keeps the props", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		id := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "materials" WHERE id = .* FOR SHARE`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "base_uom", "is_lot_tracked", "is_void"}).
				AddRow(id.String(), "Delivery", "pcs", false, false))
		mock.ExpectQuery(`SELECT \* FROM "material_props" WHERE material_id = `).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"material_id", "prop_key", "prop_value"}).
				AddRow(id.String(), stock.PropMinStockBase, "3"))

		m, err := NewGormMaterialRepository(db).LockByID(context.Background(), id, stock.LockShare)
		require.NoError(t, err)
		assert.False(t, m.IsLotTracked)
		assert.Equal(t, "3", m.Prop(stock.PropMinStockBase))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update lock", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "materials" WHERE id = .* FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := NewGormMaterialRepository(db).LockByID(context.Background(), uuid.New(), stock.LockUpdate)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lock timeout is contention", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "materials"`).
			WillReturnError(&pgconn.PgError{Code: "55P03"})

		_, err := NewGormMaterialRepository(db).LockByID(context.Background(), uuid.New(), stock.LockUpdate)
		assert.ErrorIs(t, err, stock.ErrContention)
	})
}

func TestGormPurchaseRepository_HasDraftLines(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	materialID := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "purchase_lines" JOIN purchase_documents .* WHERE purchase_lines.material_id = .* AND purchase_documents.status = `).
		WithArgs(materialID, "DRAFT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	has, err := NewGormPurchaseRepository(db).HasDraftLines(context.Background(), materialID)
	require.NoError(t, err)
	assert.True(t, has)
	assert.NoError(t, mock.ExpectationsWereMet())
}
