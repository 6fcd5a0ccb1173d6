package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/printshop/backend/internal/domain/shared"
	"github.com/printshop/backend/internal/domain/stock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostedDoc(t *testing.T) *stock.PurchaseDocument {
	t.Helper()
	doc, err := stock.NewPurchaseDocument(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "Oracal", "INV-1", "cash", stock.VATNone, "")
	require.NoError(t, err)
	doc.Status = stock.StatusPosted
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	doc.PostedAt = &at
	return doc
}

func TestGormPurchaseRepository_TransitionStatus(t *testing.T) {
	t.Run("compare and swap on stored status", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPurchaseRepository(db)
		doc := newPostedDoc(t)
		version := doc.Version

		mock.ExpectExec(`UPDATE "purchase_documents" SET .*"status"=.* WHERE .*id = .* AND status = `).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.TransitionStatus(context.Background(), doc, stock.StatusDraft))
		assert.Equal(t, version+1, doc.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lost race is already finalized", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPurchaseRepository(db)
		doc := newPostedDoc(t)

		mock.ExpectExec(`UPDATE "purchase_documents"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "purchase_documents"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		err := repo.TransitionStatus(context.Background(), doc, stock.StatusDraft)
		assert.ErrorIs(t, err, stock.ErrAlreadyFinalized)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing document is not found", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPurchaseRepository(db)

		mock.ExpectExec(`UPDATE "purchase_documents"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "purchase_documents"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		err := repo.TransitionStatus(context.Background(), newPostedDoc(t), stock.StatusDraft)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormPurchaseRepository_ExistsDocNo(t *testing.T) {
	t.Run("blank number never collides", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()

		exists, err := NewGormPurchaseRepository(db).ExistsDocNo(context.Background(), "Oracal", "  ")
		require.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("matches supplier and number", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "purchase_documents" WHERE supplier = .* AND doc_no = `).
			WithArgs("Oracal", "INV-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		exists, err := NewGormPurchaseRepository(db).ExistsDocNo(context.Background(), " Oracal ", "INV-1")
		require.NoError(t, err)
		assert.True(t, exists)
	})
}
