package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDB opens GORM over sqlmock with the postgres dialector
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

// newMockDatabase creates a Database instance with a mocked SQL connection
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	gormDB, mock, mockDB := newMockDB(t)
	return &Database{DB: gormDB}, mock, mockDB
}

func TestStockTables(t *testing.T) {
	assert.Equal(t, []string{
		"lots",
		"material_props",
		"materials",
		"purchase_documents",
		"purchase_lines",
		"stock_movements",
		"writeoff_documents",
		"writeoff_lines",
	}, StockTables())
}

func tableRows(names ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"table_name"})
	for _, n := range names {
		rows.AddRow(n)
	}
	return rows
}

func TestDatabase_RequireSchema(t *testing.T) {
	const query = `SELECT table_name FROM information_schema.tables WHERE table_schema = CURRENT_SCHEMA\(\) AND table_name IN`

	t.Run("all tables present", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectQuery(query).WillReturnRows(tableRows(StockTables()...))
		assert.NoError(t, db.RequireSchema(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing tables are named", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectQuery(query).WillReturnRows(tableRows("materials", "lots"))
		err := db.RequireSchema(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "stock_movements")
		assert.Contains(t, err.Error(), "run migrate up")
		assert.NotContains(t, err.Error(), "materials,")
	})

	t.Run("query failure", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectQuery(query).WillReturnError(errors.New("permission denied"))
		err := db.RequireSchema(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to inspect schema")
	})
}

func TestDatabase_Ping(t *testing.T) {
	t.Run("successful ping", func(t *testing.T) {
		mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer mockDB.Close()

		// GORM may ping during Open
		mock.ExpectPing()
		gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}),
			&gorm.Config{SkipDefaultTransaction: true})
		require.NoError(t, err)

		db := &Database{DB: gormDB}
		mock.ExpectPing()
		assert.NoError(t, db.Ping(context.Background()))
	})

	t.Run("cancelled context", func(t *testing.T) {
		db, _, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Error(t, db.Ping(ctx))
	})
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()
	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
