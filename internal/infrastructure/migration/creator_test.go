package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/printshop/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add lot expiry", "add_lot_expiry"},
		{"Add-Lot-Expiry", "add_lot_expiry"},
		{"add__lot__expiry", "add_lot_expiry"},
		{"Widen Qty 18", "widen_qty_18"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_stock_core.up.sql"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_stock_core.down.sql"), nil, 0644))

	mf, err := CreateMigration(dir, "add lot expiry", "expiry date on lots")
	require.NoError(t, err)
	assert.Equal(t, uint(2), mf.Version)
	assert.Equal(t, filepath.Join(dir, "000002_add_lot_expiry.up.sql"), mf.UpPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add lot expiry")
	assert.Contains(t, string(up), "-- Description: expiry date on lots")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(Rollback)")

	list, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_stock_core", "000002_add_lot_expiry"}, list)
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations_MissingDir(t *testing.T) {
	list, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEmbeddedMigrations(t *testing.T) {
	up, err := migrations.FS.ReadFile("000001_stock_core.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(up), "CREATE UNIQUE INDEX IF NOT EXISTS idx_lots_purchase_line_id")
	assert.Contains(t, string(up), "qty_out <= qty_in")

	_, err = migrations.FS.ReadFile("000001_stock_core.down.sql")
	require.NoError(t, err)
}
