package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cropadvisor/backend/internal/domain"
	"github.com/cropadvisor/backend/internal/infrastructure/persistence/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T, path string) *Store {
	t.Helper()
	store, err := Open(context.Background(), "sqlite", path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SQLite(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.Store {
		return openSQLite(t, filepath.Join(t.TempDir(), "advisor.db"))
	})
}

func TestOpen_MigrationsAppliedOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "advisor.db")
	ctx := context.Background()

	first, err := Open(ctx, "sqlite", path, nil)
	require.NoError(t, err)
	require.NoError(t, first.CreateMeasurement(ctx, &domain.MeasurementRecord{ID: "m1", UserID: "u1"}))
	require.NoError(t, first.Close())

	second := openSQLite(t, path)

	var count int
	require.NoError(t, second.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, len(migrations), count)

	got, err := second.GetMeasurement(ctx, "u1", "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", got.ID)
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, "oracle", "dsn", nil)
	assert.ErrorContains(t, err, "unsupported store driver")

	_, err = Open(ctx, "sqlite", "", nil)
	assert.ErrorContains(t, err, "empty dsn")
}

func TestStore_NilAlternatesStoredAsEmpty(t *testing.T) {
	store := openSQLite(t, filepath.Join(t.TempDir(), "advisor.db"))
	ctx := context.Background()

	require.NoError(t, store.SaveCropRecommendation(ctx, &domain.CropRecommendationRecord{
		ID: "c1", UserID: "u1", MeasurementID: "m1",
		CropRecommendation: domain.CropRecommendation{Crop: domain.CropWheat},
	}))

	rows, err := store.ListCropRecommendations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotNil(t, rows[0].Alternates)
	assert.Empty(t, rows[0].Alternates)
}

func TestDialect_Rebind(t *testing.T) {
	tests := []struct {
		driver string
		query  string
		want   string
	}{
		{"sqlite", "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{"mysql", "DELETE FROM t WHERE id = ?", "DELETE FROM t WHERE id = ?"},
		{"postgres", "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{"postgres", "INSERT INTO t VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			"INSERT INTO t VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)"},
		{"postgres", "SELECT 1", "SELECT 1"},
	}

	for _, tt := range tests {
		t.Run(tt.driver+"/"+tt.query, func(t *testing.T) {
			d, err := LookupDialect(tt.driver)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Rebind(tt.query))
		})
	}
}

func TestLookupDialect(t *testing.T) {
	d, err := LookupDialect("Postgres")
	require.NoError(t, err)
	assert.Equal(t, "pgx", d.Driver)

	d, err = LookupDialect("mysql")
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Driver)

	_, err = LookupDialect("memory")
	assert.Error(t, err)
}
