package clientdata

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func setupRepo(t *testing.T) *Repository {
	repo := NewRepository(setupTestDB(t))
	require.NoError(t, repo.Migrate())
	return repo
}

type testPayload struct {
	Dates  []int64   `msgpack:"dates"`
	Prices []float64 `msgpack:"prices"`
}

func TestRepository_StoreAndGetIfFresh(t *testing.T) {
	repo := setupRepo(t)

	in := testPayload{Dates: []int64{1672617600, 1672704000}, Prices: []float64{100.5, 101.25}}
	require.NoError(t, repo.Store("eodhd_prices", "VTI.US|2023-01-01|2023-02-01", in, time.Hour))

	var out testPayload
	hit, err := repo.GetIfFresh("eodhd_prices", "VTI.US|2023-01-01|2023-02-01", &out)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, in, out)
}

func TestRepository_MissingKey(t *testing.T) {
	repo := setupRepo(t)

	var out testPayload
	hit, err := repo.GetIfFresh("eodhd_prices", "missing", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	hit, err = repo.Get("eodhd_prices", "missing", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRepository_ExpiredVisibleOnlyToGet(t *testing.T) {
	repo := setupRepo(t)

	in := testPayload{Prices: []float64{42}}
	// Negative TTL expires the row immediately.
	require.NoError(t, repo.Store("eodhd_prices", "stale", in, -time.Hour))

	var out testPayload
	hit, err := repo.GetIfFresh("eodhd_prices", "stale", &out)
	require.NoError(t, err)
	assert.False(t, hit, "expired data must not count as fresh")

	hit, err = repo.Get("eodhd_prices", "stale", &out)
	require.NoError(t, err)
	require.True(t, hit, "expired data must still be readable as a fallback")
	assert.Equal(t, []float64{42}, out.Prices)
}

func TestRepository_Overwrite(t *testing.T) {
	repo := setupRepo(t)

	require.NoError(t, repo.Store("eodhd_prices", "k", testPayload{Prices: []float64{1}}, time.Hour))
	require.NoError(t, repo.Store("eodhd_prices", "k", testPayload{Prices: []float64{2}}, time.Hour))

	var out testPayload
	hit, err := repo.GetIfFresh("eodhd_prices", "k", &out)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, []float64{2}, out.Prices)
}

func TestRepository_Delete(t *testing.T) {
	repo := setupRepo(t)

	require.NoError(t, repo.Store("eodhd_prices", "k", testPayload{Prices: []float64{1}}, time.Hour))
	require.NoError(t, repo.Delete("eodhd_prices", "k"))

	var out testPayload
	hit, err := repo.Get("eodhd_prices", "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRepository_DeleteAllExpired(t *testing.T) {
	repo := setupRepo(t)

	require.NoError(t, repo.Store("eodhd_prices", "fresh", testPayload{Prices: []float64{1}}, time.Hour))
	require.NoError(t, repo.Store("eodhd_prices", "stale1", testPayload{Prices: []float64{2}}, -time.Hour))
	require.NoError(t, repo.Store("eodhd_prices", "stale2", testPayload{Prices: []float64{3}}, -time.Hour))

	results, err := repo.DeleteAllExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(2), results["eodhd_prices"])

	var out testPayload
	hit, err := repo.Get("eodhd_prices", "fresh", &out)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestRepository_RejectsUnknownTable(t *testing.T) {
	repo := setupRepo(t)

	err := repo.Store("not_a_table", "k", testPayload{}, time.Hour)
	require.Error(t, err)

	var out testPayload
	_, err = repo.GetIfFresh("not_a_table; DROP TABLE eodhd_prices", "k", &out)
	require.Error(t, err)
}
