package db

import (
	"context"
	"os"
	"testing"

	"github.com/benjamincozon/shopassist/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs only against a disposable database: TEST_DATABASE_URL=postgres://...
func TestQueries_SeedAndList(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := Connect(ctx, url, 2)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Exec(ctx, `DROP TABLE IF EXISTS products`)
	require.NoError(t, err)

	q := New(pool)
	require.NoError(t, q.Migrate(ctx))

	orig := 1200.0
	rate := 25
	products := []models.Product{
		{ID: "b", Name: "Second in order", Category: "Ev", Price: 900, OriginalPrice: &orig, DiscountRate: &rate, Rating: 4.2, IsFeatured: true, Tags: []string{"Brand"}},
		{ID: "a", Name: "Third in order", Category: "Ev", Price: 100, Rating: 3.9},
	}

	n, err := q.SeedIfEmpty(ctx, products)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = q.SeedIfEmpty(ctx, products)
	require.NoError(t, err)
	assert.Zero(t, n, "second seed must be a no-op")

	got, err := q.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, 900.0, got[0].Price)
	require.NotNil(t, got[0].DiscountRate)
	assert.Equal(t, 25, *got[0].DiscountRate)
	assert.Equal(t, []string{"Brand"}, got[0].Tags)
	assert.Nil(t, got[1].OriginalPrice)
	assert.Empty(t, got[1].Features)
}
