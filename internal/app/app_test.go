package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storefront/internal/address"
	"github.com/roach88/storefront/internal/cart"
	"github.com/roach88/storefront/internal/favorites"
	"github.com/roach88/storefront/internal/state"
	"github.com/roach88/storefront/internal/store"
)

func testOptions() Options {
	return Options{
		Logger:   state.DiscardLogger(),
		Registry: prometheus.NewRegistry(),
		IDs:      address.NewFixedGenerator("addr-1", "addr-2"),
	}
}

func TestApp_SeedsFromStore(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory(map[string]string{
		cart.Key:      `[{"id":"p1","name":"Dosa","price":120,"quantity":2}]`,
		favorites.Key: `[{"id":"p9","name":"Idli","price":60}]`,
		"@theme":      "dark",
	})

	a, err := New(kv, testOptions())
	require.NoError(t, err)
	require.NoError(t, a.Start(ctx))
	defer a.Close(ctx)

	assert.Equal(t, 240.0, a.Cart.Total())
	assert.True(t, a.Favorites.IsFavorite("p9"))
	assert.True(t, a.Theme.IsDark())
	assert.Empty(t, a.Addresses.Addresses())
}

func TestApp_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storefront.db")

	a, err := Open(path, testOptions())
	require.NoError(t, err)
	require.NoError(t, a.Start(ctx))

	a.Cart.AddToCart(cart.Product{ID: "p1", Name: "Dosa", Price: 120})
	a.Addresses.AddAddress(address.Fields{Name: "Home", Street: "1 Main", City: "Pune", Zip: "411001", Phone: "98765", Type: address.TypeHome})
	a.Theme.Toggle()
	require.NoError(t, a.Close(ctx))

	b, err := Open(path, testOptions())
	require.NoError(t, err)
	require.NoError(t, b.Start(ctx))
	defer b.Close(ctx)

	assert.Len(t, b.Cart.Items(), 1)
	require.Len(t, b.Addresses.Addresses(), 1)
	assert.Equal(t, "addr-1", b.Addresses.Addresses()[0].ID)
	assert.True(t, b.Theme.IsDark())

	snap, err := b.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dark", snap["@theme"])
}

func TestApp_FlushWritesThrough(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory(nil)

	a, err := New(kv, testOptions())
	require.NoError(t, err)
	require.NoError(t, a.Start(ctx))
	defer a.Close(ctx)

	a.Favorites.AddToFavorites(favorites.Product{ID: "p1", Name: "Dosa", Price: 120})
	require.NoError(t, a.Flush(ctx))

	v, ok, err := kv.Get(ctx, favorites.Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":"p1","name":"Dosa","price":120}]`, v)
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/storefront.db", testOptions())
	assert.Error(t, err)
}
