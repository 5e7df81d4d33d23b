package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storefront/internal/address"
	"github.com/roach88/storefront/internal/app"
	"github.com/roach88/storefront/internal/orders"
	"github.com/roach88/storefront/internal/state"
	"github.com/roach88/storefront/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	app    *app.App
	kv     *store.Memory
	router *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	kv := store.NewMemory(nil)

	a, err := app.New(kv, app.Options{
		Logger:   state.DiscardLogger(),
		Registry: reg,
		IDs:      address.NewFixedGenerator("addr-1", "addr-2"),
	})
	require.NoError(t, err)
	require.NoError(t, a.Start(ctx))
	t.Cleanup(func() { a.Close(ctx) })

	return &fixture{app: a, kv: kv, router: NewRouter(a, reg, state.DiscardLogger())}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestCart_AddUpdateRemove(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/cart/items", `{"id":"p1","name":"Dosa","price":120}`)
	require.Equal(t, http.StatusOK, w.Code)
	f.do(t, http.MethodPost, "/cart/items", `{"id":"p1","name":"Dosa","price":120}`)

	var got cartResponse
	decode(t, f.do(t, http.MethodGet, "/cart", ""), &got)
	assert.Equal(t, 240.0, got.Total)
	assert.Equal(t, 2, got.Count)

	w = f.do(t, http.MethodPatch, "/cart/items/p1", `{"quantity":5}`)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &got)
	assert.Equal(t, 600.0, got.Total)

	w = f.do(t, http.MethodPatch, "/cart/items/p1", `{"quantity":0}`)
	decode(t, w, &got)
	assert.Empty(t, got.Items)
}

func TestCart_RejectsInvalidInput(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/cart/items", `{"id":"p1","name":"Dosa","price":-3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "price")

	w = f.do(t, http.MethodPost, "/cart/items", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPatch, "/cart/items/p1", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, f.app.Cart.Items())
}

func TestCart_ClearPersists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.do(t, http.MethodPost, "/cart/items", `{"id":"p1","name":"Dosa","price":120}`)
	f.do(t, http.MethodDelete, "/cart", "")
	require.NoError(t, f.app.Flush(ctx))

	v, ok, err := f.kv.Get(ctx, "@cart")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[]`, v)
}

func TestFavorites(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPost, "/favorites", `{"id":"p1","name":"Dosa","price":120}`)
	f.do(t, http.MethodPost, "/favorites", `{"id":"p1","name":"Other","price":1}`)

	var list struct {
		Favorites []map[string]any `json:"favorites"`
	}
	decode(t, f.do(t, http.MethodGet, "/favorites", ""), &list)
	require.Len(t, list.Favorites, 1)
	assert.Equal(t, "Dosa", list.Favorites[0]["name"])

	var check struct {
		Favorite bool `json:"favorite"`
	}
	decode(t, f.do(t, http.MethodGet, "/favorites/p1", ""), &check)
	assert.True(t, check.Favorite)

	f.do(t, http.MethodDelete, "/favorites/p1", "")
	decode(t, f.do(t, http.MethodGet, "/favorites/p1", ""), &check)
	assert.False(t, check.Favorite)
}

func TestAddresses(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/addresses",
		`{"name":"Asha","street":"12 MG Road","city":"Pune","zip":"411001","phone":"98765 43210","type":"Home"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created address.Address
	decode(t, w, &created)
	assert.Equal(t, "addr-1", created.ID)

	w = f.do(t, http.MethodPost, "/addresses",
		`{"name":"","street":"x","city":"Pune","zip":"1","phone":"1","type":"Castle"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"fields"`)

	w = f.do(t, http.MethodDelete, "/addresses/addr-1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(t, http.MethodDelete, "/addresses/unknown", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	assert.Empty(t, f.app.Addresses.Addresses())
}

func TestTheme(t *testing.T) {
	f := newFixture(t)

	var got struct {
		Dark    bool              `json:"dark"`
		Palette map[string]string `json:"palette"`
	}
	decode(t, f.do(t, http.MethodGet, "/theme", ""), &got)
	assert.False(t, got.Dark)
	assert.Equal(t, "#F1F2F6", got.Palette["background"])

	decode(t, f.do(t, http.MethodPost, "/theme/toggle", ""), &got)
	assert.True(t, got.Dark)
	assert.Equal(t, "#121212", got.Palette["background"])
}

func TestNotificationPreference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var got struct {
		Enabled bool `json:"enabled"`
		Set     bool `json:"set"`
	}
	decode(t, f.do(t, http.MethodGet, "/preferences/notifications", ""), &got)
	assert.True(t, got.Enabled)
	assert.False(t, got.Set)

	w := f.do(t, http.MethodPut, "/preferences/notifications", `{"enabled":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &got)
	assert.False(t, got.Enabled)
	assert.True(t, got.Set)
	v, _, err := f.kv.Get(ctx, orders.PrefKey)
	require.NoError(t, err)
	assert.Equal(t, "false", v)

	f.do(t, http.MethodPut, "/preferences/notifications", `{"enabled":true}`)
	v, _, err = f.kv.Get(ctx, orders.PrefKey)
	require.NoError(t, err)
	assert.Equal(t, "true", v)

	w = f.do(t, http.MethodPut, "/preferences/notifications", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	decode(t, f.do(t, http.MethodDelete, "/preferences/notifications", ""), &got)
	assert.True(t, got.Enabled)
	assert.False(t, got.Set)
	_, ok, err := f.kv.Get(ctx, orders.PrefKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestToast(t *testing.T) {
	f := newFixture(t)
	f.app.Toasts.Show("Order Confirmed", "The restaurant has accepted your order.")

	var got map[string]any
	decode(t, f.do(t, http.MethodGet, "/toast", ""), &got)
	assert.Equal(t, true, got["visible"])
	assert.Equal(t, "Order Confirmed", got["title"])
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/theme/toggle", "")

	w := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "storefront_state_loads_total")
	assert.Contains(t, w.Body.String(), "storefront_state_mutations_total")
}
