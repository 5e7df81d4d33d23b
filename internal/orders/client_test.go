package orders

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storefront/internal/cart"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Header http.Header
	Body   string
}

// restServer answers every request with status and body and records it.
type restServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
}

func newRESTServer(t *testing.T, status int, body string) *restServer {
	t.Helper()
	rs := &restServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		q := map[string]string{}
		for k := range r.URL.Query() {
			q[k] = r.URL.Query().Get(k)
		}
		rs.mu.Lock()
		rs.requests = append(rs.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  q,
			Header: r.Header.Clone(),
			Body:   string(data),
		})
		rs.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *restServer) last(t *testing.T) recordedRequest {
	t.Helper()
	rs.mu.Lock()
	defer rs.mu.Unlock()
	require.NotEmpty(t, rs.requests)
	return rs.requests[len(rs.requests)-1]
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(ClientConfig{URL: url + "/", APIKey: "anon-key"})
	require.NoError(t, err)
	return c
}

const orderRow = `{
	"id": "8f14e45f-ceea-467f-a0e6-1b3c5e2d9a10",
	"created_at": "2025-03-14T18:30:00.123456+00:00",
	"user_id": "user-1",
	"items": [{"id":"p1","name":"Dosa","price":120,"quantity":2,"delivery_mode":"delivery"}],
	"total_price": 240,
	"status": "pending"
}`

func TestNewClient_RequiresConfig(t *testing.T) {
	_, err := NewClient(ClientConfig{APIKey: "k"})
	assert.Error(t, err)
	_, err = NewClient(ClientConfig{URL: "http://x"})
	assert.Error(t, err)
}

func TestClient_Insert(t *testing.T) {
	srv := newRESTServer(t, http.StatusCreated, "["+orderRow+"]")
	c := newTestClient(t, srv.URL)

	got, err := c.Insert(context.Background(), NewOrder{
		UserID:     "user-1",
		Items:      []LineItem{{Item: cart.Item{ID: "p1", Name: "Dosa", Price: 120, Quantity: 2}, DeliveryMode: DeliveryModeDelivery}},
		TotalPrice: 240,
	})
	require.NoError(t, err)

	assert.Equal(t, "8f14e45f-ceea-467f-a0e6-1b3c5e2d9a10", got.ID)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, 2025, got.CreatedAt.Year())
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)

	req := srv.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/rest/v1/orders", req.Path)
	assert.Equal(t, "anon-key", req.Header.Get("apikey"))
	assert.Equal(t, "Bearer anon-key", req.Header.Get("Authorization"))
	assert.Equal(t, "return=representation", req.Header.Get("Prefer"))

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Body), &sent))
	assert.Equal(t, "pending", sent["status"], "status defaults to pending")
	assert.Equal(t, "user-1", sent["user_id"])
	assert.Equal(t, 240.0, sent["total_price"])
}

func TestClient_List(t *testing.T) {
	srv := newRESTServer(t, http.StatusOK, "["+orderRow+"]")
	c := newTestClient(t, srv.URL)

	got, err := c.List(context.Background(), Filter{UserID: "user-1"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	req := srv.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "eq.user-1", req.Query["user_id"])
	assert.Equal(t, "created_at.desc", req.Query["order"])

	_, err = c.List(context.Background(), Filter{})
	require.NoError(t, err)
	_, scoped := srv.last(t).Query["user_id"]
	assert.False(t, scoped, "empty filter lists every order")
}

func TestClient_GetNotFound(t *testing.T) {
	srv := newRESTServer(t, http.StatusOK, "[]")
	c := newTestClient(t, srv.URL)

	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "eq.missing", srv.last(t).Query["id"])
}

func TestClient_UpdateStatus(t *testing.T) {
	srv := newRESTServer(t, http.StatusNoContent, "")
	c := newTestClient(t, srv.URL)

	require.NoError(t, c.UpdateStatus(context.Background(), "o1", StatusShipped))

	req := srv.last(t)
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "eq.o1", req.Query["id"])
	assert.JSONEq(t, `{"status":"shipped"}`, req.Body)

	assert.Error(t, c.UpdateStatus(context.Background(), "o1", Status("lost")))
}

func TestClient_Delete(t *testing.T) {
	srv := newRESTServer(t, http.StatusNoContent, "")
	c := newTestClient(t, srv.URL)

	require.NoError(t, c.Delete(context.Background(), "o1"))

	req := srv.last(t)
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "eq.o1", req.Query["id"])
}

func TestClient_APIError(t *testing.T) {
	srv := newRESTServer(t, http.StatusForbidden,
		`{"code":"42501","message":"new row violates row-level security policy","details":null,"hint":null}`)
	c := newTestClient(t, srv.URL)

	_, err := c.Insert(context.Background(), NewOrder{UserID: "user-1"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "42501", apiErr.Code)
	assert.Contains(t, err.Error(), "row-level security")
}

func TestClient_APIErrorPlainBody(t *testing.T) {
	srv := newRESTServer(t, http.StatusBadGateway, "upstream unavailable")
	c := newTestClient(t, srv.URL)

	err := c.Delete(context.Background(), "o1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "upstream unavailable", apiErr.Message)
}

func TestClient_RateLimitHonorsContext(t *testing.T) {
	srv := newRESTServer(t, http.StatusOK, "[]")
	c, err := NewClient(ClientConfig{URL: srv.URL, APIKey: "k", RateLimit: 0.001, Burst: 1})
	require.NoError(t, err)

	_, err = c.List(context.Background(), Filter{})
	require.NoError(t, err, "burst allows the first call")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.List(ctx, Filter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}
