package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const table = "orders"

// APIError is a non-2xx response from the REST endpoint.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("orders api: status %d", e.Status)
	}
	if e.Code == "" {
		return fmt.Sprintf("orders api: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("orders api: status %d: %s (%s)", e.Status, e.Message, e.Code)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client

	// RateLimit is the sustained requests per second. Zero disables limiting.
	RateLimit float64
	Burst     int

	Logger *slog.Logger
}

// Client implements Service over the PostgREST API and the realtime socket.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

var _ Service = (*Client)(nil)

// NewClient validates cfg and creates a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("APIKey is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger,
	}, nil
}

// Insert creates an order and returns the stored row.
func (c *Client) Insert(ctx context.Context, o NewOrder) (Order, error) {
	if o.Status == "" {
		o.Status = StatusPending
	}
	body, err := json.Marshal(o)
	if err != nil {
		return Order{}, fmt.Errorf("encode order: %w", err)
	}

	var rows []Order
	err = c.do(ctx, http.MethodPost, nil, bytes.NewReader(body), "return=representation", &rows)
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}
	if len(rows) == 0 {
		return Order{}, fmt.Errorf("insert order: empty representation")
	}
	return rows[0], nil
}

// List returns orders newest first, restricted to f.UserID when set.
func (c *Client) List(ctx context.Context, f Filter) ([]Order, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc")
	if f.UserID != "" {
		q.Set("user_id", "eq."+f.UserID)
	}

	rows := []Order{}
	if err := c.do(ctx, http.MethodGet, q, nil, "", &rows); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return rows, nil
}

// Get returns the order with id, or ErrNotFound.
func (c *Client) Get(ctx context.Context, id string) (Order, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "eq."+id)
	q.Set("limit", "1")

	var rows []Order
	if err := c.do(ctx, http.MethodGet, q, nil, "", &rows); err != nil {
		return Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	if len(rows) == 0 {
		return Order{}, fmt.Errorf("get order %s: %w", id, ErrNotFound)
	}
	return rows[0], nil
}

// UpdateStatus sets the status of order id.
func (c *Client) UpdateStatus(ctx context.Context, id string, status Status) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	body, err := json.Marshal(map[string]Status{"status": status})
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	q := url.Values{}
	q.Set("id", "eq."+id)
	if err := c.do(ctx, http.MethodPatch, q, bytes.NewReader(body), "return=minimal", nil); err != nil {
		return fmt.Errorf("update order %s: %w", id, err)
	}
	return nil
}

// Delete removes order id.
func (c *Client) Delete(ctx context.Context, id string) error {
	q := url.Values{}
	q.Set("id", "eq."+id)
	if err := c.do(ctx, http.MethodDelete, q, nil, "return=minimal", nil); err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	return nil
}

// Subscribe opens a realtime connection for userID's order updates.
func (c *Client) Subscribe(ctx context.Context, userID string, fn func(Order)) (Subscription, error) {
	rt := NewRealtime(c.baseURL, c.apiKey, c.logger)
	return rt.Subscribe(ctx, userID, fn)
}

// do sends one request to the orders table and decodes the response into
// out when out is non-nil.
func (c *Client) do(ctx context.Context, method string, q url.Values, body io.Reader, prefer string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	reqURL := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	if len(q) > 0 {
		reqURL += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if jerr := json.Unmarshal(data, apiErr); jerr != nil {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		c.logger.Debug("orders api error", "method", method, "status", resp.StatusCode, "code", apiErr.Code)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
