// Package csfloat is a client for the CSFloat marketplace REST API.
package csfloat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Veraticus/stall-keeper/internal/common"
	"github.com/Veraticus/stall-keeper/internal/model"
)

const (
	// DefaultBaseURL is the marketplace API root.
	DefaultBaseURL = "https://csfloat.com/api/v1"
	// DefaultWriteInterval spaces listing and order writes.
	DefaultWriteInterval = 100 * time.Millisecond

	buyOrderPageSize = 100
	stallLimit       = 999
	requestTimeout   = 30 * time.Second
)

// Client talks to the marketplace on behalf of one API key.
type Client struct {
	httpClient  *http.Client
	writeLimit  *rate.Limiter
	apiKey      string
	baseURL     string
	retryPolicy common.RetryOptions
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithWriteInterval sets the minimum spacing between write requests.
// A non-positive interval disables spacing.
func WithWriteInterval(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.writeLimit = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.writeLimit = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithRetryOptions overrides the retry policy for transient failures.
func WithRetryOptions(opts common.RetryOptions) Option {
	return func(c *Client) {
		c.retryPolicy = opts
	}
}

// NewClient creates a client for apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		writeLimit: rate.NewLimiter(rate.Every(DefaultWriteInterval), 1),
		retryPolicy: common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Multiplier:   2.0,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type userResponse struct {
	User model.User `json:"user"`
}

// GetUser returns the account that owns the API key.
func (c *Client) GetUser(ctx context.Context) (*model.User, error) {
	var resp userResponse
	if err := c.get(ctx, "/me", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	return &resp.User, nil
}

// GetInventory returns the items in the account's inventory. The endpoint
// answers either with a bare list or with {"items": [...]}.
func (c *Client) GetInventory(ctx context.Context) ([]model.InventoryItem, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/me/inventory", nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []model.InventoryItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to decode inventory: %w", err)
		}
		return items, nil
	}

	var wrapped struct {
		Items []model.InventoryItem `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode inventory: %w", err)
	}
	if wrapped.Items == nil {
		slog.Warn("Unexpected inventory response format")
		return []model.InventoryItem{}, nil
	}
	return wrapped.Items, nil
}

// GetStall returns the active listings of steamID.
func (c *Client) GetStall(ctx context.Context, steamID string) ([]model.Listing, error) {
	if steamID == "" {
		return nil, fmt.Errorf("steam id is required: %w", common.ErrInvalidConfig)
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(stallLimit))

	var resp struct {
		Data []model.Listing `json:"data"`
	}
	if err := c.get(ctx, "/users/"+url.PathEscape(steamID)+"/stall", query, &resp); err != nil {
		return nil, fmt.Errorf("failed to get stall: %w", err)
	}
	if resp.Data == nil {
		return []model.Listing{}, nil
	}
	return resp.Data, nil
}

// GetBuyOrders returns every standing buy order, newest first. Pages are
// requested until one comes back short.
func (c *Client) GetBuyOrders(ctx context.Context) ([]model.BuyOrder, error) {
	var all []model.BuyOrder

	for page := 0; ; page++ {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("limit", strconv.Itoa(buyOrderPageSize))
		query.Set("order", "desc")

		var resp struct {
			Orders []model.BuyOrder `json:"orders"`
		}
		if err := c.get(ctx, "/me/buy-orders", query, &resp); err != nil {
			return nil, fmt.Errorf("failed to get buy orders page %d: %w", page, err)
		}

		all = append(all, resp.Orders...)
		slog.Debug("Fetched buy order page", "page", page, "orders", len(resp.Orders))

		if len(resp.Orders) < buyOrderPageSize {
			break
		}
	}

	if all == nil {
		all = []model.BuyOrder{}
	}
	return all, nil
}

type createListingRequest struct {
	AssetID string `json:"asset_id"`
	Type    string `json:"type"`
	Price   int    `json:"price"`
}

// CreateListing puts assetID up for sale at priceCents.
func (c *Client) CreateListing(ctx context.Context, assetID string, priceCents int) (*model.Listing, error) {
	body := createListingRequest{AssetID: assetID, Price: priceCents, Type: "buy_now"}

	var listing model.Listing
	if err := c.write(ctx, http.MethodPost, "/listings", body, &listing); err != nil {
		return nil, fmt.Errorf("failed to list asset %s: %w", assetID, err)
	}
	return &listing, nil
}

// UpdateListingPrice changes the price of an active listing.
func (c *Client) UpdateListingPrice(ctx context.Context, listingID string, priceCents int) (*model.Listing, error) {
	body := struct {
		Price int `json:"price"`
	}{Price: priceCents}

	var listing model.Listing
	if err := c.write(ctx, http.MethodPatch, "/listings/"+url.PathEscape(listingID), body, &listing); err != nil {
		return nil, fmt.Errorf("failed to reprice listing %s: %w", listingID, err)
	}
	return &listing, nil
}

// DeleteListing removes a listing from the stall.
func (c *Client) DeleteListing(ctx context.Context, listingID string) error {
	if err := c.write(ctx, http.MethodDelete, "/listings/"+url.PathEscape(listingID), nil, nil); err != nil {
		return fmt.Errorf("failed to delist %s: %w", listingID, err)
	}
	return nil
}

// DeleteBuyOrder cancels a buy order. Only a 200 response counts as deleted.
func (c *Client) DeleteBuyOrder(ctx context.Context, orderID string) error {
	req := request{method: http.MethodDelete, path: "/buy-orders/" + url.PathEscape(orderID), requireOK: true}
	if err := c.send(ctx, req); err != nil {
		return fmt.Errorf("failed to delete buy order %s: %w", orderID, err)
	}
	return nil
}

type request struct {
	body      any
	result    any
	query     url.Values
	method    string
	path      string
	requireOK bool
}

func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	return common.WithRetry(ctx, func() error {
		return c.do(ctx, request{method: http.MethodGet, path: path, query: query, result: result})
	}, c.retryPolicy)
}

func (c *Client) write(ctx context.Context, method, path string, body, result any) error {
	return c.send(ctx, request{method: method, path: path, body: body, result: result})
}

// send waits on the write limiter before every attempt.
func (c *Client) send(ctx context.Context, req request) error {
	return common.WithRetry(ctx, func() error {
		if err := c.writeLimit.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}
		return c.do(ctx, req)
	}, c.retryPolicy)
}

func (c *Client) do(ctx context.Context, r request) error {
	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	var reader io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	slog.Debug("Calling marketplace", "method", r.method, "path", r.path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return &common.RetryableError{
			Err:       fmt.Errorf("%w: %w", common.ErrMarketplaceConnection, err),
			Retryable: true,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := checkResponse(resp.StatusCode, respBody, r.requireOK); err != nil {
		return err
	}

	if r.result == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, r.result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// checkResponse maps a status code to an error. With requireOK set, any
// status other than 200 is a failure.
func checkResponse(status int, body []byte, requireOK bool) error {
	if status == http.StatusOK || (!requireOK && status >= 200 && status < 300) {
		return nil
	}

	apiErr := &APIError{StatusCode: status}
	if len(body) > 0 {
		if jsonErr := json.Unmarshal(body, apiErr); jsonErr != nil {
			apiErr.Message = strings.TrimSpace(string(body))
		}
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %w", common.ErrUnauthorized, apiErr)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, apiErr)
	case retryableStatus(status):
		return &common.RetryableError{Err: apiErr, Retryable: true}
	default:
		return apiErr
	}
}
