package csfloat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/stall-keeper/internal/common"
	"github.com/Veraticus/stall-keeper/internal/model"
)

const testKey = "test-api-key"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(testKey,
		WithBaseURL(server.URL+"/api/v1/"),
		WithHTTPClient(server.Client()),
		WithWriteInterval(0),
		WithRetryOptions(common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Millisecond,
			MaxDelay:     5 * time.Millisecond,
		}),
	)
}

func TestGetUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/me", r.URL.Path)
		assert.Equal(t, testKey, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"user":{"steam_id":"76561198000000001","username":"trader","balance":12345}}`)
	})

	user, err := client.GetUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "76561198000000001", user.SteamID)
	assert.Equal(t, "trader", user.Username)
	assert.Equal(t, 12345, user.Balance)
}

func TestGetInventory(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare list", `[{"asset_id":"1","market_hash_name":"AK-47 | Redline (Field-Tested)","float_value":0.21}]`, 1},
		{"wrapped", `{"items":[{"asset_id":"1"},{"asset_id":"2"}]}`, 2},
		{"unexpected shape", `{"something":"else"}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/me/inventory", r.URL.Path)
				_, _ = io.WriteString(w, tt.body)
			})

			items, err := client.GetInventory(context.Background())
			require.NoError(t, err)
			assert.Len(t, items, tt.want)
		})
	}
}

func TestGetStall(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/7656/stall", r.URL.Path)
		assert.Equal(t, "999", r.URL.Query().Get("limit"))
		_, _ = io.WriteString(w, `{"data":[{"id":"L1","price":1500,"type":"buy_now","created_at":"2024-05-01T10:00:00Z","item":{"asset_id":"A1"}}]}`)
	})

	listings, err := client.GetStall(context.Background(), "7656")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "L1", listings[0].ID)
	assert.Equal(t, 1500, listings[0].Price)
	assert.Equal(t, "A1", listings[0].Item.AssetID)
	assert.True(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC).Equal(listings[0].CreatedAt))

	_, err = client.GetStall(context.Background(), "")
	require.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestGetBuyOrdersPaginates(t *testing.T) {
	var pages []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/me/buy-orders", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "desc", r.URL.Query().Get("order"))

		page := r.URL.Query().Get("page")
		pages = append(pages, page)

		count := 100
		if page == "1" {
			count = 42
		}
		orders := make([]model.BuyOrder, count)
		for i := range orders {
			orders[i] = model.BuyOrder{ID: page + "-" + strconv.Itoa(i), Price: 100}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"orders": orders})
	})

	orders, err := client.GetBuyOrders(context.Background())
	require.NoError(t, err)
	assert.Len(t, orders, 142)
	assert.Equal(t, []string{"0", "1"}, pages)
	assert.Equal(t, "0-0", orders[0].ID)
	assert.Equal(t, "1-41", orders[141].ID)
}

func TestGetBuyOrdersEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"orders":[]}`)
	})

	orders, err := client.GetBuyOrders(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)
}

func TestCreateListing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/listings", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"asset_id": "A1", "price": float64(1234), "type": "buy_now"}, body)

		_, _ = io.WriteString(w, `{"id":"L9","price":1234}`)
	})

	listing, err := client.CreateListing(context.Background(), "A1", 1234)
	require.NoError(t, err)
	assert.Equal(t, "L9", listing.ID)
}

func TestCreateListingKYC(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":4,"message":"kyc required"}`)
	})

	_, err := client.CreateListing(context.Background(), "A1", 9_000_000)
	require.ErrorIs(t, err, ErrKYCRequired)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 4, apiErr.Code)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestBadRequestWithoutKYCCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":12,"message":"invalid price"}`)
	})

	_, err := client.UpdateListingPrice(context.Background(), "L1", 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrKYCRequired)
	assert.Contains(t, err.Error(), "invalid price")
}

func TestUpdateListingPrice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v1/listings/L1", r.URL.Path)

		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]int{"price": 990}, body)

		_, _ = io.WriteString(w, `{"id":"L1","price":990}`)
	})

	listing, err := client.UpdateListingPrice(context.Background(), "L1", 990)
	require.NoError(t, err)
	assert.Equal(t, 990, listing.Price)
}

func TestDeleteListing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/listings/L1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.DeleteListing(context.Background(), "L1"))
}

func TestDeleteBuyOrder(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"ok", http.StatusOK, false},
		{"no content is not success", http.StatusNoContent, true},
		{"not found", http.StatusNotFound, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodDelete, r.Method)
				assert.Equal(t, "/api/v1/buy-orders/O1", r.URL.Path)
				w.WriteHeader(tt.status)
			})

			err := client.DeleteBuyOrder(context.Background(), "O1")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = io.WriteString(w, `{"user":{"username":"trader"}}`)
		}
	})

	user, err := client.GetUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "trader", user.Username)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.GetUser(context.Background())
	require.ErrorIs(t, err, common.ErrMaxRetries)
	assert.Equal(t, int32(3), calls.Load())
}

func TestUnauthorizedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.GetUser(context.Background())
	require.ErrorIs(t, err, common.ErrUnauthorized)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWriteInterval(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	client := NewClient(testKey, WithBaseURL(server.URL), WithWriteInterval(20*time.Millisecond))

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, client.DeleteBuyOrder(context.Background(), fmt.Sprint(i)))
	}
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{StatusCode: http.StatusNotFound}
	assert.Equal(t, "csfloat API error: 404 Not Found", err.Error())

	err = &APIError{StatusCode: http.StatusBadRequest, Code: 4, Message: "kyc"}
	assert.True(t, errors.Is(err, ErrKYCRequired))
}
