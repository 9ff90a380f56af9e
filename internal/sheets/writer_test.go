package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/stall-keeper/internal/expression"
	"github.com/Veraticus/stall-keeper/internal/inventory"
	"github.com/Veraticus/stall-keeper/internal/model"
	"github.com/Veraticus/stall-keeper/internal/orders"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		config  Config
		wantErr bool
	}{
		{
			name: "valid oauth config",
			config: Config{
				ClientID:      "test-client",
				ClientSecret:  "test-secret",
				RefreshToken:  "test-token",
				BatchSize:     100,
				RetryAttempts: 3,
				RetryDelay:    time.Second,
			},
		},
		{
			name: "valid service account config",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
				RetryAttempts:      3,
				RetryDelay:         time.Second,
			},
		},
		{
			name: "partial oauth credentials",
			config: Config{
				ClientID:      "test-client",
				RefreshToken:  "test-token",
				BatchSize:     100,
				RetryAttempts: 3,
			},
			wantErr: true,
			errMsg:  "no authentication method configured",
		},
		{
			name: "multiple auth methods",
			config: Config{
				ClientID:           "test-client",
				ClientSecret:       "test-secret",
				RefreshToken:       "test-token",
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
			},
			wantErr: true,
			errMsg:  "multiple authentication methods configured",
		},
		{
			name: "invalid batch size",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          0,
			},
			wantErr: true,
			errMsg:  "batch size must be positive",
		},
		{
			name: "negative retry attempts",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
				RetryAttempts:      -1,
			},
			wantErr: true,
			errMsg:  "retry attempts cannot be negative",
		},
		{
			name: "negative retry delay",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
				RetryDelay:         -time.Second,
			},
			wantErr: true,
			errMsg:  "retry delay cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.True(t, config.EnableFormatting)
	assert.Equal(t, DefaultSpreadsheetName, config.SpreadsheetName)
	assert.Equal(t, "UTC", config.TimeZone)
	assert.Equal(t, 1000, config.BatchSize)
	assert.Equal(t, 3, config.RetryAttempts)
	assert.Equal(t, time.Second, config.RetryDelay)
}

func TestOrdersTable(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	rows := []orders.Row{
		{
			Order:   model.BuyOrder{ID: "O1", Price: 1550, Qty: 3, CreatedAt: now.Add(-26 * time.Hour)},
			Account: "main",
			Label:   expression.Label{Text: "[AK-47 | Redline]"},
			Locked:  true,
		},
		{
			Order:   model.BuyOrder{ID: "O2", Price: 40},
			Account: "alt",
			Label: expression.Label{
				Text:          "[Float 0 - 1] + [StatTrak][AWP | Dragon Lore]",
				Contradiction: true,
				Tooltip:       expression.ContradictionTooltip,
			},
		},
	}

	table := OrdersTable(rows, now)
	assert.Equal(t, OrdersTab, table.Title)
	require.Len(t, table.Rows, 2)

	assert.Equal(t, []any{"[AK-47 | Redline]", 3, decimal.New(1550, -2), "1d 2h", "O1", "main", true, ""}, table.Rows[0])
	assert.Equal(t, 1, table.Rows[1][1])
	assert.Equal(t, inventory.UnknownTime, table.Rows[1][3])
	assert.Equal(t, expression.ContradictionTooltip, table.Rows[1][7])

	values := table.Values()
	require.Len(t, values, 3)
	assert.Equal(t, "Order", values[0][0])
}

func TestInventoryTable(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	rows := []inventory.Row{
		{
			Account: "main",
			Item: model.InventoryItem{
				AssetID:        "A1",
				MarketHashName: "AK-47 | Redline (Field-Tested)",
				FloatValue:     0.2,
				PaintSeed:      661,
				Rarity:         model.RarityClassified,
			},
			ListingID: "L1",
			Price:     1200,
			ListedAt:  now.Add(-3 * time.Hour),
		},
		{
			Account: "main",
			Item:    model.InventoryItem{AssetID: "A2", MarketHashName: "Sticker | Titan (Holo) | Katowice 2014"},
		},
	}

	table := InventoryTable(rows, now)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []any{
		"AK-47 | Redline (Field-Tested)", 0.2, 661, model.RarityClassified.String(), "FT",
		decimal.New(1200, -2), "0d 3h", "A1", "L1", "main",
	}, table.Rows[0])
	assert.Equal(t, "", table.Rows[1][5])
	assert.Equal(t, "", table.Rows[1][6])
}

type fakeSheetsAPI struct {
	requests []string
	written  sheets.ValueRange
	mu       sync.Mutex
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	path := r.URL.Path
	f.requests = append(f.requests, r.Method+" "+path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && path == "/v4/spreadsheets":
		_, _ = io.WriteString(w, `{"spreadsheetId":"S1","spreadsheetUrl":"https://example.test/S1",
			"sheets":[{"properties":{"sheetId":7,"title":"Buy Orders"}}]}`)
	case strings.HasSuffix(path, ":clear"):
		_, _ = io.WriteString(w, `{"spreadsheetId":"S1"}`)
	case r.Method == http.MethodPut:
		_ = json.Unmarshal(body, &f.written)
		_, _ = io.WriteString(w, `{"spreadsheetId":"S1"}`)
	case strings.HasSuffix(path, ":batchUpdate"):
		_, _ = io.WriteString(w, `{"spreadsheetId":"S1","replies":[{}]}`)
	default:
		http.NotFound(w, r)
	}
}

func TestWriter_Write(t *testing.T) {
	api := &fakeSheetsAPI{}
	server := httptest.NewServer(api)
	defer server.Close()

	ctx := context.Background()
	srv, err := sheets.NewService(ctx,
		option.WithHTTPClient(server.Client()),
		option.WithEndpoint(server.URL+"/"))
	require.NoError(t, err)

	config := DefaultConfig()
	config.RetryDelay = time.Millisecond
	writer := newWriter(srv, config, nil)

	table := OrdersTable([]orders.Row{
		{Order: model.BuyOrder{ID: "O1", Price: 300, Qty: 2}, Account: "main", Label: expression.Label{Text: "[Foo]"}},
	}, time.Now())

	id, err := writer.Write(ctx, table)
	require.NoError(t, err)
	assert.Equal(t, "S1", id)

	require.Len(t, api.requests, 4)
	assert.Equal(t, "POST /v4/spreadsheets", api.requests[0])
	assert.True(t, strings.HasSuffix(api.requests[1], ":clear"), api.requests[1])
	assert.True(t, strings.HasPrefix(api.requests[2], "PUT "), api.requests[2])
	assert.True(t, strings.HasSuffix(api.requests[3], ":batchUpdate"), api.requests[3])

	require.Len(t, api.written.Values, 2)
	assert.Equal(t, "Order", api.written.Values[0][0])
	assert.Equal(t, "[Foo]", api.written.Values[1][0])
	assert.Equal(t, "3", api.written.Values[1][2])
}

func TestPriceColumn(t *testing.T) {
	assert.Equal(t, int64(2), priceColumn(OrdersTable(nil, time.Now()).Header))
	assert.Equal(t, int64(5), priceColumn(InventoryTable(nil, time.Now()).Header))
	assert.Equal(t, int64(-1), priceColumn([]string{"Name"}))
}

func TestMockWriter(t *testing.T) {
	mock := NewMockWriter()
	id, err := mock.Write(context.Background(), Table{Title: InventoryTab})
	require.NoError(t, err)
	assert.Equal(t, "mock-spreadsheet", id)
	require.Len(t, mock.Written(), 1)
	assert.Equal(t, InventoryTab, mock.Written()[0].Title)
}
