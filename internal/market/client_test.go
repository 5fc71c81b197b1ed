package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// setupTestServer creates a new test server and a RestClient configured to use it.
func setupTestServer(handler http.Handler) (*RestClient, *httptest.Server) {
	server := httptest.NewServer(handler)

	rc := &RestClient{
		client:  resty.New().SetBaseURL(server.URL),
		logger:  zap.NewNop(), // Use a no-op logger for tests
		limiter: rate.NewLimiter(rate.Inf, 1),
	}

	return rc, server
}

func TestGetStockPrice(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/StockPrice", r.URL.Path)
			assert.Equal(t, "NABIL", r.URL.Query().Get("symbol"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"symbol": "NABIL", "price": 512.5}`))
		})

		rc, server := setupTestServer(handler)
		defer server.Close()

		price, err := rc.GetStockPrice(context.Background(), "NABIL")

		assert.NoError(t, err)
		assert.True(t, price.Equal(decimal.RequireFromString("512.5")), "price = %s", price)
	})

	t.Run("BackendReportsError", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"error": "unknown symbol"}`))
		})

		rc, server := setupTestServer(handler)
		defer server.Close()

		_, err := rc.GetStockPrice(context.Background(), "NOPE")

		assert.ErrorIs(t, err, ErrPriceUnavailable)
		assert.Contains(t, err.Error(), "unknown symbol")
	})

	t.Run("NonPositivePrice", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"symbol": "HALT", "price": 0}`))
		})

		rc, server := setupTestServer(handler)
		defer server.Close()

		_, err := rc.GetStockPrice(context.Background(), "HALT")
		assert.ErrorIs(t, err, ErrPriceUnavailable)
	})
}

func TestGetCompanyList(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/CompanyList", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"symbol": "NABIL", "companyName": "Nabil Bank", "sectorName": "Commercial Banks", "instrumentType": "Equity"},
			{"symbol": "NLIC", "companyName": "Nepal Life Insurance", "sectorName": "Life Insurance", "instrumentType": "Equity"}
		]`))
	})

	rc, server := setupTestServer(handler)
	defer server.Close()

	companies, err := rc.GetCompanyList(context.Background())

	assert.NoError(t, err)
	assert.Len(t, companies, 2)
	assert.Equal(t, "NABIL", companies[0].Symbol)
	assert.Equal(t, "Nabil Bank", companies[0].CompanyName)
	assert.Equal(t, "Life Insurance", companies[1].SectorName)
}

func TestGetTopGainers(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/TopGainers", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"symbol": "SHIVM", "ltp": 612.0, "percentageChange": 9.85}]`))
	})

	rc, server := setupTestServer(handler)
	defer server.Close()

	movers, err := rc.GetTopGainers(context.Background())

	assert.NoError(t, err)
	assert.Len(t, movers, 1)
	assert.Equal(t, "SHIVM", movers[0].Symbol)
	assert.InDelta(t, 9.85, movers[0].PercentageChange, 0.0001)
}

func TestGetOHLC(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ohlc/NABIL", r.URL.Path)
		assert.Equal(t, "30", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"date": "2026-08-28", "open": 500, "high": 520, "low": 495, "close": 512.5, "volume": 14500}]`))
	})

	rc, server := setupTestServer(handler)
	defer server.Close()

	candles, err := rc.GetOHLC(context.Background(), "NABIL", 30)

	assert.NoError(t, err)
	assert.Len(t, candles, 1)
	assert.Equal(t, "2026-08-28", candles[0].Date)
	assert.InDelta(t, 512.5, candles[0].Close, 0.0001)
}

func TestDoRequest_RetriesServerErrors(t *testing.T) {
	attempts := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol": "NABIL", "price": 500}`))
	})

	rc, server := setupTestServer(handler)
	defer server.Close()

	price, err := rc.GetStockPrice(context.Background(), "NABIL")

	assert.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.True(t, price.Equal(decimal.NewFromInt(500)))
}

func TestDoRequest_DoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	})

	rc, server := setupTestServer(handler)
	defer server.Close()

	_, err := rc.GetCompanyList(context.Background())

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}
