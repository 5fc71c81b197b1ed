package market

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"nepse-paper-trader-go/internal/config"
)

// ErrPriceUnavailable is returned when the backend cannot supply a usable
// price for a symbol. Callers treat it as recoverable: the operation that
// needed the price is aborted and can be retried.
var ErrPriceUnavailable = fmt.Errorf("price unavailable")

// Client defines the interface for the market-data backend client.
type Client interface {
	GetCompanyList(ctx context.Context) ([]Company, error)
	GetTopGainers(ctx context.Context) ([]Mover, error)
	GetTopLosers(ctx context.Context) ([]Mover, error)
	GetAllStocks(ctx context.Context) ([]Quote, error)
	GetStockPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	GetOHLC(ctx context.Context, symbol string, limit int) ([]Candle, error)
}

// Company is one listed instrument from the company directory.
type Company struct {
	Symbol         string `json:"symbol"`
	CompanyName    string `json:"companyName"`
	SectorName     string `json:"sectorName"`
	InstrumentType string `json:"instrumentType"`
}

// Mover is one row of the top gainers/losers boards.
type Mover struct {
	Symbol           string  `json:"symbol"`
	LTP              float64 `json:"ltp"`
	PercentageChange float64 `json:"percentageChange"`
}

// Quote is the latest traded price for one symbol.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"changePercent"`
}

// Candle is a single OHLC bar.
type Candle struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// RestClient is a client for the market-data backend REST API.
// It implements the Client interface.
type RestClient struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure RestClient implements the interface
var _ Client = (*RestClient)(nil)

// NewRestClient creates a new market-data backend client.
func NewRestClient(cfg *config.Market, logger *zap.Logger) *RestClient {
	client := resty.New().SetBaseURL(cfg.BaseURL)

	// Initialize the rate limiter
	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &RestClient{
		client:  client,
		logger:  logger,
		limiter: limiter,
	}
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *RestClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.SetContext(ctx).Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil && resp.StatusCode() != 0 {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		// If we should retry, calculate wait time
		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

// GetCompanyList fetches every listed instrument from the backend.
func (c *RestClient) GetCompanyList(ctx context.Context) ([]Company, error) {
	var companies []Company

	req := c.client.R().
		SetResult(&companies).
		SetHeader("Content-Type", "application/json")

	if _, err := c.doRequest(ctx, "GET", "/CompanyList", req); err != nil {
		return nil, fmt.Errorf("failed to get company list: %w", err)
	}

	return companies, nil
}

// GetTopGainers fetches the day's top gaining symbols.
func (c *RestClient) GetTopGainers(ctx context.Context) ([]Mover, error) {
	return c.getMovers(ctx, "/TopGainers")
}

// GetTopLosers fetches the day's top losing symbols.
func (c *RestClient) GetTopLosers(ctx context.Context) ([]Mover, error) {
	return c.getMovers(ctx, "/TopLosers")
}

func (c *RestClient) getMovers(ctx context.Context, path string) ([]Mover, error) {
	var movers []Mover

	req := c.client.R().
		SetResult(&movers).
		SetHeader("Content-Type", "application/json")

	if _, err := c.doRequest(ctx, "GET", path, req); err != nil {
		return nil, fmt.Errorf("failed to get movers from %s: %w", path, err)
	}

	return movers, nil
}

// GetAllStocks fetches the latest price for all symbols.
func (c *RestClient) GetAllStocks(ctx context.Context) ([]Quote, error) {
	var quotes []Quote

	req := c.client.R().
		SetResult(&quotes).
		SetHeader("Content-Type", "application/json")

	if _, err := c.doRequest(ctx, "GET", "/AllStocks", req); err != nil {
		return nil, fmt.Errorf("failed to get all stocks: %w", err)
	}

	return quotes, nil
}

// stockPriceResponse is the backend's answer for a single symbol. The
// backend reports unknown symbols as a 200 with an error field.
type stockPriceResponse struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Error  string  `json:"error"`
}

// GetStockPrice fetches the current price for one symbol. A missing or
// non-positive price is reported as ErrPriceUnavailable.
func (c *RestClient) GetStockPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var result stockPriceResponse

	req := c.client.R().
		SetResult(&result).
		SetQueryParam("symbol", symbol).
		SetHeader("Content-Type", "application/json")

	if _, err := c.doRequest(ctx, "GET", "/StockPrice", req); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", ErrPriceUnavailable, symbol, err)
	}

	if result.Error != "" {
		return decimal.Zero, fmt.Errorf("%w: %s: %s", ErrPriceUnavailable, symbol, result.Error)
	}
	if result.Price <= 0 {
		return decimal.Zero, fmt.Errorf("%w: %s: non-positive price %f", ErrPriceUnavailable, symbol, result.Price)
	}

	return decimal.NewFromFloat(result.Price), nil
}

// GetOHLC fetches up to limit OHLC bars for a symbol.
func (c *RestClient) GetOHLC(ctx context.Context, symbol string, limit int) ([]Candle, error) {
	var candles []Candle

	req := c.client.R().
		SetResult(&candles).
		SetHeader("Content-Type", "application/json")
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}

	if _, err := c.doRequest(ctx, "GET", "/api/ohlc/"+symbol, req); err != nil {
		return nil, fmt.Errorf("failed to get ohlc for %s: %w", symbol, err)
	}

	return candles, nil
}
