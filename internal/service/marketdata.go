package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"tradex-go/internal/model"
)

const (
	marketDataMaxRetries = 3
	marketDataBackoff    = 2 * time.Second
	marketDataCacheTTL   = 60 * time.Second
)

type MarketDataService struct {
	baseURL string
	client  *http.Client

	mu    sync.Mutex
	cache map[string]cachedBars
}

type cachedBars struct {
	bars      []model.Bar
	fetchedAt time.Time
}

func NewMarketDataService(baseURL string) *MarketDataService {
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	return &MarketDataService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		cache:   make(map[string]cachedBars),
	}
}

// chartResponse mirrors the chart API payload. Quote arrays may contain
// nulls for halted sessions, hence the pointer elements.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDaily returns 60 days of daily bars for the symbol
func (s *MarketDataService) FetchDaily(symbol string) ([]model.Bar, error) {
	return s.FetchBars(symbol, "60d", "1d")
}

// FetchHourly returns 5 days of hourly bars for the symbol
func (s *MarketDataService) FetchHourly(symbol string) ([]model.Bar, error) {
	return s.FetchBars(symbol, "5d", "1h")
}

// FetchBars fetches OHLCV history with bounded retry and a short cache.
// The cache keeps repeated evaluations within one polling cycle from
// hammering the data API.
func (s *MarketDataService) FetchBars(symbol, rng, interval string) ([]model.Bar, error) {
	key := fmt.Sprintf("%s|%s|%s", symbol, rng, interval)

	s.mu.Lock()
	if entry, ok := s.cache[key]; ok && time.Since(entry.fetchedAt) < marketDataCacheTTL {
		s.mu.Unlock()
		return entry.bars, nil
	}
	s.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= marketDataMaxRetries; attempt++ {
		bars, err := s.fetchOnce(symbol, rng, interval)
		if err == nil {
			s.mu.Lock()
			s.cache[key] = cachedBars{bars: bars, fetchedAt: time.Now()}
			s.mu.Unlock()
			return bars, nil
		}
		lastErr = err
		log.Printf("⚠️ [Market Data] %s fetch attempt %d/%d failed: %v", symbol, attempt, marketDataMaxRetries, err)
		if attempt < marketDataMaxRetries {
			time.Sleep(marketDataBackoff * time.Duration(attempt))
		}
	}

	return nil, fmt.Errorf("fetch bars for %s (%s/%s): %w", symbol, rng, interval, lastErr)
}

func (s *MarketDataService) fetchOnce(symbol, rng, interval string) ([]model.Bar, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		s.baseURL, exchangeSymbol(symbol), rng, interval)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bars: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("chart API error: %s - %s", resp.Status, string(body))
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode chart response: %w", err)
	}

	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error: %s - %s", payload.Chart.Error.Code, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("empty chart result for %s", symbol)
	}

	result := payload.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	bars := make([]model.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) ||
			i >= len(quote.Close) || i >= len(quote.Volume) {
			break
		}
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil || quote.Close[i] == nil {
			continue
		}

		open := *quote.Open[i]
		high := *quote.High[i]
		low := *quote.Low[i]
		closePrice := *quote.Close[i]
		volume := 0.0
		if quote.Volume[i] != nil {
			volume = *quote.Volume[i]
		}

		// Validate prices are reasonable
		if !ValidatePrice(open) || !ValidatePrice(high) || !ValidatePrice(low) || !ValidatePrice(closePrice) {
			log.Printf("⚠️ [Market Data] Skipping bar at index %d for %s: invalid price values", i, symbol)
			continue
		}

		// Validate OHLC logic: High >= Low, High >= Open/Close, Low <= Open/Close
		if high < low || high < open || high < closePrice || low > open || low > closePrice {
			log.Printf("⚠️ [Market Data] Skipping bar at index %d for %s: invalid OHLC relationship", i, symbol)
			continue
		}

		bars = append(bars, model.Bar{
			Timestamp: time.Unix(ts, 0),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
		})
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no valid bars after parsing for %s", symbol)
	}

	return bars, nil
}

// exchangeSymbol maps a plain NSE ticker to the data API form
func exchangeSymbol(symbol string) string {
	if strings.Contains(symbol, ".") || strings.HasPrefix(symbol, "^") {
		return symbol
	}
	return symbol + ".NS"
}
