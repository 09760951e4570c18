package service

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const chartPayload = `{
  "chart": {
    "result": [
      {
        "timestamp": [1756099800, 1756100100, 1756100400, 1756100700],
        "indicators": {
          "quote": [
            {
              "open":   [100.0, 101.0, null, 103.0],
              "high":   [101.5, 102.0, 103.0, 104.5],
              "low":    [99.5, 100.5, 101.5, 102.5],
              "close":  [101.0, 101.5, 102.5, 104.0],
              "volume": [1000, 1200, 900, null]
            }
          ]
        }
      }
    ],
    "error": null
  }
}`

func TestFetchBarsParsesChartPayload(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, chartPayload)
	}))
	defer server.Close()

	data := NewMarketDataService(server.URL)
	bars, err := data.FetchBars("NIFTYBEES", "5d", "5m")
	if err != nil {
		t.Fatalf("FetchBars failed: %v", err)
	}

	if gotPath != "/v8/finance/chart/NIFTYBEES.NS" {
		t.Errorf("Unexpected request path %q", gotPath)
	}
	if gotQuery != "range=5d&interval=5m" {
		t.Errorf("Unexpected query %q", gotQuery)
	}

	// The null-open bar is dropped, the null-volume bar survives at 0
	if len(bars) != 3 {
		t.Fatalf("Expected 3 bars, got %d", len(bars))
	}
	if bars[0].Open != 100.0 || bars[0].Close != 101.0 || bars[0].Volume != 1000 {
		t.Errorf("Unexpected first bar %+v", bars[0])
	}
	last := bars[len(bars)-1]
	if last.Close != 104.0 || last.Volume != 0 {
		t.Errorf("Unexpected last bar %+v", last)
	}
	if !bars[0].Timestamp.Before(last.Timestamp) {
		t.Errorf("Bars must keep chronological order")
	}
}

func TestFetchBarsCachesWithinTTL(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, chartPayload)
	}))
	defer server.Close()

	data := NewMarketDataService(server.URL)
	if _, err := data.FetchBars("NIFTYBEES", "5d", "5m"); err != nil {
		t.Fatalf("FetchBars failed: %v", err)
	}
	if _, err := data.FetchBars("NIFTYBEES", "5d", "5m"); err != nil {
		t.Fatalf("FetchBars failed: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("Expected 1 upstream hit, got %d", got)
	}

	// A different range is a different cache entry
	if _, err := data.FetchBars("NIFTYBEES", "60d", "1d"); err != nil {
		t.Fatalf("FetchBars failed: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("Expected 2 upstream hits, got %d", got)
	}
}

func TestFetchBarsReportsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer server.Close()

	data := NewMarketDataService(server.URL)
	if _, err := data.FetchBars("BOGUS", "5d", "5m"); err == nil {
		t.Fatalf("Expected error for delisted symbol")
	}
}

func TestExchangeSymbol(t *testing.T) {
	cases := map[string]string{
		"NIFTYBEES":   "NIFTYBEES.NS",
		"RELIANCE.NS": "RELIANCE.NS",
		"RELIANCE.BO": "RELIANCE.BO",
		"^NSEI":       "^NSEI",
	}
	for in, want := range cases {
		if got := exchangeSymbol(in); got != want {
			t.Errorf("exchangeSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}
