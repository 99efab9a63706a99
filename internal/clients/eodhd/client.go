// Package eodhd provides historical price fetching from EOD Historical
// Data, with persistent read-through caching.
package eodhd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stylescope/internal/clientdata"
	"github.com/aristath/stylescope/internal/domain"
)

const cacheTable = "eodhd_prices"

// Client for the EOD Historical Data end-of-day API.
type Client struct {
	baseURL   string
	apiToken  string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new EOD Historical Data client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(apiToken string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://eodhistoricaldata.com/api/eod",
		apiToken:  apiToken,
		client:    &http.Client{Timeout: 30 * time.Second},
		log:       log.With().Str("client", "eodhd").Logger(),
		cacheRepo: cacheRepo,
	}
}

// eodBar is one end-of-day observation as returned by the API.
type eodBar struct {
	Date          string  `json:"date"`
	AdjustedClose float64 `json:"adjusted_close"`
}

// cachedPrices is the structure stored in the cache.
type cachedPrices struct {
	Dates  []int64   `msgpack:"dates"` // unix seconds, UTC midnight
	Prices []float64 `msgpack:"prices"`
}

// GetPrices fetches the adjusted-close price series for one ticker over
// [from, to]. The provider ticker gets a ".US" exchange suffix unless it
// already carries a ".TO" one. All transport, status and parse failures are
// reported as a *domain.PriceRetrievalError for the ticker; the analysis
// core propagates them without reinterpretation.
//
// Responses are cached (when a cache repository is configured); a fresh
// cache hit skips the network entirely.
func (c *Client) GetPrices(ticker string, from, to time.Time) (domain.PriceSeries, error) {
	full := providerTicker(ticker)
	cacheKey := fmt.Sprintf("%s|%s|%s", full, from.Format("2006-01-02"), to.Format("2006-01-02"))

	// Check persistent cache for fresh data
	if c.cacheRepo != nil {
		var cached cachedPrices
		if hit, err := c.cacheRepo.GetIfFresh(cacheTable, cacheKey, &cached); err == nil && hit {
			c.log.Debug().
				Str("ticker", full).
				Int("observations", len(cached.Dates)).
				Msg("Cache hit")
			return cached.toSeries(), nil
		}
	}

	series, err := c.fetch(full, from, to)
	if err != nil {
		// API failed - stale cached data is better than no data.
		if c.cacheRepo != nil {
			var cached cachedPrices
			if hit, cerr := c.cacheRepo.Get(cacheTable, cacheKey, &cached); cerr == nil && hit {
				c.log.Warn().
					Err(err).
					Str("ticker", full).
					Int("observations", len(cached.Dates)).
					Msg("API failed, using stale cached prices")
				return cached.toSeries(), nil
			}
		}
		return domain.PriceSeries{}, &domain.PriceRetrievalError{Ticker: ticker, Err: err}
	}

	// Cache persistently
	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(cacheTable, cacheKey, fromSeries(series), clientdata.TTLPriceHistory); err != nil {
			c.log.Warn().Err(err).Str("ticker", full).Msg("Failed to cache prices")
		}
	}

	c.log.Info().
		Str("ticker", full).
		Int("observations", series.Len()).
		Msg("Fetched prices")

	return series, nil
}

// fetch performs the actual API call and normalizes the response into a
// valid PriceSeries (sorted, de-duplicated dates).
func (c *Client) fetch(fullTicker string, from, to time.Time) (domain.PriceSeries, error) {
	u := fmt.Sprintf("%s/%s?from=%s&to=%s&period=d&api_token=%s&fmt=json",
		c.baseURL,
		url.PathEscape(fullTicker),
		from.Format("2006-01-02"),
		to.Format("2006-01-02"),
		url.QueryEscape(c.apiToken),
	)
	c.log.Debug().Str("ticker", fullTicker).Msg("Fetching prices")

	resp, err := c.client.Get(u)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.PriceSeries{}, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var bars []eodBar
	if err := json.NewDecoder(resp.Body).Decode(&bars); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(bars) == 0 {
		return domain.PriceSeries{}, fmt.Errorf("no observations returned")
	}

	// The API usually returns bars date-sorted, but the PriceSeries
	// invariant (strictly increasing, unique dates) is ours to enforce:
	// sort, then keep the last bar of any duplicated date.
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })

	series := domain.PriceSeries{}
	for i, b := range bars {
		if i+1 < len(bars) && bars[i+1].Date == b.Date {
			continue
		}
		d, err := time.Parse("2006-01-02", b.Date)
		if err != nil {
			return domain.PriceSeries{}, fmt.Errorf("unparseable date %q: %w", b.Date, err)
		}
		series.Dates = append(series.Dates, d.UTC())
		series.Prices = append(series.Prices, b.AdjustedClose)
	}

	if err := series.Validate(); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("provider returned invalid series: %w", err)
	}

	return series, nil
}

// providerTicker applies the exchange suffix convention of the data
// provider: everything defaults to the US exchange except Toronto-listed
// tickers, which already carry their ".TO" suffix.
func providerTicker(symbol string) string {
	if len(symbol) > 3 && symbol[len(symbol)-3:] == ".TO" {
		return symbol
	}
	return symbol + ".US"
}

func (c cachedPrices) toSeries() domain.PriceSeries {
	out := domain.PriceSeries{
		Dates:  make([]time.Time, len(c.Dates)),
		Prices: append([]float64(nil), c.Prices...),
	}
	for i, ts := range c.Dates {
		out.Dates[i] = time.Unix(ts, 0).UTC()
	}
	return out
}

func fromSeries(s domain.PriceSeries) cachedPrices {
	out := cachedPrices{
		Dates:  make([]int64, s.Len()),
		Prices: append([]float64(nil), s.Prices...),
	}
	for i, d := range s.Dates {
		out.Dates[i] = d.Unix()
	}
	return out
}
