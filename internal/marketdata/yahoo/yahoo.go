// Package yahoo implements the market-data source against the Yahoo
// Finance query API. It serves both regular symbols ("AAPL", "BTC-USD")
// and synthetic FX-pair tickers ("USDJPY=X").
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	errs "wealthwatch/internal/errors"
	"wealthwatch/internal/models"
)

const defaultUserAgent = "wealthwatch/1.0"

// Client is a Source backed by the Yahoo Finance HTTP API.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
}

// NewClient creates a client for the given API base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ResponseHeaderTimeout: 5 * time.Second,
	}
	return &Client{
		http:      &http.Client{Timeout: timeout, Transport: transport},
		baseURL:   baseURL,
		userAgent: defaultUserAgent,
	}
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol              string  `json:"symbol"`
			RegularMarketPrice  float64 `json:"regularMarketPrice"`
			RegularMarketVolume int64   `json:"regularMarketVolume"`
			MarketCap           float64 `json:"marketCap"`
		} `json:"result"`
	} `json:"quoteResponse"`
}

// Quote fetches the current market price for a symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	u := fmt.Sprintf("%s/v7/finance/quote?%s", c.baseURL, url.Values{"symbols": {symbol}}.Encode())

	var parsed quoteResponse
	if err := c.getJSON(ctx, u, &parsed); err != nil {
		return nil, errs.NewDataError("quote", symbol, "request failed", err)
	}

	results := parsed.QuoteResponse.Result
	if len(results) == 0 || results[0].RegularMarketPrice <= 0 {
		return nil, errs.NewDataError("quote", symbol, "no price in response", nil)
	}
	r := results[0]
	return &models.Quote{
		Symbol:    symbol,
		Price:     r.RegularMarketPrice,
		Timestamp: time.Now().UTC(),
		Volume:    r.RegularMarketVolume,
		MarketCap: r.MarketCap,
		Source:    models.SourceLive,
	}, nil
}

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
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History fetches daily candles for a symbol over a named range such as
// "1d", "5d", "1mo", or "ytd". Days with a null close are skipped.
func (c *Client) History(ctx context.Context, symbol, period string) ([]models.Candle, error) {
	q := url.Values{"range": {period}, "interval": {"1d"}}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), q.Encode())

	var parsed chartResponse
	if err := c.getJSON(ctx, u, &parsed); err != nil {
		return nil, errs.NewDataError("history", symbol, "request failed", err)
	}
	if parsed.Chart.Error != nil {
		return nil, errs.NewDataError("history", symbol, parsed.Chart.Error.Description, nil)
	}
	if len(parsed.Chart.Result) == 0 || len(parsed.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, errs.NewDataError("history", symbol, "empty chart response", nil)
	}

	result := parsed.Chart.Result[0]
	series := result.Indicators.Quote[0]
	candles := make([]models.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(series.Close) || series.Close[i] == nil {
			continue
		}
		candle := models.Candle{
			Timestamp: time.Unix(ts, 0).UTC(),
			Close:     *series.Close[i],
		}
		if i < len(series.Open) && series.Open[i] != nil {
			candle.Open = *series.Open[i]
		}
		if i < len(series.High) && series.High[i] != nil {
			candle.High = *series.High[i]
		}
		if i < len(series.Low) && series.Low[i] != nil {
			candle.Low = *series.Low[i]
		}
		if i < len(series.Volume) && series.Volume[i] != nil {
			candle.Volume = *series.Volume[i]
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
