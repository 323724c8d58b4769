package bento

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jwhan/contango/internal/market"
	"github.com/jwhan/contango/internal/store"
	"github.com/jwhan/contango/pkg/config"
	"github.com/jwhan/contango/pkg/httputil"
	"github.com/jwhan/contango/pkg/logger"
)

// Client handles communication with the historical market data vendor.
// All definition and bar pulls go through this client.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.VendorConfig
}

// NewClient creates a new vendor REST client with the configured rate
// limit applied
func NewClient(cfg config.VendorConfig, log *logger.Logger) *Client {
	httpClient := httputil.NewWithTimeout(log, 60*time.Second).
		WithRateLimit(cfg.RateLimit, cfg.RateBurst)

	return &Client{
		httpClient: httpClient,
		logger:     log,
		cfg:        cfg,
	}
}

// ListDefinitions pulls the instrument definitions of a product root
// over [from, to). The vendor resolves "ROOT.FUT" to every outright
// and spread under the root; classes come back as-is and are filtered
// downstream by the catalog.
func (c *Client) ListDefinitions(ctx context.Context, root string, from, to time.Time) ([]market.Instrument, error) {
	params := url.Values{}
	params.Set("dataset", c.cfg.Dataset)
	params.Set("schema", "definition")
	params.Set("symbols", root+".FUT")
	params.Set("stype_in", "parent")
	params.Set("start", from.UTC().Format(time.RFC3339))
	params.Set("end", to.UTC().Format(time.RFC3339))
	params.Set("encoding", "json")

	body, err := c.fetch(ctx, "/timeseries.get_range", params)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var defs []market.Instrument
	dec := json.NewDecoder(body)
	for {
		var rec definitionRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decode definition record: %w", err)
		}
		defs = append(defs, market.Instrument{
			ID:         rec.InstrumentID,
			RawSymbol:  rec.RawSymbol,
			Class:      market.InstrumentClass(rec.InstrumentClass),
			Expiration: nanosToTime(rec.Expiration),
			ListedAt:   nanosToTime(rec.Activation),
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"root":  root,
		"count": len(defs),
	}).Debug("Fetched instrument definitions")
	return defs, nil
}

// GetDailyBars pulls the daily bars of a product root over [from, to)
func (c *Client) GetDailyBars(ctx context.Context, root string, from, to time.Time) ([]store.DailyBar, error) {
	params := url.Values{}
	params.Set("dataset", c.cfg.Dataset)
	params.Set("schema", "ohlcv-1d")
	params.Set("symbols", root+".FUT")
	params.Set("stype_in", "parent")
	params.Set("start", from.UTC().Format(time.RFC3339))
	params.Set("end", to.UTC().Format(time.RFC3339))
	params.Set("encoding", "json")

	body, err := c.fetch(ctx, "/timeseries.get_range", params)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var bars []store.DailyBar
	dec := json.NewDecoder(body)
	for {
		var rec ohlcvRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decode bar record: %w", err)
		}
		bars = append(bars, store.DailyBar{
			InstrumentID: rec.InstrumentID,
			Time:         nanosToTime(rec.TsEvent),
			Open:         scaledPrice(rec.Open),
			High:         scaledPrice(rec.High),
			Low:          scaledPrice(rec.Low),
			Close:        scaledPrice(rec.Close),
			Volume:       rec.Volume,
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"root":  root,
		"count": len(bars),
	}).Debug("Fetched daily bars")
	return bars, nil
}

// fetch performs an authenticated GET against the vendor API. The API
// key goes in as the basic-auth username with an empty password.
func (c *Client) fetch(ctx context.Context, path string, params url.Values) (io.ReadCloser, error) {
	fullURL := fmt.Sprintf("%s%s?%s", c.cfg.BaseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.SetBasicAuth(c.cfg.APIKey, "")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp.Body, nil
}
