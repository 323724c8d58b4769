package bento

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwhan/contango/internal/market"
	"github.com/jwhan/contango/pkg/config"
	"github.com/jwhan/contango/pkg/logger"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.VendorConfig{
		BaseURL:   server.URL,
		APIKey:    "db-test-key",
		Dataset:   "GLBX.MDP3",
		RateLimit: 100,
		RateBurst: 10,
	}
	return NewClient(cfg, logger.NewWriter(io.Discard, "debug"))
}

func TestListDefinitions(t *testing.T) {
	// Two newline-delimited records, one outright and one spread
	body := `{"instrument_id":7,"raw_symbol":"SR3M5","instrument_class":"F","expiration":"1750194000000000000","activation":"1718600400000000000"}
{"instrument_id":5,"raw_symbol":"SR3H5-SR3M5","instrument_class":"S","expiration":"1750194000000000000","activation":"1718600400000000000"}
`

	var gotQuery map[string]string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "db-test-key", user)

		q := r.URL.Query()
		gotQuery = map[string]string{
			"dataset":  q.Get("dataset"),
			"schema":   q.Get("schema"),
			"symbols":  q.Get("symbols"),
			"stype_in": q.Get("stype_in"),
		}
		w.Write([]byte(body))
	})

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	defs, err := client.ListDefinitions(context.Background(), "SR3", from, to)
	require.NoError(t, err)

	assert.Equal(t, "GLBX.MDP3", gotQuery["dataset"])
	assert.Equal(t, "definition", gotQuery["schema"])
	assert.Equal(t, "SR3.FUT", gotQuery["symbols"])
	assert.Equal(t, "parent", gotQuery["stype_in"])

	require.Len(t, defs, 2)
	assert.Equal(t, int64(7), defs[0].ID)
	assert.Equal(t, "SR3M5", defs[0].RawSymbol)
	assert.Equal(t, market.ClassFuture, defs[0].Class)
	assert.Equal(t, time.Date(2025, 6, 17, 21, 0, 0, 0, time.UTC), defs[0].Expiration)
	assert.Equal(t, market.ClassSpread, defs[1].Class)
}

func TestGetDailyBars(t *testing.T) {
	// Vendor prices are fixed-point at 1e-9
	body := `{"instrument_id":7,"ts_event":"1735776000000000000","open":"95100000000","high":"95400000000","low":"95000000000","close":"95200000000","volume":1200}
`

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ohlcv-1d", r.URL.Query().Get("schema"))
		w.Write([]byte(body))
	})

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	bars, err := client.GetDailyBars(context.Background(), "SR3", from, to)
	require.NoError(t, err)

	require.Len(t, bars, 1)
	assert.Equal(t, int64(7), bars[0].InstrumentID)
	assert.InDelta(t, 95.2, bars[0].Close, 1e-9)
	assert.InDelta(t, 95.1, bars[0].Open, 1e-9)
	assert.Equal(t, int64(1200), bars[0].Volume)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Time)
}

func TestFetchRejectsNon200(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	_, err := client.ListDefinitions(context.Background(), "SR3", from, to)
	assert.Error(t, err)
}
