package cmegroup

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwhan/contango/pkg/httputil"
	"github.com/jwhan/contango/pkg/logger"
)

const calendarHTML = `
<html><body>
<table class="cmeProductCalendar">
<thead><tr><th>Contract</th><th>First Trade</th><th>Last Trade</th><th>Settlement</th></tr></thead>
<tbody>
<tr><td>SR3M5</td><td>18 Jun 2024</td><td>16 Sep 2025</td><td>17 Sep 2025</td></tr>
<tr><td>SR3U5</td><td>17 Sep 2024</td><td>16 Dec 2025</td><td>17 Dec 2025</td></tr>
<tr><td></td><td></td><td></td><td></td></tr>
<tr><td>SR3Z5</td><td>17 Dec 2024</td><td>TBD</td><td>TBD</td></tr>
</tbody>
</table>
</body></html>`

func TestParseCalendarHTML(t *testing.T) {
	entries, err := parseCalendarHTML(calendarHTML)
	require.NoError(t, err)

	// The blank row and the TBD row are skipped
	require.Len(t, entries, 2)
	assert.Equal(t, "SR3M5", entries[0].ProductCode)
	assert.Equal(t, time.Date(2025, 9, 16, 0, 0, 0, 0, time.UTC), entries[0].LastTrade)
	assert.Equal(t, time.Date(2025, 9, 17, 0, 0, 0, 0, time.UTC), entries[0].Settlement)
	assert.Equal(t, "SR3U5", entries[1].ProductCode)
}

func TestFetchExpirationCalendar(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(calendarHTML))
	}))
	defer server.Close()

	log := logger.NewWriter(io.Discard, "debug")
	client := NewClient(httputil.New(log), log).WithBaseURL(server.URL)

	entries, err := client.FetchExpirationCalendar(context.Background(), "SR3")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFetchExpirationCalendarUnknownRoot(t *testing.T) {
	log := logger.NewWriter(io.Discard, "debug")
	client := NewClient(httputil.New(log), log)

	_, err := client.FetchExpirationCalendar(context.Background(), "ZZZ")
	assert.Error(t, err)
}

func TestFetchExpirationCalendarEmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>maintenance</p></body></html>"))
	}))
	defer server.Close()

	log := logger.NewWriter(io.Discard, "debug")
	client := NewClient(httputil.New(log), log).WithBaseURL(server.URL)

	_, err := client.FetchExpirationCalendar(context.Background(), "SR3")
	assert.Error(t, err)
}
