package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDateOf(t *testing.T) {
	// Timezone-aware timestamps normalize to the UTC calendar date
	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "utc evening",
			in:   ts("2025-06-17T21:00:00Z"),
			want: time.Date(2025, time.June, 17, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "chicago evening crosses midnight utc",
			in:   time.Date(2025, time.June, 17, 20, 0, 0, 0, chicago),
			want: time.Date(2025, time.June, 18, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "midnight stays put",
			in:   time.Date(2025, time.June, 17, 0, 0, 0, 0, time.UTC),
			want: time.Date(2025, time.June, 17, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DateOf(tt.in))
		})
	}
}

func TestNewCatalogFiltersAndSorts(t *testing.T) {
	defs := []Instrument{
		{ID: 2, RawSymbol: "SR3X4", Class: ClassFuture,
			Expiration: ts("2025-02-18T22:00:00Z"), ListedAt: ts("2025-01-01T00:00:00Z")},
		{ID: 5, RawSymbol: "SR3F5-SR3H5", Class: ClassSpread,
			Expiration: ts("2025-04-15T21:00:00Z"), ListedAt: ts("2025-01-01T00:00:00Z")},
		{ID: 1, RawSymbol: "SR3V4", Class: ClassFuture,
			Expiration: ts("2025-01-14T22:00:00Z"), ListedAt: ts("2025-01-01T00:00:00Z")},
		{ID: 9, RawSymbol: "XX", Class: InstrumentClass("C"),
			Expiration: ts("2025-03-18T21:00:00Z"), ListedAt: ts("2025-01-01T00:00:00Z")},
		// Duplicate definition rows arrive from daily snapshots
		{ID: 1, RawSymbol: "SR3V4", Class: ClassFuture,
			Expiration: ts("2025-01-14T22:00:00Z"), ListedAt: ts("2025-01-01T00:00:00Z")},
	}

	catalog := NewCatalog(defs)
	require.Equal(t, 2, catalog.Len())

	all := catalog.All()
	assert.Equal(t, int64(1), all[0].ID, "sorted by expiration date")
	assert.Equal(t, int64(2), all[1].ID)

	_, ok := catalog.Get(5)
	assert.False(t, ok, "spreads are dropped")
	_, ok = catalog.Get(9)
	assert.False(t, ok, "unknown classes are dropped")
}

func TestCatalogLiveOn(t *testing.T) {
	defs := []Instrument{
		{ID: 1, RawSymbol: "SR3H5", Class: ClassFuture,
			Expiration: ts("2025-06-17T21:00:00Z"), ListedAt: ts("2025-01-01T00:00:00Z")},
		{ID: 2, RawSymbol: "SR3J5", Class: ClassFuture,
			Expiration: ts("2025-07-15T21:00:00Z"), ListedAt: ts("2025-01-30T00:00:00Z")},
	}
	catalog := NewCatalog(defs)

	jan15 := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	live := catalog.LiveOn(jan15)
	require.Len(t, live, 1)
	assert.Equal(t, int64(1), live[0].ID)

	jan30 := time.Date(2025, time.January, 30, 0, 0, 0, 0, time.UTC)
	assert.Len(t, catalog.LiveOn(jan30), 2, "listing date itself counts as live")
}

func TestCatalogWithRoot(t *testing.T) {
	defs := []Instrument{
		{ID: 1, RawSymbol: "SR3H5", Class: ClassFuture,
			Expiration: ts("2025-06-17T21:00:00Z"), ListedAt: ts("2025-01-01T00:00:00Z")},
		{ID: 2, RawSymbol: "CLN5", Class: ClassFuture,
			Expiration: ts("2025-06-20T21:00:00Z"), ListedAt: ts("2025-01-01T00:00:00Z")},
	}
	catalog := NewCatalog(defs)

	sr3 := catalog.WithRoot("SR3")
	assert.Equal(t, 1, sr3.Len())
	_, ok := sr3.Get(2)
	assert.False(t, ok)

	assert.Equal(t, 2, catalog.WithRoot("").Len(), "empty root keeps everything")
}

func TestBookLookups(t *testing.T) {
	exp := ts("2025-06-17T21:00:00Z")
	obs := []Observation{
		{InstrumentID: 7, Time: ts("2025-01-03T00:00:00Z"), Fields: map[string]float64{"price": 97.1}, Expiration: exp},
		{InstrumentID: 7, Time: ts("2025-01-01T00:00:00Z"), Fields: map[string]float64{"price": 96.9}, Expiration: exp},
		{InstrumentID: 7, Time: ts("2025-01-02T00:00:00Z"), Fields: map[string]float64{"price": 97.0}, Expiration: exp},
	}
	book := NewBook(obs)

	s, ok := book.Series(7)
	require.True(t, ok)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, exp, s.Expiration)

	// Rows come back time-ordered regardless of input order
	rows := s.Rows()
	assert.Equal(t, 96.9, rows[0].Fields["price"])
	assert.Equal(t, 97.1, rows[2].Fields["price"])

	o, ok := s.At(ts("2025-01-02T00:00:00Z"))
	require.True(t, ok)
	assert.Equal(t, 97.0, o.Fields["price"])

	_, ok = s.At(ts("2025-01-04T00:00:00Z"))
	assert.False(t, ok)

	_, ok = book.Series(99)
	assert.False(t, ok)
}

func TestSeriesRange(t *testing.T) {
	exp := ts("2025-06-17T21:00:00Z")
	var obs []Observation
	for i := 0; i < 10; i++ {
		obs = append(obs, Observation{
			InstrumentID: 7,
			Time:         time.Date(2025, time.January, 1+i, 0, 0, 0, 0, time.UTC),
			Fields:       map[string]float64{"price": float64(i)},
			Expiration:   exp,
		})
	}
	book := NewBook(obs)
	s, _ := book.Series(7)

	// Half-open: includes d0, excludes d1
	got := s.Range(
		time.Date(2025, time.January, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC),
	)
	require.Len(t, got, 3)
	assert.Equal(t, 2.0, got[0].Fields["price"])
	assert.Equal(t, 4.0, got[2].Fields["price"])

	// Empty interval yields no rows
	assert.Empty(t, s.Range(
		time.Date(2025, time.January, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.January, 3, 0, 0, 0, 0, time.UTC),
	))
}
