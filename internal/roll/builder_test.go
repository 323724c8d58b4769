package roll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwhan/contango/internal/market"
)

// testCatalog mirrors a real SR3 definition extract: quarterly and
// serial outrights, red-herring spreads, and contracts that only become
// live partway through the requested range (ids 13, 15, 20).
func testCatalog(t *testing.T) *market.Catalog {
	t.Helper()

	type def struct {
		id     int64
		symbol string
		exp    string
		class  market.InstrumentClass
		listed string
	}
	defs := []def{
		{1, "SR3V4", "2025-01-14 22:00", market.ClassFuture, "2025-01-01"},
		{2, "SR3X4", "2025-02-18 22:00", market.ClassFuture, "2025-01-01"},
		{3, "SR3Z4", "2025-03-18 21:00", market.ClassFuture, "2025-01-01"},
		{4, "SR3F5", "2025-04-15 21:00", market.ClassFuture, "2025-01-01"},
		{5, "SR3F5-SR3H5", "2025-04-15 21:00", market.ClassSpread, "2025-01-01"},
		{6, "SR3G5", "2025-05-20 21:00", market.ClassFuture, "2025-01-01"},
		{7, "SR3H5", "2025-06-17 21:00", market.ClassFuture, "2025-01-01"},
		{8, "SR3J5", "2025-07-15 21:00", market.ClassFuture, "2025-01-01"},
		{9, "SR3K5", "2025-08-19 21:00", market.ClassFuture, "2025-01-01"},
		{10, "SR3M5-SR3N5", "2025-09-16 21:00", market.ClassSpread, "2025-01-01"},
		{11, "SR3M5", "2025-09-16 21:00", market.ClassFuture, "2025-01-01"},
		{12, "SR3N5", "2025-10-14 21:00", market.ClassFuture, "2025-01-01"},
		{13, "SR3Q5", "2025-11-18 22:00", market.ClassFuture, "2025-01-30"},
		{14, "SR3U5", "2025-12-16 22:00", market.ClassFuture, "2025-01-01"},
		{15, "SR3V5", "2026-01-20 22:00", market.ClassFuture, "2025-03-31"},
		{20, "SR3X5", "2026-02-17 22:00", market.ClassFuture, "2025-04-30"},
		{25, "SR3Z5", "2026-03-17 22:00", market.ClassFuture, "2025-01-01"},
	}

	instruments := make([]market.Instrument, 0, len(defs))
	for _, d := range defs {
		exp, err := time.Parse("2006-01-02 15:04", d.exp)
		require.NoError(t, err)
		listed, err := time.Parse("2006-01-02", d.listed)
		require.NoError(t, err)
		instruments = append(instruments, market.Instrument{
			ID:         d.id,
			RawSymbol:  d.symbol,
			Class:      d.class,
			Expiration: exp,
			ListedAt:   listed,
		})
	}
	return market.NewCatalog(instruments)
}

func day(s string) time.Time {
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBuild182Days(t *testing.T) {
	catalog := testCatalog(t)
	target, err := ParseTarget("SR3.cm.182")
	require.NoError(t, err)

	schedule, err := NewBuilder(PolicyLenient).Build(target, catalog, day("2025-01-01"), day("2025-03-31"))
	require.NoError(t, err)

	expected := Schedule{
		NewPairSegment(day("2025-01-01"), day("2025-01-15"), 7, 8),
		NewPairSegment(day("2025-01-15"), day("2025-02-19"), 8, 9),
		NewPairSegment(day("2025-02-19"), day("2025-03-19"), 9, 11),
		NewPairSegment(day("2025-03-19"), day("2025-03-31"), 11, 12),
	}
	assert.Equal(t, expected, schedule)
}

func TestBuild273Days(t *testing.T) {
	// Instrument 13 goes live on 2025-01-30 mid-range and forces an
	// early segment split even though no expiration was crossed.
	catalog := testCatalog(t)
	target, err := ParseTarget("SR3.cm.273")
	require.NoError(t, err)

	schedule, err := NewBuilder(PolicyLenient).Build(target, catalog, day("2025-01-01"), day("2025-03-31"))
	require.NoError(t, err)

	expected := Schedule{
		NewPairSegment(day("2025-01-01"), day("2025-01-15"), 11, 12),
		NewPairSegment(day("2025-01-15"), day("2025-01-30"), 12, 14),
		NewPairSegment(day("2025-01-30"), day("2025-02-19"), 12, 13),
		NewPairSegment(day("2025-02-19"), day("2025-03-19"), 13, 14),
		NewPairSegment(day("2025-03-19"), day("2025-03-31"), 14, 25),
	}
	assert.Equal(t, expected, schedule)
}

func TestBuildContiguity(t *testing.T) {
	catalog := testCatalog(t)
	target, err := ParseTarget("SR3.cm.182")
	require.NoError(t, err)

	schedule, err := NewBuilder(PolicyLenient).Build(target, catalog, day("2025-01-01"), day("2025-03-31"))
	require.NoError(t, err)
	require.NotEmpty(t, schedule)

	assert.Equal(t, day("2025-01-01"), schedule[0].D0)
	assert.Equal(t, day("2025-03-31"), schedule[len(schedule)-1].D1)

	for i, seg := range schedule {
		assert.True(t, seg.D0.Before(seg.D1), "segment %d: d0 must precede d1", i)
		if i > 0 {
			assert.Equal(t, schedule[i-1].D1, seg.D0, "segment %d must be contiguous", i)
			prev := schedule[i-1]
			assert.True(t, prev.Pre != seg.Pre || prev.Next != seg.Next,
				"adjacent segments must differ in at least one contract")
		}
	}
}

func TestBuildEmptyCatalog(t *testing.T) {
	target, err := ParseTarget("SR3.cm.182")
	require.NoError(t, err)

	schedule, err := NewBuilder(PolicyLenient).Build(target, market.NewCatalog(nil), day("2025-01-01"), day("2025-02-01"))
	require.NoError(t, err)
	assert.Empty(t, schedule)
}

func TestBuildRootFilter(t *testing.T) {
	// A different root selects nothing from an SR3 catalog
	catalog := testCatalog(t)
	target, err := ParseTarget("CL.cm.182")
	require.NoError(t, err)

	schedule, err := NewBuilder(PolicyLenient).Build(target, catalog, day("2025-01-01"), day("2025-03-31"))
	require.NoError(t, err)
	assert.Empty(t, schedule)
}

func TestBuildStrictPolicy(t *testing.T) {
	// Maturity beyond the last expiration leaves no next contract
	catalog := testCatalog(t)
	target, err := ParseTarget("SR3.cm.3650")
	require.NoError(t, err)

	_, err = NewBuilder(PolicyStrict).Build(target, catalog, day("2025-01-01"), day("2025-01-05"))
	require.Error(t, err)
	assert.ErrorIs(t, err, market.ErrNoBracketingContracts)

	// Lenient policy simply produces an empty schedule
	schedule, err := NewBuilder(PolicyLenient).Build(target, catalog, day("2025-01-01"), day("2025-01-05"))
	require.NoError(t, err)
	assert.Empty(t, schedule)
}

func TestBuildLateListingGap(t *testing.T) {
	// Nothing is live until 2025-02-01; lenient policy skips the early
	// days and the schedule starts at the listing date.
	instruments := []market.Instrument{
		{ID: 1, RawSymbol: "SR3H5", Class: market.ClassFuture,
			Expiration: day("2025-06-17"), ListedAt: day("2025-02-01")},
		{ID: 2, RawSymbol: "SR3J5", Class: market.ClassFuture,
			Expiration: day("2025-07-15"), ListedAt: day("2025-02-01")},
	}
	catalog := market.NewCatalog(instruments)

	target, err := ParseTarget("SR3.cm.150")
	require.NoError(t, err)

	schedule, err := NewBuilder(PolicyLenient).Build(target, catalog, day("2025-01-01"), day("2025-02-10"))
	require.NoError(t, err)

	expected := Schedule{
		NewPairSegment(day("2025-02-01"), day("2025-02-10"), 1, 2),
	}
	assert.Equal(t, expected, schedule)
}
