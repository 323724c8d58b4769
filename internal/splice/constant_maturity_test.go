package splice

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwhan/contango/internal/market"
	"github.com/jwhan/contango/internal/roll"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func stamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// constantBook fills [from, to) with one observation per day per
// instrument, holding each instrument's price constant.
func constantBook(from, to time.Time, prices map[int64]float64, exps map[int64]time.Time) *market.Book {
	var obs []market.Observation
	for id, p := range prices {
		for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
			obs = append(obs, market.Observation{
				InstrumentID: id,
				Time:         d,
				Fields:       map[string]float64{"price": p},
				Expiration:   exps[id],
			})
		}
	}
	return market.NewBook(obs)
}

func TestConstantMaturityWeightLaw(t *testing.T) {
	// Pre expires 2025-07-01, next 30 days later. With a 30-day target
	// maturity the pre weight is exactly 1 when t+30d lands on the pre
	// expiration, 0 on the next, and 0.5 halfway between.
	book := constantBook(day("2025-05-31"), day("2025-07-02"),
		map[int64]float64{1: 10, 2: 20},
		map[int64]time.Time{1: day("2025-07-01"), 2: day("2025-07-31")})

	schedule := roll.Schedule{roll.NewPairSegment(day("2025-05-31"), day("2025-07-02"), 1, 2)}

	rows, err := ConstantMaturity("XX.cm.30", schedule, book, "price")
	require.NoError(t, err)
	require.Len(t, rows, 32)

	byDate := make(map[string]CMRow)
	for _, r := range rows {
		byDate[r.Time.Format("2006-01-02")] = r
	}

	tests := []struct {
		date   string
		weight float64
	}{
		{"2025-05-31", 31.0 / 30.0}, // unclamped above 1
		{"2025-06-01", 1.0},
		{"2025-06-16", 0.5},
		{"2025-07-01", 0.0},
	}
	for _, tt := range tests {
		r, ok := byDate[tt.date]
		require.True(t, ok, tt.date)
		assert.InDelta(t, tt.weight, r.PreWeight, 1e-12, "weight on %s", tt.date)
		wantPrice := tt.weight*10 + (1-tt.weight)*20
		assert.InDelta(t, wantPrice, r.Price, 1e-12, "price on %s", tt.date)
	}

	// Day before the w=1 point sits outside [0,1] and is kept as-is
	assert.Greater(t, byDate["2025-05-31"].PreWeight, 1.0)
}

func TestConstantMaturityIntradayExpirations(t *testing.T) {
	// Expirations carry intraday timestamps while the grid sits at
	// midnight UTC; the weight uses the full timestamps.
	preExp := stamp("2025-06-17T21:00:00Z")
	nextExp := stamp("2025-07-15T21:00:00Z")
	book := constantBook(day("2025-01-01"), day("2025-01-03"),
		map[int64]float64{7: 7, 8: 8},
		map[int64]time.Time{7: preExp, 8: nextExp})

	schedule := roll.Schedule{roll.NewPairSegment(day("2025-01-01"), day("2025-01-03"), 7, 8)}

	rows, err := ConstantMaturity("SR3.cm.182", schedule, book, "price")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// 2025-01-01 + 182d = 2025-07-02T00:00; 13d21h to nextExp over a
	// 28d bracket
	wantWeight := float64(13*24+21) / float64(28*24)
	assert.InDelta(t, wantWeight, rows[0].PreWeight, 1e-12)
	assert.InDelta(t, 8-wantWeight, rows[0].Price, 1e-12)

	assert.Equal(t, int64(7), rows[0].PreID)
	assert.Equal(t, int64(8), rows[0].NextID)
	assert.Equal(t, preExp, rows[0].PreExpiration)
	assert.Equal(t, nextExp, rows[0].NextExpiration)

	// One day later the weight drops by exactly one day's share
	assert.InDelta(t, rows[0].PreWeight-1.0/28.0, rows[1].PreWeight, 1e-12)
}

func TestConstantMaturityMultiSegment(t *testing.T) {
	exps := map[int64]time.Time{
		7: stamp("2025-06-17T21:00:00Z"),
		8: stamp("2025-07-15T21:00:00Z"),
		9: stamp("2025-08-19T21:00:00Z"),
	}
	book := constantBook(day("2025-01-01"), day("2025-02-01"),
		map[int64]float64{7: 7, 8: 8, 9: 9}, exps)

	schedule := roll.Schedule{
		roll.NewPairSegment(day("2025-01-01"), day("2025-01-15"), 7, 8),
		roll.NewPairSegment(day("2025-01-15"), day("2025-02-01"), 8, 9),
	}

	rows, err := ConstantMaturity("SR3.cm.182", schedule, book, "price")
	require.NoError(t, err)
	require.Len(t, rows, 31)

	// Each row's pair matches its segment; the grid is daily with no
	// duplicated boundary day
	for i, r := range rows {
		want := day("2025-01-01").AddDate(0, 0, i)
		assert.Equal(t, want, r.Time)
		if r.Time.Before(day("2025-01-15")) {
			assert.Equal(t, int64(7), r.PreID)
			assert.Equal(t, int64(8), r.NextID)
		} else {
			assert.Equal(t, int64(8), r.PreID)
			assert.Equal(t, int64(9), r.NextID)
		}
	}
}

func TestConstantMaturityEmptySegment(t *testing.T) {
	book := constantBook(day("2025-01-01"), day("2025-01-02"),
		map[int64]float64{1: 10, 2: 20},
		map[int64]time.Time{1: day("2025-07-01"), 2: day("2025-07-31")})

	schedule := roll.Schedule{roll.NewPairSegment(day("2025-01-01"), day("2025-01-01"), 1, 2)}

	rows, err := ConstantMaturity("XX.cm.30", schedule, book, "price")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestConstantMaturityErrors(t *testing.T) {
	book := constantBook(day("2025-01-01"), day("2025-01-05"),
		map[int64]float64{1: 10, 2: 20},
		map[int64]time.Time{1: day("2025-07-01"), 2: day("2025-07-31")})

	t.Run("bad symbol", func(t *testing.T) {
		schedule := roll.Schedule{roll.NewPairSegment(day("2025-01-01"), day("2025-01-05"), 1, 2)}
		_, err := ConstantMaturity("XX.cm.nope", schedule, book, "price")
		assert.ErrorIs(t, err, market.ErrParse)
	})

	t.Run("unknown instrument", func(t *testing.T) {
		schedule := roll.Schedule{roll.NewPairSegment(day("2025-01-01"), day("2025-01-05"), 1, 99)}
		_, err := ConstantMaturity("XX.cm.30", schedule, book, "price")
		assert.ErrorIs(t, err, market.ErrMissingData)
	})

	t.Run("missing day", func(t *testing.T) {
		// Observations stop at 01-04 but the segment runs to 01-10
		schedule := roll.Schedule{roll.NewPairSegment(day("2025-01-01"), day("2025-01-10"), 1, 2)}
		_, err := ConstantMaturity("XX.cm.30", schedule, book, "price")
		assert.ErrorIs(t, err, market.ErrMissingData)
	})

	t.Run("missing field", func(t *testing.T) {
		schedule := roll.Schedule{roll.NewPairSegment(day("2025-01-01"), day("2025-01-05"), 1, 2)}
		_, err := ConstantMaturity("XX.cm.30", schedule, book, "close")
		assert.ErrorIs(t, err, market.ErrMissingData)
	})

	t.Run("shared expiration", func(t *testing.T) {
		shared := constantBook(day("2025-01-01"), day("2025-01-05"),
			map[int64]float64{1: 10, 2: 20},
			map[int64]time.Time{1: day("2025-07-01"), 2: day("2025-07-01")})
		schedule := roll.Schedule{roll.NewPairSegment(day("2025-01-01"), day("2025-01-05"), 1, 2)}
		_, err := ConstantMaturity("XX.cm.30", schedule, shared, "price")
		assert.ErrorIs(t, err, market.ErrInvalidSchedule)
	})
}

func TestCMRowWireColumns(t *testing.T) {
	out, err := json.Marshal(CMRow{Time: day("2025-01-02"), PreWeight: 0.5, Price: 12.5})
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &fields))
	assert.Contains(t, fields, "blended_price")
	assert.Contains(t, fields, "pre_weight")
	assert.NotContains(t, fields, "price")
}
