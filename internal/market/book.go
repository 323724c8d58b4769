package market

import (
	"sort"
	"time"
)

// Observation is one time-stamped row of per-instrument market data.
// Fields holds the numeric columns by name (price, open, close, ...);
// the expiration is constant per instrument and duplicated per row the
// way vendor OHLCV extracts deliver it.
type Observation struct {
	InstrumentID int64
	Time         time.Time
	Fields       map[string]float64
	Expiration   time.Time
}

// Date returns the UTC calendar date of the observation
func (o Observation) Date() time.Time {
	return DateOf(o.Time)
}

// Series is the ordered daily observation history of one instrument
type Series struct {
	InstrumentID int64
	Expiration   time.Time
	rows         []Observation
}

// Book indexes observation series by instrument id. It is built once
// per call from already-materialized data and never mutated afterwards.
type Book struct {
	series map[int64]*Series
}

// NewBook groups observations by instrument, normalizes timestamps to
// UTC, and sorts each series by time.
func NewBook(obs []Observation) *Book {
	series := make(map[int64]*Series)
	for _, o := range obs {
		o.Time = o.Time.UTC()
		o.Expiration = o.Expiration.UTC()
		s, ok := series[o.InstrumentID]
		if !ok {
			s = &Series{InstrumentID: o.InstrumentID, Expiration: o.Expiration}
			series[o.InstrumentID] = s
		}
		s.rows = append(s.rows, o)
	}
	for _, s := range series {
		sort.Slice(s.rows, func(a, b int) bool {
			return s.rows[a].Time.Before(s.rows[b].Time)
		})
	}
	return &Book{series: series}
}

// Series returns the observation history for an instrument
func (b *Book) Series(id int64) (*Series, bool) {
	s, ok := b.series[id]
	return s, ok
}

// Len returns the number of rows in the series
func (s *Series) Len() int {
	return len(s.rows)
}

// Rows returns all observations in time order
func (s *Series) Rows() []Observation {
	return s.rows
}

// At returns the observation on the given calendar date
func (s *Series) At(d time.Time) (Observation, bool) {
	day := DateOf(d)
	i := sort.Search(len(s.rows), func(i int) bool {
		return !s.rows[i].Date().Before(day)
	})
	if i < len(s.rows) && s.rows[i].Date().Equal(day) {
		return s.rows[i], true
	}
	return Observation{}, false
}

// Range returns the observations with dates in the half-open interval
// [d0, d1).
func (s *Series) Range(d0, d1 time.Time) []Observation {
	from, to := DateOf(d0), DateOf(d1)
	lo := sort.Search(len(s.rows), func(i int) bool {
		return !s.rows[i].Date().Before(from)
	})
	hi := sort.Search(len(s.rows), func(i int) bool {
		return !s.rows[i].Date().Before(to)
	})
	return s.rows[lo:hi]
}
