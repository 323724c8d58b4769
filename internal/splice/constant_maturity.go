package splice

import (
	"fmt"
	"time"

	"github.com/jwhan/contango/internal/market"
	"github.com/jwhan/contango/internal/roll"
)

// CMRow is one output row of a constant-maturity splice
type CMRow struct {
	Time           time.Time `json:"datetime"`
	PrePrice       float64   `json:"pre_price"`
	PreID          int64     `json:"pre_id"`
	PreExpiration  time.Time `json:"pre_expiration"`
	NextPrice      float64   `json:"next_price"`
	NextID         int64     `json:"next_id"`
	NextExpiration time.Time `json:"next_expiration"`
	PreWeight      float64   `json:"pre_weight"`
	Price          float64   `json:"blended_price"`
}

// ConstantMaturity blends the bracketing contract pair of each schedule
// segment into a single synthetic price holding a fixed time to expiry.
// The maturity is re-derived from symbol with the same parser the
// schedule builder uses, so the two always agree.
//
// For each daily grid point t in a segment the pre contract's weight is
//
//	(nextExpiration - (t + maturity)) / (nextExpiration - preExpiration)
//
// which is 1 when t+maturity sits exactly on the pre expiration and 0
// when it sits on the next expiration. The weight is deliberately not
// clamped to [0,1]: values outside that range occur near segment
// boundaries and carry real information.
func ConstantMaturity(symbol string, schedule roll.Schedule, book *market.Book, priceField string) ([]CMRow, error) {
	target, err := roll.ParseTarget(symbol)
	if err != nil {
		return nil, err
	}

	maturity := target.Maturity()
	var rows []CMRow

	for _, seg := range schedule {
		pre, err := contractSeries(book, seg.Pre)
		if err != nil {
			return nil, err
		}
		next, err := contractSeries(book, seg.Next)
		if err != nil {
			return nil, err
		}

		denom := next.Expiration.Sub(pre.Expiration)
		if denom == 0 {
			return nil, fmt.Errorf("%w: contracts %d and %d share expiration %s",
				market.ErrInvalidSchedule, seg.Pre, seg.Next, pre.Expiration.Format(time.RFC3339))
		}

		// Daily grid over [d0, d1); an empty segment yields no rows
		for t := seg.D0; t.Before(seg.D1); t = t.AddDate(0, 0, 1) {
			prePrice, err := fieldAt(pre, seg.Pre, t, priceField)
			if err != nil {
				return nil, err
			}
			nextPrice, err := fieldAt(next, seg.Next, t, priceField)
			if err != nil {
				return nil, err
			}

			preWeight := float64(next.Expiration.Sub(t.Add(maturity))) / float64(denom)

			rows = append(rows, CMRow{
				Time:           t,
				PrePrice:       prePrice,
				PreID:          seg.Pre,
				PreExpiration:  pre.Expiration,
				NextPrice:      nextPrice,
				NextID:         seg.Next,
				NextExpiration: next.Expiration,
				PreWeight:      preWeight,
				Price:          preWeight*prePrice + (1-preWeight)*nextPrice,
			})
		}
	}

	return rows, nil
}

// contractSeries resolves an instrument's observation series, requiring
// a known expiration
func contractSeries(book *market.Book, id int64) (*market.Series, error) {
	s, ok := book.Series(id)
	if !ok {
		return nil, fmt.Errorf("%w: instrument %d has no observations", market.ErrMissingData, id)
	}
	if s.Expiration.IsZero() {
		return nil, fmt.Errorf("%w: instrument %d has no expiration", market.ErrMissingData, id)
	}
	return s, nil
}

// fieldAt reads one named value from an instrument's observation on a
// given date
func fieldAt(s *market.Series, id int64, t time.Time, field string) (float64, error) {
	obs, ok := s.At(t)
	if !ok {
		return 0, fmt.Errorf("%w: instrument %d has no observation on %s",
			market.ErrMissingData, id, t.Format("2006-01-02"))
	}
	v, ok := obs.Fields[field]
	if !ok {
		return 0, fmt.Errorf("%w: instrument %d observation on %s lacks field %q",
			market.ErrMissingData, id, t.Format("2006-01-02"), field)
	}
	return v, nil
}
