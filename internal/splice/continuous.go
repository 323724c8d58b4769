package splice

import (
	"fmt"
	"time"

	"github.com/jwhan/contango/internal/market"
	"github.com/jwhan/contango/internal/roll"
)

// AdjustMode selects how roll jumps are absorbed when stitching
// single-contract segments into one continuous series.
type AdjustMode int

const (
	Additive AdjustMode = iota
	Multiplicative
)

// Column returns the name of the cumulative adjustment output column
func (m AdjustMode) Column() string {
	if m == Multiplicative {
		return "multiplicative_adjustment"
	}
	return "additive_adjustment"
}

func (m AdjustMode) String() string {
	if m == Multiplicative {
		return "multiplicative"
	}
	return "additive"
}

// identity is the cumulative adjustment of the first segment
func (m AdjustMode) identity() float64 {
	if m == Multiplicative {
		return 1
	}
	return 0
}

// ParseAdjustMode parses "additive" or "multiplicative"
func ParseAdjustMode(s string) (AdjustMode, error) {
	switch s {
	case "additive", "add":
		return Additive, nil
	case "multiplicative", "mul":
		return Multiplicative, nil
	default:
		return Additive, fmt.Errorf("unknown adjust mode %q", s)
	}
}

// ContinuousRow is one output row of a back-adjusted continuous splice:
// the raw observation columns with the adjustable fields shifted, plus
// the cumulative adjustment applied at that row.
type ContinuousRow struct {
	InstrumentID int64              `json:"instrument_id"`
	Time         time.Time          `json:"datetime"`
	Fields       map[string]float64 `json:"fields"`
	Adjustment   float64            `json:"adjustment"`
}

// ContinuousResult is a spliced continuous series
type ContinuousResult struct {
	Rows             []ContinuousRow
	AdjustmentColumn string
}

// Continuous stitches the single-contract segments of an externally
// supplied schedule into one continuous series. At each transition the
// outgoing contract's last traded value of adjustBy (on date d, its
// last date inside the segment) is compared against the incoming
// contract's value on that same date d, taken from the incoming
// contract's full series:
//
//	additive:        adjustment = outgoing(d) - incoming(d)
//	multiplicative:  adjustment = outgoing(d) / incoming(d)
//
// Adjustments accumulate across transitions and shift every later
// segment so the jump at each roll is exactly absorbed; the earliest
// segment stays at its raw traded level. The incoming contract must
// have traded on d: there is no interpolation fallback for the
// adjustment itself.
func Continuous(schedule roll.Schedule, book *market.Book, adjustBy string, mode AdjustMode, extraFields []string) (*ContinuousResult, error) {
	if err := schedule.ValidateSingle(); err != nil {
		return nil, err
	}

	adjustable := map[string]bool{adjustBy: true}
	for _, f := range extraFields {
		adjustable[f] = true
	}

	cumulative := mode.identity()
	var lastDate time.Time
	var lastValue float64
	var rows []ContinuousRow

	for i, seg := range schedule {
		series, ok := book.Series(seg.Single)
		if !ok {
			return nil, fmt.Errorf("%w: instrument %d has no observations", market.ErrMissingData, seg.Single)
		}

		piece := series.Range(seg.D0, seg.D1)
		if len(piece) == 0 {
			return nil, fmt.Errorf("%w: instrument %d has no observations in [%s, %s)",
				market.ErrMissingData, seg.Single,
				seg.D0.Format("2006-01-02"), seg.D1.Format("2006-01-02"))
		}

		if i > 0 {
			// Incoming contract's value on the outgoing contract's
			// last traded date, from its full unfiltered series
			obs, ok := series.At(lastDate)
			if !ok {
				return nil, fmt.Errorf("%w: instrument %d has no observation on roll date %s",
					market.ErrMissingData, seg.Single, lastDate.Format("2006-01-02"))
			}
			incoming, ok := obs.Fields[adjustBy]
			if !ok {
				return nil, fmt.Errorf("%w: instrument %d observation on %s lacks field %q",
					market.ErrMissingData, seg.Single, lastDate.Format("2006-01-02"), adjustBy)
			}

			if mode == Multiplicative {
				cumulative *= lastValue / incoming
			} else {
				cumulative += lastValue - incoming
			}
		}

		for _, obs := range piece {
			fields := make(map[string]float64, len(obs.Fields))
			for name, v := range obs.Fields {
				if adjustable[name] {
					if mode == Multiplicative {
						v *= cumulative
					} else {
						v += cumulative
					}
				}
				fields[name] = v
			}
			rows = append(rows, ContinuousRow{
				InstrumentID: obs.InstrumentID,
				Time:         obs.Time,
				Fields:       fields,
				Adjustment:   cumulative,
			})
		}

		last := piece[len(piece)-1]
		lastDate = last.Date()
		value, ok := last.Fields[adjustBy]
		if !ok {
			return nil, fmt.Errorf("%w: instrument %d observation on %s lacks field %q",
				market.ErrMissingData, seg.Single, lastDate.Format("2006-01-02"), adjustBy)
		}
		lastValue = value
	}

	return &ContinuousResult{
		Rows:             rows,
		AdjustmentColumn: mode.Column(),
	}, nil
}
