package roll

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jwhan/contango/internal/market"
)

const dateLayout = "2006-01-02"

// Segment is a contiguous half-open date interval [D0, D1) over which
// one roll selection applies: a bracketing contract pair in
// constant-maturity mode, or a single contract in continuity mode.
type Segment struct {
	D0 time.Time
	D1 time.Time

	// Pair mode
	Pre  int64
	Next int64

	// Single-contract mode
	Single int64
}

// NewPairSegment builds a constant-maturity segment
func NewPairSegment(d0, d1 time.Time, pre, next int64) Segment {
	return Segment{D0: market.DateOf(d0), D1: market.DateOf(d1), Pre: pre, Next: next}
}

// NewSingleSegment builds a continuity segment
func NewSingleSegment(d0, d1 time.Time, id int64) Segment {
	return Segment{D0: market.DateOf(d0), D1: market.DateOf(d1), Single: id}
}

// IsPair reports whether the segment selects a contract pair
func (s Segment) IsPair() bool {
	return s.Single == 0
}

// segmentJSON is the wire shape: ISO dates, instrument ids as strings,
// "p"/"n" for pair mode and "s" for single mode.
type segmentJSON struct {
	D0     string `json:"d0"`
	D1     string `json:"d1"`
	Pre    string `json:"p,omitempty"`
	Next   string `json:"n,omitempty"`
	Single string `json:"s,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (s Segment) MarshalJSON() ([]byte, error) {
	out := segmentJSON{
		D0: s.D0.Format(dateLayout),
		D1: s.D1.Format(dateLayout),
	}
	if s.IsPair() {
		out.Pre = strconv.FormatInt(s.Pre, 10)
		out.Next = strconv.FormatInt(s.Next, 10)
	} else {
		out.Single = strconv.FormatInt(s.Single, 10)
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler
func (s *Segment) UnmarshalJSON(data []byte) error {
	var in segmentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	d0, err := time.ParseInLocation(dateLayout, in.D0, time.UTC)
	if err != nil {
		return fmt.Errorf("segment d0: %w", err)
	}
	d1, err := time.ParseInLocation(dateLayout, in.D1, time.UTC)
	if err != nil {
		return fmt.Errorf("segment d1: %w", err)
	}

	seg := Segment{D0: d0, D1: d1}
	switch {
	case in.Single != "":
		id, err := strconv.ParseInt(in.Single, 10, 64)
		if err != nil {
			return fmt.Errorf("segment s: %w", err)
		}
		seg.Single = id
	default:
		pre, err := strconv.ParseInt(in.Pre, 10, 64)
		if err != nil {
			return fmt.Errorf("segment p: %w", err)
		}
		next, err := strconv.ParseInt(in.Next, 10, 64)
		if err != nil {
			return fmt.Errorf("segment n: %w", err)
		}
		seg.Pre = pre
		seg.Next = next
	}

	*s = seg
	return nil
}

// Schedule is an ordered sequence of non-overlapping segments. Built
// schedules are contiguous within runs of selectable days; gaps are
// legal where no bracketing pair existed.
type Schedule []Segment

// ValidateSingle checks the invariants required of a caller-supplied
// continuity schedule: at least one segment, single-contract segments
// with D0 < D1, ascending and contiguous across consecutive segments.
func (sch Schedule) ValidateSingle() error {
	if len(sch) == 0 {
		return fmt.Errorf("%w: schedule has no segments", market.ErrInvalidSchedule)
	}
	for i, seg := range sch {
		if seg.IsPair() {
			return fmt.Errorf("%w: segment %d is not single-contract", market.ErrInvalidSchedule, i)
		}
		if !seg.D0.Before(seg.D1) {
			return fmt.Errorf("%w: segment %d has d0 >= d1", market.ErrInvalidSchedule, i)
		}
		if i > 0 && !sch[i-1].D1.Equal(seg.D0) {
			return fmt.Errorf("%w: segment %d is not contiguous with its predecessor", market.ErrInvalidSchedule, i)
		}
	}
	return nil
}
