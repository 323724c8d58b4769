package roll

import (
	"fmt"
	"time"

	"github.com/jwhan/contango/internal/market"
)

// Policy controls how the builder treats days on which no bracketing
// contract pair exists.
type Policy int

const (
	// PolicyLenient omits unselectable days from the schedule; gaps
	// are legal and the caller sees a schedule that may not fully
	// cover the requested range.
	PolicyLenient Policy = iota

	// PolicyStrict fails the whole build on the first unselectable day
	PolicyStrict
)

// Builder produces constant-maturity roll schedules from an instrument
// catalog. It is a pure function of its inputs; the zero value uses the
// lenient policy.
type Builder struct {
	policy Policy
}

// NewBuilder creates a builder with the given policy
func NewBuilder(policy Policy) *Builder {
	return &Builder{policy: policy}
}

// pair is one day's bracketing selection
type pair struct {
	pre  int64
	next int64
}

// Build walks every calendar date in [start, end) and selects the
// contract pair whose expirations straddle date + maturity days, then
// compresses consecutive days with an identical pair into segments.
// A pair change mid-range, whether from an expiration crossing the
// target or from a newly listed contract entering the pool, starts a
// new segment. The final segment is clamped to end.
func (b *Builder) Build(target Target, catalog *market.Catalog, start, end time.Time) (Schedule, error) {
	cat := catalog.WithRoot(target.Root)

	var (
		schedule Schedule
		current  *pair
		runStart time.Time
	)

	from, to := market.DateOf(start), market.DateOf(end)
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		p, ok := b.selectPair(cat, target, d)
		if !ok {
			if b.policy == PolicyStrict {
				return nil, fmt.Errorf("%w: %s", market.ErrNoBracketingContracts, d.Format(dateLayout))
			}
			// Lenient: close any open run and leave a gap
			if current != nil {
				schedule = append(schedule, NewPairSegment(runStart, d, current.pre, current.next))
				current = nil
			}
			continue
		}

		if current == nil {
			current = &p
			runStart = d
			continue
		}

		if *current != p {
			schedule = append(schedule, NewPairSegment(runStart, d, current.pre, current.next))
			current = &p
			runStart = d
		}
	}

	if current != nil {
		schedule = append(schedule, NewPairSegment(runStart, to, current.pre, current.next))
	}

	return schedule, nil
}

// selectPair picks the straddling contracts for one day: among the
// contracts live by d, pre is the one with the greatest expiration date
// strictly before the target date and next the one with the smallest
// expiration date on or after it.
func (b *Builder) selectPair(cat *market.Catalog, target Target, d time.Time) (pair, bool) {
	pool := cat.LiveOn(d)
	if len(pool) < 2 {
		return pair{}, false
	}

	targetDate := target.TargetDate(d)

	var pre, next *market.Instrument
	for i := range pool {
		inst := &pool[i]
		if inst.ExpirationDate().Before(targetDate) {
			pre = inst // pool is expiration-ordered, keep the latest
		} else if next == nil {
			next = inst
			break
		}
	}

	if pre == nil || next == nil || pre.ID == next.ID {
		return pair{}, false
	}
	return pair{pre: pre.ID, next: next.ID}, true
}
