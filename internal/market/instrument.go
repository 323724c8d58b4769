package market

import (
	"sort"
	"strings"
	"time"
)

// InstrumentClass distinguishes outright futures from spreads in the
// vendor definition feed. Spreads appear in the catalog as noise and
// never participate in roll selection.
type InstrumentClass string

const (
	ClassFuture InstrumentClass = "F"
	ClassSpread InstrumentClass = "S"
)

// Instrument is a single contract definition. Immutable once loaded.
type Instrument struct {
	ID         int64
	RawSymbol  string
	Class      InstrumentClass
	Expiration time.Time
	ListedAt   time.Time
}

// ExpirationDate returns the UTC calendar date of expiration
func (i Instrument) ExpirationDate() time.Time {
	return DateOf(i.Expiration)
}

// ListedDate returns the UTC calendar date the contract became live
func (i Instrument) ListedDate() time.Time {
	return DateOf(i.ListedAt)
}

// DateOf truncates a timestamp to its UTC calendar date. Every
// date-granularity comparison in the engine goes through this single
// normalization, so naive/aware timestamp mixing cannot occur past
// ingestion.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Catalog is an immutable, UTC-normalized view of the outright futures
// in an instrument definition set, ordered by expiration date.
type Catalog struct {
	outrights []Instrument
	byID      map[int64]Instrument
}

// NewCatalog filters defs down to outright futures, normalizes their
// timestamps to UTC, deduplicates by instrument id, and sorts by
// expiration date. Spreads and unknown classes are dropped.
func NewCatalog(defs []Instrument) *Catalog {
	byID := make(map[int64]Instrument)
	for _, def := range defs {
		if def.Class != ClassFuture {
			continue
		}
		def.Expiration = def.Expiration.UTC()
		def.ListedAt = def.ListedAt.UTC()
		if _, ok := byID[def.ID]; !ok {
			byID[def.ID] = def
		}
	}

	outrights := make([]Instrument, 0, len(byID))
	for _, def := range byID {
		outrights = append(outrights, def)
	}
	sort.Slice(outrights, func(a, b int) bool {
		da, db := outrights[a].ExpirationDate(), outrights[b].ExpirationDate()
		if da.Equal(db) {
			return outrights[a].ID < outrights[b].ID
		}
		return da.Before(db)
	})

	return &Catalog{outrights: outrights, byID: byID}
}

// Len returns the number of outright contracts in the catalog
func (c *Catalog) Len() int {
	return len(c.outrights)
}

// Get looks up a contract by instrument id
func (c *Catalog) Get(id int64) (Instrument, bool) {
	inst, ok := c.byID[id]
	return inst, ok
}

// All returns the contracts in expiration order
func (c *Catalog) All() []Instrument {
	return c.outrights
}

// WithRoot returns a catalog restricted to contracts whose raw symbol
// starts with the given product root. An empty root keeps everything.
func (c *Catalog) WithRoot(root string) *Catalog {
	if root == "" {
		return c
	}
	filtered := make([]Instrument, 0, len(c.outrights))
	byID := make(map[int64]Instrument)
	for _, inst := range c.outrights {
		if strings.HasPrefix(inst.RawSymbol, root) {
			filtered = append(filtered, inst)
			byID[inst.ID] = inst
		}
	}
	return &Catalog{outrights: filtered, byID: byID}
}

// LiveOn returns the contracts listed on or before the given calendar
// date, preserving expiration order.
func (c *Catalog) LiveOn(d time.Time) []Instrument {
	day := DateOf(d)
	live := make([]Instrument, 0, len(c.outrights))
	for _, inst := range c.outrights {
		if !inst.ListedDate().After(day) {
			live = append(live, inst)
		}
	}
	return live
}
