package jobs

import (
	"context"
	"fmt"

	"github.com/jwhan/contango/internal/external/cmegroup"
	"github.com/jwhan/contango/internal/market"
	"github.com/jwhan/contango/internal/productconfig"
	"github.com/jwhan/contango/internal/store"
	"github.com/jwhan/contango/pkg/logger"
)

// CalendarCheckJob cross-checks stored expirations against the
// exchange's public calendar pages. A mismatch means the vendor feed
// and the exchange disagree and every schedule built from the root is
// suspect, so it is surfaced loudly but not auto-corrected.
type CalendarCheckJob struct {
	instruments *store.InstrumentRepository
	exchange    *cmegroup.Client
	products    *productconfig.Config
	logger      *logger.Logger
}

// NewCalendarCheckJob creates a new calendar check job
func NewCalendarCheckJob(
	instruments *store.InstrumentRepository,
	exchange *cmegroup.Client,
	products *productconfig.Config,
	log *logger.Logger,
) *CalendarCheckJob {
	return &CalendarCheckJob{
		instruments: instruments,
		exchange:    exchange,
		products:    products,
		logger:      log,
	}
}

// Name returns the job name
func (j *CalendarCheckJob) Name() string {
	return "expiration_calendar_check"
}

// Schedule returns the cron schedule (Sundays at 12:00 UTC)
func (j *CalendarCheckJob) Schedule() string {
	return "0 0 12 * * 0"
}

// Run checks every enabled product root
func (j *CalendarCheckJob) Run(ctx context.Context) error {
	var mismatches int

	for _, product := range j.products.Products {
		if !product.Refresh.Enabled {
			continue
		}

		n, err := j.checkRoot(ctx, product.Root)
		if err != nil {
			j.logger.WithError(err).WithField("root", product.Root).
				Warn("Calendar check skipped")
			continue
		}
		mismatches += n
	}

	if mismatches > 0 {
		return fmt.Errorf("%d expiration mismatches against exchange calendar", mismatches)
	}
	return nil
}

// checkRoot compares stored expirations of one root with the scraped
// calendar, matching contracts by product code
func (j *CalendarCheckJob) checkRoot(ctx context.Context, root string) (int, error) {
	entries, err := j.exchange.FetchExpirationCalendar(ctx, root)
	if err != nil {
		return 0, err
	}

	byCode := make(map[string]cmegroup.ContractExpiry, len(entries))
	for _, e := range entries {
		byCode[e.ProductCode] = e
	}

	defs, err := j.instruments.GetByRoot(ctx, root)
	if err != nil {
		return 0, err
	}

	mismatches := 0
	for _, inst := range defs {
		if inst.Class != market.ClassFuture {
			continue
		}
		entry, ok := byCode[inst.RawSymbol]
		if !ok {
			continue
		}

		// The stored expiration timestamp must fall on the exchange's
		// last trade date
		if !inst.ExpirationDate().Equal(market.DateOf(entry.LastTrade)) {
			mismatches++
			j.logger.WithFields(map[string]interface{}{
				"symbol":        inst.RawSymbol,
				"stored":        inst.ExpirationDate().Format("2006-01-02"),
				"exchange":      market.DateOf(entry.LastTrade).Format("2006-01-02"),
				"instrument_id": inst.ID,
			}).Error("Expiration mismatch")
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"root":       root,
		"checked":    len(defs),
		"mismatches": mismatches,
	}).Info("Calendar check completed")
	return mismatches, nil
}
