package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jwhan/contango/internal/external/bento"
	"github.com/jwhan/contango/internal/market"
	"github.com/jwhan/contango/internal/productconfig"
	"github.com/jwhan/contango/internal/roll"
	"github.com/jwhan/contango/internal/splice"
	"github.com/jwhan/contango/internal/store"
	"github.com/jwhan/contango/pkg/logger"
	"github.com/jwhan/contango/pkg/redis"
)

const (
	scheduleTTL = 6 * time.Hour
	seriesTTL   = 1 * time.Hour
)

// Service coordinates schedule building and splicing over the stored
// market data. Handlers and CLI commands both go through it.
type Service struct {
	instruments  *store.InstrumentRepository
	observations *store.ObservationRepository
	schedules    *store.ScheduleRepository
	vendor       *bento.Client
	cache        *redis.Cache
	builder      *roll.Builder
	products     *productconfig.Config
	logger       *logger.Logger
}

// New creates a new service
func New(
	instruments *store.InstrumentRepository,
	observations *store.ObservationRepository,
	schedules *store.ScheduleRepository,
	vendor *bento.Client,
	cache *redis.Cache,
	products *productconfig.Config,
	log *logger.Logger,
) *Service {
	return &Service{
		instruments:  instruments,
		observations: observations,
		schedules:    schedules,
		vendor:       vendor,
		cache:        cache,
		builder:      roll.NewBuilder(roll.PolicyLenient),
		products:     products,
		logger:       log,
	}
}

// Schedule returns the roll schedule of a constant-maturity target over
// [from, to), building and persisting it on a miss
func (s *Service) Schedule(ctx context.Context, symbol string, from, to time.Time) (roll.Schedule, error) {
	target, err := roll.ParseTarget(symbol)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("schedule:%s:%s:%s",
		symbol, from.Format("2006-01-02"), to.Format("2006-01-02"))

	var cached roll.Schedule
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	if stored, err := s.schedules.Get(ctx, symbol, from, to); err != nil {
		return nil, fmt.Errorf("load stored schedule: %w", err)
	} else if stored != nil {
		_ = s.cache.Set(ctx, cacheKey, stored, scheduleTTL)
		return stored, nil
	}

	catalog, err := s.catalog(ctx, target.Root)
	if err != nil {
		return nil, err
	}

	schedule, err := s.builder.Build(target, catalog, from, to)
	if err != nil {
		return nil, err
	}

	if err := s.schedules.Save(ctx, symbol, from, to, schedule); err != nil {
		s.logger.WithError(err).Warn("Failed to persist schedule")
	}
	_ = s.cache.Set(ctx, cacheKey, schedule, scheduleTTL)

	s.logger.WithFields(map[string]interface{}{
		"symbol":   symbol,
		"segments": len(schedule),
	}).Info("Built roll schedule")
	return schedule, nil
}

// ConstantMaturitySeries builds the schedule of a target and blends its
// bracketing pairs into a fixed-maturity synthetic series
func (s *Service) ConstantMaturitySeries(ctx context.Context, symbol string, from, to time.Time) ([]splice.CMRow, error) {
	target, err := roll.ParseTarget(symbol)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("cm:%s:%s:%s",
		symbol, from.Format("2006-01-02"), to.Format("2006-01-02"))

	var cached []splice.CMRow
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	schedule, err := s.Schedule(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	if len(schedule) == 0 {
		return nil, fmt.Errorf("%w: no roll schedule for %s in [%s, %s)",
			market.ErrNoBracketingContracts, symbol,
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	book, err := s.book(ctx, scheduleInstruments(schedule), schedule)
	if err != nil {
		return nil, err
	}

	rows, err := splice.ConstantMaturity(symbol, schedule, book, s.priceField(target.Root))
	if err != nil {
		return nil, err
	}

	_ = s.cache.Set(ctx, cacheKey, rows, seriesTTL)
	return rows, nil
}

// ContinuousSeries stitches a caller-supplied single-contract schedule
// into one back-adjusted series
func (s *Service) ContinuousSeries(ctx context.Context, schedule roll.Schedule, adjustBy string, mode splice.AdjustMode, extraFields []string) (*splice.ContinuousResult, error) {
	if err := schedule.ValidateSingle(); err != nil {
		return nil, err
	}

	book, err := s.book(ctx, scheduleInstruments(schedule), schedule)
	if err != nil {
		return nil, err
	}

	return splice.Continuous(schedule, book, adjustBy, mode, extraFields)
}

// Refresh pulls the latest definitions and daily bars of a product root
// from the vendor and persists them, then invalidates derived schedules
func (s *Service) Refresh(ctx context.Context, root string, lookbackDays int) error {
	to := market.DateOf(time.Now()).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -lookbackDays)

	defs, err := s.vendor.ListDefinitions(ctx, root, from, to)
	if err != nil {
		return fmt.Errorf("pull definitions for %s: %w", root, err)
	}
	if err := s.instruments.SaveBatch(ctx, defs); err != nil {
		return fmt.Errorf("save definitions for %s: %w", root, err)
	}

	bars, err := s.vendor.GetDailyBars(ctx, root, from, to)
	if err != nil {
		return fmt.Errorf("pull bars for %s: %w", root, err)
	}
	if err := s.observations.SaveBatch(ctx, bars); err != nil {
		return fmt.Errorf("save bars for %s: %w", root, err)
	}

	if product, ok := s.products.ByRoot(root); ok {
		for _, days := range product.Targets {
			symbol := fmt.Sprintf("%s.cm.%d", root, days)
			if err := s.schedules.DeleteBySymbol(ctx, symbol); err != nil {
				s.logger.WithError(err).WithField("symbol", symbol).
					Warn("Failed to invalidate stored schedules")
			}
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"root":        root,
		"definitions": len(defs),
		"bars":        len(bars),
	}).Info("Refreshed product data")
	return nil
}

// catalog loads the outright futures of a root from storage
func (s *Service) catalog(ctx context.Context, root string) (*market.Catalog, error) {
	defs, err := s.instruments.GetByRoot(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("load definitions for %s: %w", root, err)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: no stored definitions for root %s", market.ErrMissingData, root)
	}
	return market.NewCatalog(defs), nil
}

// book loads the full observation histories of the schedule's
// instruments. The window spans every segment so continuity adjustments
// can read the incoming contract outside its own segment.
func (s *Service) book(ctx context.Context, ids []int64, schedule roll.Schedule) (*market.Book, error) {
	from, to := schedule[0].D0, schedule[0].D1
	for _, seg := range schedule[1:] {
		if seg.D0.Before(from) {
			from = seg.D0
		}
		if seg.D1.After(to) {
			to = seg.D1
		}
	}

	obs, err := s.observations.GetByInstruments(ctx, ids, from, to)
	if err != nil {
		return nil, fmt.Errorf("load observations: %w", err)
	}
	return market.NewBook(obs), nil
}

// priceField returns the configured splice input field of a root
func (s *Service) priceField(root string) string {
	if product, ok := s.products.ByRoot(root); ok && product.PriceField != "" {
		return product.PriceField
	}
	return "price"
}

// scheduleInstruments collects the distinct instrument ids a schedule
// references
func scheduleInstruments(schedule roll.Schedule) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	add := func(id int64) {
		if id != 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, seg := range schedule {
		add(seg.Pre)
		add(seg.Next)
		add(seg.Single)
	}
	return ids
}
