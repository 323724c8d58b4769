package commands

import (
	"fmt"
	"time"

	"github.com/jwhan/contango/internal/external/bento"
	"github.com/jwhan/contango/internal/productconfig"
	"github.com/jwhan/contango/internal/service"
	"github.com/jwhan/contango/internal/store"
	"github.com/jwhan/contango/pkg/config"
	"github.com/jwhan/contango/pkg/database"
	"github.com/jwhan/contango/pkg/logger"
	"github.com/jwhan/contango/pkg/redis"
)

// app bundles everything a command needs after bootstrap
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	products *productconfig.Config
	service  *service.Service
}

// newApp loads config, connects to the database and cache, and wires
// the service. Every command that touches data goes through this.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if productFile != "" {
		cfg.ProductFile = productFile
	}

	log := logger.New(cfg)

	products, _, err := productconfig.Load(cfg.ProductFile)
	if err != nil {
		return nil, fmt.Errorf("load product catalog: %w", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	vendor := bento.NewClient(cfg.Vendor, log)

	svc := service.New(
		store.NewInstrumentRepository(db.Pool),
		store.NewObservationRepository(db.Pool),
		store.NewScheduleRepository(db.Pool),
		vendor,
		redis.NewCache(redisClient, "contango"),
		products,
		log,
	)

	return &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		redis:    redisClient,
		products: products,
		service:  svc,
	}, nil
}

// Close releases the app's connections
func (a *app) Close() {
	a.redis.Close()
	a.db.Close()
}

// parseDate parses a YYYY-MM-DD flag value
func parseDate(s, flag string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s date %q (expected YYYY-MM-DD)", flag, s)
	}
	return d, nil
}
