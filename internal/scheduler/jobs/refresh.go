package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jwhan/contango/internal/productconfig"
	"github.com/jwhan/contango/internal/service"
	"github.com/jwhan/contango/pkg/calendar"
	"github.com/jwhan/contango/pkg/logger"
)

// RefreshJob pulls fresh definitions and daily bars for every product
// with refresh enabled, after the exchange session has settled
type RefreshJob struct {
	service  *service.Service
	products *productconfig.Config
	logger   *logger.Logger
}

// NewRefreshJob creates a new refresh job
func NewRefreshJob(svc *service.Service, products *productconfig.Config, log *logger.Logger) *RefreshJob {
	return &RefreshJob{
		service:  svc,
		products: products,
		logger:   log,
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "product_refresh"
}

// Schedule returns the cron schedule (daily at 23:30 UTC, after the
// exchange's daily settlement publishes)
func (j *RefreshJob) Schedule() string {
	return "0 30 23 * * *"
}

// Run refreshes every enabled product
func (j *RefreshJob) Run(ctx context.Context) error {
	now := time.Now()
	if !calendar.IsBusinessDay(now) {
		j.logger.Info("Skipping refresh on non-business day")
		return nil
	}

	var failed []string
	for _, product := range j.products.Products {
		if !product.Refresh.Enabled {
			continue
		}

		if err := j.service.Refresh(ctx, product.Root, product.Refresh.LookbackDays); err != nil {
			j.logger.WithError(err).WithField("root", product.Root).
				Error("Product refresh failed")
			failed = append(failed, product.Root)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("refresh failed for products: %v", failed)
	}
	return nil
}
