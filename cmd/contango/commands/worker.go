package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jwhan/contango/internal/external/bento"
	"github.com/jwhan/contango/internal/external/cmegroup"
	"github.com/jwhan/contango/internal/scheduler"
	"github.com/jwhan/contango/internal/scheduler/jobs"
	"github.com/jwhan/contango/internal/store"
	"github.com/jwhan/contango/pkg/httputil"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background worker",
	Long: `Run the background worker: nightly product data refresh, weekly
expiration calendar checks, and optionally a live intraday bar stream.

Example:
  go run ./cmd/contango worker
  go run ./cmd/contango worker --refresh-now
  go run ./cmd/contango worker --stream`,
	RunE: runWorker,
}

var (
	workerRefreshNow bool
	workerStream     bool
)

func init() {
	rootCmd.AddCommand(workerCmd)

	workerCmd.Flags().BoolVar(&workerRefreshNow, "refresh-now", false, "run the refresh job immediately on start")
	workerCmd.Flags().BoolVar(&workerStream, "stream", false, "subscribe to the live intraday bar stream")
}

func runWorker(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	exchange := cmegroup.NewClient(httputil.New(a.log), a.log)
	instruments := store.NewInstrumentRepository(a.db.Pool)

	sched := scheduler.New(a.log)
	if err := sched.AddJob(jobs.NewRefreshJob(a.service, a.products, a.log)); err != nil {
		return fmt.Errorf("add refresh job: %w", err)
	}
	if err := sched.AddJob(jobs.NewCalendarCheckJob(instruments, exchange, a.products, a.log)); err != nil {
		return fmt.Errorf("add calendar check job: %w", err)
	}

	sched.Start()
	defer sched.Stop()

	if workerRefreshNow {
		if err := sched.RunJob("product_refresh"); err != nil {
			return err
		}
	}

	if workerStream {
		if err := startStream(cmd, a); err != nil {
			return err
		}
	}

	a.log.Info("Worker started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh

	a.log.WithField("signal", sig.String()).Info("Shutdown signal received")
	return nil
}

// startStream connects the live feed and persists pushed bars. Stream
// bars overwrite the current day's row until the nightly pull settles
// it.
func startStream(cmd *cobra.Command, a *app) error {
	observations := store.NewObservationRepository(a.db.Pool)

	stream := bento.NewStreamClient(a.cfg.Vendor, a.log)
	stream.OnBar(func(bar *bento.LiveBar) {
		err := observations.Save(cmd.Context(), store.DailyBar{
			InstrumentID: bar.InstrumentID,
			Time:         bar.Time,
			Open:         bar.Open,
			High:         bar.High,
			Low:          bar.Low,
			Close:        bar.Close,
			Volume:       bar.Volume,
		})
		if err != nil {
			a.log.WithError(err).Warn("Failed to persist live bar")
		}
	})
	stream.OnError(func(err error) {
		a.log.WithError(err).Error("Live stream error")
	})

	if err := stream.Connect(cmd.Context()); err != nil {
		return fmt.Errorf("connect live stream: %w", err)
	}

	for _, product := range a.products.Products {
		if !product.Refresh.Enabled {
			continue
		}
		if err := stream.Subscribe(product.Root); err != nil {
			a.log.WithError(err).WithField("root", product.Root).
				Warn("Live subscription failed")
		}
	}
	return nil
}
