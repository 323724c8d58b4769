package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jwhan/contango/internal/roll"
	"github.com/jwhan/contango/internal/splice"
)

// continuousCmd represents the continuous command
var continuousCmd = &cobra.Command{
	Use:   "continuous",
	Short: "Splice a single-contract schedule into a continuous series",
	Long: `Stitch the single-contract segments of a schedule file into one
back-adjusted continuous series. The schedule is a JSON array of
segments with "d0", "d1" and "s" keys.

Example:
  go run ./cmd/contango continuous --schedule schedule.json
  go run ./cmd/contango continuous --schedule schedule.json --mode multiplicative --adjust-by close`,
	RunE: runContinuous,
}

var (
	continuousScheduleFile string
	continuousAdjustBy     string
	continuousMode         string
	continuousExtraFields  []string
	continuousJSON         bool
)

func init() {
	rootCmd.AddCommand(continuousCmd)

	continuousCmd.Flags().StringVar(&continuousScheduleFile, "schedule", "", "schedule JSON file")
	continuousCmd.Flags().StringVar(&continuousAdjustBy, "adjust-by", "price", "field driving the roll adjustment")
	continuousCmd.Flags().StringVar(&continuousMode, "mode", "additive", "adjustment mode (additive|multiplicative)")
	continuousCmd.Flags().StringSliceVar(&continuousExtraFields, "extra-fields", nil, "additional fields to adjust")
	continuousCmd.Flags().BoolVar(&continuousJSON, "json", false, "emit JSON")
	continuousCmd.MarkFlagRequired("schedule")
}

func runContinuous(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(continuousScheduleFile)
	if err != nil {
		return fmt.Errorf("read schedule file: %w", err)
	}

	var schedule roll.Schedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return fmt.Errorf("parse schedule file: %w", err)
	}

	mode, err := splice.ParseAdjustMode(continuousMode)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.service.ContinuousSeries(cmd.Context(), schedule, continuousAdjustBy, mode, continuousExtraFields)
	if err != nil {
		return fmt.Errorf("build continuous series: %w", err)
	}

	if continuousJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("Continuous series: %d rows (%s)\n", len(result.Rows), result.AdjustmentColumn)
	for _, row := range result.Rows {
		fmt.Printf("  %s  id=%d  %s=%.4f  adj=%.4f\n",
			row.Time.Format("2006-01-02"), row.InstrumentID,
			continuousAdjustBy, row.Fields[continuousAdjustBy], row.Adjustment)
	}
	return nil
}
