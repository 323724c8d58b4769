package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule <symbol>",
	Short: "Build the roll schedule of a constant-maturity target",
	Long: `Build the roll schedule of a constant-maturity target over a date
window. Each segment names the contract pair bracketing the target
maturity on those days.

Example:
  go run ./cmd/contango schedule SR3.cm.182 --from 2025-01-01 --to 2025-04-01
  go run ./cmd/contango schedule SR3.cm.182 --from 2025-01-01 --to 2025-04-01 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSchedule,
}

var (
	scheduleFrom string
	scheduleTo   string
	scheduleJSON bool
)

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVar(&scheduleFrom, "from", "", "window start (YYYY-MM-DD)")
	scheduleCmd.Flags().StringVar(&scheduleTo, "to", "", "window end, exclusive (YYYY-MM-DD)")
	scheduleCmd.Flags().BoolVar(&scheduleJSON, "json", false, "emit JSON")
	scheduleCmd.MarkFlagRequired("from")
	scheduleCmd.MarkFlagRequired("to")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	symbol := args[0]

	from, err := parseDate(scheduleFrom, "from")
	if err != nil {
		return err
	}
	to, err := parseDate(scheduleTo, "to")
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	schedule, err := a.service.Schedule(cmd.Context(), symbol, from, to)
	if err != nil {
		return fmt.Errorf("build schedule: %w", err)
	}

	if scheduleJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(schedule)
	}

	fmt.Printf("Roll schedule for %s [%s, %s): %d segments\n",
		symbol, scheduleFrom, scheduleTo, len(schedule))
	for _, seg := range schedule {
		fmt.Printf("  %s -> %s  pre=%d next=%d\n",
			seg.D0.Format("2006-01-02"), seg.D1.Format("2006-01-02"), seg.Pre, seg.Next)
	}
	return nil
}
