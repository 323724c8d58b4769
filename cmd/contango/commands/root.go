package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	productFile string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "contango",
	Short: "Futures roll schedules and continuous price series",
	Long: `Contango builds roll schedules for constant-maturity futures targets
and splices per-contract price history into continuous series.

Usage:
  go run ./cmd/contango [command]

Examples:
  go run ./cmd/contango schedule SR3.cm.182 --from 2025-01-01 --to 2025-04-01
  go run ./cmd/contango cm SR3.cm.182 --from 2025-01-01 --to 2025-04-01
  go run ./cmd/contango continuous --schedule schedule.json --mode additive
  go run ./cmd/contango serve
  go run ./cmd/contango worker`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&productFile, "products", "", "product catalog file (default from PRODUCT_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
