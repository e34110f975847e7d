// =============================================================================
// Retail ETL - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (retail-etl)
//   ├── processCmd  (retail-etl process)
//   ├── validateCmd (retail-etl validate)
//   ├── migrateCmd  (retail-etl migrate)
//   ├── reportCmd   (retail-etl report monthly)
//   └── versionCmd  (retail-etl version)
//
// CONFIGURATION:
//   The root command owns the global flags (--config, --verbose). Commands
//   that need the configuration call loadConfig(), which layers defaults,
//   the YAML file and RETAIL_ETL_* environment variables and sets up
//   logging.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/config"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/types"
	"github.com/ghazalyy/RetailAnalyticsApp/pkg/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
// Empty means RETAIL_ETL_CONFIG, then config.yaml if present.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "retail-etl",
	Short: "Retail ETL - Load retail transaction exports into the analytics database",
	Long: `Retail ETL ingests a retail transaction export (CSV or XLSX), cleans and
enriches it, loads a product catalog and the sales into MySQL, and writes the
dashboard summary consumed by the analytics backend.

Key Features:
  - Configurable column mapping from the source export
  - Day-first order date validation with a reject log
  - Idempotent product upserts and duplicate-safe sale inserts
  - Dashboard summary JSON and monthly XLSX sales report
  - Run metrics for the Prometheus textfile collector or a Pushgateway

Example Usage:
  retail-etl process                       # Run the pipeline on source.path
  retail-etl process --file train.csv      # Run on a specific file
  retail-etl validate                      # Check config and source, no DB
  retail-etl report monthly --month 2017-11`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
//
// Errors are printed with the pipeline phase they came from, so the operator
// can tell a bad source file from a database problem at a glance.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		os.Exit(1)
	}
}

// describeError formats err for the terminal.
func describeError(err error) string {
	msg := fmt.Sprintf("Error: %v", err)
	if phase := types.Phase(err); phase != "" {
		msg = fmt.Sprintf("Error [%s]: %v", phase, err)
	}

	var conflict *types.LoadConflictError
	if errors.As(err, &conflict) && conflict.LikelyRerun {
		msg += "\nHint: the data was probably loaded before; use load.sale_conflict=skip to re-run safely."
	}
	var storeErr *types.StoreError
	if errors.As(err, &storeErr) {
		msg += "\nHint: check that MySQL is running and reachable with the database settings."
	}
	return msg
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// loadConfig loads the configuration and initialises logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logger.Init(os.Stderr)
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		return nil, err
	}
	return cfg, nil
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init sets up the global flags.
func init() {
	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================
	// Persistent flags are available to this command and all subcommands.

	// --config flag: Path to the YAML configuration file.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to the configuration file (default is config.yaml)",
	)

	// --verbose flag: Enables debug logging.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
