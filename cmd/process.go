// =============================================================================
// Retail ETL - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs the whole pipeline
// once on the configured source file.
//
// COMMAND USAGE:
//   retail-etl process [flags]
//
// FLAGS:
//   --file     : Source file to process (overrides source.path)
//   --out      : Dashboard summary path (overrides output.summary_path)
//   --seed     : Seed for synthesized quantity/profit (0 = random)
//   --dry-run  : Run every phase except loading, summary write and archival
//
// PROCESSING PIPELINE:
//   1. Load configuration
//   2. Prepare the MySQL store (connected on first use, never on dry runs)
//   3. Run the pipeline (read, transform, load, summarize)
//   4. Print the run summary
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/config"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/metrics"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/pipeline"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/store"
	"github.com/ghazalyy/RetailAnalyticsApp/pkg/logger"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun runs the pipeline without touching the store or the summary file.
var dryRun bool

// filePath overrides source.path.
var filePath string

// summaryOut overrides output.summary_path.
var summaryOut string

// seed overrides synthesis.seed.
var seed uint64

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the ETL pipeline on the source file",
	Long: `The process command reads the retail export, normalizes the columns,
fills in missing quantity and profit values, drops rows with an unparseable
order date, loads products and sales into MySQL and writes the dashboard
summary JSON.

On success:
  - Products are upserted and new sales inserted
  - The dashboard summary is replaced atomically
  - The source file is moved to output.archive_dir (if set)

On error:
  - The failing phase is reported and the exit code is 1
  - The dashboard summary from the previous run is left untouched
  - A processing summary is written to output.log_dir (if set)`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd.Context())
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the process command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(processCmd)

	// ==========================================================================
	// LOCAL FLAGS
	// ==========================================================================

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Run without writing to the database or the summary file",
	)

	processCmd.Flags().StringVar(
		&filePath,
		"file",
		"",
		"Source file to process (overrides source.path)",
	)

	processCmd.Flags().StringVar(
		&summaryOut,
		"out",
		"",
		"Dashboard summary output path (overrides output.summary_path)",
	)

	processCmd.Flags().Uint64Var(
		&seed,
		"seed",
		0,
		"Seed for synthesized values, 0 for a random seed (overrides synthesis.seed)",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess runs the pipeline once.
func runProcess(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("=== Retail ETL ===")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyProcessFlags(cfg)
	log := logger.Named("process")

	// =========================================================================
	// STEP 1: PREPARE THE STORE
	// =========================================================================
	// The connection is made by the load phase, so a bad source file is
	// reported before an unreachable database.

	deps := pipeline.Deps{
		Logger:   log,
		Metrics:  metrics.NewRegistry(),
		Progress: os.Stdout,
	}

	if !dryRun {
		st := store.NewLazy(cfg.Database,
			store.WithChunkSize(cfg.Load.ChunkSize),
			store.WithLogger(log))
		defer st.Close()
		deps.Loader = st
	}

	// =========================================================================
	// STEP 2: RUN THE PIPELINE
	// =========================================================================

	p := pipeline.New(cfg, deps, pipeline.WithDryRun(dryRun))
	result, runErr := p.Run(ctx)

	// =========================================================================
	// STEP 3: PRINT SUMMARY
	// =========================================================================

	printRunSummary(result, runErr)
	return runErr
}

// applyProcessFlags lets command-line flags override the configuration.
func applyProcessFlags(cfg *config.Config) {
	if filePath != "" {
		cfg.Source.Path = filePath
	}
	if summaryOut != "" {
		cfg.Output.SummaryPath = summaryOut
	}
	if seed != 0 {
		cfg.Synthesis.Seed = seed
	}
}

// printRunSummary prints the outcome of a run.
func printRunSummary(result *pipeline.Result, err error) {
	stats := result.Stats

	fmt.Println()
	fmt.Println("=== Processing Summary ===")
	fmt.Printf("Run ID:            %s\n", result.RunID)
	fmt.Printf("Rows read:         %d\n", stats.RowsRead)
	fmt.Printf("Rows dropped:      %d\n", stats.RowsDropped)
	fmt.Printf("Products:          %d\n", stats.Products)
	fmt.Printf("Sales inserted:    %d\n", stats.SalesInserted)
	fmt.Printf("Sales skipped:     %d\n", stats.SalesSkipped)
	fmt.Printf("Sales repeated:    %d\n", stats.SalesRepeated)
	fmt.Printf("Processing time:   %v\n", stats.ProcessingTime)

	if result.RejectLog != "" {
		fmt.Printf("Reject log:        %s\n", result.RejectLog)
	}
	if result.RunLog != "" {
		fmt.Printf("Run log:           %s\n", result.RunLog)
	}

	if err != nil {
		fmt.Println("Status:            FAILED")
		return
	}
	fmt.Println("Status:            SUCCESS")
	if result.SummaryPath != "" {
		fmt.Printf("Done! '%s' is ready for the dashboard.\n", result.SummaryPath)
	}
}
