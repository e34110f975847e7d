// =============================================================================
// Retail ETL - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. It loads the configuration and
// runs the source through ingestion, normalization and date validation
// without connecting to the database, so a new export can be checked before
// it is loaded.
//
// COMMAND USAGE:
//   retail-etl validate [--file train.csv] [--show-config]
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/config"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/pipeline"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/transform"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/types"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/validation"
)

// showConfig prints the effective configuration as YAML.
var showConfig bool

// maxRejectsShown bounds the rejected rows printed by validate.
const maxRejectsShown = 10

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and the source file without loading",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate()
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&filePath, "file", "", "Source file to check (overrides source.path)")
	validateCmd.Flags().BoolVar(&showConfig, "show-config", false, "Print the effective configuration")
}

func runValidate() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if filePath != "" {
		cfg.Source.Path = filePath
	}
	fmt.Println("✓ Configuration is valid")

	if showConfig {
		out, err := config.Dump(cfg)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Print(string(out))
		fmt.Println()
	}

	src, err := pipeline.ReadSource(cfg.Source)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Read %s: %d rows, %d columns\n", src.Path, len(src.Records), len(src.Headers))

	records, err := transform.Normalize(src.Headers, src.Records, cfg.Mapping)
	if err != nil {
		return err
	}
	fmt.Println("✓ All required columns present")

	synth := transform.NewSynthesizer(transform.NewRandSource(cfg.Synthesis.Seed),
		transform.WithSettings(cfg.Synthesis))
	quantities, profits := synth.Synthesize(records)
	fmt.Printf("✓ %d quantities and %d profits would be synthesized\n", quantities, profits)

	v := validation.NewValidator(validation.Options{AcceptExcelSerials: src.Workbook})
	batch, err := v.Validate(records)

	var rejects []types.Rejection
	var dqe *types.DataQualityError
	switch {
	case err == nil:
		rejects = batch.Dropped
	case errors.As(err, &dqe):
		rejects = dqe.Rejections
	default:
		return err
	}

	for i, r := range rejects {
		if i == maxRejectsShown {
			fmt.Printf("  ... and %d more\n", len(rejects)-maxRejectsShown)
			break
		}
		fmt.Printf("  ✗ row %d (order %s): %s %q\n", r.Row, r.OrderID, r.Reason, r.Value)
	}
	if err != nil {
		return err
	}

	products, err := transform.ResolveProducts(batch, cfg.Load.DefaultStock)
	if err != nil {
		return err
	}

	fmt.Printf("✓ %d valid rows, %d dropped, %d distinct products\n",
		batch.Len(), len(batch.Dropped), len(products))
	return nil
}
