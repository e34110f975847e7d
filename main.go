// =============================================================================
// Retail ETL - Main Entry Point
// =============================================================================
//
// USAGE:
//   retail-etl process          - Run the pipeline on the configured source
//   retail-etl validate         - Check configuration and source, no database
//   retail-etl migrate          - Create or upgrade the Product and Sale tables
//   retail-etl report monthly   - Export one month of sales as XLSX
//   retail-etl version          - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : pipeline phases, store, config, metrics
//   - pkg/       : logger and file utilities
//
// =============================================================================

package main

import (
	"github.com/ghazalyy/RetailAnalyticsApp/cmd"
)

func main() {
	cmd.Execute()
}
