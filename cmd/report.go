// =============================================================================
// Retail ETL - Report Command
// =============================================================================
//
// This file defines the 'report' command group. 'report monthly' exports the
// stored sales as the XLSX workbook the dashboard offers for download,
// either for one month or for the whole store.
//
// COMMAND USAGE:
//   retail-etl report monthly [--month 2017-11|all] [--out laporan_penjualan.xlsx]
//
// Without --month, or with --month all, every stored sale is exported.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/store"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/xlsxwriter"
	"github.com/ghazalyy/RetailAnalyticsApp/pkg/logger"
)

var (
	reportMonth string
	reportOut   string
)

// reportCmd groups the report subcommands.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export reports from the stored sales",
}

// monthlyCmd represents the 'report monthly' command.
var monthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Export stored sales as an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMonthlyReport(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(monthlyCmd)

	monthlyCmd.Flags().StringVar(&reportMonth, "month", "", "Month to export as YYYY-MM or \"all\" (default: all)")
	monthlyCmd.Flags().StringVar(&reportOut, "out", xlsxwriter.DefaultFileName, "Output workbook path")
}

func runMonthlyReport(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	from, to, period, err := reportRange(reportMonth)
	if err != nil {
		return err
	}

	st, err := store.Open(ctx, cfg.Database, store.WithLogger(logger.Named("report")))
	if err != nil {
		return err
	}
	defer st.Close()

	sales, err := st.ListSales(ctx, from, to)
	if err != nil {
		return err
	}

	if err := xlsxwriter.WriteFile(reportOut, sales, xlsxwriter.DefaultGenerateOptions()); err != nil {
		return err
	}
	fmt.Printf("✓ Wrote %d sales for %s to %s\n", len(sales), period, reportOut)
	return nil
}

// reportRange turns the --month flag into ListSales bounds. An empty month
// or "all" leaves both bounds zero, which selects every stored sale.
func reportRange(month string) (from, to time.Time, period string, err error) {
	month = strings.TrimSpace(month)
	if month == "" || strings.EqualFold(month, "all") {
		return time.Time{}, time.Time{}, "all months", nil
	}
	// orderDate is stored without a zone; the driver reads it back as UTC
	from, to, err = xlsxwriter.MonthBounds(month, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, "", err
	}
	return from, to, month, nil
}
