// Package summary builds the dashboard summary artifact of a run.
//
// The artifact is read by the dashboard backend and has exactly four
// top-level keys:
//
//	{
//	    "generated_at": "2024-01-15T14:30:22+07:00",
//	    "kpi": {"total_sales": 2297200.86, "total_profit": 459440.17, "total_orders": 9994},
//	    "pie_chart_category": {"Furniture": 741999.8, ...},
//	    "line_chart_trend": {"2014-01": 14236.9, ...}
//	}
package summary

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/types"
	"github.com/ghazalyy/RetailAnalyticsApp/pkg/utils"
)

// MonthLayout formats line_chart_trend keys.
const MonthLayout = "2006-01"

// Report holds the aggregates of one validated batch. Amounts stay decimal
// so that group sums add up to the totals exactly.
type Report struct {
	GeneratedAt time.Time
	TotalSales  decimal.Decimal
	TotalProfit decimal.Decimal
	TotalOrders int
	ByCategory  map[string]decimal.Decimal
	ByMonth     map[string]decimal.Decimal
}

// Aggregate computes the report over every record of batch.
func Aggregate(batch *types.Batch, now time.Time) *Report {
	r := &Report{
		GeneratedAt: now,
		ByCategory:  make(map[string]decimal.Decimal),
		ByMonth:     make(map[string]decimal.Decimal),
	}
	if batch == nil {
		return r
	}

	for _, rec := range batch.Records {
		r.TotalSales = r.TotalSales.Add(rec.Sales)
		r.TotalProfit = r.TotalProfit.Add(rec.Profit)
		r.ByCategory[rec.Category] = r.ByCategory[rec.Category].Add(rec.Sales)

		month := rec.OrderDate.Format(MonthLayout)
		r.ByMonth[month] = r.ByMonth[month].Add(rec.Sales)
	}
	r.TotalOrders = len(batch.Records)
	return r
}

type kpiJSON struct {
	TotalSales  float64 `json:"total_sales"`
	TotalProfit float64 `json:"total_profit"`
	TotalOrders int     `json:"total_orders"`
}

type reportJSON struct {
	GeneratedAt      string             `json:"generated_at"`
	KPI              kpiJSON            `json:"kpi"`
	PieChartCategory map[string]float64 `json:"pie_chart_category"`
	LineChartTrend   map[string]float64 `json:"line_chart_trend"`
}

// MarshalJSON renders the dashboard artifact. Amounts become JSON numbers.
func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(reportJSON{
		GeneratedAt: r.GeneratedAt.Format(time.RFC3339),
		KPI: kpiJSON{
			TotalSales:  r.TotalSales.InexactFloat64(),
			TotalProfit: r.TotalProfit.InexactFloat64(),
			TotalOrders: r.TotalOrders,
		},
		PieChartCategory: floats(r.ByCategory),
		LineChartTrend:   floats(r.ByMonth),
	})
}

func floats(m map[string]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v.InexactFloat64()
	}
	return out
}

// WriteJSON writes the report to path, replacing any previous artifact
// atomically.
func WriteJSON(path string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	data = append(data, '\n')
	if err := utils.AtomicWriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// FileWriter writes reports to a fixed path.
type FileWriter struct {
	Path string
}

// Write implements the pipeline's summary writer.
func (w FileWriter) Write(r *Report) error {
	return WriteJSON(w.Path, r)
}
