// =============================================================================
// Retail ETL - Schema Normalizer
// =============================================================================
//
// Normalize renames source columns to the canonical schema:
//
//   | Source column | Canonical field |
//   |---------------|-----------------|
//   | Order ID      | orderId         |
//   | Order Date    | orderDate       |
//   | Customer ID   | customerId      |
//   | Segment       | segment         |
//   | Region        | region          |
//   | Product ID    | productId       |
//   | Product Name  | productName     |
//   | Category      | category        |
//   | Sub-Category  | subCategory     |
//   | Sales         | sales           |
//
// Columns outside the mapping are dropped. Quantity and profit are only
// mapped when the source carries them; otherwise the synthesizer fills them.
//
// =============================================================================

package transform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/config"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/types"
)

// Normalize maps raw rows onto canonical Records.
//
// PARAMETERS:
//   - headers: The source header row (already trimmed by the parser).
//   - raw: The source rows in order.
//   - mapping: Source column -> canonical field table.
//
// RETURNS:
//   - One Record per raw row, same order.
//   - A *types.SchemaError if a required column is absent from the header, or
//     a required value (order id, product id, sales) is empty or not a number.
func Normalize(headers []string, raw []types.RawRecord, mapping []config.ColumnMapping) ([]types.Record, error) {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[strings.TrimSpace(h)] = true
	}

	// canonical -> source column actually found in the header
	columns := make(map[string]string, len(mapping))
	for _, m := range mapping {
		src := strings.TrimSpace(m.Source)
		if present[src] {
			if _, taken := columns[m.Canonical]; !taken {
				columns[m.Canonical] = src
			}
		}
	}

	var missing []string
	for _, field := range config.RequiredFields {
		if _, ok := columns[field]; !ok {
			missing = append(missing, sourceNameFor(field, mapping))
		}
	}
	if len(missing) > 0 {
		return nil, &types.SchemaError{Missing: missing}
	}

	records := make([]types.Record, 0, len(raw))
	for _, r := range raw {
		rec, err := normalizeRow(r, columns)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func normalizeRow(r types.RawRecord, columns map[string]string) (types.Record, error) {
	get := func(field string) string {
		col, ok := columns[field]
		if !ok {
			return ""
		}
		return strings.TrimSpace(r.Fields[col])
	}

	rec := types.Record{
		Row:          r.Row,
		OrderID:      get(config.FieldOrderID),
		RawOrderDate: get(config.FieldOrderDate),
		CustomerID:   get(config.FieldCustomerID),
		Segment:      get(config.FieldSegment),
		Region:       get(config.FieldRegion),
		ProductID:    get(config.FieldProductID),
		ProductName:  get(config.FieldProductName),
		Category:     get(config.FieldCategory),
		SubCategory:  get(config.FieldSubCategory),
	}

	if rec.OrderID == "" {
		return rec, &types.SchemaError{Row: r.Row, Field: config.FieldOrderID}
	}
	if rec.ProductID == "" {
		return rec, &types.SchemaError{Row: r.Row, Field: config.FieldProductID}
	}

	sales, err := ParseAmount(get(config.FieldSales))
	if err != nil {
		return rec, &types.SchemaError{Row: r.Row, Field: config.FieldSales}
	}
	rec.Sales = sales

	if v := get(config.FieldQuantity); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			return rec, &types.SchemaError{Row: r.Row, Field: config.FieldQuantity}
		}
		rec.Quantity, rec.HasQuantity = q, true
	}
	if v := get(config.FieldProfit); v != "" {
		p, err := ParseAmount(v)
		if err != nil {
			return rec, &types.SchemaError{Row: r.Row, Field: config.FieldProfit}
		}
		rec.Profit, rec.HasProfit = p, true
	}

	return rec, nil
}

// ParseAmount parses a monetary value such as "1,234.50" or "261.96".
// Commas are treated as thousands separators.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	return decimal.NewFromString(s)
}

// sourceNameFor returns the configured source column for a canonical field,
// falling back to the canonical name when the mapping has none.
func sourceNameFor(field string, mapping []config.ColumnMapping) string {
	for _, m := range mapping {
		if m.Canonical == field {
			return strings.TrimSpace(m.Source)
		}
	}
	return field
}
