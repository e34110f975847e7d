package transform

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/types"
)

// ReasonRepeatedSale marks a record whose (orderId, productId) pair already
// appeared earlier in the batch.
const ReasonRepeatedSale = "order/product pair repeated in batch"

// priceScale is the number of decimal places kept for unit prices.
const priceScale = 4

// ResolveProducts derives one Product per distinct product id.
//
// The first record of a product in batch order is its representative: it
// supplies name, category and sub-category, and its unit price is
// sales / quantity. Later records of the same product do not change it.
// Products are returned in first-seen order.
func ResolveProducts(batch *types.Batch, defaultStock int) ([]types.Product, error) {
	if batch == nil {
		return nil, nil
	}

	seen := make(map[string]bool)
	var products []types.Product
	for _, rec := range batch.Records {
		if seen[rec.ProductID] {
			continue
		}
		seen[rec.ProductID] = true

		if rec.Quantity == 0 {
			return nil, &types.DivisionError{ProductID: rec.ProductID, Row: rec.Row}
		}

		products = append(products, types.Product{
			ID:          rec.ProductID,
			Name:        rec.ProductName,
			Category:    rec.Category,
			SubCategory: rec.SubCategory,
			Price:       rec.Sales.DivRound(decimal.NewFromInt(int64(rec.Quantity)), priceScale),
			Stock:       defaultStock,
		})
	}
	return products, nil
}

// BuildSales maps every batch record to a Sale row.
func BuildSales(batch *types.Batch) []types.Sale {
	if batch == nil {
		return nil
	}
	sales := make([]types.Sale, 0, len(batch.Records))
	for _, rec := range batch.Records {
		sales = append(sales, types.Sale{
			OrderID:    rec.OrderID,
			OrderDate:  rec.OrderDate,
			CustomerID: rec.CustomerID,
			Segment:    rec.Segment,
			Region:     rec.Region,
			ProductID:  rec.ProductID,
			Category:   rec.Category,
			Sales:      rec.Sales,
			Quantity:   rec.Quantity,
			Profit:     rec.Profit,
		})
	}
	return sales
}

// RepeatedSales reports every record whose (orderId, productId) pair was
// already seen earlier in the batch. The first occurrence is not reported.
func RepeatedSales(batch *types.Batch) []types.Rejection {
	if batch == nil {
		return nil
	}
	first := make(map[types.SaleKey]int)
	var repeats []types.Rejection
	for _, rec := range batch.Records {
		k := types.SaleKey{OrderID: rec.OrderID, ProductID: rec.ProductID}
		row, ok := first[k]
		if !ok {
			first[k] = rec.Row
			continue
		}
		repeats = append(repeats, types.Rejection{
			Row:     rec.Row,
			OrderID: rec.OrderID,
			Value:   rec.ProductID,
			Reason:  fmt.Sprintf("%s (first at row %d)", ReasonRepeatedSale, row),
		})
	}
	return repeats
}
