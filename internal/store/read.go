package store

import (
	"context"
	"strings"
	"time"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/types"
)

const selectSales = "SELECT `orderId`, `orderDate`, `customerId`, `segment`, `region`, " +
	"`productId`, `category`, `sales`, `quantity`, `profit` FROM `Sale`"

// ListSales returns the sales with from <= orderDate < to, newest first.
// A zero from or to leaves that side unbounded.
func (s *Store) ListSales(ctx context.Context, from, to time.Time) ([]types.Sale, error) {
	var (
		where []string
		args  []any
	)
	if !from.IsZero() {
		where = append(where, "`orderDate` >= ?")
		args = append(args, from)
	}
	if !to.IsZero() {
		where = append(where, "`orderDate` < ?")
		args = append(args, to)
	}

	query := selectSales
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY `orderDate` DESC, `id` DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list sales", TableSale, err)
	}
	defer rows.Close()

	var sales []types.Sale
	for rows.Next() {
		var sale types.Sale
		err := rows.Scan(
			&sale.OrderID,
			&sale.OrderDate,
			&sale.CustomerID,
			&sale.Segment,
			&sale.Region,
			&sale.ProductID,
			&sale.Category,
			&sale.Sales,
			&sale.Quantity,
			&sale.Profit,
		)
		if err != nil {
			return nil, classify("scan sale", TableSale, err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list sales", TableSale, err)
	}
	return sales, nil
}

// CountProducts returns the number of rows in Product.
func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM `Product`").Scan(&n); err != nil {
		return 0, classify("count products", TableProduct, err)
	}
	return n, nil
}
