package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/config"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/types"
	"github.com/ghazalyy/RetailAnalyticsApp/pkg/logger"
)

// ConflictPolicy decides what happens when a sale already exists.
type ConflictPolicy string

const (
	// ConflictSkip leaves existing sales untouched and inserts the rest.
	ConflictSkip ConflictPolicy = config.SaleConflictSkip

	// ConflictFail aborts the sales phase on the first duplicate.
	ConflictFail ConflictPolicy = config.SaleConflictFail
)

// ParsePolicy converts a configuration value to a ConflictPolicy.
func ParsePolicy(s string) (ConflictPolicy, error) {
	switch p := ConflictPolicy(s); p {
	case ConflictSkip, ConflictFail:
		return p, nil
	case "":
		return ConflictSkip, nil
	}
	return "", fmt.Errorf("unknown sale conflict policy %q", s)
}

// LoadStats reports what a load phase did.
type LoadStats struct {
	// Submitted is the number of rows sent.
	Submitted int

	// Inserted is the number of new sales. Product upserts leave it zero,
	// since MySQL does not tell inserts and updates apart per row.
	Inserted int

	// Skipped is the number of sales already present in the store (skip
	// policy only).
	Skipped int

	// Repeated is the number of sales whose (orderId, productId) pair
	// already occurred earlier in the same batch. Under the skip policy only
	// the first occurrence is sent; the fail policy rejects such batches.
	Repeated int

	// Affected is the driver's affected-row count: 1 per inserted row and
	// 2 per updated row under ON DUPLICATE KEY UPDATE.
	Affected int64

	// Chunks is the number of INSERT statements issued.
	Chunks int
}

const productColumns = 6

// Stock is only set on insert; re-runs must not reset it. VALUES() keeps the
// statement valid on MariaDB as shipped with XAMPP.
const upsertProducts = "INSERT INTO `Product` (`id`, `name`, `category`, `subCategory`, `price`, `stock`) VALUES %s " +
	"ON DUPLICATE KEY UPDATE `name` = VALUES(`name`), `category` = VALUES(`category`), " +
	"`subCategory` = VALUES(`subCategory`), `price` = VALUES(`price`)"

// LoadProducts upserts products in a single transaction.
func (s *Store) LoadProducts(ctx context.Context, products []types.Product) (LoadStats, error) {
	stats := LoadStats{Submitted: len(products)}
	if len(products) == 0 {
		return stats, nil
	}

	err := s.inTx(ctx, TableProduct, func(tx *sql.Tx) error {
		return chunks(len(products), s.chunkSize, func(start, end int) error {
			chunk := products[start:end]
			args := make([]any, 0, len(chunk)*productColumns)
			for _, p := range chunk {
				args = append(args, p.ID, p.Name, p.Category, p.SubCategory, p.Price.StringFixed(2), p.Stock)
			}

			query := fmt.Sprintf(upsertProducts, placeholders(len(chunk), productColumns))
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return classify("upsert products", TableProduct, err)
			}
			stats.Chunks++
			var affected int64
			if n, err := res.RowsAffected(); err == nil {
				affected = n
				stats.Affected += n
			}
			s.log.Debug(ctx, "product chunk upserted",
				logger.Int("from", start), logger.Int("to", end), logger.Int64("affected", affected))
			return nil
		})
	})
	if err != nil {
		return LoadStats{Submitted: len(products)}, err
	}
	return stats, nil
}

const saleColumns = 10

const insertSales = "INSERT INTO `Sale` (`orderId`, `orderDate`, `customerId`, `segment`, `region`, " +
	"`productId`, `category`, `sales`, `quantity`, `profit`) VALUES %s"

// The no-op update turns a duplicate into an unchanged row (0 affected)
// without suppressing foreign key errors the way INSERT IGNORE would.
const skipDuplicateSales = " ON DUPLICATE KEY UPDATE `orderId` = `orderId`"

// LoadSales inserts sales in a single transaction.
//
// With ConflictSkip, sales whose (orderId, productId) already exist are
// counted as skipped and the rest are inserted, so a batch can be loaded
// again safely. Pairs repeated inside the batch keep their first occurrence
// and are counted as Repeated, never as skipped. With ConflictFail, any
// duplicate (inside the batch or against stored rows) aborts the phase with
// a LoadConflictError.
func (s *Store) LoadSales(ctx context.Context, sales []types.Sale, policy ConflictPolicy) (LoadStats, error) {
	stats := LoadStats{Submitted: len(sales)}
	if len(sales) == 0 {
		return stats, nil
	}

	suffix := skipDuplicateSales
	if policy == ConflictFail {
		if err := checkBatchDuplicates(sales); err != nil {
			return stats, err
		}
		suffix = ""
	} else {
		sales, stats.Repeated = dropRepeats(sales)
		if stats.Repeated > 0 {
			s.log.Warn(ctx, "sales repeated within the batch, keeping the first occurrence",
				logger.Int("repeated", stats.Repeated))
		}
	}

	err := s.inTx(ctx, TableSale, func(tx *sql.Tx) error {
		return chunks(len(sales), s.chunkSize, func(start, end int) error {
			chunk := sales[start:end]
			args := make([]any, 0, len(chunk)*saleColumns)
			for _, sale := range chunk {
				args = append(args,
					sale.OrderID, sale.OrderDate, sale.CustomerID, sale.Segment, sale.Region,
					sale.ProductID, sale.Category, sale.Sales.StringFixed(2), sale.Quantity, sale.Profit.StringFixed(2))
			}

			query := fmt.Sprintf(insertSales, placeholders(len(chunk), saleColumns)) + suffix
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return classify("insert sales", TableSale, err)
			}
			stats.Chunks++

			inserted := len(chunk)
			if n, err := res.RowsAffected(); err == nil {
				inserted = int(n)
				stats.Affected += n
			}
			stats.Inserted += inserted
			stats.Skipped += len(chunk) - inserted
			s.log.Debug(ctx, "sale chunk inserted",
				logger.Int("from", start), logger.Int("to", end), logger.Int("inserted", inserted))
			return nil
		})
	})
	if err != nil {
		return LoadStats{Submitted: stats.Submitted}, err
	}
	return stats, nil
}

// dropRepeats keeps the first sale of every (orderId, productId) pair.
func dropRepeats(sales []types.Sale) ([]types.Sale, int) {
	seen := make(map[types.SaleKey]struct{}, len(sales))
	unique := make([]types.Sale, 0, len(sales))
	for _, sale := range sales {
		if _, ok := seen[sale.Key()]; ok {
			continue
		}
		seen[sale.Key()] = struct{}{}
		unique = append(unique, sale)
	}
	return unique, len(sales) - len(unique)
}

// checkBatchDuplicates rejects a batch that repeats an (orderId, productId)
// pair, which no store state could accept under the fail policy.
func checkBatchDuplicates(sales []types.Sale) error {
	seen := make(map[types.SaleKey]int, len(sales))
	for i, sale := range sales {
		k := sale.Key()
		if first, ok := seen[k]; ok {
			return &types.LoadConflictError{
				Table: TableSale,
				Key:   k.OrderID + "-" + k.ProductID,
				Err:   fmt.Errorf("sale repeated within the batch (positions %d and %d)", first+1, i+1),
			}
		}
		seen[k] = i
	}
	return nil
}

// inTx runs fn in a transaction that is committed only if fn succeeds.
func (s *Store) inTx(ctx context.Context, table string, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin", table, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify("commit", table, err)
	}
	return nil
}
