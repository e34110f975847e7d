// =============================================================================
// Retail ETL - MySQL Store
// =============================================================================
//
// This module persists Product and Sale rows in MySQL (or MariaDB, as
// bundled with XAMPP).
//
// TRANSACTIONS:
//   Each load phase (products, then sales) runs in ONE transaction. Rows are
//   sent in multi-row INSERT statements of at most chunkSize rows, all inside
//   that transaction, so a failure leaves the phase fully rolled back.
//
// ERRORS:
//   - Duplicate sale rows (MySQL 1062 on uq_sale_order_product) become a
//     LoadConflictError with LikelyRerun set.
//   - Foreign key, NOT NULL and other unique violations become a
//     LoadConflictError describing an integrity violation.
//   - Everything else (connectivity, syntax, timeouts) becomes a StoreError.
//
// =============================================================================

package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/config"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/types"
	"github.com/ghazalyy/RetailAnalyticsApp/pkg/logger"
)

// Table and key names.
const (
	TableProduct = "Product"
	TableSale    = "Sale"

	SaleUniqueKey = "uq_sale_order_product"
)

// DefaultChunkSize is the number of rows per INSERT statement.
const DefaultChunkSize = 1000

// MySQL server error numbers the store distinguishes.
const (
	errDupEntry          = 1062
	errBadNull           = 1048
	errRowIsReferenced   = 1451
	errNoReferencedRow   = 1452
	errRowIsReferencedV1 = 1217
	errNoReferencedRowV1 = 1216
)

// Store is the MySQL-backed load coordinator.
type Store struct {
	db        *sql.DB
	chunkSize int
	log       logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithChunkSize sets the number of rows per INSERT statement.
func WithChunkSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l.Named("store")
		}
	}
}

// New wraps an existing connection pool.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:        db,
		chunkSize: DefaultChunkSize,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to MySQL and verifies the connection.
func Open(ctx context.Context, cfg config.Database, opts ...Option) (*Store, error) {
	db, err := sql.Open("mysql", cfg.DSNString())
	if err != nil {
		return nil, &types.StoreError{Op: "open", Err: err}
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &types.StoreError{Op: "connect", Err: err}
	}

	return New(db, opts...), nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// ERROR CLASSIFICATION
// =============================================================================

// classify maps a driver error to the error taxonomy.
func classify(op, table string, err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return &types.StoreError{Op: op, Err: err}
	}

	switch me.Number {
	case errDupEntry:
		return &types.LoadConflictError{
			Table:       table,
			LikelyRerun: table == TableSale && strings.Contains(me.Message, SaleUniqueKey),
			Key:         duplicateKey(me.Message),
			Err:         err,
		}
	case errBadNull, errRowIsReferenced, errNoReferencedRow, errRowIsReferencedV1, errNoReferencedRowV1:
		return &types.LoadConflictError{Table: table, Err: err}
	}
	return &types.StoreError{Op: op, Err: err}
}

// duplicateKey extracts the value from "Duplicate entry 'X' for key 'Y'".
func duplicateKey(msg string) string {
	const prefix = "Duplicate entry '"
	i := strings.Index(msg, prefix)
	if i < 0 {
		return ""
	}
	rest := msg[i+len(prefix):]
	j := strings.Index(rest, "' for key")
	if j < 0 {
		return ""
	}
	return rest[:j]
}

// placeholders returns "(?,?,?),(?,?,?)" for rows of width columns.
func placeholders(rows, width int) string {
	one := "(" + strings.TrimSuffix(strings.Repeat("?,", width), ",") + ")"
	return strings.TrimSuffix(strings.Repeat(one+",", rows), ",")
}

// chunks calls fn for consecutive [start, end) windows of at most size items.
func chunks(n, size int, fn func(start, end int) error) error {
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}
