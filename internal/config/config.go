// =============================================================================
// Retail ETL - Configuration Module
// =============================================================================
//
// This module defines the application configuration and its defaults.
// Loading (file + environment layering) lives in loader.go.
//
// CONFIGURATION SOURCES (low -> high precedence):
//   1. Defaults from New()
//   2. YAML file (config.yaml, --config or RETAIL_ETL_CONFIG)
//   3. Environment variables (RETAIL_ETL_ prefix)
//   4. Command-line flags (applied by the cmd package)
//
// =============================================================================

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the whole application configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" yaml:"log_level"`

	Source    SourceSettings  `koanf:"source" yaml:"source"`
	Mapping   []ColumnMapping `koanf:"mapping" yaml:"mapping"`
	Database  Database        `koanf:"database" yaml:"database"`
	Load      LoadSettings    `koanf:"load" yaml:"load"`
	Synthesis Synthesis       `koanf:"synthesis" yaml:"synthesis"`
	Output    OutputSettings  `koanf:"output" yaml:"output"`
	Metrics   MetricsSettings `koanf:"metrics" yaml:"metrics"`
}

// =============================================================================
// SOURCE SETTINGS
// =============================================================================

// SourceSettings describes the tabular input file.
type SourceSettings struct {
	// Path is the file to ingest. The extension selects the parser:
	// .csv/.tsv/.txt for delimited text, .xlsx/.xlsm for workbooks.
	// Default: "train.csv"
	Path string `koanf:"path" yaml:"path"`

	// Delimiter separates fields in delimited files.
	// Accepted: ",", ";", "|", "pipe", "tab", "\t"
	// Default: ","
	Delimiter string `koanf:"delimiter" yaml:"delimiter"`

	// Encoding is the character encoding of delimited files.
	// Accepted: "UTF-8", "ISO-8859-1" (latin1), "Windows-1252"
	// Default: "UTF-8"
	Encoding string `koanf:"encoding" yaml:"encoding"`

	// Sheet selects the worksheet of a workbook source.
	// Default: "" (first sheet)
	Sheet string `koanf:"sheet" yaml:"sheet"`
}

// ColumnMapping maps one source column to a canonical field.
type ColumnMapping struct {
	Source    string `koanf:"source" yaml:"source"`
	Canonical string `koanf:"canonical" yaml:"canonical"`
}

// Canonical field names.
const (
	FieldOrderID     = "orderId"
	FieldOrderDate   = "orderDate"
	FieldCustomerID  = "customerId"
	FieldSegment     = "segment"
	FieldRegion      = "region"
	FieldProductID   = "productId"
	FieldProductName = "productName"
	FieldCategory    = "category"
	FieldSubCategory = "subCategory"
	FieldSales       = "sales"
	FieldQuantity    = "quantity"
	FieldProfit      = "profit"
)

// RequiredFields are the canonical fields whose source column must exist.
var RequiredFields = []string{FieldOrderID, FieldOrderDate, FieldProductID, FieldSales}

// KnownField reports whether name is a canonical field.
func KnownField(name string) bool {
	switch name {
	case FieldOrderID, FieldOrderDate, FieldCustomerID, FieldSegment, FieldRegion,
		FieldProductID, FieldProductName, FieldCategory, FieldSubCategory,
		FieldSales, FieldQuantity, FieldProfit:
		return true
	}
	return false
}

// DefaultMapping returns the source-to-canonical table of the retail export.
func DefaultMapping() []ColumnMapping {
	return []ColumnMapping{
		{Source: "Order ID", Canonical: FieldOrderID},
		{Source: "Order Date", Canonical: FieldOrderDate},
		{Source: "Customer ID", Canonical: FieldCustomerID},
		{Source: "Segment", Canonical: FieldSegment},
		{Source: "Region", Canonical: FieldRegion},
		{Source: "Product ID", Canonical: FieldProductID},
		{Source: "Product Name", Canonical: FieldProductName},
		{Source: "Category", Canonical: FieldCategory},
		{Source: "Sub-Category", Canonical: FieldSubCategory},
		{Source: "Sales", Canonical: FieldSales},
		{Source: "Quantity", Canonical: FieldQuantity},
		{Source: "Profit", Canonical: FieldProfit},
	}
}

// =============================================================================
// DATABASE SETTINGS
// =============================================================================

// Database holds the MySQL connection parameters.
type Database struct {
	// DSN, when set, is used verbatim and the discrete fields are ignored.
	DSN string `koanf:"dsn" yaml:"dsn"`

	Host     string `koanf:"host" yaml:"host"`
	Port     int    `koanf:"port" yaml:"port"`
	User     string `koanf:"user" yaml:"user"`
	Password string `koanf:"password" yaml:"password"`
	Name     string `koanf:"name" yaml:"name"`

	// Params are extra driver parameters appended to the DSN.
	Params map[string]string `koanf:"params" yaml:"params"`

	MaxOpenConns   int           `koanf:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns   int           `koanf:"max_idle_conns" yaml:"max_idle_conns"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" yaml:"connect_timeout"`
}

// DSNString returns the go-sql-driver/mysql data source name.
func (d Database) DSNString() string {
	if d.DSN != "" {
		return d.DSN
	}
	c := mysql.NewConfig()
	c.User = d.User
	c.Passwd = d.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	c.DBName = d.Name
	c.ParseTime = true
	c.Timeout = d.ConnectTimeout
	if len(d.Params) > 0 {
		c.Params = make(map[string]string, len(d.Params))
		for k, v := range d.Params {
			c.Params[k] = v
		}
	}
	return c.FormatDSN()
}

// =============================================================================
// LOAD SETTINGS
// =============================================================================

// Sale conflict policies.
const (
	// SaleConflictSkip keeps rows already in the store and inserts the rest.
	SaleConflictSkip = "skip"

	// SaleConflictFail aborts the run on the first duplicate sale.
	SaleConflictFail = "fail"
)

// LoadSettings controls the persistence step.
type LoadSettings struct {
	// ChunkSize bounds the number of rows per INSERT statement.
	// Default: 1000
	ChunkSize int `koanf:"chunk_size" yaml:"chunk_size"`

	// DefaultStock is the stock assigned to new products.
	// Default: 100
	DefaultStock int `koanf:"default_stock" yaml:"default_stock"`

	// SaleConflict is "skip" or "fail".
	// Default: "skip"
	SaleConflict string `koanf:"sale_conflict" yaml:"sale_conflict"`

	// AutoMigrate creates missing tables and keys before loading.
	// Default: true
	AutoMigrate bool `koanf:"auto_migrate" yaml:"auto_migrate"`
}

// =============================================================================
// SYNTHESIS SETTINGS
// =============================================================================

// Synthesis bounds the generated quantity and profit values.
type Synthesis struct {
	QuantityMin int     `koanf:"quantity_min" yaml:"quantity_min"`
	QuantityMax int     `koanf:"quantity_max" yaml:"quantity_max"`
	MarginMin   float64 `koanf:"margin_min" yaml:"margin_min"`
	MarginMax   float64 `koanf:"margin_max" yaml:"margin_max"`

	// Seed makes runs reproducible when non-zero.
	Seed uint64 `koanf:"seed" yaml:"seed"`
}

// =============================================================================
// OUTPUT SETTINGS
// =============================================================================

// OutputSettings controls the artifacts written after a run.
type OutputSettings struct {
	// SummaryPath is where the dashboard summary JSON is written.
	// Default: "dashboard_summary.json"
	SummaryPath string `koanf:"summary_path" yaml:"summary_path"`

	// LogDir receives a CSV of rows dropped by validation and a text
	// processing summary per run. Empty disables both.
	LogDir string `koanf:"log_dir" yaml:"log_dir"`

	// ArchiveDir receives the source file after a successful run.
	// Empty leaves the source in place.
	ArchiveDir string `koanf:"archive_dir" yaml:"archive_dir"`

	// ArchiveByDate files archived sources under YYYY/MM/DD of the run date.
	ArchiveByDate bool `koanf:"archive_by_date" yaml:"archive_by_date"`
}

// MetricsSettings controls where run metrics are exported.
type MetricsSettings struct {
	// TextfilePath is a node-exporter textfile collector target.
	TextfilePath string `koanf:"textfile_path" yaml:"textfile_path"`

	// PushURL is a Prometheus Pushgateway base URL.
	PushURL string `koanf:"push_url" yaml:"push_url"`

	// Job is the Pushgateway job label. Default: "retail_etl"
	Job string `koanf:"job" yaml:"job"`
}

// =============================================================================
// DEFAULTS AND VALIDATION
// =============================================================================

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel: "info",
		Source: SourceSettings{
			Path:      "train.csv",
			Delimiter: ",",
			Encoding:  "UTF-8",
		},
		Mapping: DefaultMapping(),
		Database: Database{
			Host:           "localhost",
			Port:           3306,
			User:           "root",
			Name:           "db_retail",
			MaxOpenConns:   4,
			MaxIdleConns:   2,
			ConnectTimeout: 10 * time.Second,
		},
		Load: LoadSettings{
			ChunkSize:    1000,
			DefaultStock: 100,
			SaleConflict: SaleConflictSkip,
			AutoMigrate:  true,
		},
		Synthesis: Synthesis{
			QuantityMin: 1,
			QuantityMax: 5,
			MarginMin:   0.10,
			MarginMax:   0.30,
		},
		Output: OutputSettings{
			SummaryPath: "dashboard_summary.json",
		},
		Metrics: MetricsSettings{
			Job: "retail_etl",
		},
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Source.Path == "" {
		return fmt.Errorf("source.path must not be empty")
	}
	if len(c.Mapping) == 0 {
		return fmt.Errorf("mapping must not be empty")
	}
	for _, m := range c.Mapping {
		if !KnownField(m.Canonical) {
			return fmt.Errorf("mapping for %q targets unknown field %q", m.Source, m.Canonical)
		}
	}
	if c.Load.ChunkSize <= 0 {
		return fmt.Errorf("load.chunk_size must be positive, got %d", c.Load.ChunkSize)
	}
	if c.Load.DefaultStock < 0 {
		return fmt.Errorf("load.default_stock must not be negative, got %d", c.Load.DefaultStock)
	}
	switch c.Load.SaleConflict {
	case SaleConflictSkip, SaleConflictFail:
	default:
		return fmt.Errorf("load.sale_conflict must be %q or %q, got %q",
			SaleConflictSkip, SaleConflictFail, c.Load.SaleConflict)
	}
	s := c.Synthesis
	if s.QuantityMin < 1 || s.QuantityMax < s.QuantityMin {
		return fmt.Errorf("synthesis quantity bounds invalid: [%d, %d]", s.QuantityMin, s.QuantityMax)
	}
	if s.MarginMin < 0 || s.MarginMax > 1 || s.MarginMax <= s.MarginMin {
		return fmt.Errorf("synthesis margin bounds invalid: [%g, %g)", s.MarginMin, s.MarginMax)
	}
	if c.Output.SummaryPath == "" {
		return fmt.Errorf("output.summary_path must not be empty")
	}
	return nil
}
