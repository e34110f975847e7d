package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "")
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "train.csv", cfg.Source.Path)
	assert.Equal(t, 1000, cfg.Load.ChunkSize)
	assert.Equal(t, 100, cfg.Load.DefaultStock)
	assert.Equal(t, config.SaleConflictSkip, cfg.Load.SaleConflict)
	assert.Equal(t, 1, cfg.Synthesis.QuantityMin)
	assert.Equal(t, 5, cfg.Synthesis.QuantityMax)
	assert.InDelta(t, 0.10, cfg.Synthesis.MarginMin, 1e-9)
	assert.InDelta(t, 0.30, cfg.Synthesis.MarginMax, 1e-9)
	assert.Equal(t, "dashboard_summary.json", cfg.Output.SummaryPath)
	assert.Equal(t, config.DefaultMapping(), cfg.Mapping)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
source:
  path: data/superstore.xlsx
  sheet: Orders
database:
  host: db.internal
  port: 3307
  connect_timeout: 3s
load:
  chunk_size: 250
  sale_conflict: fail
synthesis:
  seed: 42
output:
  archive_dir: archive
  archive_by_date: true
mapping:
  - source: "Row Order"
    canonical: orderId
  - source: "Date"
    canonical: orderDate
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "data/superstore.xlsx", cfg.Source.Path)
	assert.Equal(t, "Orders", cfg.Source.Sheet)
	assert.Equal(t, ",", cfg.Source.Delimiter, "untouched keys keep defaults")
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 3307, cfg.Database.Port)
	assert.Equal(t, 3*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, 250, cfg.Load.ChunkSize)
	assert.Equal(t, config.SaleConflictFail, cfg.Load.SaleConflict)
	assert.EqualValues(t, 42, cfg.Synthesis.Seed)
	assert.Equal(t, "archive", cfg.Output.ArchiveDir)
	assert.True(t, cfg.Output.ArchiveByDate)
	require.Len(t, cfg.Mapping, 2, "file mapping replaces the default table")
	assert.Equal(t, "Row Order", cfg.Mapping[0].Source)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "database:\n  password: from-file\n")
	t.Setenv("RETAIL_ETL_DATABASE__PASSWORD", "from-env")
	t.Setenv("RETAIL_ETL_LOAD__CHUNK_SIZE", "10")
	t.Setenv("RETAIL_ETL_LOG_LEVEL", "warn")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, 10, cfg.Load.ChunkSize)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero chunk", "load:\n  chunk_size: -1\n"},
		{"unknown policy", "load:\n  sale_conflict: overwrite\n"},
		{"inverted quantity", "synthesis:\n  quantity_min: 5\n  quantity_max: 1\n"},
		{"margin above one", "synthesis:\n  margin_max: 1.5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestDSNString(t *testing.T) {
	db := config.New().Database
	db.Password = "pw"
	db.Params = map[string]string{"charset": "utf8mb4"}

	dsn := db.DSNString()
	assert.Contains(t, dsn, "root:pw@tcp(localhost:3306)/db_retail")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")

	db.DSN = "u:p@tcp(h:1)/x"
	assert.Equal(t, "u:p@tcp(h:1)/x", db.DSNString())
}

func TestDump_MasksSecrets(t *testing.T) {
	cfg := config.New()
	cfg.Database.Password = "hunter2"

	out, err := config.Dump(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hunter2")
	assert.Contains(t, string(out), "chunk_size: 1000")
	assert.Equal(t, "hunter2", cfg.Database.Password, "dump must not mutate the config")
}
