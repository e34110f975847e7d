package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/config"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/types"
)

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name:     "plain error",
			err:      errors.New("boom"),
			contains: []string{"Error: boom"},
		},
		{
			name:     "phase prefix",
			err:      &types.SchemaError{Missing: []string{"Sales"}},
			contains: []string{"Error [normalize]:", "Sales"},
		},
		{
			name:     "rerun hint",
			err:      &types.LoadConflictError{Table: "Sale", LikelyRerun: true},
			contains: []string{"Error [load]:", "loaded before", "Hint: the data was probably loaded before"},
		},
		{
			name:     "store hint",
			err:      &types.StoreError{Op: "connect", Err: errors.New("refused")},
			contains: []string{"Hint: check that MySQL is running"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := describeError(tt.err)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
		})
	}
}

func TestApplyProcessFlags(t *testing.T) {
	defer func() { filePath, summaryOut, seed = "", "", 0 }()

	cfg := config.New()
	applyProcessFlags(cfg)
	assert.Equal(t, "train.csv", cfg.Source.Path)
	assert.Zero(t, cfg.Synthesis.Seed)

	filePath, summaryOut, seed = "orders.xlsx", "out/summary.json", 42
	applyProcessFlags(cfg)
	assert.Equal(t, "orders.xlsx", cfg.Source.Path)
	assert.Equal(t, "out/summary.json", cfg.Output.SummaryPath)
	assert.Equal(t, uint64(42), cfg.Synthesis.Seed)
}
