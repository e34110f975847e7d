package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRange(t *testing.T) {
	tests := []struct {
		name   string
		month  string
		from   time.Time
		to     time.Time
		period string
	}{
		{name: "no month exports everything", month: "", period: "all months"},
		{name: "all exports everything", month: "all", period: "all months"},
		{name: "all is case insensitive", month: " ALL ", period: "all months"},
		{
			name:   "one month",
			month:  "2017-11",
			from:   time.Date(2017, time.November, 1, 0, 0, 0, 0, time.UTC),
			to:     time.Date(2017, time.December, 1, 0, 0, 0, 0, time.UTC),
			period: "2017-11",
		},
		{
			name:   "december rolls into the next year",
			month:  "2021-12",
			from:   time.Date(2021, time.December, 1, 0, 0, 0, 0, time.UTC),
			to:     time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC),
			period: "2021-12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, period, err := reportRange(tt.month)
			require.NoError(t, err)
			assert.True(t, tt.from.Equal(from), "from = %v", from)
			assert.True(t, tt.to.Equal(to), "to = %v", to)
			assert.Equal(t, tt.period, period)
		})
	}
}

func TestReportRange_InvalidMonth(t *testing.T) {
	_, _, _, err := reportRange("11/2017")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM")
}
