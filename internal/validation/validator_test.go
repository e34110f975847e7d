package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/types"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseOrderDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"08/11/2017", date(2017, time.November, 8)},
		{"8/11/2017", date(2017, time.November, 8)},
		{"08-11-2017", date(2017, time.November, 8)},
		{"8-1-2017", date(2017, time.January, 8)},
		{"08.11.2017", date(2017, time.November, 8)},
		{"08/11/17", date(2017, time.November, 8)},
		{"1/2/21", date(2021, time.February, 1)},
		{"1/2/21 9:05", time.Date(2021, time.February, 1, 9, 5, 0, 0, time.UTC)},
		{"31/12/2021", date(2021, time.December, 31)},
		{" 01/02/2021 ", date(2021, time.February, 1)},
		{"2017-11-08", date(2017, time.November, 8)},
		{"08/11/2017 13:45", time.Date(2017, time.November, 8, 13, 45, 0, 0, time.UTC)},
		{"08/11/2017 13:45:10", time.Date(2017, time.November, 8, 13, 45, 10, 0, time.UTC)},
		{"2017-11-08 13:45:10", time.Date(2017, time.November, 8, 13, 45, 10, 0, time.UTC)},
		{"2017-11-08T13:45:10Z", time.Date(2017, time.November, 8, 13, 45, 10, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOrderDate(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestParseOrderDate_Rejects(t *testing.T) {
	for _, in := range []string{"", "   ", "31/13/2021", "32/01/2021", "2021/31/01", "yesterday", "13-2021"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseOrderDate(in)
			assert.Error(t, err)
		})
	}
}

func TestValidate_DropsUnparseableDates(t *testing.T) {
	records := []types.Record{
		{Row: 2, OrderID: "O1", RawOrderDate: "01/02/2021"},
		{Row: 3, OrderID: "O2", RawOrderDate: "31/13/2021"},
		{Row: 4, OrderID: "O3", RawOrderDate: ""},
		{Row: 5, OrderID: "O4", RawOrderDate: "15/03/2021"},
	}

	batch, err := Validate(records)
	require.NoError(t, err)

	require.Equal(t, 2, batch.Len())
	assert.Equal(t, "O1", batch.Records[0].OrderID)
	assert.True(t, date(2021, time.February, 1).Equal(batch.Records[0].OrderDate))
	assert.Equal(t, "O4", batch.Records[1].OrderID)

	require.Len(t, batch.Dropped, 2)
	assert.Equal(t, types.Rejection{Row: 3, OrderID: "O2", Value: "31/13/2021", Reason: ReasonInvalidDate}, batch.Dropped[0])
	assert.Equal(t, ReasonEmptyDate, batch.Dropped[1].Reason)
	assert.Equal(t, len(records)-batch.Len(), len(batch.Dropped))
}

func TestValidate_DoesNotMutateInput(t *testing.T) {
	records := []types.Record{{Row: 2, OrderID: "O1", RawOrderDate: "01/02/2021"}}
	_, err := Validate(records)
	require.NoError(t, err)
	assert.True(t, records[0].OrderDate.IsZero())
}

func TestValidate_AllDropped(t *testing.T) {
	records := []types.Record{
		{Row: 2, OrderID: "O1", RawOrderDate: "not a date"},
		{Row: 3, OrderID: "O2", RawOrderDate: "99/99/9999"},
	}
	_, err := Validate(records)

	var dqe *types.DataQualityError
	require.ErrorAs(t, err, &dqe)
	assert.Equal(t, 2, dqe.Total)
	assert.Equal(t, 2, dqe.Dropped)
	require.Len(t, dqe.Rejections, 2)
	assert.Equal(t, 3, dqe.Rejections[1].Row)
	assert.Equal(t, types.PhaseValidate, types.Phase(err))
}

func TestValidate_EmptyInput(t *testing.T) {
	_, err := Validate(nil)
	var dqe *types.DataQualityError
	require.ErrorAs(t, err, &dqe)
	assert.Zero(t, dqe.Total)
}

func TestValidator_ExcelSerials(t *testing.T) {
	records := []types.Record{
		{Row: 2, OrderID: "O1", RawOrderDate: "43047"},
		{Row: 3, OrderID: "O2", RawOrderDate: "08/11/2017"},
		{Row: 4, OrderID: "O3", RawOrderDate: "-1"},
	}

	batch, err := NewValidator(Options{AcceptExcelSerials: true}).Validate(records)
	require.NoError(t, err)
	require.Equal(t, 2, batch.Len())
	assert.True(t, date(2017, time.November, 8).Equal(batch.Records[0].OrderDate), "got %v", batch.Records[0].OrderDate)
	assert.True(t, date(2017, time.November, 8).Equal(batch.Records[1].OrderDate))
	require.Len(t, batch.Dropped, 1)
	assert.Equal(t, 4, batch.Dropped[0].Row)

	batch, err = Validate(records[:2])
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Len(), "serials are rejected for delimited sources")
}
