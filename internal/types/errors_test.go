package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhase(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&IngestionError{Path: "train.csv", Err: errors.New("no such file")}, PhaseIngest},
		{&SchemaError{Row: 3, Field: "sales"}, PhaseNormalize},
		{&DataQualityError{Total: 2, Dropped: 2}, PhaseValidate},
		{&DivisionError{ProductID: "P1", Row: 2}, PhaseResolve},
		{&LoadConflictError{Table: "Sale"}, PhaseLoad},
		{&StoreError{Op: "connect", Err: errors.New("refused")}, PhaseLoad},
		{&ArtifactError{Path: "dashboard_summary.json", Err: errors.New("read-only")}, PhaseSummary},
		{fmt.Errorf("wrapped: %w", &DivisionError{ProductID: "P1"}), PhaseResolve},
		{errors.New("other"), ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Phase(tt.err), tt.err.Error())
	}
}

func TestLoadConflictError_Message(t *testing.T) {
	cause := errors.New("Error 1062: Duplicate entry 'O1-P1' for key 'uq_sale_order_product'")

	rerun := &LoadConflictError{Table: "Sale", LikelyRerun: true, Key: "O1-P1", Err: cause}
	assert.Equal(t, "conflict loading Sale (key O1-P1): rows already exist, this batch was probably loaded before: "+
		cause.Error(), rerun.Error())
	assert.ErrorIs(t, rerun, cause)

	integrity := &LoadConflictError{Table: "Sale"}
	assert.Equal(t, "conflict loading Sale: integrity violation", integrity.Error())
}

func TestSchemaError_Message(t *testing.T) {
	assert.Equal(t, "required column(s) missing: Order Date, Sales",
		(&SchemaError{Missing: []string{"Order Date", "Sales"}}).Error())
	assert.Equal(t, `row 7: required field "productId" is empty or invalid`,
		(&SchemaError{Row: 7, Field: "productId"}).Error())
}

func TestBatchLen(t *testing.T) {
	var b *Batch
	assert.Zero(t, b.Len())
	assert.Equal(t, 1, (&Batch{Records: []Record{{}}}).Len())
}
