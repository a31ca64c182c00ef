package gateway

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mltrack/mltrack/internal/store"
)

func TestDecodeCSVWithoutSignature(t *testing.T) {
	// With no declared schema there is no header to detect, so a numeric
	// first record is a data row.
	frame, err := decodeCSV(strings.NewReader("1,2,3,4\n"), nil)
	assert.Nil(t, err)
	assert.Equal(t, []string{"0", "1", "2", "3"}, frame.Columns)
	assert.Len(t, frame.Rows, 1)
	assert.Equal(t, []interface{}{1.0, 2.0, 3.0, 4.0}, frame.Rows[0])
}

func TestDecodeCSVHeaderDetection(t *testing.T) {
	signature := &Signature{Inputs: ColumnList{
		{Name: "x", Type: TypeDouble},
		{Name: "y", Type: TypeDouble},
	}}

	frame, err := decodeCSV(strings.NewReader("x,y\n1,2\n3,4\n"), signature)
	assert.Nil(t, err)
	assert.Equal(t, []string{"x", "y"}, frame.Columns)
	assert.Len(t, frame.Rows, 2)
	assert.Equal(t, []interface{}{1.0, 2.0}, frame.Rows[0])

	// A first record with any undeclared cell is data, not a header.
	frame, err = decodeCSV(strings.NewReader("x,z\n1,2\n"), signature)
	assert.Nil(t, err)
	assert.Equal(t, []string{"0", "1"}, frame.Columns)
	assert.Len(t, frame.Rows, 2)
	assert.Equal(t, []interface{}{"x", "z"}, frame.Rows[0])
}

func TestDecodeCSVMixedCellTypes(t *testing.T) {
	frame, err := decodeCSV(strings.NewReader("adam,0.01,true\n"), nil)
	assert.Nil(t, err)
	assert.Equal(t, []interface{}{"adam", 0.01, "true"}, frame.Rows[0])
}

func TestDecodeCSVRejectsRaggedRows(t *testing.T) {
	// encoding/csv reports inconsistent field counts itself.
	_, err := decodeCSV(strings.NewReader("1,2,3\n4,5\n"), nil)
	assert.Equal(t, store.CodeSchemaValidation, store.CodeOf(err))
}

func TestDecodeCSVRejectsEmptyBody(t *testing.T) {
	_, err := decodeCSV(strings.NewReader(""), nil)
	assert.Equal(t, store.CodeSchemaValidation, store.CodeOf(err))
}
