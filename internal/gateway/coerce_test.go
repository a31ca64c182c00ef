package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mltrack/mltrack/internal/store"
)

func coercionSignature() *Signature {
	return &Signature{Inputs: ColumnList{
		{Name: "blob", Type: TypeBinary},
		{Name: "when", Type: TypeDatetime},
		{Name: "count", Type: TypeLong},
		{Name: "score", Type: TypeDouble},
		{Name: "flag", Type: TypeBoolean},
		{Name: "label", Type: TypeString},
	}}
}

func TestCoerceInputByColumnType(t *testing.T) {
	input := &Input{Frame: &Frame{
		Columns: []string{"blob", "when", "count", "score", "flag", "label"},
		Rows: [][]interface{}{
			{"aGVsbG8=", "2024-06-01T12:00:00", 3.0, 0.5, true, "cat"},
		},
	}}

	assert.Nil(t, coerceInput(input, coercionSignature()))
	row := input.Frame.Rows[0]
	assert.Equal(t, []byte("hello"), row[0])
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), row[1])
	assert.Equal(t, int64(3), row[2])
	assert.Equal(t, 0.5, row[3])
	assert.Equal(t, true, row[4])
	assert.Equal(t, "cat", row[5])
}

func TestCoerceAcceptsAllDatetimeLayouts(t *testing.T) {
	for _, text := range []string{
		"2024-06-01T12:00:00.123456789Z",
		"2024-06-01T12:00:00",
		"2024-06-01",
	} {
		parsed, err := parseDatetime(text)
		assert.Nil(t, err, "layout %q", text)
		assert.Equal(t, 2024, parsed.Year())
	}
	_, err := parseDatetime("June 1st 2024")
	assert.NotNil(t, err)
}

func TestCoerceRejectsFractionalIntegers(t *testing.T) {
	input := &Input{Frame: &Frame{
		Columns: []string{"count"},
		Rows:    [][]interface{}{{3.5}},
	}}
	err := coerceInput(input, coercionSignature())
	assert.Equal(t, store.CodeSchemaValidation, store.CodeOf(err))
}

func TestCoerceRejectsInvalidBase64(t *testing.T) {
	input := &Input{Frame: &Frame{
		Columns: []string{"blob"},
		Rows:    [][]interface{}{{"not base64!"}},
	}}
	err := coerceInput(input, coercionSignature())
	assert.Equal(t, store.CodeSchemaValidation, store.CodeOf(err))
}

func TestCoerceLeavesUndeclaredColumnsAlone(t *testing.T) {
	input := &Input{Frame: &Frame{
		Columns: []string{"extra"},
		Rows:    [][]interface{}{{"anything"}},
	}}
	assert.Nil(t, coerceInput(input, coercionSignature()))
	assert.Equal(t, "anything", input.Frame.Rows[0][0])
}

func TestCoerceNilCellsPassThrough(t *testing.T) {
	input := &Input{Frame: &Frame{
		Columns: []string{"count"},
		Rows:    [][]interface{}{{nil}},
	}}
	assert.Nil(t, coerceInput(input, coercionSignature()))
	assert.Nil(t, input.Frame.Rows[0][0])
}

func paramSignature() *Signature {
	return &Signature{Params: ParamList{
		{Name: "temperature", Type: TypeDouble, Default: 1.0},
		{Name: "max_tokens", Type: TypeLong},
	}}
}

func TestValidateParamsFillsDefaults(t *testing.T) {
	validated, err := validateParams(nil, paramSignature())
	assert.Nil(t, err)
	assert.Equal(t, map[string]interface{}{"temperature": 1.0}, validated)

	validated, err = validateParams(map[string]interface{}{"max_tokens": 128.0}, paramSignature())
	assert.Nil(t, err)
	assert.Equal(t, 1.0, validated["temperature"])
	assert.Equal(t, int64(128), validated["max_tokens"])
}

func TestValidateParamsRejectsUnknownAndMistyped(t *testing.T) {
	_, err := validateParams(map[string]interface{}{"verbose": true}, paramSignature())
	assert.Equal(t, store.CodeSchemaValidation, store.CodeOf(err))

	_, err = validateParams(map[string]interface{}{"max_tokens": "many"}, paramSignature())
	assert.Equal(t, store.CodeSchemaValidation, store.CodeOf(err))
}

func TestValidateParamsNoSchemaNoParams(t *testing.T) {
	validated, err := validateParams(nil, nil)
	assert.Nil(t, err)
	assert.Nil(t, validated)

	// Params without a declared schema are all unknown.
	_, err = validateParams(map[string]interface{}{"temperature": 0.5}, nil)
	assert.Equal(t, store.CodeSchemaValidation, store.CodeOf(err))
}
