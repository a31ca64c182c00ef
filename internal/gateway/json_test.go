package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mltrack/mltrack/internal/store"
)

func TestDecodeDataframeSplit(t *testing.T) {
	input, err := decodeJSONPayload([]byte(`{
		"dataframe_split": {"columns": ["x", "y"], "data": [[1, "a"], [2, "b"]]}
	}`))
	assert.Nil(t, err)
	assert.NotNil(t, input.Frame)
	assert.Equal(t, []string{"x", "y"}, input.Frame.Columns)
	assert.Equal(t, []interface{}{1.0, "a"}, input.Frame.Rows[0])
}

func TestDecodeDataframeSplitRejectsRaggedRows(t *testing.T) {
	_, err := decodeJSONPayload([]byte(`{
		"dataframe_split": {"columns": ["x", "y"], "data": [[1]]}
	}`))
	assert.Equal(t, store.CodeSchemaValidation, store.CodeOf(err))
}

func TestDecodeDataframeRecords(t *testing.T) {
	input, err := decodeJSONPayload([]byte(`{
		"dataframe_records": [{"b": 2, "a": 1}, {"a": 3, "c": 4}]
	}`))
	assert.Nil(t, err)
	assert.NotNil(t, input.Frame)
	// Union of keys across records, sorted for stability.
	assert.Equal(t, []string{"a", "b", "c"}, input.Frame.Columns)
	assert.Equal(t, []interface{}{1.0, 2.0, nil}, input.Frame.Rows[0])
	assert.Equal(t, []interface{}{3.0, nil, 4.0}, input.Frame.Rows[1])
}

func TestDecodeInstancesVector(t *testing.T) {
	input, err := decodeJSONPayload([]byte(`{"instances": [1.0, 2.0, 5.0]}`))
	assert.Nil(t, err)
	assert.Nil(t, input.Frame)
	assert.Equal(t, []interface{}{1.0, 2.0, 5.0}, input.Instances)
}

func TestDecodeInputsScalarIsWrapped(t *testing.T) {
	input, err := decodeJSONPayload([]byte(`{"inputs": "a question"}`))
	assert.Nil(t, err)
	assert.Equal(t, []interface{}{"a question"}, input.Instances)
}

func TestDecodeShapePrecedence(t *testing.T) {
	// instances outranks inputs when both are present.
	input, err := decodeJSONPayload([]byte(`{"instances": [1], "inputs": [2]}`))
	assert.Nil(t, err)
	assert.Equal(t, []interface{}{1.0}, input.Instances)

	// Any frame shape outranks instances.
	input, err = decodeJSONPayload([]byte(`{
		"dataframe_records": [{"x": 1}],
		"instances": [2]
	}`))
	assert.Nil(t, err)
	assert.NotNil(t, input.Frame)
	assert.Nil(t, input.Instances)
}

func TestDecodeParamsExtracted(t *testing.T) {
	input, err := decodeJSONPayload([]byte(`{
		"instances": [1],
		"params": {"temperature": 0.5}
	}`))
	assert.Nil(t, err)
	assert.Equal(t, map[string]interface{}{"temperature": 0.5}, input.Params)
}

func TestDecodeRawPassThrough(t *testing.T) {
	// Chat-style payloads with no recognized shape key reach the model
	// untouched, params included.
	input, err := decodeJSONPayload([]byte(`{
		"messages": [{"role": "user", "content": "hi"}],
		"params": {"temperature": 0.5}
	}`))
	assert.Nil(t, err)
	assert.Nil(t, input.Frame)
	assert.Nil(t, input.Instances)
	assert.Nil(t, input.Params)
	assert.Contains(t, input.Raw, "messages")
	assert.Contains(t, input.Raw, "params")
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	_, err := decodeJSONPayload([]byte(`{"instances": `))
	assert.Equal(t, store.CodeSchemaValidation, store.CodeOf(err))

	_, err = decodeJSONPayload([]byte(`{"instances": {"not": "a list"}}`))
	assert.Equal(t, store.CodeSchemaValidation, store.CodeOf(err))
}
