package gateway

import (
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/mltrack/mltrack/internal/store"
)

const sampleManifest = `
artifact_path: model
run_id: abc123
model_uuid: uuid-1
flavors:
  python_function:
    loader_module: mlflow.sklearn
signature:
  inputs: '[{"name": "x", "type": "double"}, {"name": "y", "type": "double"}]'
  outputs: '[{"name": "prediction", "type": "double"}]'
  params: '[{"name": "temperature", "dtype": "double", "default": 1.0}]'
`

func TestLoadMetadata(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.Nil(t, afero.WriteFile(fs, "/model/MLmodel", []byte(sampleManifest), 0o644))

	meta, err := LoadMetadata(fs, "/model")
	assert.Nil(t, err)
	assert.Equal(t, "abc123", meta.RunId)
	assert.Contains(t, meta.Flavors, "python_function")

	// String-encoded column lists parse to the same shape as plain lists.
	assert.Len(t, meta.Signature.Inputs, 2)
	assert.Equal(t, "x", meta.Signature.Inputs[0].Name)
	assert.Equal(t, TypeDouble, meta.Signature.Inputs[0].Type)
	assert.Len(t, meta.Signature.Params, 1)
	assert.Equal(t, 1.0, meta.Signature.Params[0].Default)
}

func TestLoadMetadataMissingManifest(t *testing.T) {
	_, err := LoadMetadata(afero.NewMemMapFs(), "/empty")
	assert.True(t, store.IsNotFound(err))
}

func TestLoadMetadataMalformedManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.Nil(t, afero.WriteFile(fs, "/model/MLmodel", []byte("flavors: [not, a, map]"), 0o644))
	_, err := LoadMetadata(fs, "/model")
	assert.Equal(t, store.CodeSchemaValidation, store.CodeOf(err))
}

func TestColumnListPlainForm(t *testing.T) {
	var cols ColumnList
	err := json.Unmarshal([]byte(`[{"name": "x", "type": "long"}]`), &cols)
	assert.Nil(t, err)
	assert.Len(t, cols, 1)
	assert.Equal(t, TypeLong, cols[0].Type)
}

func TestSignatureLookupsAreNilSafe(t *testing.T) {
	var signature *Signature
	_, ok := signature.input("x")
	assert.False(t, ok)
	_, ok = signature.param("temperature")
	assert.False(t, ok)
}
