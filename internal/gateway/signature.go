package gateway

import (
	"encoding/json"
	"path"

	"github.com/ghodss/yaml"
	"github.com/spf13/afero"

	"github.com/mltrack/mltrack/internal/store"
)

// MetadataFileName is the manifest written next to a logged model's
// artifacts.
const MetadataFileName = "MLmodel"

// Metadata mirrors the MLmodel manifest. Flavors carry arbitrary
// per-flavor configuration; the signature, when declared, drives input
// coercion and parameter validation.
type Metadata struct {
	ArtifactPath string                            `json:"artifact_path"`
	RunId        string                            `json:"run_id"`
	ModelUUID    string                            `json:"model_uuid"`
	Flavors      map[string]map[string]interface{} `json:"flavors"`
	Signature    *Signature                        `json:"signature"`
}

type Signature struct {
	Inputs  ColumnList `json:"inputs"`
	Outputs ColumnList `json:"outputs"`
	Params  ParamList  `json:"params"`
}

type ColSpec struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type ParamSpec struct {
	Name    string      `json:"name"`
	Type    string      `json:"dtype"`
	Default interface{} `json:"default"`
}

// Column types understood by the coercion step.
const (
	TypeBoolean  = "boolean"
	TypeInteger  = "integer"
	TypeLong     = "long"
	TypeFloat    = "float"
	TypeDouble   = "double"
	TypeString   = "string"
	TypeBinary   = "binary"
	TypeDatetime = "datetime"
)

// ColumnList unmarshals either a plain list of column specs or the
// manifest convention of a JSON-encoded string holding that list.
type ColumnList []ColSpec

func (l *ColumnList) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		if raw == "" {
			*l = nil
			return nil
		}
		var cols []ColSpec
		if err := json.Unmarshal([]byte(raw), &cols); err != nil {
			return err
		}
		*l = cols
		return nil
	}
	var cols []ColSpec
	if err := json.Unmarshal(data, &cols); err != nil {
		return err
	}
	*l = cols
	return nil
}

type ParamList []ParamSpec

func (l *ParamList) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		if raw == "" {
			*l = nil
			return nil
		}
		var params []ParamSpec
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return err
		}
		*l = params
		return nil
	}
	var params []ParamSpec
	if err := json.Unmarshal(data, &params); err != nil {
		return err
	}
	*l = params
	return nil
}

func (s *Signature) input(name string) (*ColSpec, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Inputs {
		if s.Inputs[i].Name == name {
			return &s.Inputs[i], true
		}
	}
	return nil, false
}

func (s *Signature) param(name string) (*ParamSpec, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Params {
		if s.Params[i].Name == name {
			return &s.Params[i], true
		}
	}
	return nil, false
}

// LoadMetadata reads and parses the MLmodel manifest from dir.
func LoadMetadata(fs afero.Fs, dir string) (*Metadata, error) {
	content, err := afero.ReadFile(fs, path.Join(dir, MetadataFileName))
	if err != nil {
		return nil, store.NewNotFound("model manifest not found in %q", dir)
	}
	var meta Metadata
	if err := yaml.Unmarshal(content, &meta); err != nil {
		return nil, store.NewSchemaValidation("malformed model manifest: %s", err.Error())
	}
	return &meta, nil
}
