package gateway

import (
	"encoding/json"
	"sort"

	"github.com/mltrack/mltrack/internal/store"
)

// Recognized JSON payload shapes, in precedence order. A payload
// carrying more than one shape key is decoded by the highest-precedence
// key present; a payload carrying none is passed through to the model
// untouched (chat-style models define their own schema).
var payloadKeys = []string{"dataframe_split", "dataframe_records", "instances", "inputs"}

type splitFrame struct {
	Columns []string        `json:"columns"`
	Data    [][]interface{} `json:"data"`
}

func decodeJSONPayload(body []byte) (*Input, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, store.NewSchemaValidation("malformed JSON body: %s", err.Error())
	}

	input := &Input{}
	if raw, ok := envelope["params"]; ok {
		if err := json.Unmarshal(raw, &input.Params); err != nil {
			return nil, store.NewSchemaValidation("malformed params object: %s", err.Error())
		}
	}

	for _, key := range payloadKeys {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		if err := decodeShape(key, raw, input); err != nil {
			return nil, err
		}
		return input, nil
	}

	// Pass-through payload. Params stay inside the body the model sees.
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, store.NewSchemaValidation("malformed JSON body: %s", err.Error())
	}
	input.Raw = raw
	input.Params = nil
	return input, nil
}

func decodeShape(key string, raw json.RawMessage, input *Input) error {
	switch key {
	case "dataframe_split":
		var split splitFrame
		if err := json.Unmarshal(raw, &split); err != nil {
			return store.NewSchemaValidation("malformed dataframe_split: %s", err.Error())
		}
		for _, row := range split.Data {
			if len(row) != len(split.Columns) {
				return store.NewSchemaValidation("dataframe_split row has %d cells, expected %d", len(row), len(split.Columns))
			}
		}
		input.Frame = &Frame{Columns: split.Columns, Rows: split.Data}
	case "dataframe_records":
		var records []map[string]interface{}
		if err := json.Unmarshal(raw, &records); err != nil {
			return store.NewSchemaValidation("malformed dataframe_records: %s", err.Error())
		}
		input.Frame = recordsToFrame(records)
	case "instances":
		var instances []interface{}
		if err := json.Unmarshal(raw, &instances); err != nil {
			return store.NewSchemaValidation("malformed instances: %s", err.Error())
		}
		input.Instances = instances
	case "inputs":
		var inputs interface{}
		if err := json.Unmarshal(raw, &inputs); err != nil {
			return store.NewSchemaValidation("malformed inputs: %s", err.Error())
		}
		if list, ok := inputs.([]interface{}); ok {
			input.Instances = list
		} else {
			input.Instances = []interface{}{inputs}
		}
	}
	return nil
}

// recordsToFrame builds a frame with the union of keys across records,
// sorted for a stable column order. Missing cells are nil.
func recordsToFrame(records []map[string]interface{}) *Frame {
	keys := make(map[string]bool)
	for _, record := range records {
		for key := range record {
			keys[key] = true
		}
	}
	columns := make([]string, 0, len(keys))
	for key := range keys {
		columns = append(columns, key)
	}
	sort.Strings(columns)
	seen := make(map[string]int, len(columns))
	for i, column := range columns {
		seen[column] = i
	}
	rows := make([][]interface{}, 0, len(records))
	for _, record := range records {
		row := make([]interface{}, len(columns))
		for key, value := range record {
			row[seen[key]] = value
		}
		rows = append(rows, row)
	}
	return &Frame{Columns: columns, Rows: rows}
}
