package gateway

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/mltrack/mltrack/internal/store"
)

// Frame is a row-oriented tabular payload.
type Frame struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"data"`
}

// Input is the normalized prediction payload handed to a model. Exactly
// one of Frame, Instances or Raw is set, plus optional Params.
type Input struct {
	Frame     *Frame
	Instances []interface{}
	Raw       map[string]interface{}
	Params    map[string]interface{}
}

// decodeCSV parses a CSV body into a frame. The first record is treated
// as a header when every cell names a declared input column; otherwise
// all records are data rows with positional column names. Cells that
// parse as numbers become float64 so schema-less numeric frames behave
// like their JSON equivalents.
func decodeCSV(r io.Reader, signature *Signature) (*Frame, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, store.NewSchemaValidation("malformed CSV body: %s", err.Error())
	}
	if len(records) == 0 {
		return nil, store.NewSchemaValidation("empty CSV body")
	}

	columns := positionalColumns(len(records[0]))
	if isHeader(records[0], signature) {
		columns = records[0]
		records = records[1:]
	}

	rows := make([][]interface{}, 0, len(records))
	for _, record := range records {
		if len(record) != len(columns) {
			return nil, store.NewSchemaValidation("CSV row has %d cells, expected %d", len(record), len(columns))
		}
		row := make([]interface{}, len(record))
		for i, cell := range record {
			if number, err := strconv.ParseFloat(cell, 64); err == nil {
				row[i] = number
			} else {
				row[i] = cell
			}
		}
		rows = append(rows, row)
	}
	return &Frame{Columns: columns, Rows: rows}, nil
}

func positionalColumns(n int) []string {
	columns := make([]string, n)
	for i := range columns {
		columns[i] = strconv.Itoa(i)
	}
	return columns
}

func isHeader(record []string, signature *Signature) bool {
	if signature == nil || len(signature.Inputs) == 0 {
		return false
	}
	for _, cell := range record {
		if _, ok := signature.input(cell); !ok {
			return false
		}
	}
	return true
}
