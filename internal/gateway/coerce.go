package gateway

import (
	"encoding/base64"
	"math"
	"time"

	"github.com/mltrack/mltrack/internal/store"
)

// coerceInput applies the declared input schema to a decoded payload.
// JSON has no binary or datetime representation, so string cells in
// columns declared binary are base64-decoded and datetime cells parsed
// per ISO-8601. Numeric cells are narrowed to the declared width.
// Payloads without a frame, and columns without a declaration, pass
// through verbatim.
func coerceInput(input *Input, signature *Signature) error {
	if input.Frame == nil || signature == nil {
		return nil
	}
	frame := input.Frame
	for i, column := range frame.Columns {
		spec, ok := signature.input(column)
		if !ok {
			continue
		}
		for _, row := range frame.Rows {
			value, err := coerceValue(row[i], spec.Type, column)
			if err != nil {
				return err
			}
			row[i] = value
		}
	}
	return nil
}

func coerceValue(value interface{}, colType, name string) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	switch colType {
	case TypeBinary:
		text, ok := value.(string)
		if !ok {
			return nil, store.NewSchemaValidation("column %q expects base64 binary, got %T", name, value)
		}
		decoded, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, store.NewSchemaValidation("column %q holds invalid base64: %s", name, err.Error())
		}
		return decoded, nil
	case TypeDatetime:
		text, ok := value.(string)
		if !ok {
			return nil, store.NewSchemaValidation("column %q expects an ISO-8601 datetime, got %T", name, value)
		}
		parsed, err := parseDatetime(text)
		if err != nil {
			return nil, store.NewSchemaValidation("column %q holds invalid datetime %q", name, text)
		}
		return parsed, nil
	case TypeLong, TypeInteger:
		number, ok := value.(float64)
		if !ok || number != math.Trunc(number) {
			return nil, store.NewSchemaValidation("column %q expects an integer, got %v", name, value)
		}
		return int64(number), nil
	case TypeFloat, TypeDouble:
		number, ok := value.(float64)
		if !ok {
			return nil, store.NewSchemaValidation("column %q expects a number, got %T", name, value)
		}
		return number, nil
	case TypeBoolean:
		flag, ok := value.(bool)
		if !ok {
			return nil, store.NewSchemaValidation("column %q expects a boolean, got %T", name, value)
		}
		return flag, nil
	case TypeString:
		text, ok := value.(string)
		if !ok {
			return nil, store.NewSchemaValidation("column %q expects a string, got %T", name, value)
		}
		return text, nil
	}
	return value, nil
}

func parseDatetime(text string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, store.NewSchemaValidation("unparseable datetime %q", text)
}

// validateParams checks the sibling params object against the declared
// parameter schema, fills defaults for omitted params and rejects
// unknown or mistyped ones before the model is invoked.
func validateParams(params map[string]interface{}, signature *Signature) (map[string]interface{}, error) {
	if len(params) == 0 && (signature == nil || len(signature.Params) == 0) {
		return nil, nil
	}
	for name := range params {
		if _, ok := signature.param(name); !ok {
			return nil, store.NewSchemaValidation("unknown param %q", name)
		}
	}
	validated := make(map[string]interface{})
	for _, spec := range signature.Params {
		value, ok := params[spec.Name]
		if !ok {
			if spec.Default != nil {
				validated[spec.Name] = spec.Default
			}
			continue
		}
		coerced, err := coerceValue(value, spec.Type, spec.Name)
		if err != nil {
			return nil, store.NewSchemaValidation("param %q expects type %s", spec.Name, spec.Type)
		}
		validated[spec.Name] = coerced
	}
	return validated, nil
}
