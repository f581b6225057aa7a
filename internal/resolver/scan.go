package resolver

import (
	"fmt"
	"strconv"
	"time"

	"inventory-graphql/internal/dbexec"
	"inventory-graphql/internal/entity"
	"inventory-graphql/internal/planner"
)

// mysqlDateTimeLayout is the textual form the driver returns when
// parseTime is off. Connections are opened with parseTime=true, but mocks
// and older snapshots still hand back bytes.
const mysqlDateTimeLayout = "2006-01-02 15:04:05"

// scanEntityRows reads all rows into maps keyed by column name, coercing
// driver values to the Go types the field kinds promise.
func scanEntityRows(rows dbexec.Rows, e *entity.Entity) ([]map[string]interface{}, error) {
	columns := planner.SelectColumns(e)
	var results []map[string]interface{}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			converted, err := convertColumnValue(e, col, values[i])
			if err != nil {
				return nil, fmt.Errorf("scan %s.%s: %w", e.Table, col, err)
			}
			row[col] = converted
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

func convertColumnValue(e *entity.Entity, column string, val interface{}) (interface{}, error) {
	if val == nil {
		return nil, nil
	}

	if field, ok := e.FieldByColumn(column); ok {
		return convertFieldValue(field.Kind, val)
	}
	// FK columns carry the target's id.
	return convertFieldValue(entity.KindID, val)
}

func convertFieldValue(kind entity.Kind, val interface{}) (interface{}, error) {
	switch kind {
	case entity.KindID, entity.KindInt, entity.KindNonNegativeInt, entity.KindPositiveInt:
		return coerceInt64(val)
	case entity.KindBool:
		return coerceBool(val)
	case entity.KindDateTime:
		return coerceDateTime(val)
	default:
		if b, ok := val.([]byte); ok {
			return string(b), nil
		}
		if s, ok := val.(string); ok {
			return s, nil
		}
		return nil, fmt.Errorf("unexpected value type %T", val)
	}
}

func coerceInt64(val interface{}) (int64, error) {
	switch v := val.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected integer type %T", val)
	}
}

func coerceBool(val interface{}) (bool, error) {
	switch v := val.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case []byte:
		return string(v) == "1" || string(v) == "true", nil
	default:
		return false, fmt.Errorf("unexpected boolean type %T", val)
	}
}

func coerceDateTime(val interface{}) (time.Time, error) {
	switch v := val.(type) {
	case time.Time:
		return v, nil
	case []byte:
		return parseDateTimeString(string(v))
	case string:
		return parseDateTimeString(v)
	default:
		return time.Time{}, fmt.Errorf("unexpected timestamp type %T", val)
	}
}

func parseDateTimeString(s string) (time.Time, error) {
	if parsed, err := time.Parse(mysqlDateTimeLayout, s); err == nil {
		return parsed.UTC(), nil
	}
	if parsed, err := time.Parse(time.RFC3339, s); err == nil {
		return parsed, nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
