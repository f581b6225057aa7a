package scalars

import (
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

func NonNegativeInt() *graphql.Scalar {
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:        "NonNegativeInt",
		Description: "An integer greater than or equal to zero.",
		Serialize: func(value interface{}) interface{} {
			if parsed, ok := coerceBoundedInt(value, 0); ok {
				return parsed
			}
			return nil
		},
		ParseValue: func(value interface{}) interface{} {
			if parsed, ok := coerceBoundedInt(value, 0); ok {
				return parsed
			}
			return nil
		},
		ParseLiteral: func(valueAST ast.Value) interface{} {
			return parseIntLiteral(valueAST, 0)
		},
	})
}

func PositiveInt() *graphql.Scalar {
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:        "PositiveInt",
		Description: "An integer greater than zero.",
		Serialize: func(value interface{}) interface{} {
			if parsed, ok := coerceBoundedInt(value, 1); ok {
				return parsed
			}
			return nil
		},
		ParseValue: func(value interface{}) interface{} {
			if parsed, ok := coerceBoundedInt(value, 1); ok {
				return parsed
			}
			return nil
		},
		ParseLiteral: func(valueAST ast.Value) interface{} {
			return parseIntLiteral(valueAST, 1)
		},
	})
}

func JSON() *graphql.Scalar {
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:        "JSON",
		Description: "Arbitrary JSON value serialized as a string.",
		Serialize: func(value interface{}) interface{} {
			switch v := value.(type) {
			case []byte:
				return string(v)
			case string:
				return v
			case nil:
				return nil
			default:
				serialized, err := json.Marshal(v)
				if err != nil {
					slog.Default().Warn("failed to serialize JSON scalar", slog.String("error", err.Error()))
					return nil
				}
				return string(serialized)
			}
		},
		ParseValue: func(value interface{}) interface{} {
			if s, ok := value.(string); ok {
				return s
			}
			return nil
		},
		ParseLiteral: func(valueAST ast.Value) interface{} {
			if sv, ok := valueAST.(*ast.StringValue); ok {
				return sv.Value
			}
			return nil
		},
	})
}

// DateTime serializes timestamps as RFC 3339 in the location they carry.
// Rows read from the store are converted to the request timezone before
// they reach serialization.
func DateTime() *graphql.Scalar {
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:        "DateTime",
		Description: "Timestamp serialized as RFC 3339.",
		Serialize: func(value interface{}) interface{} {
			switch v := value.(type) {
			case time.Time:
				return v.Format(time.RFC3339)
			case *time.Time:
				if v == nil {
					return nil
				}
				return v.Format(time.RFC3339)
			case string:
				return v
			default:
				return nil
			}
		},
		ParseValue: func(value interface{}) interface{} {
			switch v := value.(type) {
			case time.Time:
				return v
			case string:
				if parsed, err := time.Parse(time.RFC3339, v); err == nil {
					return parsed
				}
				if parsed, err := time.Parse("2006-01-02", v); err == nil {
					return parsed
				}
				return nil
			default:
				return nil
			}
		},
		ParseLiteral: func(valueAST ast.Value) interface{} {
			if sv, ok := valueAST.(*ast.StringValue); ok {
				if parsed, err := time.Parse(time.RFC3339, sv.Value); err == nil {
					return parsed
				}
				if parsed, err := time.Parse("2006-01-02", sv.Value); err == nil {
					return parsed
				}
			}
			return nil
		},
	})
}

func parseIntLiteral(valueAST ast.Value, min int) interface{} {
	intValue, ok := valueAST.(*ast.IntValue)
	if !ok {
		return nil
	}
	parsed, err := strconv.Atoi(intValue.Value)
	if err != nil || parsed < min {
		return nil
	}
	return parsed
}

func coerceBoundedInt(value interface{}, min int) (int, bool) {
	switch v := value.(type) {
	case int:
		if v < min {
			return 0, false
		}
		return v, true
	case int32:
		if int(v) < min {
			return 0, false
		}
		return int(v), true
	case int64:
		if v < int64(min) || v > math.MaxInt {
			return 0, false
		}
		return int(v), true
	case float64:
		if v != math.Trunc(v) || v < float64(min) || v > math.MaxInt {
			return 0, false
		}
		return int(v), true
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < min {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
