// Package nodeid encodes and decodes opaque global node IDs.
package nodeid

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Encode marshals the type name and primary key into a base64-encoded JSON array.
func Encode(typeName string, id int64) string {
	data, err := json.Marshal([]interface{}{typeName, id})
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

// Decode parses a base64-encoded JSON array node ID into its type name and
// primary key value.
func Decode(nodeID string) (string, int64, error) {
	raw, err := base64.StdEncoding.DecodeString(nodeID)
	if err != nil {
		return "", 0, fmt.Errorf("invalid id: %w", err)
	}
	var payload []interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", 0, fmt.Errorf("invalid id: %w", err)
	}
	if len(payload) != 2 {
		return "", 0, errors.New("invalid id: missing type or primary key")
	}
	typeName, ok := payload[0].(string)
	if !ok || typeName == "" {
		return "", 0, errors.New("invalid id: missing type name")
	}
	id, err := coerceID(payload[1])
	if err != nil {
		return "", 0, err
	}
	return typeName, id, nil
}

func coerceID(raw interface{}) (int64, error) {
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, errors.New("invalid id: non-integer primary key")
		}
		return int64(v), nil
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, errors.New("invalid id: non-integer primary key")
		}
		return parsed, nil
	default:
		return 0, errors.New("invalid id: non-integer primary key")
	}
}
