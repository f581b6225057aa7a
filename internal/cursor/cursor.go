// Package cursor encodes and decodes connection edge cursors.
// Cursors are opaque base64-encoded JSON payloads carrying the edge's
// absolute offset within the filtered, ordered result set. Pagination is
// page-number driven, so cursors are informational markers rather than
// seek keys.
package cursor

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

type payloadV1 struct {
	Version  int    `json:"v"`
	TypeName string `json:"t"`
	Offset   int    `json:"o"`
}

// Encode builds an opaque cursor from the entity type name and the edge's
// zero-based offset in the full result set.
func Encode(typeName string, offset int) string {
	data, err := json.Marshal(payloadV1{Version: 1, TypeName: typeName, Offset: offset})
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

// Decode parses an opaque cursor into its type name and offset.
func Decode(raw string) (typeName string, offset int, err error) {
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", 0, fmt.Errorf("invalid cursor: %w", err)
	}
	var payload payloadV1
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", 0, fmt.Errorf("invalid cursor format")
	}
	if payload.Version != 1 {
		return "", 0, fmt.Errorf("invalid cursor format: unsupported version %d", payload.Version)
	}
	if payload.TypeName == "" {
		return "", 0, fmt.Errorf("invalid cursor: missing type name")
	}
	if payload.Offset < 0 {
		return "", 0, fmt.Errorf("invalid cursor: negative offset")
	}
	return payload.TypeName, payload.Offset, nil
}
