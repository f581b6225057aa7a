// Package naming converts entity and column names between SQL snake_case and
// the GraphQL naming conventions used by the generated schema.
package naming

import (
	"strings"

	"github.com/jinzhu/inflection"
)

// ToFieldName converts a snake_case column name to a camelCase GraphQL field.
// Example: "unit_price_cents" -> "unitPriceCents".
func ToFieldName(column string) string {
	parts := splitSnake(column)
	if len(parts) == 0 {
		return column
	}
	out := strings.ToLower(parts[0])
	for _, part := range parts[1:] {
		out += capitalize(part)
	}
	return out
}

// ToTypeName converts a snake_case name to a PascalCase GraphQL type name.
// Example: "inventory_entries" -> "InventoryEntries".
func ToTypeName(name string) string {
	parts := splitSnake(name)
	out := ""
	for _, part := range parts {
		out += capitalize(part)
	}
	return out
}

// SingleQueryName returns the root field name for single-row lookups.
// Example: "InventoryEntry" -> "inventoryEntry".
func SingleQueryName(typeName string) string {
	if typeName == "" {
		return typeName
	}
	return strings.ToLower(typeName[:1]) + typeName[1:]
}

// BatchQueryName returns the pluralized root field name for batch reads.
// Example: "InventoryEntry" -> "inventoryEntries".
func BatchQueryName(typeName string) string {
	return inflection.Plural(SingleQueryName(typeName))
}

// RelationFieldName derives a many-to-one field name from an FK column.
// Example: "customer_id" -> "customer".
func RelationFieldName(fkColumn string) string {
	name := fkColumn
	for _, suffix := range []string{"_id", "_fk"} {
		if strings.HasSuffix(strings.ToLower(name), suffix) {
			name = name[:len(name)-len(suffix)]
			break
		}
	}
	return ToFieldName(name)
}

func splitSnake(name string) []string {
	raw := strings.Split(name, "_")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func capitalize(part string) string {
	if part == "" {
		return part
	}
	return strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
}
