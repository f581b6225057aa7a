// Package entity declares the static registry of persisted entity types.
// The registry is the single source of truth for field lists, relations, and
// private computed fields. It is built once at startup, validated, and passed
// explicitly into the schema generator and the query/mutation executors.
package entity

import (
	"context"
	"fmt"

	"inventory-graphql/internal/dbexec"
	"inventory-graphql/internal/naming"
)

// Kind classifies a field's storage and GraphQL type.
type Kind int

const (
	KindID Kind = iota
	KindString
	KindInt
	KindNonNegativeInt
	KindPositiveInt
	KindBool
	KindDateTime
	KindEnum
	KindJSON
)

// DeleteRule declares what happens to a dependent row when its referenced
// row is deleted.
type DeleteRule int

const (
	// Cascade removes dependent rows together with the referenced row.
	Cascade DeleteRule = iota
	// Protect blocks deletion of the referenced row while dependents exist.
	Protect
)

func (r DeleteRule) String() string {
	switch r {
	case Cascade:
		return "cascade"
	case Protect:
		return "protect"
	default:
		return fmt.Sprintf("DeleteRule(%d)", int(r))
	}
}

// Field describes one physical column of an entity.
type Field struct {
	Column   string
	Name     string // GraphQL field name; derived from Column when empty
	Kind     Kind
	NonNull  bool
	Unique   bool
	Enum     []string    // allowed values for KindEnum
	ReadOnly bool        // server-assigned; excluded from create/update inputs
	Default  interface{} // applied on create when the input omits the field
}

// Relation describes a many-to-one reference to another entity.
type Relation struct {
	Name     string // GraphQL field name, e.g. "customer"
	Column   string // FK column on this entity's table, e.g. "customer_id"
	Target   string // referenced entity name, e.g. "Customer"
	NonNull  bool
	OnDelete DeleteRule // applied when the referenced row is deleted
}

// ComputeFunc materializes a sortable value for one row of an entity.
// Params carries caller-supplied arguments from the request.
type ComputeFunc func(ctx context.Context, exec dbexec.QueryExecutor, row map[string]interface{}, params map[string]interface{}) (int64, error)

// PrivateField is a sortable value that is not a physical column. It is
// excluded from store-level ordering and materialized per row by Compute.
type PrivateField struct {
	Name    string
	Compute ComputeFunc
}

// Entity is the registered metadata for one persisted type.
type Entity struct {
	Name      string // GraphQL type name, e.g. "InventoryEntry"
	Table     string // SQL table name, e.g. "inventory_entries"
	Fields    []Field
	Relations []Relation
	Private   []PrivateField
	// ReadOnlyAPI suppresses mutation derivation (append-only entities).
	ReadOnlyAPI bool
}

// Dependent pairs a dependent entity with the relation pointing back at the
// owning entity. Computed from the registry for delete handling.
type Dependent struct {
	Entity   *Entity
	Relation Relation
}

// Registry is the process-wide immutable entity configuration.
type Registry struct {
	entities []*Entity
	byName   map[string]*Entity
}

// NewRegistry validates and indexes the given entities. It fails fast on a
// private field without a compute function, a relation to an unregistered
// entity, or a duplicate entity name.
func NewRegistry(entities ...Entity) (*Registry, error) {
	reg := &Registry{
		entities: make([]*Entity, 0, len(entities)),
		byName:   make(map[string]*Entity, len(entities)),
	}
	for i := range entities {
		e := entities[i]
		if e.Name == "" || e.Table == "" {
			return nil, fmt.Errorf("entity %d: name and table are required", i)
		}
		if _, dup := reg.byName[e.Name]; dup {
			return nil, fmt.Errorf("duplicate entity %s", e.Name)
		}
		for j := range e.Fields {
			if e.Fields[j].Name == "" {
				e.Fields[j].Name = naming.ToFieldName(e.Fields[j].Column)
			}
		}
		for _, pf := range e.Private {
			if pf.Compute == nil {
				return nil, fmt.Errorf("entity %s: private field %s has no compute function", e.Name, pf.Name)
			}
		}
		stored := e
		reg.entities = append(reg.entities, &stored)
		reg.byName[e.Name] = &stored
	}
	for _, e := range reg.entities {
		for _, rel := range e.Relations {
			if _, ok := reg.byName[rel.Target]; !ok {
				return nil, fmt.Errorf("entity %s: relation %s targets unregistered entity %s", e.Name, rel.Name, rel.Target)
			}
		}
	}
	return reg, nil
}

// Entity looks up a registered entity by name.
func (r *Registry) Entity(name string) (*Entity, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// Entities returns all registered entities in registration order.
func (r *Registry) Entities() []*Entity {
	return r.entities
}

// Dependents returns the entities holding a relation to target, with the
// relation that points at it. Used to enforce protect and cascade rules.
func (r *Registry) Dependents(target string) []Dependent {
	var out []Dependent
	for _, e := range r.entities {
		for _, rel := range e.Relations {
			if rel.Target == target {
				out = append(out, Dependent{Entity: e, Relation: rel})
			}
		}
	}
	return out
}

// Field looks up a physical field by its GraphQL name.
func (e *Entity) Field(name string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldByColumn looks up a physical field by its column name.
func (e *Entity) FieldByColumn(column string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Column == column {
			return f, true
		}
	}
	return Field{}, false
}

// Relation looks up a relation by its GraphQL field name.
func (e *Entity) Relation(name string) (Relation, bool) {
	for _, rel := range e.Relations {
		if rel.Name == name {
			return rel, true
		}
	}
	return Relation{}, false
}

// PrivateField looks up a private computed field by name.
func (e *Entity) PrivateField(name string) (PrivateField, bool) {
	for _, pf := range e.Private {
		if pf.Name == name {
			return pf, true
		}
	}
	return PrivateField{}, false
}

// PrimaryKey returns the entity's id field.
func (e *Entity) PrimaryKey() Field {
	for _, f := range e.Fields {
		if f.Kind == KindID {
			return f
		}
	}
	return Field{Column: "id", Name: "id", Kind: KindID, NonNull: true, ReadOnly: true}
}

// WritableFields returns the fields accepted by create/update inputs.
func (e *Entity) WritableFields() []Field {
	out := make([]Field, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.ReadOnly {
			continue
		}
		out = append(out, f)
	}
	return out
}
