package schemagen

import (
	"github.com/graphql-go/graphql"

	"inventory-graphql/internal/entity"
)

// whereInput builds the filter input for an entity. Fields are built through
// a thunk because relation filters reference other entities' where inputs.
func (b *builder) whereInput(e *entity.Entity) *graphql.InputObject {
	if cached, ok := b.whereInputs[e.Name]; ok {
		return cached
	}

	input := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: e.Name + "WhereInput",
		Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
			return b.buildWhereFields(e)
		}),
	})
	b.whereInputs[e.Name] = input
	return input
}

func (b *builder) buildWhereFields(e *entity.Entity) graphql.InputObjectConfigFieldMap {
	fields := graphql.InputObjectConfigFieldMap{}

	for _, f := range e.Fields {
		if f.Column == "created_at" {
			fields[f.Name] = &graphql.InputObjectFieldConfig{Type: b.createdAtFilter}
			continue
		}
		filter := b.fieldFilterInput(e, f)
		if filter == nil {
			continue
		}
		fields[f.Name] = &graphql.InputObjectFieldConfig{Type: filter}
	}

	for _, rel := range e.Relations {
		// Nested relation filters are single-hop; depth is enforced when the
		// input is parsed, not in the type system.
		fields[rel.Name] = &graphql.InputObjectFieldConfig{
			Type: b.whereInput(b.mustEntity(rel.Target)),
		}
	}

	return fields
}

// fieldFilterInput returns the operator object for one field, or nil for
// kinds that are not filterable.
func (b *builder) fieldFilterInput(e *entity.Entity, f entity.Field) *graphql.InputObject {
	switch f.Kind {
	case entity.KindID, entity.KindInt, entity.KindNonNegativeInt, entity.KindPositiveInt:
		return b.scalarFilterInput("Int", graphql.Int, filterOps{in: true, rang: true, isNull: !f.NonNull})
	case entity.KindString:
		return b.scalarFilterInput("String", graphql.String, filterOps{in: true, contains: true, isNull: !f.NonNull})
	case entity.KindBool:
		return b.scalarFilterInput("Boolean", graphql.Boolean, filterOps{})
	case entity.KindDateTime:
		return b.scalarFilterInput("DateTime", b.dateTime, filterOps{rang: true})
	case entity.KindEnum:
		enum := b.enumType(e, f)
		return b.scalarFilterInput(enum.Name(), enum, filterOps{in: true})
	default:
		return nil
	}
}

type filterOps struct {
	in       bool
	rang     bool
	contains bool
	isNull   bool
}

func (b *builder) scalarFilterInput(baseName string, scalar graphql.Input, ops filterOps) *graphql.InputObject {
	name := baseName + "FilterInput"
	if ops.isNull {
		name = "Nullable" + name
	}
	if cached, ok := b.filterInputs[name]; ok {
		return cached
	}

	fields := graphql.InputObjectConfigFieldMap{
		"exact": &graphql.InputObjectFieldConfig{Type: scalar},
	}
	if ops.in {
		fields["in"] = &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(scalar))}
	}
	if ops.rang {
		fields["gte"] = &graphql.InputObjectFieldConfig{Type: scalar}
		fields["lte"] = &graphql.InputObjectFieldConfig{Type: scalar}
	}
	if ops.contains {
		fields["contains"] = &graphql.InputObjectFieldConfig{Type: graphql.String}
	}
	if ops.isNull {
		fields["isNull"] = &graphql.InputObjectFieldConfig{Type: graphql.Boolean}
	}

	input := graphql.NewInputObject(graphql.InputObjectConfig{
		Name:   name,
		Fields: fields,
	})
	b.filterInputs[name] = input
	return input
}

// orderByInput builds the ordering input: one optional direction per
// physical and private field. Callers pass a list of single-entry objects;
// the single-entry rule is enforced when the list is parsed.
func (b *builder) orderByInput(e *entity.Entity) *graphql.InputObject {
	if cached, ok := b.orderByInputs[e.Name]; ok {
		return cached
	}

	fields := graphql.InputObjectConfigFieldMap{}
	for _, f := range e.Fields {
		fields[f.Name] = &graphql.InputObjectFieldConfig{Type: b.orderDirection}
	}
	for _, pf := range e.Private {
		fields[pf.Name] = &graphql.InputObjectFieldConfig{Type: b.orderDirection}
	}

	input := graphql.NewInputObject(graphql.InputObjectConfig{
		Name:   e.Name + "OrderByInput",
		Fields: fields,
	})
	b.orderByInputs[e.Name] = input
	return input
}

// connectInput wraps the target's where input for relation writes, e.g.
// {connect: {sku: {exact: "..."}}}.
func (b *builder) connectInput(target *entity.Entity) *graphql.InputObject {
	if cached, ok := b.connectInputs[target.Name]; ok {
		return cached
	}

	input := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: target.Name + "ConnectInput",
		Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
			return graphql.InputObjectConfigFieldMap{
				"connect": &graphql.InputObjectFieldConfig{
					Type: graphql.NewNonNull(b.whereInput(target)),
				},
			}
		}),
	})
	b.connectInputs[target.Name] = input
	return input
}

func (b *builder) createInput(e *entity.Entity) *graphql.InputObject {
	if cached, ok := b.createInputs[e.Name]; ok {
		return cached
	}
	input := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: e.Name + "CreateInput",
		Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
			return b.buildWriteFields(e, true)
		}),
	})
	b.createInputs[e.Name] = input
	return input
}

func (b *builder) updateInput(e *entity.Entity) *graphql.InputObject {
	if cached, ok := b.updateInputs[e.Name]; ok {
		return cached
	}
	input := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: e.Name + "UpdateInput",
		Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
			return b.buildWriteFields(e, false)
		}),
	})
	b.updateInputs[e.Name] = input
	return input
}

func (b *builder) buildWriteFields(e *entity.Entity, isCreate bool) graphql.InputObjectConfigFieldMap {
	fields := graphql.InputObjectConfigFieldMap{}

	for _, f := range e.WritableFields() {
		fieldType := b.inputScalar(e, f)
		// Required on create only when there is no server-side default.
		if isCreate && f.NonNull && f.Default == nil {
			fieldType = graphql.NewNonNull(fieldType)
		}
		fields[f.Name] = &graphql.InputObjectFieldConfig{Type: fieldType}
	}

	for _, rel := range e.Relations {
		connectType := graphql.Input(b.connectInput(b.mustEntity(rel.Target)))
		if isCreate && rel.NonNull {
			connectType = graphql.NewNonNull(connectType)
		}
		fields[rel.Name] = &graphql.InputObjectFieldConfig{Type: connectType}
	}

	return fields
}
