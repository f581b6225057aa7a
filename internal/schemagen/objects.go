package schemagen

import (
	"fmt"
	"time"

	"github.com/graphql-go/graphql"

	"inventory-graphql/internal/entity"
	"inventory-graphql/internal/naming"
	"inventory-graphql/internal/nodeid"
	"inventory-graphql/internal/timezone"
)

// objectType builds the output type for an entity. Fields are built lazily
// through a thunk so relation fields can reference types that are still
// being constructed.
func (b *builder) objectType(e *entity.Entity) *graphql.Object {
	if cached, ok := b.objectTypes[e.Name]; ok {
		return cached
	}

	objType := graphql.NewObject(graphql.ObjectConfig{
		Name: e.Name,
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return b.buildObjectFields(e)
		}),
	})
	b.objectTypes[e.Name] = objType
	return objType
}

func (b *builder) buildObjectFields(e *entity.Entity) graphql.Fields {
	fields := graphql.Fields{}

	for _, f := range e.Fields {
		fieldType := b.outputScalar(e, f)
		if f.NonNull {
			fieldType = graphql.NewNonNull(fieldType)
		}
		fields[f.Name] = &graphql.Field{
			Type:    fieldType,
			Resolve: b.columnResolver(f),
		}
	}

	fields["nodeId"] = &graphql.Field{
		Type:    graphql.NewNonNull(graphql.ID),
		Resolve: b.nodeIDResolver(e),
	}

	for _, pf := range e.Private {
		fields[pf.Name] = &graphql.Field{
			Type:    graphql.NewNonNull(graphql.Int),
			Resolve: b.privateFieldResolver(e, pf.Name),
		}
	}

	for _, rel := range e.Relations {
		target := b.mustEntity(rel.Target)
		// Relation fields stay nullable even when the FK is NOT NULL so a
		// missing related row nulls one field rather than the parent.
		fields[rel.Name] = &graphql.Field{
			Type:    b.objectType(target),
			Resolve: b.relationResolver(target, rel),
		}
	}

	// Reverse connections: orders on Customer, inventoryEntries on Product.
	for _, dep := range b.reg.Dependents(e.Name) {
		fields[naming.BatchQueryName(dep.Entity.Name)] = &graphql.Field{
			Type:    graphql.NewNonNull(b.connectionType(dep.Entity)),
			Args:    b.connectionArgs(dep.Entity),
			Resolve: b.reverseConnectionResolver(dep),
		}
	}

	return fields
}

func (b *builder) columnResolver(f entity.Field) graphql.FieldResolveFn {
	column := f.Column
	isDateTime := f.Kind == entity.KindDateTime
	return func(p graphql.ResolveParams) (interface{}, error) {
		row, ok := p.Source.(map[string]interface{})
		if !ok {
			return nil, nil
		}
		value := row[column]
		if isDateTime {
			if t, ok := value.(time.Time); ok {
				return t.In(timezone.FromContext(p.Context)), nil
			}
		}
		return value, nil
	}
}

func (b *builder) nodeIDResolver(e *entity.Entity) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		row, ok := p.Source.(map[string]interface{})
		if !ok {
			return nil, nil
		}
		id, ok := row["id"].(int64)
		if !ok {
			return nil, fmt.Errorf("%s row has no id", e.Name)
		}
		return nodeid.Encode(e.Name, id), nil
	}
}

func (b *builder) privateFieldResolver(e *entity.Entity, name string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		row, ok := p.Source.(map[string]interface{})
		if !ok {
			return nil, nil
		}
		return b.res.ComputePrivate(p.Context, e, name, row, p.Info.VariableValues)
	}
}

func (b *builder) relationResolver(target *entity.Entity, rel entity.Relation) graphql.FieldResolveFn {
	column := rel.Column
	return func(p graphql.ResolveParams) (interface{}, error) {
		row, ok := p.Source.(map[string]interface{})
		if !ok {
			return nil, nil
		}
		fk := row[column]
		if fk == nil {
			return nil, nil
		}
		return b.res.ResolveSingle(p.Context, target, map[string]interface{}{
			"id": map[string]interface{}{"exact": fk},
		})
	}
}

// reverseConnectionResolver lists the dependent rows pointing at the parent
// by folding the parent's id into the caller's where input as a nested
// relation filter.
func (b *builder) reverseConnectionResolver(dep entity.Dependent) graphql.FieldResolveFn {
	relName := dep.Relation.Name
	target := dep.Entity
	return func(p graphql.ResolveParams) (interface{}, error) {
		row, ok := p.Source.(map[string]interface{})
		if !ok {
			return nil, nil
		}
		whereInput, orderByInput, page := connectionParams(p)
		scoped := make(map[string]interface{}, len(whereInput)+1)
		for k, v := range whereInput {
			scoped[k] = v
		}
		scoped[relName] = map[string]interface{}{
			"id": map[string]interface{}{"exact": row["id"]},
		}
		return b.res.ResolveBatch(p.Context, target, scoped, orderByInput, page, p.Info.VariableValues)
	}
}

// connectionType builds the connection envelope for an entity.
func (b *builder) connectionType(e *entity.Entity) *graphql.Object {
	if cached, ok := b.connectionTypes[e.Name]; ok {
		return cached
	}

	edgeType := graphql.NewObject(graphql.ObjectConfig{
		Name: e.Name + "Edge",
		Fields: graphql.Fields{
			"node":   &graphql.Field{Type: graphql.NewNonNull(b.objectType(e))},
			"cursor": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	connType := graphql.NewObject(graphql.ObjectConfig{
		Name: e.Name + "Connection",
		Fields: graphql.Fields{
			"edges":      &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(edgeType)))},
			"pageInfo":   &graphql.Field{Type: graphql.NewNonNull(b.pageInfoType)},
			"totalCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})
	b.connectionTypes[e.Name] = connType
	return connType
}

// payloadType builds the mutation envelope for an entity.
func (b *builder) payloadType(e *entity.Entity) *graphql.Object {
	if cached, ok := b.payloadTypes[e.Name]; ok {
		return cached
	}

	payload := graphql.NewObject(graphql.ObjectConfig{
		Name: e.Name + "MutationPayload",
		Fields: graphql.Fields{
			"ok":     &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"errors": &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(b.errorType)))},
			"result": &graphql.Field{Type: b.objectType(e)},
		},
	})
	b.payloadTypes[e.Name] = payload
	return payload
}
