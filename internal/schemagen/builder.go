// Package schemagen derives the executable GraphQL schema from the entity
// registry. All types are built once at startup; the registry is immutable,
// so no refresh or cache invalidation is needed after that.
package schemagen

import (
	"fmt"
	"strings"

	"github.com/graphql-go/graphql"

	"inventory-graphql/internal/entity"
	"inventory-graphql/internal/resolver"
	"inventory-graphql/internal/scalars"
)

type builder struct {
	res *resolver.Resolver
	reg *entity.Registry

	// Scalar instances are shared across the schema; graphql-go treats two
	// scalars with the same name as distinct types.
	dateTime       *graphql.Scalar
	jsonScalar     *graphql.Scalar
	nonNegativeInt *graphql.Scalar
	positiveInt    *graphql.Scalar

	objectTypes     map[string]*graphql.Object
	connectionTypes map[string]*graphql.Object
	payloadTypes    map[string]*graphql.Object
	whereInputs     map[string]*graphql.InputObject
	orderByInputs   map[string]*graphql.InputObject
	createInputs    map[string]*graphql.InputObject
	updateInputs    map[string]*graphql.InputObject
	connectInputs   map[string]*graphql.InputObject
	filterInputs    map[string]*graphql.InputObject
	enumTypes       map[string]*graphql.Enum

	pageInfoType    *graphql.Object
	errorType       *graphql.Object
	orderDirection  *graphql.Enum
	exactIntInput   *graphql.InputObject
	createdAtFilter *graphql.InputObject
}

// Build assembles the full schema for the resolver's registry.
func Build(res *resolver.Resolver) (graphql.Schema, error) {
	b := newBuilder(res)

	queryFields := graphql.Fields{}
	mutationFields := graphql.Fields{}
	for _, e := range b.reg.Entities() {
		b.addQueryFields(queryFields, e)
		if !e.ReadOnlyAPI {
			b.addMutationFields(mutationFields, e)
		}
	}
	b.addOrderCancel(mutationFields)

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name:   "Query",
			Fields: queryFields,
		}),
		Mutation: graphql.NewObject(graphql.ObjectConfig{
			Name:   "Mutation",
			Fields: mutationFields,
		}),
	})
}

func newBuilder(res *resolver.Resolver) *builder {
	b := &builder{
		res:             res,
		reg:             res.Registry(),
		dateTime:        scalars.DateTime(),
		jsonScalar:      scalars.JSON(),
		nonNegativeInt:  scalars.NonNegativeInt(),
		positiveInt:     scalars.PositiveInt(),
		objectTypes:     map[string]*graphql.Object{},
		connectionTypes: map[string]*graphql.Object{},
		payloadTypes:    map[string]*graphql.Object{},
		whereInputs:     map[string]*graphql.InputObject{},
		orderByInputs:   map[string]*graphql.InputObject{},
		createInputs:    map[string]*graphql.InputObject{},
		updateInputs:    map[string]*graphql.InputObject{},
		connectInputs:   map[string]*graphql.InputObject{},
		filterInputs:    map[string]*graphql.InputObject{},
		enumTypes:       map[string]*graphql.Enum{},
	}

	b.orderDirection = graphql.NewEnum(graphql.EnumConfig{
		Name: "OrderDirection",
		Values: graphql.EnumValueConfigMap{
			"ASC":  &graphql.EnumValueConfig{Value: "ASC"},
			"DESC": &graphql.EnumValueConfig{Value: "DESC"},
		},
	})

	b.pageInfoType = graphql.NewObject(graphql.ObjectConfig{
		Name: "PageInfo",
		Fields: graphql.Fields{
			"hasNextPage":     &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"hasPreviousPage": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"startCursor":     &graphql.Field{Type: graphql.String},
			"endCursor":       &graphql.Field{Type: graphql.String},
		},
	})

	b.errorType = graphql.NewObject(graphql.ObjectConfig{
		Name: "ErrorType",
		Fields: graphql.Fields{
			"field":    &graphql.Field{Type: graphql.String},
			"messages": &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String)))},
		},
	})

	b.exactIntInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "ExactIntInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"exact": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	b.createdAtFilter = graphql.NewInputObject(graphql.InputObjectConfig{
		Name:        "CreatedAtFilterInput",
		Description: "Filters on creation time, evaluated in the caller's timezone.",
		Fields: graphql.InputObjectConfigFieldMap{
			"gte":   &graphql.InputObjectFieldConfig{Type: b.dateTime},
			"lte":   &graphql.InputObjectFieldConfig{Type: b.dateTime},
			"month": &graphql.InputObjectFieldConfig{Type: b.exactIntInput},
			"year":  &graphql.InputObjectFieldConfig{Type: b.exactIntInput},
		},
	})

	return b
}

// outputScalar maps a field kind to its output GraphQL type.
func (b *builder) outputScalar(e *entity.Entity, f entity.Field) graphql.Output {
	switch f.Kind {
	case entity.KindID:
		return graphql.ID
	case entity.KindString:
		return graphql.String
	case entity.KindInt:
		return graphql.Int
	case entity.KindNonNegativeInt:
		return b.nonNegativeInt
	case entity.KindPositiveInt:
		return b.positiveInt
	case entity.KindBool:
		return graphql.Boolean
	case entity.KindDateTime:
		return b.dateTime
	case entity.KindJSON:
		return b.jsonScalar
	case entity.KindEnum:
		return b.enumType(e, f)
	default:
		return graphql.String
	}
}

// inputScalar maps a field kind to the type accepted by write inputs. ID
// fields are never writable, so they do not appear here.
func (b *builder) inputScalar(e *entity.Entity, f entity.Field) graphql.Input {
	switch f.Kind {
	case entity.KindString:
		return graphql.String
	case entity.KindInt:
		return graphql.Int
	case entity.KindNonNegativeInt:
		return b.nonNegativeInt
	case entity.KindPositiveInt:
		return b.positiveInt
	case entity.KindBool:
		return graphql.Boolean
	case entity.KindJSON:
		return b.jsonScalar
	case entity.KindEnum:
		return b.enumType(e, f)
	default:
		return graphql.String
	}
}

// enumType builds the enum for a KindEnum field, e.g. Order.status becomes
// OrderStatus with the stored strings as values.
func (b *builder) enumType(e *entity.Entity, f entity.Field) *graphql.Enum {
	name := e.Name + pascalCase(f.Name)
	if cached, ok := b.enumTypes[name]; ok {
		return cached
	}

	values := graphql.EnumValueConfigMap{}
	for _, v := range f.Enum {
		values[v] = &graphql.EnumValueConfig{Value: v}
	}
	enum := graphql.NewEnum(graphql.EnumConfig{
		Name:   name,
		Values: values,
	})
	b.enumTypes[name] = enum
	return enum
}

func (b *builder) mustEntity(name string) *entity.Entity {
	e, ok := b.reg.Entity(name)
	if !ok {
		panic(fmt.Sprintf("schemagen: unregistered entity %s", name))
	}
	return e
}

func pascalCase(fieldName string) string {
	if fieldName == "" {
		return fieldName
	}
	return strings.ToUpper(fieldName[:1]) + fieldName[1:]
}
