package schemagen

import (
	"github.com/graphql-go/graphql"

	"inventory-graphql/internal/entity"
	"inventory-graphql/internal/naming"
	"inventory-graphql/internal/resolver"
)

// addQueryFields registers the single and batch root queries for an entity.
func (b *builder) addQueryFields(fields graphql.Fields, e *entity.Entity) {
	fields[naming.SingleQueryName(e.Name)] = &graphql.Field{
		Type: b.objectType(e),
		Args: graphql.FieldConfigArgument{
			"where": &graphql.ArgumentConfig{Type: graphql.NewNonNull(b.whereInput(e))},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			whereInput, _ := p.Args["where"].(map[string]interface{})
			row, err := b.res.ResolveSingle(p.Context, e, whereInput)
			if err != nil {
				return nil, err
			}
			if row == nil {
				return nil, nil
			}
			return row, nil
		},
	}

	fields[naming.BatchQueryName(e.Name)] = &graphql.Field{
		Type:    graphql.NewNonNull(b.connectionType(e)),
		Args:    b.connectionArgs(e),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			whereInput, orderByInput, page := connectionParams(p)
			return b.res.ResolveBatch(p.Context, e, whereInput, orderByInput, page, p.Info.VariableValues)
		},
	}
}

func (b *builder) connectionArgs(e *entity.Entity) graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"where":   &graphql.ArgumentConfig{Type: b.whereInput(e)},
		"orderBy": &graphql.ArgumentConfig{Type: graphql.NewList(graphql.NewNonNull(b.orderByInput(e)))},
		"page":    &graphql.ArgumentConfig{Type: graphql.Int},
	}
}

// addMutationFields registers create, update, and delete for an entity.
func (b *builder) addMutationFields(fields graphql.Fields, e *entity.Entity) {
	base := naming.SingleQueryName(e.Name)
	payload := graphql.NewNonNull(b.payloadType(e))

	fields[base+"Create"] = &graphql.Field{
		Type: payload,
		Args: graphql.FieldConfigArgument{
			"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(b.createInput(e))},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			input, _ := p.Args["input"].(map[string]interface{})
			result, err := b.res.Create(p.Context, e, input)
			if err != nil {
				return nil, err
			}
			return payloadValue(result), nil
		},
	}

	fields[base+"Update"] = &graphql.Field{
		Type: payload,
		Args: graphql.FieldConfigArgument{
			"where": &graphql.ArgumentConfig{Type: graphql.NewNonNull(b.whereInput(e))},
			"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(b.updateInput(e))},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			whereInput, _ := p.Args["where"].(map[string]interface{})
			input, _ := p.Args["input"].(map[string]interface{})
			result, err := b.res.Update(p.Context, e, whereInput, input)
			if err != nil {
				return nil, err
			}
			return payloadValue(result), nil
		},
	}

	fields[base+"Delete"] = &graphql.Field{
		Type: payload,
		Args: graphql.FieldConfigArgument{
			"where": &graphql.ArgumentConfig{Type: graphql.NewNonNull(b.whereInput(e))},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			whereInput, _ := p.Args["where"].(map[string]interface{})
			result, err := b.res.Delete(p.Context, e, whereInput)
			if err != nil {
				return nil, err
			}
			return payloadValue(result), nil
		},
	}
}

// addOrderCancel registers the hand-written cancellation mutation alongside
// the derived CRUD set.
func (b *builder) addOrderCancel(fields graphql.Fields) {
	order := b.mustEntity("Order")
	fields["orderCancel"] = &graphql.Field{
		Type: graphql.NewNonNull(b.payloadType(order)),
		Args: graphql.FieldConfigArgument{
			"where": &graphql.ArgumentConfig{Type: graphql.NewNonNull(b.whereInput(order))},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			whereInput, _ := p.Args["where"].(map[string]interface{})
			result, err := b.res.CancelOrder(p.Context, whereInput)
			if err != nil {
				return nil, err
			}
			return payloadValue(result), nil
		},
	}
}

func connectionParams(p graphql.ResolveParams) (map[string]interface{}, []interface{}, *int) {
	var whereInput map[string]interface{}
	if m, ok := p.Args["where"].(map[string]interface{}); ok {
		whereInput = m
	}
	var orderByInput []interface{}
	if l, ok := p.Args["orderBy"].([]interface{}); ok {
		orderByInput = l
	}
	var page *int
	if n, ok := p.Args["page"].(int); ok {
		page = &n
	}
	return whereInput, orderByInput, page
}

// payloadValue flattens a mutation result into the payload envelope.
func payloadValue(result *resolver.MutationResult) map[string]interface{} {
	errs := make([]interface{}, 0, len(result.Errors))
	for _, ue := range result.Errors {
		var field interface{}
		if ue.Field != "" {
			field = ue.Field
		}
		errs = append(errs, map[string]interface{}{
			"field":    field,
			"messages": ue.Messages,
		})
	}

	out := map[string]interface{}{
		"ok":     result.OK,
		"errors": errs,
		"result": nil,
	}
	if result.Row != nil {
		out["result"] = result.Row
	}
	return out
}
