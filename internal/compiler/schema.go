package compiler

import (
	"github.com/vektah/gqlparser/v2"
	gql "github.com/vektah/gqlparser/v2/ast"

	ast "github.com/eduardotrandafilov/relay/internal/ast"
)

// LoadSchema parses an SDL schema and registers the client-side directives
// the compiler understands, for any the SDL (or the parser prelude) does not
// already declare.
func LoadSchema(name, sdl string) (*gql.Schema, error) {
	schema, err := gqlparser.LoadSchema(&gql.Source{Name: name, Input: sdl})
	if err != nil {
		return nil, err
	}
	for _, def := range clientDirectives() {
		if schema.Directives[def.Name] == nil {
			schema.Directives[def.Name] = def
		}
	}
	return schema, nil
}

// CompileOperation is the one-call path from SDL + query text to a
// normalization root: load, validate, compile.
func CompileOperation(sdl, query, operationName string) (*ast.Root, error) {
	schema, err := LoadSchema("schema.graphql", sdl)
	if err != nil {
		return nil, err
	}
	doc, errs := gqlparser.LoadQuery(schema, query)
	if len(errs) > 0 {
		return nil, errs
	}
	return Compile(schema, doc, operationName)
}

func clientDirectives() []*gql.DirectiveDefinition {
	ifArg := func() *gql.ArgumentDefinition {
		return &gql.ArgumentDefinition{
			Name:         "if",
			Type:         gql.NamedType("Boolean", nil),
			DefaultValue: &gql.Value{Kind: gql.BooleanValue, Raw: "true"},
		}
	}
	labelArg := &gql.ArgumentDefinition{Name: "label", Type: gql.NamedType("String", nil)}

	return []*gql.DirectiveDefinition{
		{
			Name:      "defer",
			Arguments: gql.ArgumentDefinitionList{ifArg(), labelArg},
			Locations: []gql.DirectiveLocation{gql.LocationFragmentSpread, gql.LocationInlineFragment},
		},
		{
			Name: "stream",
			Arguments: gql.ArgumentDefinitionList{
				ifArg(),
				labelArg,
				{Name: "initialCount", Type: gql.NamedType("Int", nil)},
			},
			Locations: []gql.DirectiveLocation{gql.LocationField},
		},
		{
			Name:      "match",
			Locations: []gql.DirectiveLocation{gql.LocationField},
		},
		{
			Name: "module",
			Arguments: gql.ArgumentDefinitionList{
				{Name: "name", Type: gql.NonNullNamedType("String", nil)},
			},
			Locations: []gql.DirectiveLocation{gql.LocationFragmentSpread},
		},
		{
			Name: "__clientField",
			Arguments: gql.ArgumentDefinitionList{
				{Name: "handle", Type: gql.NonNullNamedType("String", nil)},
			},
			Locations: []gql.DirectiveLocation{gql.LocationField},
		},
	}
}
