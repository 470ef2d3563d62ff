// Package compiler lowers a parsed GraphQL operation into the flat selection
// tree the normalizer consumes. Fragment spreads are inlined, @skip/@include
// become condition guards, @defer/@stream become incremental boundaries,
// @__clientField becomes handle nodes, and @match fields get their per-type
// match tables. The walker can therefore assume a fully flattened tree.
package compiler

import (
	"fmt"

	gql "github.com/vektah/gqlparser/v2/ast"

	ast "github.com/eduardotrandafilov/relay/internal/ast"
)

// Compile lowers one operation of doc into a normalization root. The
// document must already be validated against schema.
func Compile(schema *gql.Schema, doc *gql.QueryDocument, operationName string) (*ast.Root, error) {
	op := getOperation(doc, operationName)
	if op == nil {
		return nil, fmt.Errorf("compile: operation %q not found", operationName)
	}
	var rootDef *gql.Definition
	switch op.Operation {
	case gql.Query:
		rootDef = schema.Query
	case gql.Mutation:
		rootDef = schema.Mutation
	case gql.Subscription:
		rootDef = schema.Subscription
	}
	if rootDef == nil {
		return nil, fmt.Errorf("compile: schema has no root type for %s operation", op.Operation)
	}
	c := &compile{schema: schema, doc: doc}
	selections, err := c.compileSelectionSet(rootDef, op.SelectionSet)
	if err != nil {
		return nil, err
	}
	return &ast.Root{Name: op.Name, Selections: selections}, nil
}

type compile struct {
	schema *gql.Schema
	doc    *gql.QueryDocument
}

func (c *compile) compileSelectionSet(parent *gql.Definition, set gql.SelectionSet) ([]ast.Selection, error) {
	var out []ast.Selection
	for _, selection := range set {
		switch sel := selection.(type) {
		case *gql.Field:
			compiled, err := c.compileField(parent, sel)
			if err != nil {
				return nil, err
			}
			compiled, dropped := wrapConditions(compiled, sel.Directives)
			if !dropped {
				out = append(out, compiled...)
			}
		case *gql.InlineFragment:
			compiled, err := c.compileFragment(parent, sel.TypeCondition, sel.Directives, sel.SelectionSet)
			if err != nil {
				return nil, err
			}
			out = append(out, compiled...)
		case *gql.FragmentSpread:
			def := c.doc.Fragments.ForName(sel.Name)
			if def == nil {
				return nil, fmt.Errorf("compile: fragment %q not found", sel.Name)
			}
			compiled, err := c.compileFragment(parent, def.TypeCondition, sel.Directives, def.SelectionSet)
			if err != nil {
				return nil, err
			}
			out = append(out, compiled...)
		}
	}
	return out, nil
}

// compileFragment inlines a fragment body, adding a type refinement wrapper
// when the type condition narrows the parent to a concrete type, a Defer
// boundary for @defer, and condition guards for @skip/@include. A fragment
// on an abstract type the parent already satisfies needs no wrapper.
func (c *compile) compileFragment(parent *gql.Definition, typeCondition string, directives gql.DirectiveList, set gql.SelectionSet) ([]ast.Selection, error) {
	inner := parent
	if typeCondition != "" {
		inner = c.schema.Types[typeCondition]
		if inner == nil {
			return nil, fmt.Errorf("compile: unknown type condition %q", typeCondition)
		}
	}
	body, err := c.compileSelectionSet(inner, set)
	if err != nil {
		return nil, err
	}

	refines := typeCondition != "" && typeCondition != parent.Name && inner.Kind == gql.Object
	if refines {
		body = []ast.Selection{&ast.InlineFragment{TypeName: typeCondition, Selections: body}}
	}

	if d := directives.ForName("defer"); d != nil {
		guard, err := guardFromDirective(d)
		if err != nil {
			return nil, err
		}
		// A literal-false guard can never defer; the subtree stays inline.
		if guard.Variable != "" || guard.Value {
			body = []ast.Selection{&ast.Defer{
				Label:      stringArg(d, "label"),
				If:         guard,
				Selections: body,
			}}
		}
	}

	body, dropped := wrapConditions(body, directives)
	if dropped {
		return nil, nil
	}
	return body, nil
}

func (c *compile) compileField(parent *gql.Definition, f *gql.Field) ([]ast.Selection, error) {
	if f.Name == ast.TypenameKey {
		return []ast.Selection{&ast.ScalarField{Name: f.Name, Alias: alias(f)}}, nil
	}
	fieldDef := parent.Fields.ForName(f.Name)
	if fieldDef == nil {
		return nil, fmt.Errorf("compile: field %q not defined on type %q", f.Name, parent.Name)
	}
	typeDef := c.schema.Types[baseType(fieldDef.Type).NamedType]
	if typeDef == nil {
		return nil, fmt.Errorf("compile: unknown type %q for field %q", fieldDef.Type.Name(), f.Name)
	}
	args, err := compileArguments(f.Arguments)
	if err != nil {
		return nil, err
	}

	if d := f.Directives.ForName("match"); d != nil {
		return c.compileMatchField(typeDef, f, args)
	}

	var base ast.Selection
	var linked *ast.LinkedField
	switch typeDef.Kind {
	case gql.Scalar, gql.Enum:
		base = &ast.ScalarField{Name: f.Name, Alias: alias(f), Args: args}
	default:
		selections, err := c.compileSelectionSet(typeDef, f.SelectionSet)
		if err != nil {
			return nil, err
		}
		concrete := ""
		if typeDef.Kind == gql.Object {
			concrete = typeDef.Name
		}
		linked = &ast.LinkedField{
			Name:         f.Name,
			Alias:        alias(f),
			Args:         args,
			ConcreteType: concrete,
			Plural:       isList(fieldDef.Type),
			Selections:   selections,
		}
		base = linked
	}

	out := []ast.Selection{base}
	if d := f.Directives.ForName("stream"); d != nil {
		if linked == nil || !linked.Plural {
			return nil, fmt.Errorf("compile: @stream requires a plural linked field, got %q", f.Name)
		}
		guard, err := guardFromDirective(d)
		if err != nil {
			return nil, err
		}
		out = []ast.Selection{&ast.Stream{
			Label:      stringArg(d, "label"),
			If:         guard,
			Selections: []ast.Selection{base},
		}}
	}

	if d := f.Directives.ForName("__clientField"); d != nil {
		handle := stringArg(d, "handle")
		if handle == "" {
			return nil, fmt.Errorf("compile: @__clientField on %q requires a handle name", f.Name)
		}
		if linked != nil {
			out = append(out, &ast.LinkedHandle{Name: f.Name, Alias: alias(f), Args: args, Handle: handle})
		} else {
			out = append(out, &ast.ScalarHandle{Name: f.Name, Alias: alias(f), Args: args, Handle: handle})
		}
	}
	return out, nil
}

// compileMatchField builds the per-type match table from the field's child
// fragment spreads, each naming the module that provides its fragment.
func (c *compile) compileMatchField(typeDef *gql.Definition, f *gql.Field, args []ast.Argument) ([]ast.Selection, error) {
	if typeDef.Kind != gql.Union && typeDef.Kind != gql.Interface {
		return nil, fmt.Errorf("compile: @match requires an abstract field type, got %q on %q", typeDef.Name, f.Name)
	}
	matches := make(map[string]ast.Match)
	for _, selection := range f.SelectionSet {
		spread, ok := selection.(*gql.FragmentSpread)
		if !ok {
			continue
		}
		def := c.doc.Fragments.ForName(spread.Name)
		if def == nil {
			return nil, fmt.Errorf("compile: fragment %q not found", spread.Name)
		}
		module := spread.Directives.ForName("module")
		if module == nil {
			return nil, fmt.Errorf("compile: spread %q under @match field %q needs @module", spread.Name, f.Name)
		}
		matches[def.TypeCondition] = ast.Match{
			FragmentName: spread.Name,
			Module:       stringArg(module, "name"),
		}
	}
	return []ast.Selection{&ast.MatchField{
		Name:          f.Name,
		Alias:         alias(f),
		Args:          args,
		MatchesByType: matches,
	}}, nil
}

// wrapConditions applies @skip/@include to a compiled selection group.
// Variable-bound conditions become Condition wrappers; literal ones either
// pass through or drop the group entirely.
func wrapConditions(selections []ast.Selection, directives gql.DirectiveList) (out []ast.Selection, dropped bool) {
	if len(selections) == 0 {
		return selections, false
	}
	out = selections
	if d := directives.ForName("include"); d != nil {
		switch v := ifArg(d); {
		case v == nil:
		case v.Kind == gql.Variable:
			out = []ast.Selection{&ast.Condition{Variable: v.Raw, PassingValue: true, Selections: out}}
		case v.Raw != "true":
			return nil, true
		}
	}
	if d := directives.ForName("skip"); d != nil {
		switch v := ifArg(d); {
		case v == nil:
		case v.Kind == gql.Variable:
			out = []ast.Selection{&ast.Condition{Variable: v.Raw, PassingValue: false, Selections: out}}
		case v.Raw == "true":
			return nil, true
		}
	}
	return out, false
}

// guardFromDirective reads a defer/stream "if" argument. Absent means the
// boundary is unconditionally active.
func guardFromDirective(d *gql.Directive) (ast.Guard, error) {
	v := ifArg(d)
	if v == nil {
		return ast.Guard{Value: true}, nil
	}
	switch v.Kind {
	case gql.Variable:
		return ast.Guard{Variable: v.Raw}, nil
	case gql.BooleanValue:
		return ast.Guard{Value: v.Raw == "true"}, nil
	default:
		return ast.Guard{}, fmt.Errorf("compile: @%s if: must be a boolean or variable, got %q", d.Name, v.Raw)
	}
}

func ifArg(d *gql.Directive) *gql.Value {
	if arg := d.Arguments.ForName("if"); arg != nil {
		return arg.Value
	}
	return nil
}

func stringArg(d *gql.Directive, name string) string {
	arg := d.Arguments.ForName(name)
	if arg == nil || arg.Value == nil {
		return ""
	}
	return arg.Value.Raw
}

func alias(f *gql.Field) string {
	if f.Alias != f.Name {
		return f.Alias
	}
	return ""
}

func baseType(t *gql.Type) *gql.Type {
	for t.Elem != nil {
		t = t.Elem
	}
	return t
}

func isList(t *gql.Type) bool {
	for t != nil {
		if t.NamedType == "" && t.Elem != nil {
			return true
		}
		t = t.Elem
	}
	return false
}

// getOperation retrieves the operation from the document.
func getOperation(doc *gql.QueryDocument, operationName string) *gql.OperationDefinition {
	if operationName == "" && len(doc.Operations) == 1 {
		return doc.Operations[0]
	}
	return doc.Operations.ForName(operationName)
}
