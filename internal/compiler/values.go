package compiler

import (
	"fmt"
	"strconv"

	gql "github.com/vektah/gqlparser/v2/ast"

	ast "github.com/eduardotrandafilov/relay/internal/ast"
)

func compileArguments(args gql.ArgumentList) ([]ast.Argument, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]ast.Argument, 0, len(args))
	for _, arg := range args {
		if arg.Value != nil && arg.Value.Kind == gql.Variable {
			out = append(out, ast.Argument{Name: arg.Name, Variable: arg.Value.Raw})
			continue
		}
		v, err := astValueToGo(arg.Value)
		if err != nil {
			return nil, fmt.Errorf("compile: argument %q: %w", arg.Name, err)
		}
		out = append(out, ast.Argument{Name: arg.Name, Value: v})
	}
	return out, nil
}

// astValueToGo converts an AST literal to a Go value.
func astValueToGo(value *gql.Value) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch value.Kind {
	case gql.IntValue:
		iv, err := strconv.Atoi(value.Raw)
		if err != nil {
			return nil, fmt.Errorf("bad int literal %q", value.Raw)
		}
		return iv, nil
	case gql.FloatValue:
		fv, err := strconv.ParseFloat(value.Raw, 64)
		if err != nil {
			return nil, fmt.Errorf("bad float literal %q", value.Raw)
		}
		return fv, nil
	case gql.StringValue, gql.BlockValue, gql.EnumValue:
		return value.Raw, nil
	case gql.BooleanValue:
		return value.Raw == "true", nil
	case gql.NullValue:
		return nil, nil
	case gql.ListValue:
		out := make([]any, len(value.Children))
		for i, child := range value.Children {
			v, err := astValueToGo(child.Value)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case gql.ObjectValue:
		out := make(map[string]any, len(value.Children))
		for _, child := range value.Children {
			v, err := astValueToGo(child.Value)
			if err != nil {
				return nil, err
			}
			out[child.Name] = v
		}
		return out, nil
	case gql.Variable:
		// Storage keys must be computable from (literal args, variables)
		// alone; a variable buried inside a literal breaks that.
		return nil, fmt.Errorf("variable $%s nested inside an argument literal is not supported", value.Raw)
	default:
		return nil, fmt.Errorf("unsupported value kind %d", value.Kind)
	}
}
