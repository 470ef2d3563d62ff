package normalizer

import (
	ast "github.com/eduardotrandafilov/relay/internal/ast"
	keys "github.com/eduardotrandafilov/relay/internal/keys"
	store "github.com/eduardotrandafilov/relay/internal/store"
)

// newRootSource returns a source seeded with the conventional root record.
func newRootSource() *store.MapSource {
	source := store.NewMapSource()
	source.Set(keys.RootID, store.NewRecord(keys.RootID, "Query"))
	return source
}

// rootSelector targets the root record with the given selections.
func rootSelector(vars ast.Variables, selections ...ast.Selection) ast.Selector {
	return ast.Selector{
		ID:        keys.RootID,
		Node:      &ast.Root{Name: "TestQuery", Selections: selections},
		Variables: vars,
	}
}

// userField is a singular linked field "me" with concrete type User.
func userField(selections ...ast.Selection) *ast.LinkedField {
	return &ast.LinkedField{Name: "me", ConcreteType: "User", Selections: selections}
}
