package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ast "github.com/eduardotrandafilov/relay/internal/ast"
	keys "github.com/eduardotrandafilov/relay/internal/keys"
	normalizer "github.com/eduardotrandafilov/relay/internal/normalizer"
	store "github.com/eduardotrandafilov/relay/internal/store"
)

// Compiles a full-featured operation and normalizes a matching response,
// checking the two halves agree on the flattened tree's meaning.
func TestCompileAndNormalize(t *testing.T) {
	root := mustCompile(t, `
		query ProfileQuery($withBio: Boolean!, $shouldDefer: Boolean!) {
			me {
				id
				name
				bio @include(if: $withBio)
				friends(first: 2) @stream(label: "friends") { id name }
				...UserExtra @defer(label: "extra", if: $shouldDefer)
				nameRenderer @match {
					...PlainName @module(name: "PlainUserNameRenderer.react")
				}
			}
		}
		fragment UserExtra on User { bio }
		fragment PlainName on PlainUserNameRenderer { plaintext }
	`, "ProfileQuery")

	source := store.NewMapSource()
	source.Set(keys.RootID, store.NewRecord(keys.RootID, "Query"))

	data := map[string]any{
		"me": map[string]any{
			"id":   "4",
			"name": "Ada",
			"bio":  "prefers machines",
			"friends": []any{
				map[string]any{"id": "a", "name": "Grace"},
				nil,
			},
			"nameRenderer": map[string]any{
				"__typename":         "PlainUserNameRenderer",
				"__module_operation": "PlainName$normalization.graphql",
				"plaintext":          "ada",
			},
		},
	}
	vars := ast.Variables{"withBio": true, "shouldDefer": true}
	selector := ast.Selector{ID: keys.RootID, Node: root, Variables: vars}

	result, err := normalizer.Normalize(source, selector, data, normalizer.Options{})
	require.NoError(t, err)

	me := source.Get("4")
	require.NotNil(t, me)
	name, _ := me.Value("name")
	assert.Equal(t, "Ada", name)
	bio, ok := me.Value("bio")
	require.True(t, ok)
	assert.Equal(t, "prefers machines", bio)

	ids, ok := me.LinkedIDs(`friends(first:2)`)
	require.True(t, ok)
	require.Len(t, ids, 2)
	assert.Equal(t, store.DataID("a"), *ids[0])
	assert.Nil(t, ids[1])
	friendName, _ := source.Get("a").Value("name")
	assert.Equal(t, "Grace", friendName)

	require.Len(t, result.IncrementalPayloads, 2)
	assert.Equal(t, normalizer.KindStream, result.IncrementalPayloads[0].Kind)
	assert.Equal(t, "friends", result.IncrementalPayloads[0].Label)
	assert.Equal(t, "me", result.IncrementalPayloads[0].Path.String())
	assert.Equal(t, normalizer.KindDefer, result.IncrementalPayloads[1].Kind)
	assert.Equal(t, "extra", result.IncrementalPayloads[1].Label)
	assert.Equal(t, store.DataID("4"), result.IncrementalPayloads[1].Selector.ID)

	require.Len(t, result.MatchPayloads, 1)
	assert.Equal(t, "PlainName$normalization.graphql", result.MatchPayloads[0].OperationReference)
	assert.Equal(t, "PlainUserNameRenderer", result.MatchPayloads[0].TypeName)
}
