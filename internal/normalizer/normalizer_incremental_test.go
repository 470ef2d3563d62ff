package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ast "github.com/eduardotrandafilov/relay/internal/ast"
	diag "github.com/eduardotrandafilov/relay/internal/diag"
	store "github.com/eduardotrandafilov/relay/internal/store"
)

func TestNormalizeDefer(t *testing.T) {
	deferred := func(guard ast.Guard) *ast.Defer {
		return &ast.Defer{
			Label:      "UserQuery$defer$bio",
			If:         guard,
			Selections: []ast.Selection{&ast.ScalarField{Name: "bio"}},
		}
	}

	t.Run("active guard records a continuation and writes nothing", func(t *testing.T) {
		source := newRootSource()
		node := userField(&ast.ScalarField{Name: "id"}, deferred(ast.Guard{Value: true}))
		sel := rootSelector(nil, node)
		data := map[string]any{"me": map[string]any{"id": "4", "bio": "present but deferred"}}
		result, err := Normalize(source, sel, data, Options{})
		require.NoError(t, err)

		require.Len(t, result.IncrementalPayloads, 1)
		p := result.IncrementalPayloads[0]
		assert.Equal(t, KindDefer, p.Kind)
		assert.Equal(t, "UserQuery$defer$bio", p.Label)
		assert.Equal(t, "me", p.Path.String())
		assert.Equal(t, store.DataID("4"), p.Selector.ID)
		assert.Same(t, node.Selections[1], p.Selector.Node)

		assert.False(t, source.Get("4").Has("bio"), "deferred subtree is not normalized now")
	})

	t.Run("inactive guard normalizes inline", func(t *testing.T) {
		source := newRootSource()
		sel := rootSelector(nil, userField(&ast.ScalarField{Name: "id"}, deferred(ast.Guard{Value: false})))
		data := map[string]any{"me": map[string]any{"id": "4", "bio": "inline"}}
		result, err := Normalize(source, sel, data, Options{})
		require.NoError(t, err)

		assert.Empty(t, result.IncrementalPayloads)
		bio, ok := source.Get("4").Value("bio")
		require.True(t, ok)
		assert.Equal(t, "inline", bio)
	})

	t.Run("variable guard", func(t *testing.T) {
		source := newRootSource()
		sel := rootSelector(ast.Variables{"shouldDefer": true},
			userField(&ast.ScalarField{Name: "id"}, deferred(ast.Guard{Variable: "shouldDefer"})))
		data := map[string]any{"me": map[string]any{"id": "4"}}
		result, err := Normalize(source, sel, data, Options{})
		require.NoError(t, err)
		require.Len(t, result.IncrementalPayloads, 1)
		assert.Equal(t, ast.Variables{"shouldDefer": true}, result.IncrementalPayloads[0].Selector.Variables)
	})

	t.Run("non-boolean guard warns and defers", func(t *testing.T) {
		source := newRootSource()
		rec := &diag.Recorder{}
		sel := rootSelector(ast.Variables{"shouldDefer": "yes"},
			userField(&ast.ScalarField{Name: "id"}, deferred(ast.Guard{Variable: "shouldDefer"})))
		data := map[string]any{"me": map[string]any{"id": "4"}}
		result, err := Normalize(source, sel, data, Options{Sink: rec})
		require.NoError(t, err)
		require.Len(t, result.IncrementalPayloads, 1)
		require.Len(t, rec.Events(), 1)
		assert.Equal(t, diag.NonBooleanGuard{Variable: "shouldDefer", Value: "yes"}, rec.Events()[0])
	})
}

func TestNormalizeStream(t *testing.T) {
	stream := func(guard ast.Guard) *ast.Stream {
		return &ast.Stream{
			Label: "UserQuery$stream$friends",
			If:    guard,
			Selections: []ast.Selection{&ast.LinkedField{
				Name:         "friends",
				ConcreteType: "User",
				Plural:       true,
				Selections:   []ast.Selection{&ast.ScalarField{Name: "id"}},
			}},
		}
	}
	data := map[string]any{"me": map[string]any{"id": "4", "friends": []any{
		map[string]any{"id": "a"},
		map[string]any{"id": "b"},
	}}}

	t.Run("delivered items normalize and a continuation is recorded", func(t *testing.T) {
		source := newRootSource()
		node := userField(&ast.ScalarField{Name: "id"}, stream(ast.Guard{Value: true}))
		result, err := Normalize(source, rootSelector(nil, node), data, Options{})
		require.NoError(t, err)

		ids, ok := source.Get("4").LinkedIDs("friends")
		require.True(t, ok)
		require.Len(t, ids, 2)
		require.NotNil(t, source.Get("a"))
		require.NotNil(t, source.Get("b"))

		require.Len(t, result.IncrementalPayloads, 1)
		p := result.IncrementalPayloads[0]
		assert.Equal(t, KindStream, p.Kind)
		assert.Equal(t, "UserQuery$stream$friends", p.Label)
		assert.Equal(t, "me", p.Path.String())
		assert.Equal(t, store.DataID("4"), p.Selector.ID)
	})

	t.Run("inactive guard still normalizes delivered items", func(t *testing.T) {
		source := newRootSource()
		node := userField(&ast.ScalarField{Name: "id"}, stream(ast.Guard{Value: false}))
		result, err := Normalize(source, rootSelector(nil, node), data, Options{})
		require.NoError(t, err)
		assert.Empty(t, result.IncrementalPayloads)
		ids, ok := source.Get("4").LinkedIDs("friends")
		require.True(t, ok)
		assert.Len(t, ids, 2)
	})

	t.Run("non-boolean guard warns and records no continuation", func(t *testing.T) {
		source := newRootSource()
		rec := &diag.Recorder{}
		node := userField(&ast.ScalarField{Name: "id"}, stream(ast.Guard{Variable: "enableStream"}))
		result, err := Normalize(source, rootSelector(ast.Variables{"enableStream": 1}, node), data, Options{Sink: rec})
		require.NoError(t, err)
		assert.Empty(t, result.IncrementalPayloads)
		require.Len(t, rec.Events(), 1)
		ids, ok := source.Get("4").LinkedIDs("friends")
		require.True(t, ok)
		assert.Len(t, ids, 2)
	})
}

func TestIncrementalPayloadOrdering(t *testing.T) {
	// Payloads appear in traversal order, defer and stream interleaved.
	source := newRootSource()
	node := userField(
		&ast.ScalarField{Name: "id"},
		&ast.Defer{Label: "one", If: ast.Guard{Value: true}},
		&ast.Stream{Label: "two", If: ast.Guard{Value: true}},
		&ast.Defer{Label: "three", If: ast.Guard{Value: true}},
	)
	data := map[string]any{"me": map[string]any{"id": "4"}}
	result, err := Normalize(source, rootSelector(nil, node), data, Options{})
	require.NoError(t, err)

	require.Len(t, result.IncrementalPayloads, 3)
	labels := []string{}
	for _, p := range result.IncrementalPayloads {
		labels = append(labels, p.Label)
	}
	assert.Equal(t, []string{"one", "two", "three"}, labels)
}

func TestUnexpectedSelectionKindIsFatal(t *testing.T) {
	source := newRootSource()
	sel := rootSelector(nil, unflattenedSelection{})
	_, err := Normalize(source, sel, map[string]any{}, Options{})
	var cerr *ContractError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Message, "flattened")
}

// unflattenedSelection stands in for a selection kind the compiler should
// have lowered away.
type unflattenedSelection struct{ ast.Selection }
