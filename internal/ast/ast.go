// Package ast defines the flattened selection tree consumed by the
// normalizer. Trees are produced once per operation by the compiler and are
// immutable afterwards; fragment spreads never appear here.
package ast

import (
	store "github.com/eduardotrandafilov/relay/internal/store"
)

// TypenameKey is the reserved response key carrying an object's runtime type.
const TypenameKey = "__typename"

// ModuleOperationKey is the reserved response key carrying the module
// operation reference on a match field payload.
const ModuleOperationKey = "__module_operation"

// Variables binds variable names to values for one normalization call.
type Variables map[string]any

// Argument is a field argument: a literal Value, or a reference to a bound
// variable when Variable is non-empty.
type Argument struct {
	Name     string
	Value    any
	Variable string
}

// Guard is a boolean condition on a defer or stream boundary. An empty
// Variable means the literal Value; otherwise the guard reads the named
// variable at normalization time.
type Guard struct {
	Variable string
	Value    bool
}

// Resolve evaluates the guard under vars. The second return value reports
// whether the guard resolved to a boolean; literal guards always do. Callers
// choose the fallback for non-boolean bindings.
func (g Guard) Resolve(vars Variables) (value bool, isBool bool) {
	if g.Variable == "" {
		return g.Value, true
	}
	b, ok := vars[g.Variable].(bool)
	return b, ok
}

// Selection is one node of the flattened selection tree. The set of
// implementations is closed; the normalizer dispatches exhaustively over it.
type Selection interface {
	isSelection()
}

// ScalarField reads a leaf value from the response and stores it verbatim.
type ScalarField struct {
	Name  string
	Alias string
	Args  []Argument
}

// LinkedField descends into a nested object (or list of objects) and stores
// the target record identity (or ordered identity list) on the owner.
// ConcreteType is set when the field's schema type is a concrete object;
// abstract fields leave it empty and take the type from the payload.
type LinkedField struct {
	Name         string
	Alias        string
	Args         []Argument
	ConcreteType string
	Plural       bool
	Selections   []Selection
}

// InlineFragment applies its selections only when the record's stored
// runtime type equals TypeName.
type InlineFragment struct {
	TypeName   string
	Selections []Selection
}

// Condition guards its selections on a boolean variable: they apply only
// when the variable's value equals PassingValue.
type Condition struct {
	Variable     string
	PassingValue bool
	Selections   []Selection
}

// Passes reports whether the condition admits its selections under vars.
// isBool is false when the variable is unbound or bound to a non-boolean, in
// which case the condition never passes.
func (c *Condition) Passes(vars Variables) (passes bool, isBool bool) {
	b, ok := vars[c.Variable].(bool)
	if !ok {
		return false, false
	}
	return b == c.PassingValue, true
}

// ScalarHandle requests out-of-band client resolution of a scalar field.
// It never writes to the record during normalization.
type ScalarHandle struct {
	Name   string
	Alias  string
	Args   []Argument
	Handle string
}

// LinkedHandle requests out-of-band client resolution of a linked field.
// It never writes to the record during normalization.
type LinkedHandle struct {
	Name   string
	Alias  string
	Args   []Argument
	Handle string
}

// Match names one admissible concrete type of a match field: the fragment to
// apply and the module that provides it, both resolved in a later stage.
type Match struct {
	FragmentName string
	Module       string
}

// MatchField is a polymorphic field whose shape is selected by the payload's
// runtime type via MatchesByType. Payload types absent from the table store
// an explicit null.
type MatchField struct {
	Name          string
	Alias         string
	Args          []Argument
	MatchesByType map[string]Match
}

// Defer marks a subtree whose data may arrive in a later response chunk.
// When the guard resolves false the subtree is treated as inline data.
type Defer struct {
	Label      string
	If         Guard
	Selections []Selection
}

// Stream marks a list subtree delivered incrementally. Already-delivered
// items are always normalized inline; the guard only controls whether a
// continuation is recorded for future chunks.
type Stream struct {
	Label      string
	If         Guard
	Selections []Selection
}

func (*ScalarField) isSelection()    {}
func (*LinkedField) isSelection()    {}
func (*InlineFragment) isSelection() {}
func (*Condition) isSelection()      {}
func (*ScalarHandle) isSelection()   {}
func (*LinkedHandle) isSelection()   {}
func (*MatchField) isSelection()     {}
func (*Defer) isSelection()          {}
func (*Stream) isSelection()         {}

// ResponseKey returns the key under which the field appears in the response.
func (f *ScalarField) ResponseKey() string { return responseKey(f.Alias, f.Name) }

// ResponseKey returns the key under which the field appears in the response.
func (f *LinkedField) ResponseKey() string { return responseKey(f.Alias, f.Name) }

// ResponseKey returns the key under which the field appears in the response.
func (f *MatchField) ResponseKey() string { return responseKey(f.Alias, f.Name) }

func responseKey(alias, name string) string {
	if alias != "" {
		return alias
	}
	return name
}

// Node is any selection tree node that groups child selections. A Selector
// may point at a Root, a Defer, a Stream, or a LinkedField.
type Node interface {
	SelectionList() []Selection
}

// Root is the top of a compiled operation's selection tree.
type Root struct {
	Name       string
	Selections []Selection
}

func (r *Root) SelectionList() []Selection        { return r.Selections }
func (f *LinkedField) SelectionList() []Selection { return f.Selections }
func (d *Defer) SelectionList() []Selection       { return d.Selections }
func (s *Stream) SelectionList() []Selection      { return s.Selections }

// Selector names a normalization target: apply Node's selections to the
// record identified by ID under Variables. It doubles as the payload shape
// for not-yet-delivered incremental continuations.
type Selector struct {
	ID        store.DataID
	Node      Node
	Variables Variables
}
