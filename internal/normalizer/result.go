package normalizer

import (
	"fmt"

	ast "github.com/eduardotrandafilov/relay/internal/ast"
	store "github.com/eduardotrandafilov/relay/internal/store"
)

// IncrementalKind distinguishes defer from stream continuations.
type IncrementalKind string

const (
	KindDefer  IncrementalKind = "defer"
	KindStream IncrementalKind = "stream"
)

// IncrementalPayload describes a subtree whose data arrives in a later
// response chunk: where it sits in the logical response tree and the
// selector to normalize the chunk with once it arrives.
type IncrementalPayload struct {
	Kind     IncrementalKind
	Label    string
	Path     ast.Path
	Selector ast.Selector
}

// HandleFieldPayload is a request to resolve a client handle field out of
// band: compute a value for Handle over the field stored at FieldKey on the
// record DataID, and store it under HandleKey.
type HandleFieldPayload struct {
	Args      map[string]any
	DataID    store.DataID
	FieldKey  string
	HandleKey string
	Handle    string
}

// MatchFieldPayload is a request to resolve a polymorphic match field in a
// later stage, once the module named by OperationReference is loaded. Data
// is the raw payload subtree for the target record.
type MatchFieldPayload struct {
	OperationReference string
	DataID             store.DataID
	Data               map[string]any
	TypeName           string
	Variables          ast.Variables
}

// Result carries the three ordered payload lists produced by one
// normalization call. The lists are append-only transport; the caller owns
// all follow-on scheduling.
type Result struct {
	IncrementalPayloads []IncrementalPayload
	FieldPayloads       []HandleFieldPayload
	MatchPayloads       []MatchFieldPayload
}

// ContractError is a fatal contract violation: the selection tree and the
// response tree disagree about shape, or a required precondition does not
// hold. The record source may be partially mutated when one is returned;
// callers should discard the snapshot rather than retry.
type ContractError struct {
	Path    ast.Path
	Message string
}

func (e *ContractError) Error() string {
	if len(e.Path) == 0 {
		return "normalize: " + e.Message
	}
	return fmt.Sprintf("normalize: %s at %s", e.Message, e.Path)
}

func contractErrorf(path ast.Path, format string, args ...any) error {
	return &ContractError{Path: path, Message: fmt.Sprintf(format, args...)}
}
