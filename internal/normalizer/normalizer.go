package normalizer

import (
	ast "github.com/eduardotrandafilov/relay/internal/ast"
	diag "github.com/eduardotrandafilov/relay/internal/diag"
	keys "github.com/eduardotrandafilov/relay/internal/keys"
	store "github.com/eduardotrandafilov/relay/internal/store"
)

// idFieldKey is the response key of the server-issued global identity.
const idFieldKey = "id"

// Options controls one normalization call.
type Options struct {
	// HandleStrippedNulls writes explicit nulls for fields the response
	// omits, instead of leaving them unset. Used when reconciling a
	// selector whose fields must be fully determined.
	HandleStrippedNulls bool

	// Sink receives soft diagnostics. Nil means discard.
	Sink diag.Sink
}

// normalization holds the state of one call.
type normalization struct {
	source      store.RecordSource
	variables   ast.Variables
	opts        Options
	sink        diag.Sink
	incremental []IncrementalPayload
	fields      []HandleFieldPayload
	matches     []MatchFieldPayload
}

// Normalize flattens a response tree into source, applying selector.Node's
// selections to the record named by selector.ID. That record must already
// exist. On success the record source is the sole side effect and the
// returned Result carries the three payload lists; on error the source may
// be partially mutated and must be treated as unrecoverable.
func Normalize(source store.RecordSource, selector ast.Selector, data map[string]any, opts Options) (*Result, error) {
	record := source.Get(selector.ID)
	if record == nil {
		return nil, contractErrorf(nil, "expected root record %q to exist", selector.ID)
	}
	sink := opts.Sink
	if sink == nil {
		sink = diag.Nop{}
	}
	n := &normalization{
		source:    source,
		variables: selector.Variables,
		opts:      opts,
		sink:      sink,
	}
	if err := n.normalizeSelections(record, selector.Node.SelectionList(), data, ast.Path{}); err != nil {
		return nil, err
	}
	return &Result{
		IncrementalPayloads: n.incremental,
		FieldPayloads:       n.fields,
		MatchPayloads:       n.matches,
	}, nil
}

func (n *normalization) normalizeSelections(record *store.Record, selections []ast.Selection, data map[string]any, path ast.Path) error {
	for _, selection := range selections {
		switch sel := selection.(type) {
		case *ast.ScalarField:
			if err := n.normalizeScalarField(record, sel, data, path); err != nil {
				return err
			}
		case *ast.LinkedField:
			if err := n.normalizeLinkedField(record, sel, data, path); err != nil {
				return err
			}
		case *ast.InlineFragment:
			if record.Type() == sel.TypeName {
				if err := n.normalizeSelections(record, sel.Selections, data, path); err != nil {
					return err
				}
			}
		case *ast.Condition:
			if err := n.normalizeCondition(record, sel, data, path); err != nil {
				return err
			}
		case *ast.ScalarHandle:
			if err := n.appendHandle(record, sel.Name, sel.Args, sel.Handle, path); err != nil {
				return err
			}
		case *ast.LinkedHandle:
			if err := n.appendHandle(record, sel.Name, sel.Args, sel.Handle, path); err != nil {
				return err
			}
		case *ast.MatchField:
			if err := n.normalizeMatchField(record, sel, data, path); err != nil {
				return err
			}
		case *ast.Defer:
			if err := n.normalizeDefer(record, sel, data, path); err != nil {
				return err
			}
		case *ast.Stream:
			if err := n.normalizeStream(record, sel, data, path); err != nil {
				return err
			}
		default:
			return contractErrorf(path, "unexpected selection kind %T; selection trees must be fully flattened", selection)
		}
	}
	return nil
}

func (n *normalization) normalizeScalarField(record *store.Record, field *ast.ScalarField, data map[string]any, path ast.Path) error {
	key, err := keys.StorageKey(field.Name, field.Args, n.variables)
	if err != nil {
		return contractErrorf(path, "%v", err)
	}
	responseKey := field.ResponseKey()
	value, ok := data[responseKey]
	if !ok {
		// Absent means "not yet known", not "known absent"; only a
		// reconciling caller forces it to null.
		if n.opts.HandleStrippedNulls {
			record.SetValue(key, nil)
		} else {
			n.sink.Emit(diag.MissingField{Owner: record.ID(), ResponseKey: responseKey})
		}
		return nil
	}
	record.SetValue(key, value)
	return nil
}

func (n *normalization) normalizeLinkedField(record *store.Record, field *ast.LinkedField, data map[string]any, path ast.Path) error {
	key, err := keys.StorageKey(field.Name, field.Args, n.variables)
	if err != nil {
		return contractErrorf(path, "%v", err)
	}
	responseKey := field.ResponseKey()
	value, ok := data[responseKey]
	if !ok {
		if n.opts.HandleStrippedNulls {
			record.SetValue(key, nil)
		} else {
			n.sink.Emit(diag.MissingField{Owner: record.ID(), ResponseKey: responseKey})
		}
		return nil
	}
	if value == nil {
		record.SetValue(key, nil)
		return nil
	}
	fieldPath := ast.AppendPath(path, responseKey)
	if field.Plural {
		return n.normalizePluralLink(record, field, key, value, fieldPath)
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return contractErrorf(fieldPath, "expected an object for field %q, got %T", responseKey, value)
	}
	prev, _ := record.LinkedID(key)
	id, err := n.resolveLinkedID(record.ID(), key, obj, prev, -1, fieldPath)
	if err != nil {
		return err
	}
	child, err := n.ensureRecord(id, field.ConcreteType, obj, fieldPath)
	if err != nil {
		return err
	}
	record.SetLinkedID(key, id)
	return n.normalizeSelections(child, field.Selections, obj, fieldPath)
}

func (n *normalization) normalizePluralLink(record *store.Record, field *ast.LinkedField, key string, value any, path ast.Path) error {
	items, ok := value.([]any)
	if !ok {
		return contractErrorf(path, "expected an array for field %q, got %T", field.ResponseKey(), value)
	}
	prevIDs, _ := record.LinkedIDs(key)
	nextIDs := make([]*store.DataID, len(items))
	for i, item := range items {
		if item == nil {
			continue
		}
		itemPath := ast.AppendPath(path, i)
		obj, ok := item.(map[string]any)
		if !ok {
			return contractErrorf(itemPath, "expected an object for item %d of field %q, got %T", i, field.ResponseKey(), item)
		}
		var prev store.DataID
		if i < len(prevIDs) && prevIDs[i] != nil {
			prev = *prevIDs[i]
		}
		id, err := n.resolveLinkedID(record.ID(), key, obj, prev, i, itemPath)
		if err != nil {
			return err
		}
		child, err := n.ensureRecord(id, field.ConcreteType, obj, itemPath)
		if err != nil {
			return err
		}
		stored := id
		nextIDs[i] = &stored
		if err := n.normalizeSelections(child, field.Selections, obj, itemPath); err != nil {
			return err
		}
	}
	// The full ordered list replaces whatever was stored before, so the
	// field tracks growth, shrinkage, and reordering.
	record.SetLinkedIDs(key, nextIDs)
	return nil
}

// resolveLinkedID determines the identity of a linked record: the payload's
// id field when present, else the identity previously stored at this slot,
// else a synthesized client identity. index is -1 for singular links.
func (n *normalization) resolveLinkedID(owner store.DataID, key string, obj map[string]any, prev store.DataID, index int, path ast.Path) (store.DataID, error) {
	if raw, ok := obj[idFieldKey]; ok && raw != nil {
		s, ok := raw.(string)
		if !ok || s == "" {
			return "", contractErrorf(path, "expected %q to be a non-empty string, got %T", idFieldKey, raw)
		}
		return store.DataID(s), nil
	}
	if prev != "" {
		return prev, nil
	}
	if index >= 0 {
		return keys.IndexedClientID(owner, key, index), nil
	}
	return keys.ClientID(owner, key), nil
}

// ensureRecord fetches or creates the record for id. A declared concrete
// type wins over the payload's typename; without one, the typename marker is
// required. Existing records keep their stored type, with a diagnostic when
// the observed type disagrees.
func (n *normalization) ensureRecord(id store.DataID, concreteType string, obj map[string]any, path ast.Path) (*store.Record, error) {
	typ := concreteType
	if typ == "" {
		tn, ok := obj[ast.TypenameKey].(string)
		if !ok || tn == "" {
			return nil, contractErrorf(path, "expected %q when the record type must come from the payload", ast.TypenameKey)
		}
		typ = tn
	}
	record := n.source.Get(id)
	if record == nil {
		record = store.NewRecord(id, typ)
		n.source.Set(id, record)
		return record, nil
	}
	n.validateRecordType(record, typ)
	return record, nil
}

// validateRecordType cross-checks a record's stored runtime type against a
// newly observed payload type. A mismatch means two logical entities shared
// one identity; the stored data is kept untouched and a diagnostic emitted.
func (n *normalization) validateRecordType(record *store.Record, observed string) {
	if record.Type() != observed {
		n.sink.Emit(diag.TypeMismatch{ID: record.ID(), Stored: record.Type(), Observed: observed})
	}
}

func (n *normalization) normalizeCondition(record *store.Record, cond *ast.Condition, data map[string]any, path ast.Path) error {
	value, isBool := cond.Passes(n.variables)
	if !isBool {
		n.sink.Emit(diag.NonBooleanGuard{Variable: cond.Variable, Value: n.variables[cond.Variable]})
		return nil
	}
	if !value {
		return nil
	}
	return n.normalizeSelections(record, cond.Selections, data, path)
}

func (n *normalization) appendHandle(record *store.Record, name string, args []ast.Argument, handle string, path ast.Path) error {
	key, err := keys.StorageKey(name, args, n.variables)
	if err != nil {
		return contractErrorf(path, "%v", err)
	}
	n.fields = append(n.fields, HandleFieldPayload{
		Args:      keys.ResolveArgs(args, n.variables),
		DataID:    record.ID(),
		FieldKey:  key,
		HandleKey: keys.HandleKey(handle, name),
		Handle:    handle,
	})
	return nil
}

func (n *normalization) normalizeMatchField(record *store.Record, field *ast.MatchField, data map[string]any, path ast.Path) error {
	key, err := keys.StorageKey(field.Name, field.Args, n.variables)
	if err != nil {
		return contractErrorf(path, "%v", err)
	}
	responseKey := field.ResponseKey()
	value, ok := data[responseKey]
	if !ok {
		if n.opts.HandleStrippedNulls {
			record.SetValue(key, nil)
		} else {
			n.sink.Emit(diag.MissingField{Owner: record.ID(), ResponseKey: responseKey})
		}
		return nil
	}
	if value == nil {
		record.SetValue(key, nil)
		return nil
	}
	fieldPath := ast.AppendPath(path, responseKey)
	obj, ok := value.(map[string]any)
	if !ok {
		return contractErrorf(fieldPath, "expected an object for field %q, got %T", responseKey, value)
	}
	typeName, ok := obj[ast.TypenameKey].(string)
	if !ok || typeName == "" {
		return contractErrorf(fieldPath, "expected %q on match field %q", ast.TypenameKey, responseKey)
	}
	if _, ok := field.MatchesByType[typeName]; !ok {
		// The server returned a type this operation does not statically
		// expect. Not an error: callers may cover the schema partially.
		record.SetValue(key, nil)
		return nil
	}
	prev, _ := record.LinkedID(key)
	id, err := n.resolveLinkedID(record.ID(), key, obj, prev, -1, fieldPath)
	if err != nil {
		return err
	}
	if _, err := n.ensureRecord(id, "", obj, fieldPath); err != nil {
		return err
	}
	record.SetLinkedID(key, id)
	// Fragment resolution is deferred to the stage that loads the module;
	// nothing below this field is normalized here.
	if ref, ok := obj[ast.ModuleOperationKey].(string); ok && ref != "" {
		n.matches = append(n.matches, MatchFieldPayload{
			OperationReference: ref,
			DataID:             id,
			Data:               obj,
			TypeName:           typeName,
			Variables:          n.variables,
		})
	}
	return nil
}

func (n *normalization) normalizeDefer(record *store.Record, sel *ast.Defer, data map[string]any, path ast.Path) error {
	deferred, isBool := sel.If.Resolve(n.variables)
	if !isBool {
		n.sink.Emit(diag.NonBooleanGuard{Variable: sel.If.Variable, Value: n.variables[sel.If.Variable]})
		deferred = true
	}
	if !deferred {
		// Data for this subtree is part of the current payload.
		return n.normalizeSelections(record, sel.Selections, data, path)
	}
	n.incremental = append(n.incremental, IncrementalPayload{
		Kind:  KindDefer,
		Label: sel.Label,
		Path:  path,
		Selector: ast.Selector{
			ID:        record.ID(),
			Node:      sel,
			Variables: n.variables,
		},
	})
	return nil
}

func (n *normalization) normalizeStream(record *store.Record, sel *ast.Stream, data map[string]any, path ast.Path) error {
	// Initial items ride along with the current payload either way.
	if err := n.normalizeSelections(record, sel.Selections, data, path); err != nil {
		return err
	}
	streaming, isBool := sel.If.Resolve(n.variables)
	if !isBool {
		n.sink.Emit(diag.NonBooleanGuard{Variable: sel.If.Variable, Value: n.variables[sel.If.Variable]})
		return nil
	}
	if !streaming {
		return nil
	}
	n.incremental = append(n.incremental, IncrementalPayload{
		Kind:  KindStream,
		Label: sel.Label,
		Path:  path,
		Selector: ast.Selector{
			ID:        record.ID(),
			Node:      sel,
			Variables: n.variables,
		},
	})
	return nil
}
