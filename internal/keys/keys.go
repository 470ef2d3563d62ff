// Package keys implements the deterministic naming scheme shared by the
// normalizer and the record store: storage keys encoding a field plus its
// resolved arguments, handle keys for client-resolved fields, and
// client-synthesized record identities.
package keys

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	ast "github.com/eduardotrandafilov/relay/internal/ast"
	store "github.com/eduardotrandafilov/relay/internal/store"
)

// RootID is the conventional identity of the root record.
const RootID = store.DataID("client:root")

// StorageKey returns the storage key for a field under the given variable
// bindings: the bare field name when no argument resolves to a value,
// otherwise name(arg:value,...) with arguments sorted by name and values
// JSON-encoded. The encoding is deterministic: equal (name, resolved
// arguments) always produce equal keys.
func StorageKey(name string, args []ast.Argument, vars ast.Variables) (string, error) {
	resolved := ResolveArgs(args, vars)
	if len(resolved) == 0 {
		return name, nil
	}
	names := make([]string, 0, len(resolved))
	for n := range resolved {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i, n := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		enc, err := json.Marshal(resolved[n])
		if err != nil {
			return "", fmt.Errorf("encode argument %q of field %q: %w", n, name, err)
		}
		b.WriteString(n)
		b.WriteByte(':')
		b.Write(enc)
	}
	b.WriteByte(')')
	return b.String(), nil
}

// ResolveArgs resolves field arguments against variables. Variable-bound
// arguments whose variable is not in vars are omitted, keeping keys stable
// across callers that leave optional variables unset.
func ResolveArgs(args []ast.Argument, vars ast.Variables) map[string]any {
	if len(args) == 0 {
		return nil
	}
	resolved := make(map[string]any, len(args))
	for _, arg := range args {
		if arg.Variable != "" {
			v, ok := vars[arg.Variable]
			if !ok {
				continue
			}
			resolved[arg.Name] = v
			continue
		}
		resolved[arg.Name] = arg.Value
	}
	if len(resolved) == 0 {
		return nil
	}
	return resolved
}

// HandleKey returns the storage key under which a handle's computed value is
// stored, distinct from the underlying field's own key.
func HandleKey(handle, fieldName string) string {
	return "__" + fieldName + "_" + handle
}

// ClientID synthesizes the identity for an entity the server did not label
// with a global id, as a pure function of the owner identity and storage key.
func ClientID(owner store.DataID, key string) store.DataID {
	return owner + ":" + store.DataID(key)
}

// IndexedClientID is ClientID additionally keyed by a list index, for
// entries of plural linked fields.
func IndexedClientID(owner store.DataID, key string, index int) store.DataID {
	return ClientID(owner, key) + ":" + store.DataID(strconv.Itoa(index))
}
