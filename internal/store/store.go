// Package store holds the flat, identity-keyed record arena the normalizer
// writes into. Records reference each other only by identity; there are no
// direct cross-record pointers.
package store

// DataID is an opaque string naming one record within a source. It is either
// server-issued or synthesized client-side; the store does not distinguish.
type DataID string

// Record is one logical entity as a flat bag of fields keyed by storage key.
// A field slot holds a scalar value, a single linked identity, or an ordered
// list of linked identities with nullable entries. An absent key means the
// field is not yet known; a stored nil means the server said null.
type Record struct {
	id     DataID
	typ    string
	fields map[string]any
}

// link and links are the internal field representations for single and
// plural identity references. Keeping them as distinct types lets one map
// hold scalars and references without ambiguity.
type link struct {
	id DataID
}

type links struct {
	ids []*DataID
}

// NewRecord creates an empty record. The identity and type are fixed for the
// record's lifetime.
func NewRecord(id DataID, typ string) *Record {
	return &Record{id: id, typ: typ, fields: make(map[string]any)}
}

// ID returns the record's identity.
func (r *Record) ID() DataID { return r.id }

// Type returns the record's runtime type tag.
func (r *Record) Type() string { return r.typ }

// Value returns the scalar value stored under key. ok is false when the
// field has never been written or holds a link.
func (r *Record) Value(key string) (value any, ok bool) {
	v, ok := r.fields[key]
	if !ok {
		return nil, false
	}
	switch v.(type) {
	case link, links:
		return nil, false
	}
	return v, true
}

// SetValue stores a scalar value under key. A nil value records an explicit
// null, distinct from the key being absent.
func (r *Record) SetValue(key string, value any) {
	r.fields[key] = value
}

// LinkedID returns the single linked identity stored under key. ok is false
// when the field is absent, null, or not a single link.
func (r *Record) LinkedID(key string) (DataID, bool) {
	l, ok := r.fields[key].(link)
	if !ok {
		return "", false
	}
	return l.id, true
}

// SetLinkedID stores a single linked identity under key, replacing any
// previous value.
func (r *Record) SetLinkedID(key string, id DataID) {
	r.fields[key] = link{id: id}
}

// LinkedIDs returns the ordered identity list stored under key; nil entries
// are explicit nulls. ok is false when the field is absent, null, or not a
// list of links.
func (r *Record) LinkedIDs(key string) ([]*DataID, bool) {
	l, ok := r.fields[key].(links)
	if !ok {
		return nil, false
	}
	return l.ids, true
}

// SetLinkedIDs stores an ordered identity list under key, replacing any
// previous value. The slice is owned by the record after the call.
func (r *Record) SetLinkedIDs(key string, ids []*DataID) {
	r.fields[key] = links{ids: ids}
}

// Has reports whether any value, including explicit null, is stored under key.
func (r *Record) Has(key string) bool {
	_, ok := r.fields[key]
	return ok
}

// Copy returns a deep copy of the record. Link lists are copied; scalar
// values are shared, matching their treat-as-immutable contract.
func (r *Record) Copy() *Record {
	fields := make(map[string]any, len(r.fields))
	for k, v := range r.fields {
		if l, ok := v.(links); ok {
			ids := make([]*DataID, len(l.ids))
			for i, id := range l.ids {
				if id != nil {
					c := *id
					ids[i] = &c
				}
			}
			fields[k] = links{ids: ids}
			continue
		}
		fields[k] = v
	}
	return &Record{id: r.id, typ: r.typ, fields: fields}
}

// RecordSource is the mutable identity-keyed record arena. Get returns nil
// for unknown identities; Set inserts or replaces. Implementations are not
// required to be safe for concurrent writers.
type RecordSource interface {
	Get(id DataID) *Record
	Set(id DataID, record *Record)
}

// MapSource is the in-memory RecordSource used by the normalizer and tests.
type MapSource struct {
	records map[DataID]*Record
}

// NewMapSource creates an empty MapSource.
func NewMapSource() *MapSource {
	return &MapSource{records: make(map[DataID]*Record)}
}

// Get returns the record stored under id, or nil.
func (s *MapSource) Get(id DataID) *Record { return s.records[id] }

// Set inserts or replaces the record stored under id.
func (s *MapSource) Set(id DataID, record *Record) { s.records[id] = record }

// Has reports whether a record exists under id.
func (s *MapSource) Has(id DataID) bool {
	_, ok := s.records[id]
	return ok
}

// Delete removes the record stored under id, if any.
func (s *MapSource) Delete(id DataID) { delete(s.records, id) }

// Size returns the number of stored records.
func (s *MapSource) Size() int { return len(s.records) }
