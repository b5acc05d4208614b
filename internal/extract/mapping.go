package extract

import (
	"encoding/json"
	"sort"

	"github.com/surgiscan/docproc/internal/schema"
)

// FieldSet maps field names to extracted values for one document type
// within one source file. A FieldSet is never field-merged: if an
// extraction is re-attempted the prior set is discarded entirely.
type FieldSet map[string]any

// Mapping is the central intermediate artifact: accepted field sets
// keyed by document type, for one uploaded file. Keys present are
// exactly the types that passed the quality threshold. Insertion order
// is preserved because downstream patient-info derivation is order
// sensitive.
type Mapping struct {
	order []schema.DocumentType
	data  map[schema.DocumentType]FieldSet
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{data: make(map[schema.DocumentType]FieldSet)}
}

// Put inserts or replaces the field set for a document type. A replaced
// type keeps its original position in the iteration order.
func (m *Mapping) Put(t schema.DocumentType, fields FieldSet) {
	if _, exists := m.data[t]; !exists {
		m.order = append(m.order, t)
	}
	m.data[t] = fields
}

// Merge overlays individual field corrections onto the set for a raw
// type key, creating the set if absent. Unlike Put this does not
// discard fields the correction leaves untouched. Used by the
// validation workflow, which accepts operator-supplied type keys.
func (m *Mapping) Merge(rawType string, fields map[string]any) {
	t := schema.DocumentType(rawType)
	fs, ok := m.data[t]
	if !ok {
		fs = make(FieldSet, len(fields))
		m.order = append(m.order, t)
		m.data[t] = fs
	}
	for k, v := range fields {
		fs[k] = v
	}
}

// Get returns the field set for a type, if present.
func (m *Mapping) Get(t schema.DocumentType) (FieldSet, bool) {
	fs, ok := m.data[t]
	return fs, ok
}

// Types returns the document types in insertion order.
func (m *Mapping) Types() []schema.DocumentType {
	out := make([]schema.DocumentType, len(m.order))
	copy(out, m.order)
	return out
}

// Len returns the number of accepted document types.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Empty reports whether no extraction was accepted.
func (m *Mapping) Empty() bool {
	return m.Len() == 0
}

// TotalFields returns the total number of extracted fields across all
// accepted document types.
func (m *Mapping) TotalFields() int {
	n := 0
	for _, fs := range m.data {
		n += len(fs)
	}
	return n
}

// MarshalJSON renders the mapping as a plain JSON object keyed by
// document type. Iteration order is not representable in JSON; the
// unmarshal side restores registry order instead.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	obj := make(map[schema.DocumentType]FieldSet, len(m.data))
	for t, fs := range m.data {
		obj[t] = fs
	}
	return json.Marshal(obj)
}

// UnmarshalJSON restores a mapping from its JSON object form. Known
// types come back in registry order, unknown keys after them in
// lexical order.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	var obj map[schema.DocumentType]FieldSet
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	m.order = nil
	m.data = make(map[schema.DocumentType]FieldSet, len(obj))

	for _, t := range schema.AllTypes() {
		if fs, ok := obj[t]; ok {
			m.Put(t, fs)
			delete(obj, t)
		}
	}

	rest := make([]schema.DocumentType, 0, len(obj))
	for t := range obj {
		rest = append(rest, t)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	for _, t := range rest {
		m.Put(t, obj[t])
	}
	return nil
}
