// SPDX-License-Identifier: MPL-2.0

package introspect

import (
	"cmp"
	"go/token"
	"go/types"
	"slices"
)

type (
	// Key identifies a discovered manager type. Two records describe the same
	// manager iff their keys are equal; the key also defines the report order.
	Key struct {
		// Package is the import path of the package that defines the type.
		Package string
		// Name is the member name under which the type was found.
		Name string
	}

	// Record is one discovered manager type. Records are immutable snapshots
	// taken during a single discovery pass.
	Record struct {
		// Name is the simple identifier of the manager type.
		Name string
		// Type is the defining type object. It is nil for hand-built records
		// that do not refer to a loaded type; such records are never applicable
		// to any capability.
		Type *types.TypeName
		// Position is the source location of the type declaration.
		Position token.Position
	}

	// RecordSet is a set of records keyed by Record.Key.
	RecordSet struct {
		byKey map[Key]Record
	}
)

// String returns "package.Name", or just the name when the package is empty.
func (k Key) String() string {
	if k.Package == "" {
		return k.Name
	}
	return k.Package + "." + k.Name
}

// Compare orders keys by package path, then by name.
func (k Key) Compare(other Key) int {
	if c := cmp.Compare(k.Package, other.Package); c != 0 {
		return c
	}
	return cmp.Compare(k.Name, other.Name)
}

// Key returns the comparison key of the record.
func (r Record) Key() Key {
	k := Key{Name: r.Name}
	if r.Type != nil && r.Type.Pkg() != nil {
		k.Package = r.Type.Pkg().Path()
	}
	return k
}

// Equal reports whether both records share the same key.
func (r Record) Equal(other Record) bool {
	return r.Key() == other.Key()
}

// Compare orders records by key.
func (r Record) Compare(other Record) int {
	return r.Key().Compare(other.Key())
}

// Named returns the named type the record refers to, or nil.
func (r Record) Named() *types.Named {
	if r.Type == nil {
		return nil
	}
	named, _ := types.Unalias(r.Type.Type()).(*types.Named)
	return named
}

// NewRecordSet returns a set holding the given records.
func NewRecordSet(records ...Record) *RecordSet {
	s := &RecordSet{byKey: make(map[Key]Record, len(records))}
	for _, r := range records {
		s.Add(r)
	}
	return s
}

// Add inserts r and reports whether it was not already present.
// The first record seen for a key wins.
func (s *RecordSet) Add(r Record) bool {
	if s.byKey == nil {
		s.byKey = make(map[Key]Record)
	}
	k := r.Key()
	if _, ok := s.byKey[k]; ok {
		return false
	}
	s.byKey[k] = r
	return true
}

// Contains reports whether a record with key k is in the set.
func (s *RecordSet) Contains(k Key) bool {
	if s == nil {
		return false
	}
	_, ok := s.byKey[k]
	return ok
}

// Len returns the number of records.
func (s *RecordSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byKey)
}

// Sorted returns the records in key order. The slice is freshly allocated.
func (s *RecordSet) Sorted() []Record {
	if s == nil {
		return nil
	}
	out := make([]Record, 0, len(s.byKey))
	for _, r := range s.byKey {
		out = append(out, r)
	}
	slices.SortFunc(out, Record.Compare)
	return out
}

// Keys returns the record keys in sorted order.
func (s *RecordSet) Keys() []Key {
	records := s.Sorted()
	keys := make([]Key, len(records))
	for i, r := range records {
		keys[i] = r.Key()
	}
	return keys
}
