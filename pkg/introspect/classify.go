// SPDX-License-Identifier: MPL-2.0

package introspect

import (
	"errors"
	"fmt"
	"go/types"
	"strings"
	"text/template"
)

const (
	// CapabilityGetByID names the "retrieve by identifier" capability.
	CapabilityGetByID = "get-by-id"
	// CapabilityGetWithoutID names the "retrieve without identifier" capability.
	CapabilityGetWithoutID = "get-without-id"

	// DefaultObjectField is the manager struct field whose type declares the
	// resource the manager returns.
	DefaultObjectField = "objCls"
	// DefaultMethod is the retrieval method checked for both built-in
	// capabilities.
	DefaultMethod = "Get"
)

// ErrMissingObjectType is the sentinel error wrapped by MissingObjectTypeError.
var ErrMissingObjectType = errors.New("missing object type field")

type (
	// Capability describes one retrieval contract granted by embedding a
	// mixin type.
	Capability struct {
		// Name is the stable identifier used in reports and config.
		Name string
		// Base is the mixin type that grants the capability.
		Base TypeRef
		// Method is the retrieval method whose declared result is checked.
		Method string
		// AllowsAbsent wraps the expected type in the optional wrapper.
		AllowsAbsent bool
		// Template renders the remediation snippet. See RemediationData for
		// the available fields.
		Template *template.Template
		// Imports lists extra import paths mentioned in the remediation note.
		Imports []string
	}

	// Expectation is the result of classifying one record for one capability.
	Expectation struct {
		// Applicable reports whether the capability base is in the record's
		// embedding chain.
		Applicable bool
		// Resource is the declared type of the object-type field. Nil unless
		// Applicable.
		Resource types.Type
		// AllowsAbsent mirrors Capability.AllowsAbsent for applicable records.
		AllowsAbsent bool
		// Via is the ancestor that matched the capability base.
		Via *types.Named
	}

	// Classifier decides capability applicability and reads resource types.
	Classifier struct {
		// Suffix guards against hand-built records that are not managers.
		Suffix string
		// ObjectField is the field that declares the resource type.
		ObjectField string
	}

	// MissingObjectTypeError reports an applicable manager without an object
	// type field. It indicates a defect in the target library rather than a
	// return type mismatch, so it is never suppressed by skipping the record.
	MissingObjectTypeError struct {
		Record     Record
		Capability string
		Field      string
	}
)

// Error implements the error interface.
func (e *MissingObjectTypeError) Error() string {
	return fmt.Sprintf("type %s has capability %s but declares no %q field for its object type",
		e.Record.Key(), e.Capability, e.Field)
}

// Unwrap returns ErrMissingObjectType for errors.Is.
func (e *MissingObjectTypeError) Unwrap() error { return ErrMissingObjectType }

// NewClassifier returns a Classifier with the default suffix and field name.
func NewClassifier() *Classifier {
	return &Classifier{Suffix: DefaultManagerSuffix, ObjectField: DefaultObjectField}
}

// Classify computes the expectation for rec under capability c. Records that
// are not managers, have no type, or lack the capability base in their
// ancestry are not applicable and carry no resource type.
func (c *Classifier) Classify(rec Record, capb Capability) (Expectation, error) {
	suffix := c.Suffix
	if suffix == "" {
		suffix = DefaultManagerSuffix
	}
	if !strings.HasSuffix(rec.Name, suffix) {
		return Expectation{}, nil
	}
	named := rec.Named()
	if named == nil {
		return Expectation{}, nil
	}

	var via *types.Named
	for _, anc := range Ancestors(named) {
		if capb.Base.Matches(anc.Obj()) {
			via = anc
			break
		}
	}
	if via == nil {
		return Expectation{}, nil
	}

	field := c.ObjectField
	if field == "" {
		field = DefaultObjectField
	}
	resource := objectType(named, field)
	if resource == nil {
		return Expectation{}, &MissingObjectTypeError{Record: rec, Capability: capb.Name, Field: field}
	}

	return Expectation{
		Applicable:   true,
		Resource:     resource,
		AllowsAbsent: capb.AllowsAbsent,
		Via:          via,
	}, nil
}

// objectType returns the declared type of the named field on t, following
// promotion through embedded structs. Unexported names resolve relative to
// the defining package of t.
func objectType(t *types.Named, field string) types.Type {
	obj, _, _ := types.LookupFieldOrMethod(t, false, t.Obj().Pkg(), field)
	v, ok := obj.(*types.Var)
	if !ok || !v.IsField() {
		return nil
	}
	return v.Type()
}

// Ancestors returns the linearized embedding chain of t: t itself followed
// by every embedded type in breadth-first order, so shallower embeddings come
// before deeper ones. Pointer embeddings are dereferenced, generic instances
// are reduced to their origin, and a type reachable along several paths
// appears once, at its shallowest position.
func Ancestors(t *types.Named) []*types.Named {
	if t == nil {
		return nil
	}
	var out []*types.Named
	seen := make(map[*types.TypeName]bool)
	queue := []*types.Named{t}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		origin := n.Origin()
		if seen[origin.Obj()] {
			continue
		}
		seen[origin.Obj()] = true
		out = append(out, origin)
		queue = append(queue, embeddedTypes(n)...)
	}
	return out
}

// embeddedTypes lists the named types embedded directly in n.
func embeddedTypes(n *types.Named) []*types.Named {
	var out []*types.Named
	switch u := n.Underlying().(type) {
	case *types.Struct:
		for f := range u.Fields() {
			if !f.Embedded() {
				continue
			}
			if en := namedOf(f.Type()); en != nil {
				out = append(out, en)
			}
		}
	case *types.Interface:
		for i := range u.NumEmbeddeds() {
			if en := namedOf(u.EmbeddedType(i)); en != nil {
				out = append(out, en)
			}
		}
	}
	return out
}

func namedOf(t types.Type) *types.Named {
	t = types.Unalias(t)
	if p, ok := t.(*types.Pointer); ok {
		t = types.Unalias(p.Elem())
	}
	n, _ := t.(*types.Named)
	return n
}
