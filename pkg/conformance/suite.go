// SPDX-License-Identifier: MPL-2.0

// Package conformance exposes the manager checks to Go tests. A test in the
// client library loads its own packages and hands them to a Suite, which
// yields one case per manager and one subtest per capability:
//
//	func TestManagers(t *testing.T) {
//		loaded, err := introspect.Load(context.Background(), introspect.LoadOptions{})
//		if err != nil {
//			t.Fatal(err)
//		}
//		conformance.FromLoaded(loaded, "", false).Run(t)
//	}
package conformance

import (
	"errors"
	"fmt"
	"go/token"
	"iter"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/invowk/managerlint/pkg/introspect"
)

// ErrUnknownCapability is returned by Check for a capability name the suite
// was not configured with.
var ErrUnknownCapability = errors.New("unknown capability")

// Suite is one discovery pass over a namespace plus the capabilities to
// verify. Records are discovered once, when the suite is built.
type Suite struct {
	records      []introspect.Record
	capabilities []introspect.Capability
	optionalRef  introspect.TypeRef
	discoverer   *introspect.Discoverer
	classifier   *introspect.Classifier
	verifier     *introspect.Verifier
	fset         *token.FileSet
	logger       *log.Logger
}

// New discovers the managers of ns.
func New(ns introspect.Namespace, opts ...Option) *Suite {
	s := &Suite{
		capabilities: introspect.DefaultCapabilities(),
		optionalRef:  introspect.MustParseTypeRef(introspect.DefaultBasePattern + ".Optional"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.discoverer == nil {
		s.discoverer = introspect.NewDiscoverer(s.fset)
	}
	if s.discoverer.Fset == nil {
		s.discoverer.Fset = s.fset
	}
	if s.discoverer.Logger == nil {
		s.discoverer.Logger = s.logger
	}
	if s.classifier == nil {
		s.classifier = introspect.NewClassifier()
	}

	s.verifier = &introspect.Verifier{OptionalRef: s.optionalRef}
	if s.needsOptional() {
		// An unresolved wrapper is reported per record by the verifier.
		s.verifier.Optional, _ = introspect.FindOptional(s.optionalRef, ns)
	}

	s.records = s.discoverer.Discover(ns).Sorted()
	return s
}

// FromLoaded builds a suite over loaded packages. An empty root uses the
// import path of the loaded directory.
func FromLoaded(l *introspect.Loaded, root string, recursive bool, opts ...Option) *Suite {
	opts = append([]Option{WithFileSet(l.Fset)}, opts...)
	return New(l.Namespace(root, recursive), opts...)
}

// Records returns the discovered managers in key order.
func (s *Suite) Records() []introspect.Record {
	return s.records
}

// Cases yields one labeled case per discovered manager, in key order. The
// label is the manager's type name.
func (s *Suite) Cases() iter.Seq2[string, introspect.Record] {
	return func(yield func(string, introspect.Record) bool) {
		for _, rec := range s.records {
			if !yield(rec.Name, rec) {
				return
			}
		}
	}
}

// Check verifies rec against the named capability. It returns nil when the
// capability does not apply or the declared type matches, a
// *introspect.MismatchError carrying the full diagnostic on a mismatch, and
// the classification error as is when the manager is malformed.
func (s *Suite) Check(rec introspect.Record, capability string) error {
	capb, ok := s.capability(capability)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCapability, capability)
	}
	exp, err := s.classifier.Classify(rec, capb)
	if err != nil {
		return err
	}
	out := s.verifier.Verify(rec, exp, capb)
	if out.Failed() {
		return out.Err
	}
	return nil
}

// CheckGetByID verifies the retrieval by identifier capability.
func (s *Suite) CheckGetByID(rec introspect.Record) error {
	return s.Check(rec, introspect.CapabilityGetByID)
}

// CheckGetWithoutID verifies the retrieval without identifier capability.
func (s *Suite) CheckGetWithoutID(rec introspect.Record) error {
	return s.Check(rec, introspect.CapabilityGetWithoutID)
}

// Run registers a subtest per manager and, below it, one per capability.
// Each failing pair is reported on its own.
func (s *Suite) Run(t *testing.T) {
	t.Helper()
	for label, rec := range s.Cases() {
		t.Run(label, func(t *testing.T) {
			for _, capb := range s.capabilities {
				t.Run(capb.Name, func(t *testing.T) {
					if err := s.Check(rec, capb.Name); err != nil {
						t.Error(err)
					}
				})
			}
		})
	}
}

func (s *Suite) capability(name string) (introspect.Capability, bool) {
	for _, c := range s.capabilities {
		if c.Name == name {
			return c, true
		}
	}
	return introspect.Capability{}, false
}

func (s *Suite) needsOptional() bool {
	for _, c := range s.capabilities {
		if c.AllowsAbsent {
			return true
		}
	}
	return false
}
