// SPDX-License-Identifier: MPL-2.0

package conformance_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/invowk/managerlint/pkg/conformance"
	"github.com/invowk/managerlint/pkg/introspect"
	"github.com/invowk/managerlint/pkg/introspect/introspecttest"
)

func newSuite(t *testing.T, opts ...conformance.Option) (*conformance.Suite, *introspecttest.Library) {
	t.Helper()
	lib := introspecttest.Load(t)
	opts = append([]conformance.Option{conformance.WithFileSet(lib.Fset)}, opts...)
	return conformance.New(lib.Namespace(false), opts...), lib
}

func TestCases(t *testing.T) {
	t.Parallel()

	s, _ := newSuite(t)
	var labels []string
	for label, rec := range s.Cases() {
		if label != rec.Name {
			t.Fatalf("label %q differs from record name %q", label, rec.Name)
		}
		labels = append(labels, label)
	}
	want := []string{
		"BrokenManager",
		"ItemManager",
		"FlagManager",
		"GadgetManager",
		"SettingsManager",
		"PluginManager",
		"WidgetManager",
	}
	if diff := cmp.Diff(want, labels); diff != "" {
		t.Fatalf("Cases() labels mismatch (-want +got):\n%s", diff)
	}

	n := 0
	for range s.Cases() {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("Cases() did not stop early, got %d", n)
	}
}

func TestCheckGetByID(t *testing.T) {
	t.Parallel()

	s, lib := newSuite(t)

	if err := s.CheckGetByID(lib.Record(t, "objects/widgets", "WidgetManager")); err != nil {
		t.Fatalf("WidgetManager: unexpected error: %v", err)
	}
	if err := s.CheckGetByID(lib.Record(t, "objects/widgets", "PluginManager")); err != nil {
		t.Fatalf("PluginManager lacks the capability and must pass: %v", err)
	}

	err := s.CheckGetByID(lib.Record(t, "objects/gadgets", "GadgetManager"))
	var mismatch *introspect.MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("GadgetManager: error = %v, want *MismatchError", err)
	}
	for _, fragment := range []string{`"GadgetManager"`, "gadgets.go", "*gadgets.Gadget", "base.RESTObject", "obj.(*Gadget)"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("diagnostic lacks %q:\n%s", fragment, err)
		}
	}

	err = s.CheckGetByID(lib.Record(t, "objects/broken", "BrokenManager"))
	if !errors.Is(err, introspect.ErrMissingObjectType) {
		t.Fatalf("BrokenManager: error = %v, want ErrMissingObjectType", err)
	}
}

func TestCheckGetWithoutIDAllowsAbsent(t *testing.T) {
	t.Parallel()

	caps := introspect.DefaultCapabilities()
	for i := range caps {
		if caps[i].Name == introspect.CapabilityGetWithoutID {
			caps[i].AllowsAbsent = true
		}
	}
	s, lib := newSuite(t, conformance.WithCapabilities(caps...))

	if err := s.CheckGetWithoutID(lib.Record(t, "objects/flags", "FlagManager")); err != nil {
		t.Fatalf("FlagManager: unexpected error: %v", err)
	}
	if err := s.CheckGetWithoutID(lib.Record(t, "objects/settings", "SettingsManager")); !errors.Is(err, introspect.ErrReturnTypeMismatch) {
		t.Fatalf("SettingsManager: error = %v, want ErrReturnTypeMismatch", err)
	}
}

func TestCheckUnknownCapability(t *testing.T) {
	t.Parallel()

	s, lib := newSuite(t, conformance.WithCapabilities(introspect.DefaultCapabilities()[0]))
	err := s.CheckGetWithoutID(lib.Record(t, "objects/settings", "SettingsManager"))
	if !errors.Is(err, conformance.ErrUnknownCapability) {
		t.Fatalf("error = %v, want ErrUnknownCapability", err)
	}
}

func TestRunOnConformingManagers(t *testing.T) {
	t.Parallel()

	d := introspect.NewDiscoverer(nil)
	d.Exclude = append(d.Exclude, "**/objects/broken", "**/objects/gadgets", "**/objects/flags")
	s, _ := newSuite(t, conformance.WithDiscoverer(d))
	if got := len(s.Records()); got != 4 {
		t.Fatalf("len(Records()) = %d, want 4", got)
	}
	s.Run(t)
}
