// SPDX-License-Identifier: MPL-2.0

package managerlint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/go/analysis/analysistest"
)

// libraryTestdata is the GOPATH tree of the fake client library shared with
// the introspect tests.
// It must be absolute because analysistest exports it as GOPATH.
var libraryTestdata = mustAbs(filepath.Join("..", "introspect", "introspecttest", "testdata"))

func mustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		panic(err)
	}
	return abs
}

var libraryPackages = []string{
	"example.com/gitlab/objects/broken",
	"example.com/gitlab/objects/diamond",
	"example.com/gitlab/objects/flags",
	"example.com/gitlab/objects/gadgets",
	"example.com/gitlab/objects/reexport",
	"example.com/gitlab/objects/settings",
	"example.com/gitlab/objects/widgets",
	"example.com/gitlab/objects/internal/deep",
}

// setFlag sets an analyzer flag by name using the framework-standard
// Analyzer.Flags.Set() API.
func setFlag(t *testing.T, name, value string) {
	t.Helper()
	if err := Analyzer.Flags.Set(name, value); err != nil {
		t.Fatalf("failed to set flag %q to %q: %v", name, value, err)
	}
}

// resetFlags restores all analyzer flags to their default values.
func resetFlags(t *testing.T) {
	t.Helper()
	setFlag(t, "config", "")
	setFlag(t, "baseline", "")
	setFlag(t, "root", "")
	setFlag(t, "recursive", "false")
	setFlag(t, "suffix", "")
}

// recorder collects analysistest errors for tests that expect some
// "// want" comments to stay unmatched.
type recorder struct {
	errs []string
}

func (r *recorder) Errorf(format string, args ...any) {
	r.errs = append(r.errs, fmt.Sprintf(format, args...))
}

// NOT parallel: shares Analyzer.Flags state.
func TestAnalyzer(t *testing.T) {
	t.Cleanup(func() { resetFlags(t) })
	resetFlags(t)
	setFlag(t, "root", "example.com/gitlab/objects")

	analysistest.Run(t, libraryTestdata, Analyzer, libraryPackages...)
}

func TestAnalyzerRecursive(t *testing.T) {
	t.Cleanup(func() { resetFlags(t) })
	resetFlags(t)
	setFlag(t, "root", "example.com/gitlab/objects")
	setFlag(t, "recursive", "true")

	rec := &recorder{}
	results := analysistest.Run(rec, libraryTestdata, Analyzer, "example.com/gitlab/objects/internal/deep")
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	diags := results[0].Diagnostics
	if len(diags) != 1 || !strings.Contains(diags[0].Message, `"DeepManager"`) {
		t.Fatalf("diagnostics = %+v, want one for DeepManager", diags)
	}
	if diags[0].Category != CategoryReturnTypeMismatch {
		t.Errorf("category = %q", diags[0].Category)
	}
	if FindingIDFromDiagnosticURL(diags[0].URL) == "" {
		t.Errorf("URL %q carries no finding ID", diags[0].URL)
	}
}

func TestAnalyzerOutsideRoot(t *testing.T) {
	t.Cleanup(func() { resetFlags(t) })
	resetFlags(t)
	setFlag(t, "root", "example.com/gitlab/elsewhere")

	rec := &recorder{}
	results := analysistest.Run(rec, libraryTestdata, Analyzer, "example.com/gitlab/objects/gadgets")
	for _, r := range results {
		if len(r.Diagnostics) > 0 {
			t.Fatalf("package outside the namespace reported %+v", r.Diagnostics)
		}
	}
}

func TestAnalyzerSuffix(t *testing.T) {
	t.Cleanup(func() { resetFlags(t) })
	resetFlags(t)
	setFlag(t, "root", "example.com/gitlab/objects")
	setFlag(t, "suffix", "Registry")

	rec := &recorder{}
	results := analysistest.Run(rec, libraryTestdata, Analyzer, "example.com/gitlab/objects/gadgets")
	for _, r := range results {
		if len(r.Diagnostics) > 0 {
			t.Fatalf("no type ends in Registry, got %+v", r.Diagnostics)
		}
	}
}

func TestAnalyzerReportsWithoutFixes(t *testing.T) {
	t.Cleanup(func() { resetFlags(t) })
	resetFlags(t)
	setFlag(t, "root", "example.com/gitlab/objects")

	rec := &recorder{}
	results := analysistest.Run(rec, libraryTestdata, Analyzer, "example.com/gitlab/objects/gadgets")
	var n int
	for _, r := range results {
		for _, d := range r.Diagnostics {
			n++
			if len(d.SuggestedFixes) > 0 {
				t.Errorf("diagnostic %q carries source edits", d.Message)
			}
			if !strings.Contains(d.Message, "Recommend adding the following method") {
				t.Errorf("diagnostic %q has no remediation", d.Message)
			}
		}
	}
	if n == 0 {
		t.Fatal("want a diagnostic for GadgetManager")
	}
}

func TestAnalyzerBaseline(t *testing.T) {
	t.Cleanup(func() { resetFlags(t) })
	resetFlags(t)

	path := filepath.Join(t.TempDir(), "baseline.toml")
	_, err := WriteBaseline(path, []Finding{{
		ID:       StableFindingID(CategoryReturnTypeMismatch, "example.com/gitlab/objects/gadgets.GadgetManager", "get-by-id"),
		Category: CategoryReturnTypeMismatch,
		Summary:  "accepted",
	}})
	if err != nil {
		t.Fatal(err)
	}
	setFlag(t, "root", "example.com/gitlab/objects")
	setFlag(t, "baseline", path)

	rec := &recorder{}
	results := analysistest.Run(rec, libraryTestdata, Analyzer, "example.com/gitlab/objects/gadgets", "example.com/gitlab/objects/flags")
	for _, r := range results {
		switch r.Pass.Pkg.Path() {
		case "example.com/gitlab/objects/gadgets":
			if len(r.Diagnostics) != 0 {
				t.Errorf("baselined finding reported: %+v", r.Diagnostics)
			}
		case "example.com/gitlab/objects/flags":
			if len(r.Diagnostics) != 1 {
				t.Errorf("flags: got %d diagnostics, want 1", len(r.Diagnostics))
			}
		}
	}
}

func TestAnalyzerConfigFile(t *testing.T) {
	t.Cleanup(func() { resetFlags(t) })
	resetFlags(t)

	// With allows_absent the optional result of FlagManager conforms and the
	// bare result of SettingsManager no longer does.
	path := filepath.Join(t.TempDir(), "managerlint.cue")
	content := `
namespace: root: "example.com/gitlab/objects"
optional_type: "example.com/gitlab/base.Optional"
capabilities: [{
	name:          "get-without-id"
	base:          "**/mixins.GetWithoutIDMixin"
	allows_absent: true
}]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	setFlag(t, "config", path)

	rec := &recorder{}
	results := analysistest.Run(rec, libraryTestdata, Analyzer, "example.com/gitlab/objects/flags", "example.com/gitlab/objects/settings")
	got := make(map[string]int)
	for _, r := range results {
		got[r.Pass.Pkg.Path()] = len(r.Diagnostics)
	}
	if got["example.com/gitlab/objects/flags"] != 0 || got["example.com/gitlab/objects/settings"] != 1 {
		t.Fatalf("diagnostic counts = %v", got)
	}
}

func TestNewRunConfigResolve(t *testing.T) {
	t.Cleanup(func() { resetFlags(t) })
	resetFlags(t)
	setFlag(t, "root", "example.com/x")
	setFlag(t, "recursive", "true")
	setFlag(t, "baseline", "b.toml")
	setFlag(t, "suffix", "Service")

	cfg, err := newRunConfig().resolve()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Namespace.Root != "example.com/x" || !cfg.Namespace.Recursive || cfg.Baseline != "b.toml" ||
		cfg.Namespace.Suffix != "Service" {
		t.Errorf("flags not applied: %+v", cfg)
	}

	setFlag(t, "config", filepath.Join(t.TempDir(), "missing.cue"))
	if _, err := newRunConfig().resolve(); err == nil {
		t.Error("missing config file should fail")
	}
}
