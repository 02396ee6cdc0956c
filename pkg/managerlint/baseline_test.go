// SPDX-License-Identifier: MPL-2.0

package managerlint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadBaseline(t *testing.T) {
	t.Parallel()

	t.Run("empty path returns empty baseline", func(t *testing.T) {
		t.Parallel()
		bl, err := LoadBaseline("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if bl.Count() != 0 {
			t.Errorf("expected 0 entries, got %d", bl.Count())
		}
		if bl.Contains(Finding{ID: "x", Category: CategoryReturnTypeMismatch}) {
			t.Error("empty baseline should not match anything")
		}
	})

	t.Run("nonexistent file returns empty baseline", func(t *testing.T) {
		t.Parallel()
		bl, err := LoadBaseline(filepath.Join(t.TempDir(), "baseline.toml"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if bl.Count() != 0 {
			t.Errorf("expected 0 entries, got %d", bl.Count())
		}
	})

	t.Run("valid TOML parses correctly", func(t *testing.T) {
		t.Parallel()
		content := `
[return-type-mismatch]
entries = [
    { id = "mgl1_a", message = "type definition for \"GadgetManager\" ..." },
    { id = "mgl1_b", message = "type definition for \"DeepManager\" ..." },
]

[missing-object-type]
entries = [{ id = "mgl1_c", message = "no objCls" }]
`
		path := filepath.Join(t.TempDir(), "baseline.toml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		bl, err := LoadBaseline(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if bl.Count() != 3 {
			t.Errorf("expected 3 entries, got %d", bl.Count())
		}
		if !bl.Contains(Finding{ID: "mgl1_b", Category: CategoryReturnTypeMismatch}) {
			t.Error("expected mgl1_b to be baselined")
		}
		if bl.Contains(Finding{ID: "mgl1_c", Category: CategoryReturnTypeMismatch}) {
			t.Error("IDs are scoped by category")
		}
	})

	t.Run("malformed TOML fails", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "baseline.toml")
		if err := os.WriteFile(path, []byte("[return-type-mismatch\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadBaseline(path); err == nil {
			t.Fatal("expected parse error")
		}
	})
}

func TestWriteBaselineRoundTrip(t *testing.T) {
	t.Parallel()

	findings := []Finding{
		{ID: "mgl1_b", Category: CategoryReturnTypeMismatch, Summary: `returns "base.RESTObject"`},
		{ID: "mgl1_a", Category: CategoryReturnTypeMismatch, Summary: "tab\there"},
		{ID: "mgl1_a", Category: CategoryReturnTypeMismatch, Summary: "tab\there"},
		{ID: "mgl1_c", Category: CategoryMissingObjectType, Summary: "missing"},
		{ID: "mgl1_d", Category: CategoryUnresolvedOptional, Summary: "never baselined"},
	}
	path := filepath.Join(t.TempDir(), "baseline.toml")
	n, err := WriteBaseline(path, findings)
	if err != nil {
		t.Fatalf("WriteBaseline: %v", err)
	}
	if n != 3 {
		t.Errorf("wrote %d entries, want 3", n)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if strings.Index(text, "mgl1_a") > strings.Index(text, "mgl1_b") {
		t.Error("entries should be sorted by ID")
	}
	if strings.Contains(text, "unresolved-optional") {
		t.Error("always-visible category written to baseline")
	}

	bl, err := LoadBaseline(path)
	if err != nil {
		t.Fatalf("reloading written baseline: %v", err)
	}
	kept, suppressed := bl.Filter(findings)
	if suppressed != 4 || len(kept) != 1 || kept[0].ID != "mgl1_d" {
		t.Errorf("Filter() = %v, %d", kept, suppressed)
	}
	if got := bl.ReturnTypeMismatch.Entries[1].Message; got != `returns "base.RESTObject"` {
		t.Errorf("message not preserved: %q", got)
	}
}
