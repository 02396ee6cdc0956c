// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/invowk/managerlint/internal/issue"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		// Save and restore package-level vars.
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2025-06-15T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2025-06-15T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "dev"
		Commit = "unknown"
		BuildDate = "unknown"

		got := getVersionString()
		want := "dev (built from source)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestFormatErrorForDisplay(t *testing.T) {
	t.Parallel()

	cause := errors.New("no such file")
	actionable := issue.NewErrorContext().
		WithOperation("load baseline").
		WithResource("baseline.toml").
		WithSuggestion("Regenerate it").
		WithIssue(issue.BaselineLoadFailedId).
		Wrap(cause).
		BuildError()

	tests := []struct {
		name    string
		err     error
		verbose bool
		want    []string
		notWant []string
	}{
		{
			name: "plain error",
			err:  cause,
			want: []string{"no such file"},
		},
		{
			name:    "actionable error",
			err:     actionable,
			want:    []string{"load baseline", "Regenerate it", "managerlint explain baseline-load-failed"},
			notWant: []string{"Error chain:"},
		},
		{
			name:    "actionable error verbose",
			err:     actionable,
			verbose: true,
			want:    []string{"Error chain:", "no such file"},
		},
		{
			name: "wrapped in exit error",
			err:  &ExitError{Code: 2, Err: actionable},
			want: []string{"managerlint explain baseline-load-failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := formatErrorForDisplay(tt.err, tt.verbose)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("formatErrorForDisplay() = %q, missing %q", got, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("formatErrorForDisplay() = %q, unexpected %q", got, w)
				}
			}
		})
	}
}

func TestExitError(t *testing.T) {
	t.Parallel()

	if got := (&ExitError{Code: 1}).Error(); got != "exit status 1" {
		t.Errorf("Error() = %q", got)
	}
	inner := errors.New("boom")
	err := &ExitError{Code: 3, Err: inner}
	if err.Error() != "boom" || !errors.Is(err, inner) {
		t.Errorf("ExitError does not expose its cause: %v", err)
	}
}

func TestRootCommandTree(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	root := NewRootCommand(ta.App)

	for _, path := range [][]string{
		{"check"},
		{"list"},
		{"baseline", "write"},
		{"config", "show"},
		{"config", "dump"},
		{"config", "path"},
		{"config", "init"},
		{"config", "schema"},
		{"explain"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd.Name() != path[len(path)-1] {
			t.Errorf("command %v not registered", path)
		}
	}
	for _, flag := range []string{"config", "verbose"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}
