// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/invowk/managerlint/internal/cueutil"
	"github.com/invowk/managerlint/internal/issue"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSchemaCompiles(t *testing.T) {
	t.Parallel()

	if err := cueutil.CompileSchema(Schema(), "#Config"); err != nil {
		t.Fatalf("embedded schema: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigDirPath: t.TempDir(),
		WorkDir:       t.TempDir(),
	})
	if err != nil {
		t.Fatalf("loadWithOptions: %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want none", path)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadLookupOrder(t *testing.T) {
	t.Parallel()

	cfgDir := t.TempDir()
	workDir := t.TempDir()
	dirFile := filepath.Join(cfgDir, "config.cue")
	localFile := filepath.Join(workDir, "managerlint.cue")
	explicit := filepath.Join(t.TempDir(), "custom.cue")
	writeFile(t, dirFile, `jobs: 2`)
	writeFile(t, localFile, `jobs: 3`)
	writeFile(t, explicit, `jobs: 4`)

	tests := []struct {
		name     string
		opts     LoadOptions
		wantJobs int
		wantPath string
	}{
		{"explicit file wins", LoadOptions{ConfigFilePath: explicit, ConfigDirPath: cfgDir, WorkDir: workDir}, 4, explicit},
		{"config dir before local", LoadOptions{ConfigDirPath: cfgDir, WorkDir: workDir}, 2, dirFile},
		{"local file", LoadOptions{ConfigDirPath: t.TempDir(), WorkDir: workDir}, 3, localFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, path, err := loadWithOptions(context.Background(), tt.opts)
			if err != nil {
				t.Fatalf("loadWithOptions: %v", err)
			}
			if cfg.Jobs != tt.wantJobs {
				t.Errorf("jobs = %d, want %d", cfg.Jobs, tt.wantJobs)
			}
			if path != tt.wantPath {
				t.Errorf("path = %q, want %q", path, tt.wantPath)
			}
		})
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "managerlint.cue")
	writeFile(t, file, `
namespace: {
	root:      "example.com/gitlab/objects"
	recursive: true
}
optional_type: "example.com/gitlab/base.Optional"
capabilities: [{
	name:          "maybe-get"
	base:          "**/mixins.GetMixin"
	allows_absent: true
	imports: ["example.com/gitlab/base"]
}]
ui: format: "json"
`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: file})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := DefaultConfig()
	want.Namespace.Root = "example.com/gitlab/objects"
	want.Namespace.Recursive = true
	want.OptionalType = "example.com/gitlab/base.Optional"
	want.Capabilities = []CapabilityConfig{{
		Name:         "maybe-get",
		Base:         "**/mixins.GetMixin",
		AllowsAbsent: true,
		Imports:      []string{"example.com/gitlab/base"},
	}}
	want.UI.Format = FormatJSON
	want.Source = file
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MANAGERLINT_UI_FORMAT", "markdown")
	t.Setenv("MANAGERLINT_JOBS", "7")

	cfg, _, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigDirPath: t.TempDir(),
		WorkDir:       t.TempDir(),
	})
	if err != nil {
		t.Fatalf("loadWithOptions: %v", err)
	}
	if cfg.UI.Format != FormatMarkdown {
		t.Errorf("ui.format = %q, want markdown", cfg.UI.Format)
	}
	if cfg.Jobs != 7 {
		t.Errorf("jobs = %d, want 7", cfg.Jobs)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", `jobs: `, "config.cue"},
		{"schema violation", `jobs: -1`, "jobs"},
		{"unknown field", `containers: true`, "containers"},
		{"bad format", `ui: format: "yaml"`, "format"},
		{"duplicate capability", `capabilities: [{name: "a", base: "**/m.A"}, {name: "a", base: "**/m.B"}]`, `duplicate name "a"`},
		{"bad template", `capabilities: [{name: "a", base: "**/m.A", template: "{{.Manager"}]`, "template"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			file := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_"), "config.cue")
			writeFile(t, file, tt.content)

			_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: file})
			if err == nil {
				t.Fatal("expected error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("error %T is not actionable: %v", err, err)
			}
			if ae.Issue != issue.ConfigLoadFailedId {
				t.Errorf("issue = %v, want ConfigLoadFailedId", ae.Issue)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue")})
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Fatalf("err = %v, want config file not found", err)
	}
}

func TestLoadCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := loadWithOptions(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestGenerateCUERoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sub", "config.cue")
	written, err := CreateDefaultConfig(path, false)
	if err != nil {
		t.Fatalf("CreateDefaultConfig: %v", err)
	}
	if written != path {
		t.Errorf("written = %q, want %q", written, path)
	}

	cfg, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("loading generated config: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	if _, err := CreateDefaultConfig(path, false); !errors.Is(err, ErrConfigExists) {
		t.Errorf("second create err = %v, want ErrConfigExists", err)
	}
	if _, err := CreateDefaultConfig(path, true); err != nil {
		t.Errorf("forced create: %v", err)
	}
}

func TestConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	got, err := ConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if got != dir {
		t.Errorf("ConfigDir() = %q, want %q", got, dir)
	}
	path, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "config.cue"); path != want {
		t.Errorf("DefaultPath() = %q, want %q", path, want)
	}
}

func TestConfigDirXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux and other Unix systems")
	}
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	Reset()

	got, err := ConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(xdg, AppName); got != want {
		t.Errorf("ConfigDir() = %q, want %q", got, want)
	}
}
