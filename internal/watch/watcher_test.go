// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestIsSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rel  string
		want bool
	}{
		{"widgets.go", true},
		{"objects/widgets/widgets.go", true},
		{"go.mod", true},
		{"sub/go.sum", true},
		{"managerlint.cue", true},
		{"baseline.toml", true},
		{"README.md", false},
		{"objects/widgets/widgets.go.swp", false},
		{"vendor/example.com/x/x.go", false},
		{"objects/testdata/src/a.go", false},
		{".git/HEAD", false},
		{".cache/build.go", false},
		{"../outside.go", false},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			t.Parallel()

			if got := IsSource(filepath.FromSlash(tt.rel)); got != tt.want {
				t.Errorf("IsSource(%q) = %v, want %v", tt.rel, got, tt.want)
			}
		})
	}
}

// recorder collects OnChange calls.
type recorder struct {
	mu    sync.Mutex
	calls [][]string
	fired chan struct{}
}

func newRecorder() *recorder {
	return &recorder{fired: make(chan struct{}, 16)}
}

func (r *recorder) onChange(_ context.Context, changed []string) error {
	r.mu.Lock()
	r.calls = append(r.calls, changed)
	r.mu.Unlock()
	r.fired <- struct{}{}
	return nil
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for OnChange")
	}
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls...)
}

func startWatcher(t *testing.T, dir string, rec *recorder) (cancel func(), errCh <-chan error) {
	t.Helper()
	w, err := New(Config{Dir: dir, Debounce: 100 * time.Millisecond, OnChange: rec.onChange})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	ctx, cancelFn := context.WithCancel(context.Background())
	ch := make(chan error, 1)
	go func() { ch <- w.Run(ctx) }()
	return cancelFn, ch
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("package x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcherDebounce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := newRecorder()
	cancel, errCh := startWatcher(t, dir, rec)

	for _, name := range []string{"a.go", "b.go", "notes.txt", "c.go"} {
		writeFile(t, filepath.Join(dir, name))
		time.Sleep(10 * time.Millisecond)
	}
	rec.wait(t)
	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	calls := rec.snapshot()
	if len(calls) != 1 {
		t.Fatalf("OnChange called %d times, want 1: %v", len(calls), calls)
	}
	if diff := cmp.Diff([]string{"a.go", "b.go", "c.go"}, calls[0]); diff != "" {
		t.Errorf("changed files mismatch (-want +got):\n%s", diff)
	}
}

func TestWatcherNewDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := newRecorder()
	cancel, errCh := startWatcher(t, dir, rec)
	defer func() {
		cancel()
		<-errCh
	}()

	sub := filepath.Join(dir, "objects", "gizmos")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher time to register the new directories.
	time.Sleep(200 * time.Millisecond)
	writeFile(t, filepath.Join(sub, "gizmos.go"))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-rec.fired:
		case <-deadline:
			t.Fatalf("no change reported for the new directory: %v", rec.snapshot())
		}
		for _, call := range rec.snapshot() {
			for _, p := range call {
				if p == "objects/gizmos/gizmos.go" {
					return
				}
			}
		}
	}
}

func TestWatcherSkipsTestdata(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "testdata", "src", "a.go"))
	rec := newRecorder()
	cancel, errCh := startWatcher(t, dir, rec)

	writeFile(t, filepath.Join(dir, "testdata", "src", "a.go"))
	writeFile(t, filepath.Join(dir, "real.go"))
	rec.wait(t)
	cancel()
	<-errCh

	if diff := cmp.Diff([][]string{{"real.go"}}, rec.snapshot()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestWatcherRunTwice(t *testing.T) {
	t.Parallel()

	w, err := New(Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	// The first Run may not have started yet; retry until the second call
	// observes it.
	deadline := time.Now().Add(5 * time.Second)
	for {
		err := w.Run(ctx)
		if errors.Is(err, ErrAlreadyRunning) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("second Run() = %v, want ErrAlreadyRunning", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestNewMissingDir(t *testing.T) {
	t.Parallel()

	// A missing root is reported by the walk callback and skipped, so New
	// succeeds with nothing registered.
	if _, err := New(Config{Dir: filepath.Join(t.TempDir(), "missing")}); err != nil {
		t.Fatalf("New() error = %v", err)
	}
}
