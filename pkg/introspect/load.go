// SPDX-License-Identifier: MPL-2.0

package introspect

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"go/types"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"
)

// loadMode requests full type information for the loaded packages and all
// of their dependencies.
const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedImports |
	packages.NeedDeps | packages.NeedTypes | packages.NeedSyntax |
	packages.NeedTypesInfo | packages.NeedModule

// ErrPackageLoad is the sentinel error wrapped by LoadError.
var ErrPackageLoad = errors.New("package load failed")

type (
	// LoadOptions configures Load.
	LoadOptions struct {
		// Dir is the directory the patterns are resolved in. Empty means the
		// current directory.
		Dir string
		// Patterns are go/packages patterns. Empty means "./...".
		Patterns []string
		// Env overrides the environment of the underlying go command.
		Env []string
	}

	// Loaded is the result of a successful Load.
	Loaded struct {
		Fset     *token.FileSet
		Packages []*packages.Package
		// DirPath is the import path of LoadOptions.Dir, when it lies inside
		// a module. It is the default namespace root.
		DirPath string
	}

	// LoadError collects the errors reported for the loaded packages.
	LoadError struct {
		Errors []packages.Error
	}
)

// Error summarizes the collected errors.
func (e *LoadError) Error() string {
	const maxShown = 3
	msgs := make([]string, 0, maxShown)
	for i, pe := range e.Errors {
		if i == maxShown {
			msgs = append(msgs, fmt.Sprintf("and %d more", len(e.Errors)-maxShown))
			break
		}
		msgs = append(msgs, pe.Error())
	}
	return fmt.Sprintf("%d package error(s): %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap returns ErrPackageLoad for errors.Is.
func (e *LoadError) Unwrap() error { return ErrPackageLoad }

// Load type-checks the packages matched by opts. When some packages fail to
// load or type-check, the partially loaded result is returned together with
// a *LoadError.
func Load(ctx context.Context, opts LoadOptions) (*Loaded, error) {
	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	fset := token.NewFileSet()
	cfg := &packages.Config{
		Context: ctx,
		Mode:    loadMode,
		Dir:     opts.Dir,
		Env:     opts.Env,
		Fset:    fset,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPackageLoad, err)
	}

	loaded := &Loaded{Fset: fset, Packages: pkgs, DirPath: dirImportPath(opts.Dir, pkgs)}

	var errs []packages.Error
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		errs = append(errs, p.Errors...)
	})
	if len(errs) > 0 {
		return loaded, &LoadError{Errors: errs}
	}
	return loaded, nil
}

// Types returns the type-checked root packages.
func (l *Loaded) Types() []*types.Package {
	out := make([]*types.Package, 0, len(l.Packages))
	for _, p := range l.Packages {
		if p.Types != nil {
			out = append(out, p.Types)
		}
	}
	return out
}

// Namespace builds the namespace rooted at root. An empty root falls back to
// DirPath.
func (l *Loaded) Namespace(root string, recursive bool) Namespace {
	if root == "" {
		root = l.DirPath
	}
	return NewNamespace(root, recursive, l.Types()...)
}

// FindOptional resolves the optional wrapper type named by ref among the
// namespace members. The type must be generic with exactly one type parameter.
func FindOptional(ref TypeRef, ns Namespace) (*types.Named, error) {
	if ref.IsZero() {
		return nil, fmt.Errorf("%w: no optional type configured", ErrUnresolvedOptional)
	}
	candidates := ns.Members
	if !isPattern(ref.Package) {
		candidates = nil
		if pkg := ns.Lookup(ref.Package); pkg != nil {
			candidates = []*types.Package{pkg}
		}
	}
	for _, pkg := range candidates {
		if !MatchPackage(ref.Package, pkg.Path()) {
			continue
		}
		tn, ok := pkg.Scope().Lookup(ref.Name).(*types.TypeName)
		if !ok {
			continue
		}
		named, ok := types.Unalias(tn.Type()).(*types.Named)
		if !ok {
			continue
		}
		if n := named.TypeParams().Len(); n != 1 {
			return nil, fmt.Errorf("%w: %s has %d type parameters, want 1", ErrUnresolvedOptional, ref, n)
		}
		return named, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnresolvedOptional, ref)
}

// dirImportPath derives the import path of dir from the module of any loaded
// package. It returns "" when dir is outside every loaded module.
func dirImportPath(dir string, pkgs []*packages.Package) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for _, p := range pkgs {
		if p.Module == nil || p.Module.Dir == "" {
			continue
		}
		rel, err := filepath.Rel(p.Module.Dir, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if rel == "." {
			return p.Module.Path
		}
		return path.Join(p.Module.Path, filepath.ToSlash(rel))
	}
	return ""
}
