// SPDX-License-Identifier: MPL-2.0

// Package introspecttest type-checks a small fake API client library for
// use in tests. The same sources under testdata/src serve as GOPATH-style
// fixtures for analysistest.
//
// Layout of the fake library (import paths below example.com/gitlab):
//   - base: RESTObject, RESTManager, RequestOption, Optional[T], Some
//   - mixins: GetMixin, GetWithoutIDMixin, ListMixin, RetrieveMixin,
//     EditMixin, DeleteMixin
//   - objects/widgets: WidgetManager (conforming) and non-manager members
//   - objects/gadgets: GadgetManager (returns base.RESTObject)
//   - objects/settings: SettingsManager (conforming, without identifier)
//   - objects/flags: FlagManager (returns base.Optional[*Flag])
//   - objects/reexport: aliases of WidgetManager and GadgetManager
//   - objects/broken: BrokenManager (no object type field)
//   - objects/diamond: ItemManager (reaches GetMixin along two paths)
//   - objects/internal/deep: DeepManager (only visible recursively)
//   - drafts/parts: PartManager (diamond without its own Get, outside Root)
package introspecttest

import (
	"embed"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"io/fs"
	"path"
	"slices"
	"strings"
	"testing"

	"github.com/invowk/managerlint/pkg/introspect"
)

const (
	// Root is the namespace root of the fake library.
	Root = "example.com/gitlab/objects"
	// BasePath is the shared base package.
	BasePath = "example.com/gitlab/base"
	// MixinsPath is the capability package.
	MixinsPath = "example.com/gitlab/mixins"

	srcDir = "testdata/src"
)

//go:embed testdata/src
var sources embed.FS

type (
	// Library is the type-checked fake library.
	Library struct {
		Fset     *token.FileSet
		Packages map[string]*types.Package
	}

	importerFunc func(path string) (*types.Package, error)
)

func (f importerFunc) Import(path string) (*types.Package, error) { return f(path) }

// Load parses and type-checks every package of the fake library. Each call
// returns fresh type objects.
func Load(tb testing.TB) *Library {
	tb.Helper()
	lib, err := load()
	if err != nil {
		tb.Fatalf("loading fake library: %v", err)
	}
	return lib
}

// Namespace returns the namespace rooted at Root.
func (l *Library) Namespace(recursive bool) introspect.Namespace {
	paths := make([]string, 0, len(l.Packages))
	for p := range l.Packages {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	pkgs := make([]*types.Package, 0, len(paths))
	for _, p := range paths {
		pkgs = append(pkgs, l.Packages[p])
	}
	return introspect.NewNamespace(Root, recursive, pkgs...)
}

// Package returns the package with the given path below example.com/gitlab,
// e.g. "objects/widgets".
func (l *Library) Package(tb testing.TB, rel string) *types.Package {
	tb.Helper()
	pkg, ok := l.Packages["example.com/gitlab/"+rel]
	if !ok {
		tb.Fatalf("no fixture package %q", rel)
	}
	return pkg
}

// Record builds the record for a named member of a fixture package, the way
// discovery would.
func (l *Library) Record(tb testing.TB, rel, name string) introspect.Record {
	tb.Helper()
	pkg := l.Package(tb, rel)
	tn, ok := pkg.Scope().Lookup(name).(*types.TypeName)
	if !ok {
		tb.Fatalf("no type %s in %s", name, pkg.Path())
	}
	def := tn
	if named, ok := types.Unalias(tn.Type()).(*types.Named); ok {
		def = named.Obj()
	}
	return introspect.Record{Name: name, Type: def, Position: l.Fset.Position(def.Pos())}
}

// Optional returns the base.Optional generic type.
func (l *Library) Optional(tb testing.TB) *types.Named {
	tb.Helper()
	ns := l.Namespace(true)
	named, err := introspect.FindOptional(introspect.MustParseTypeRef(BasePath+".Optional"), ns)
	if err != nil {
		tb.Fatal(err)
	}
	return named
}

// CheckWith type-checks the fixture package rel again with src added as an
// extra file, importing the already checked library packages.
func (l *Library) CheckWith(rel, src string) error {
	pkgPath := "example.com/gitlab/" + rel
	if _, ok := l.Packages[pkgPath]; !ok {
		return fmt.Errorf("unknown package %q", pkgPath)
	}
	fset := token.NewFileSet()
	syntax, err := parsePackage(fset, path.Join(srcDir, pkgPath))
	if err != nil {
		return err
	}
	extra, err := parser.ParseFile(fset, "extra.go", src, 0)
	if err != nil {
		return err
	}
	imp := importerFunc(func(p string) (*types.Package, error) {
		if pkg, ok := l.Packages[p]; ok {
			return pkg, nil
		}
		return nil, fmt.Errorf("unknown package %q", p)
	})
	conf := types.Config{Importer: imp}
	_, err = conf.Check(pkgPath, fset, append(syntax, extra), nil)
	return err
}

func parsePackage(fset *token.FileSet, dir string) ([]*ast.File, error) {
	entries, err := sources.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var syntax []*ast.File
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".go") {
			continue
		}
		name := path.Join(dir, e.Name())
		src, err := sources.ReadFile(name)
		if err != nil {
			return nil, err
		}
		f, err := parser.ParseFile(fset, name, src, parser.ParseComments)
		if err != nil {
			return nil, err
		}
		syntax = append(syntax, f)
	}
	return syntax, nil
}

func load() (*Library, error) {
	files := make(map[string][]string)
	err := fs.WalkDir(sources, srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".go") {
			return nil
		}
		pkgPath := strings.TrimPrefix(path.Dir(p), srcDir+"/")
		files[pkgPath] = append(files[pkgPath], p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	lib := &Library{Fset: token.NewFileSet(), Packages: make(map[string]*types.Package)}
	var check func(pkgPath string) (*types.Package, error)
	check = func(pkgPath string) (*types.Package, error) {
		if pkg, ok := lib.Packages[pkgPath]; ok {
			return pkg, nil
		}
		names, ok := files[pkgPath]
		if !ok {
			return nil, fmt.Errorf("unknown package %q", pkgPath)
		}
		var syntax []*ast.File
		for _, name := range names {
			src, err := sources.ReadFile(name)
			if err != nil {
				return nil, err
			}
			f, err := parser.ParseFile(lib.Fset, name, src, parser.ParseComments)
			if err != nil {
				return nil, err
			}
			syntax = append(syntax, f)
		}
		conf := types.Config{Importer: importerFunc(check)}
		pkg, err := conf.Check(pkgPath, lib.Fset, syntax, nil)
		if err != nil {
			return nil, fmt.Errorf("type-checking %s: %w", pkgPath, err)
		}
		lib.Packages[pkgPath] = pkg
		return pkg, nil
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	for _, p := range paths {
		if _, err := check(p); err != nil {
			return nil, err
		}
	}
	return lib, nil
}
