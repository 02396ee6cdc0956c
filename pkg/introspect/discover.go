// SPDX-License-Identifier: MPL-2.0

package introspect

import (
	"go/token"
	"go/types"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	// DefaultManagerSuffix is the name suffix that identifies manager types.
	DefaultManagerSuffix = "Manager"
	// DefaultBasePattern matches the shared base package of the client library.
	DefaultBasePattern = "**/base"
)

// Discoverer finds manager types in a namespace.
type Discoverer struct {
	// Suffix is the type name suffix identifying managers (default "Manager").
	Suffix string
	// Exclude holds package patterns whose types are never reported. Types
	// re-exported from these packages are skipped even when they are visible
	// through a submodule.
	Exclude []string
	// Fset resolves declaration positions. Records carry a zero Position when
	// it is nil.
	Fset *token.FileSet
	// Logger receives debug output about skipped members. Optional.
	Logger *log.Logger
}

// NewDiscoverer returns a Discoverer with the default suffix and base
// package exclusion.
func NewDiscoverer(fset *token.FileSet) *Discoverer {
	return &Discoverer{
		Suffix:  DefaultManagerSuffix,
		Exclude: []string{DefaultBasePattern},
		Fset:    fset,
	}
}

// Discover returns every manager type reachable through the submodules of
// ns. A namespace without submodules yields an empty set.
func (d *Discoverer) Discover(ns Namespace) *RecordSet {
	set := NewRecordSet()
	for _, pkg := range ns.Submodules() {
		if MatchAnyPackage(d.Exclude, pkg.Path()) {
			d.logger().Debug("skipping excluded package", "package", pkg.Path())
			continue
		}
		d.collect(pkg, set, false)
	}
	return set
}

// DiscoverPackage returns the manager types visible in pkg. When ownOnly is
// set, types that pkg merely re-exports through an alias are left out; the
// analyzer uses this so each type is reported only by its defining package.
func (d *Discoverer) DiscoverPackage(pkg *types.Package, ownOnly bool) *RecordSet {
	set := NewRecordSet()
	if pkg != nil {
		d.collect(pkg, set, ownOnly)
	}
	return set
}

func (d *Discoverer) collect(pkg *types.Package, set *RecordSet, ownOnly bool) {
	scope := pkg.Scope()
	for _, name := range scope.Names() {
		if !strings.HasSuffix(name, d.suffix()) {
			continue
		}
		obj, ok := scope.Lookup(name).(*types.TypeName)
		if !ok {
			continue
		}
		named := classType(obj)
		if named == nil {
			d.logger().Debug("skipping non-struct member", "package", pkg.Path(), "name", name)
			continue
		}

		def := named.Obj()
		if def.Pkg() == nil {
			continue
		}
		if MatchAnyPackage(d.Exclude, def.Pkg().Path()) {
			d.logger().Debug("skipping shared base type", "package", pkg.Path(), "name", name, "defined_in", def.Pkg().Path())
			continue
		}
		if ownOnly && def.Pkg() != pkg {
			continue
		}

		rec := Record{Name: name, Type: def}
		if d.Fset != nil {
			rec.Position = d.Fset.Position(def.Pos())
		}
		if set.Add(rec) {
			d.logger().Debug("discovered manager", "key", rec.Key().String())
		}
	}
}

func (d *Discoverer) suffix() string {
	if d.Suffix == "" {
		return DefaultManagerSuffix
	}
	return d.Suffix
}

func (d *Discoverer) logger() *log.Logger {
	return orDiscard(d.Logger)
}

var discardLogger = log.New(io.Discard)

func orDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return discardLogger
	}
	return l
}

// classType returns the named struct type obj denotes, resolving aliases.
// Generic declarations and instantiations are not concrete manager types
// and yield nil, as does anything whose underlying type is not a struct.
func classType(obj *types.TypeName) *types.Named {
	named, ok := types.Unalias(obj.Type()).(*types.Named)
	if !ok {
		return nil
	}
	if named.TypeParams().Len() > 0 || named.TypeArgs().Len() > 0 {
		return nil
	}
	if _, isStruct := named.Underlying().(*types.Struct); !isStruct {
		return nil
	}
	return named
}
