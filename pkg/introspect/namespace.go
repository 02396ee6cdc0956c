// SPDX-License-Identifier: MPL-2.0

package introspect

import (
	"go/types"
	"slices"
	"strings"
)

// Namespace is the set of packages a discovery pass walks. Root is the import
// path whose child packages play the role of submodules; an empty Root makes
// every member a submodule.
type Namespace struct {
	Root      string
	Recursive bool
	Members   []*types.Package
}

// NewNamespace builds a namespace from pkgs and everything they import.
// Members are deduplicated by path and sorted by path so that enumeration
// order never depends on load order.
func NewNamespace(root string, recursive bool, pkgs ...*types.Package) Namespace {
	seen := make(map[string]*types.Package)
	var visit func(p *types.Package)
	visit = func(p *types.Package) {
		if p == nil {
			return
		}
		if _, ok := seen[p.Path()]; ok {
			return
		}
		seen[p.Path()] = p
		for _, imp := range p.Imports() {
			visit(imp)
		}
	}
	for _, p := range pkgs {
		visit(p)
	}

	members := make([]*types.Package, 0, len(seen))
	for _, p := range seen {
		members = append(members, p)
	}
	slices.SortFunc(members, func(a, b *types.Package) int {
		return strings.Compare(a.Path(), b.Path())
	})

	return Namespace{
		Root:      strings.TrimSuffix(root, "/"),
		Recursive: recursive,
		Members:   members,
	}
}

// IsSubmodule reports whether the package at path is a submodule of the
// namespace: a direct child of Root, or any descendant when Recursive is set.
func (ns Namespace) IsSubmodule(path string) bool {
	if ns.Root == "" {
		return true
	}
	rest, ok := strings.CutPrefix(path, ns.Root+"/")
	if !ok || rest == "" {
		return false
	}
	return ns.Recursive || !strings.Contains(rest, "/")
}

// Submodules returns the members that pass IsSubmodule, in path order.
func (ns Namespace) Submodules() []*types.Package {
	var out []*types.Package
	for _, p := range ns.Members {
		if p != nil && ns.IsSubmodule(p.Path()) {
			out = append(out, p)
		}
	}
	return out
}

// Lookup returns the member with the given import path, or nil.
func (ns Namespace) Lookup(path string) *types.Package {
	for _, p := range ns.Members {
		if p.Path() == path {
			return p
		}
	}
	return nil
}
