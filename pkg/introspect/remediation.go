// SPDX-License-Identifier: MPL-2.0

package introspect

import (
	"fmt"
	"go/types"
	"slices"
	"strings"
	"text/template"
)

// RemediationData is the value passed to a capability's remediation template.
// Type strings are qualified relative to the manager's own package, so they
// can be pasted into the manager's source file as they are.
type RemediationData struct {
	// Manager is the manager type name, e.g. "WidgetManager".
	Manager string
	// Method is the retrieval method name, e.g. "Get".
	Method string
	// Mixin is the embedded capability type name, e.g. "GetMixin".
	Mixin string
	// Selector is the embedded field path from the manager to a field whose
	// Method is the mixin's, e.g. "GetMixin" or "DeleteMixin" when GetMixin
	// is reachable along several paths.
	Selector string
	// Object is the simple name of the resource type, e.g. "Widget".
	Object string
	// Resource is the resource type as declared by the object-type field,
	// e.g. "*Widget".
	Resource string
	// Return is the exact type the method must return, e.g. "*Widget" or
	// "base.Optional[*Widget]".
	Return string
	// Params and Args mirror the mixin method signature, e.g.
	// "id string, opts ...base.RequestOption" and "id, opts...".
	Params string
	Args   string
	// AllowsAbsent is set when Return is the optional wrapper.
	AllowsAbsent bool
	// Some is the qualified constructor of a present optional value,
	// e.g. "base.Some". Empty unless AllowsAbsent.
	Some string
	// Imports lists import paths the snippet refers to besides the manager's
	// own package.
	Imports []string
}

// methodTemplate overrides the promoted mixin method with one that narrows
// its result. The parameter list is copied from the mixin's signature, so the
// same text serves both built-in capabilities.
const methodTemplate = `func (m *{{.Manager}}) {{.Method}}({{.Params}}) ({{.Return}}, error) {
	obj, err := m.{{.Selector}}.{{.Method}}({{.Args}})
{{- template "body" .}}
}`

const bodyTemplate = `{{define "body"}}
{{- if .AllowsAbsent}}
	if err != nil || obj == nil {
		return {{.Return}}{}, err
	}
	return {{.Some}}(obj.({{.Resource}})), nil
{{- else}}
	if err != nil {
		return nil, err
	}
	return obj.({{.Resource}}), nil
{{- end}}
{{- end}}`

// NewTemplate parses a remediation template. The "body" helper used by the
// built-in templates is available to custom ones as well.
func NewTemplate(name, text string) (*template.Template, error) {
	t, err := template.New(name).Parse(bodyTemplate)
	if err != nil {
		return nil, err
	}
	return t.Parse(text)
}

// DefaultTemplate returns the built-in remediation template, named after
// the capability it serves.
func DefaultTemplate(name string) *template.Template {
	return template.Must(NewTemplate(name, methodTemplate))
}

// DefaultCapabilities returns the two built-in capabilities:
// GetMixin for retrieval by identifier and GetWithoutIDMixin for singleton
// resources. Neither allows an absent result.
func DefaultCapabilities() []Capability {
	return []Capability{
		{
			Name:     CapabilityGetByID,
			Base:     MustParseTypeRef("**/mixins.GetMixin"),
			Method:   DefaultMethod,
			Template: DefaultTemplate(CapabilityGetByID),
		},
		{
			Name:     CapabilityGetWithoutID,
			Base:     MustParseTypeRef("**/mixins.GetWithoutIDMixin"),
			Method:   DefaultMethod,
			Template: DefaultTemplate(CapabilityGetWithoutID),
		},
	}
}

// remediationData fills the template data for one mismatch.
func remediationData(named *types.Named, exp Expectation, capb Capability, expected types.Type, method *types.Func, optional *types.Named) RemediationData {
	pkg := named.Obj().Pkg()
	rel := relativeQualifier(pkg)

	d := RemediationData{
		Manager:      named.Obj().Name(),
		Method:       capb.Method,
		Object:       simpleName(exp.Resource),
		Resource:     types.TypeString(exp.Resource, rel),
		Return:       types.TypeString(expected, rel),
		AllowsAbsent: exp.AllowsAbsent,
	}
	if exp.Via != nil {
		d.Mixin = exp.Via.Obj().Name()
		d.Selector = mixinSelector(named, exp.Via, capb.Method)
		// The mixin defines the signature being narrowed. The manager's own
		// method may be missing, ambiguous or declared with other parameters.
		if m := lookupMethod(exp.Via, capb.Method); m != nil {
			method = m
		}
	}
	if exp.AllowsAbsent && optional != nil {
		d.Some = qualifiedName(optional.Obj().Pkg(), "Some", rel)
	}

	imports := make(map[string]bool)
	collectPackages(expected, imports)
	if method != nil {
		d.Params, d.Args = signatureParams(method.Signature(), rel)
		for v := range method.Signature().Params().Variables() {
			collectPackages(v.Type(), imports)
		}
	}
	for _, p := range capb.Imports {
		imports[p] = true
	}
	delete(imports, pkg.Path())
	for p := range imports {
		d.Imports = append(d.Imports, p)
	}
	slices.Sort(d.Imports)

	return d
}

// mixinSelector returns the shortest embedded field path from named through
// which method resolves, without ambiguity, to the method of via. The mixin
// name alone is used when it selects via's field unambiguously.
func mixinSelector(named, via *types.Named, method string) string {
	name := via.Obj().Name()
	obj, _, _ := types.LookupFieldOrMethod(named, true, named.Obj().Pkg(), name)
	if f, ok := obj.(*types.Var); ok && f.IsField() && isOrigin(f.Type(), via) {
		return name
	}

	path := embeddingPath(named, via)
	if len(path) == 0 {
		return name
	}
	want := lookupMethod(via, method)
	for i := 1; want != nil && i < len(path); i++ {
		t := namedOf(path[i-1].Type())
		if got := lookupMethod(t, method); got != nil && got.Origin() == want.Origin() {
			return joinFields(path[:i])
		}
	}
	return joinFields(path)
}

// embeddingPath returns the shortest chain of embedded fields leading from
// named to a field of type via, breadth first in field order.
func embeddingPath(named, via *types.Named) []*types.Var {
	type step struct {
		t    *types.Named
		path []*types.Var
	}
	seen := map[*types.TypeName]bool{named.Origin().Obj(): true}
	queue := []step{{t: named}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		st, ok := cur.t.Underlying().(*types.Struct)
		if !ok {
			continue
		}
		for f := range st.Fields() {
			if !f.Embedded() {
				continue
			}
			en := namedOf(f.Type())
			if en == nil {
				continue
			}
			path := append(slices.Clone(cur.path), f)
			if isOrigin(en, via) {
				return path
			}
			if !seen[en.Origin().Obj()] {
				seen[en.Origin().Obj()] = true
				queue = append(queue, step{t: en, path: path})
			}
		}
	}
	return nil
}

func isOrigin(t types.Type, via *types.Named) bool {
	n := namedOf(t)
	return n != nil && n.Origin().Obj() == via.Origin().Obj()
}

func joinFields(path []*types.Var) string {
	names := make([]string, len(path))
	for i, f := range path {
		names[i] = f.Name()
	}
	return strings.Join(names, ".")
}

// renderSnippet executes the capability template, falling back to the
// built-in one when the capability carries none.
func renderSnippet(capb Capability, data RemediationData) string {
	tmpl := capb.Template
	if tmpl == nil {
		tmpl = DefaultTemplate(capb.Name)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return fmt.Sprintf("(remediation template %q failed: %v)", tmpl.Name(), err)
	}
	return sb.String()
}

// renderRemediation is the snippet followed by a note on the imports it needs.
func renderRemediation(snippet string, imports []string) string {
	if len(imports) == 0 {
		return snippet
	}
	var sb strings.Builder
	sb.WriteString(snippet)
	sb.WriteString("\n\nYou may also need to add the following imports:\n")
	for _, p := range imports {
		fmt.Fprintf(&sb, "\t%q\n", p)
	}
	return sb.String()
}

func signatureParams(sig *types.Signature, q types.Qualifier) (string, string) {
	params := sig.Params()
	decls := make([]string, 0, params.Len())
	args := make([]string, 0, params.Len())
	for i := range params.Len() {
		p := params.At(i)
		name := p.Name()
		if name == "" || name == "_" {
			name = fmt.Sprintf("arg%d", i)
		}
		if sig.Variadic() && i == params.Len()-1 {
			elem := p.Type()
			if s, ok := elem.(*types.Slice); ok {
				elem = s.Elem()
			}
			decls = append(decls, name+" ..."+types.TypeString(elem, q))
			args = append(args, name+"...")
			continue
		}
		decls = append(decls, name+" "+types.TypeString(p.Type(), q))
		args = append(args, name)
	}
	return strings.Join(decls, ", "), strings.Join(args, ", ")
}

// collectPackages records the import path of every named type mentioned in t.
func collectPackages(t types.Type, into map[string]bool) {
	switch t := t.(type) {
	case *types.Alias:
		collectPackages(types.Unalias(t), into)
	case *types.Named:
		if pkg := t.Obj().Pkg(); pkg != nil {
			into[pkg.Path()] = true
		}
		for arg := range t.TypeArgs().Types() {
			collectPackages(arg, into)
		}
	case *types.Pointer:
		collectPackages(t.Elem(), into)
	case *types.Slice:
		collectPackages(t.Elem(), into)
	case *types.Array:
		collectPackages(t.Elem(), into)
	case *types.Chan:
		collectPackages(t.Elem(), into)
	case *types.Map:
		collectPackages(t.Key(), into)
		collectPackages(t.Elem(), into)
	}
}

// simpleName strips pointers and package qualifiers: *widgets.Widget → Widget.
func simpleName(t types.Type) string {
	if n := namedOf(t); n != nil {
		return n.Obj().Name()
	}
	return types.TypeString(t, func(*types.Package) string { return "" })
}

func relativeQualifier(pkg *types.Package) types.Qualifier {
	return func(p *types.Package) string {
		if p == pkg {
			return ""
		}
		return p.Name()
	}
}

// nameQualifier qualifies every type by its package name, as in *widgets.Widget.
func nameQualifier(p *types.Package) string {
	return p.Name()
}

func qualifiedName(pkg *types.Package, name string, q types.Qualifier) string {
	if prefix := q(pkg); prefix != "" {
		return prefix + "." + name
	}
	return name
}
