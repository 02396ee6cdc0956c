// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

// Catalog entries. The names double as analyzer diagnostic categories where
// one exists.
const (
	ReturnTypeMismatchId Id = iota + 1
	MissingObjectTypeId
	UnresolvedOptionalId
	PackageLoadFailedId
	ConfigLoadFailedId
	InvalidTypeRefId
	BaselineLoadFailedId
	NoManagersFoundId
)

type (
	// Id identifies a catalog entry.
	Id int

	// MarkdownMsg is the Markdown body of an issue.
	MarkdownMsg string

	// HttpLink is an external reference shown under "See also".
	HttpLink string

	// Issue is one catalog entry.
	Issue struct {
		id       Id
		name     string
		mdMsg    MarkdownMsg
		extLinks []HttpLink
	}
)

// Id returns the issue identifier.
func (i *Issue) Id() Id {
	return i.id
}

// Name returns the kebab-case name used by "managerlint explain".
func (i *Issue) Name() string {
	return i.name
}

// MarkdownMsg returns the raw Markdown body.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// ExtLinks returns a copy of the external links.
func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Markdown returns the body followed by a "See also" list when the issue has
// external links.
func (i *Issue) Markdown() string {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		sb.WriteString("\n\n## See also\n")
		for _, link := range i.extLinks {
			sb.WriteString("\n- <" + string(link) + ">")
		}
	}
	return sb.String()
}

// Render renders the issue for a terminal with the named glamour style.
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

var (
	render = glamour.Render

	returnTypeMismatchIssue = &Issue{
		id:   ReturnTypeMismatchId,
		name: "return-type-mismatch",
		mdMsg: `
# Retrieval method returns a loose type

A manager embeds a retrieval mixin, but its ` + "`Get`" + ` method is declared to
return something other than the exact type of its ` + "`objCls`" + ` field, most
often the mixin's generic ` + "`base.RESTObject`" + `. Callers then need a type
assertion to reach the resource's fields.

## Things you can try
- Add the method printed under "Recommend adding the following method" to
  the manager's file. It narrows the mixin's result to the resource type.
- Add the imports listed in the note below the snippet.
- If the resource may legitimately be absent, configure the capability with
  ` + "`allows_absent: true`" + ` and return the optional wrapper instead:
~~~go
func (m *FlagManager) Get(opts ...base.RequestOption) (base.Optional[*Flag], error)
~~~

The comparison is exact. A narrower or wider type that would still compile
is reported as well.`,
		extLinks: []HttpLink{"https://pkg.go.dev/go/types#Identical"},
	}

	missingObjectTypeIssue = &Issue{
		id:   MissingObjectTypeId,
		name: "missing-object-type",
		mdMsg: `
# Manager declares no object type

A manager embeds a retrieval mixin but has no ` + "`objCls`" + ` field, so the
resource type it should return cannot be determined. This is a defect in the
manager itself and is never skipped.

## Things you can try
- Declare the resource type on the manager:
~~~go
type WidgetManager struct {
	mixins.GetMixin
	objCls *Widget
}
~~~
- If the library uses another field name, set ` + "`object_field`" + ` in the
  configuration.`,
	}

	unresolvedOptionalIssue = &Issue{
		id:   UnresolvedOptionalId,
		name: "unresolved-optional",
		mdMsg: `
# Optional wrapper type not found

A capability allows absent results, but the generic wrapper named by
` + "`optional_type`" + ` was not found among the loaded packages, or it does
not take exactly one type parameter.

## Things you can try
- Check ` + "`optional_type`" + ` in the configuration (default ` + "`**/base.Optional`" + `).
- Make sure the package declaring it is imported by the checked packages.
- Show the effective configuration:
~~~
$ managerlint config show
~~~`,
	}

	packageLoadFailedIssue = &Issue{
		id:   PackageLoadFailedId,
		name: "package-load-failed",
		mdMsg: `
# Packages could not be loaded

The checker type-checks the target packages with the go command before
inspecting them. Compiler errors or a missing module stop it.

## Things you can try
- Build the packages to see the compiler output:
~~~
$ go build ./...
~~~
- Run the checker from inside the module, or pass the directory explicitly:
~~~
$ managerlint check ./objects
~~~`,
		extLinks: []HttpLink{"https://pkg.go.dev/golang.org/x/tools/go/packages"},
	}

	configLoadFailedIssue = &Issue{
		id:   ConfigLoadFailedId,
		name: "config-load-failed",
		mdMsg: `
# Configuration could not be loaded

The configuration file is CUE and is validated against the built-in schema.

## Things you can try
- Print the file the checker would use:
~~~
$ managerlint config path
~~~
- Print a complete default configuration to start from:
~~~
$ managerlint config dump
~~~
- Validate your file with the cue tool for detailed positions.`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	invalidTypeRefIssue = &Issue{
		id:   InvalidTypeRefId,
		name: "invalid-type-ref",
		mdMsg: `
# Invalid type reference

Capability bases and the optional type are written as
` + "`<package pattern>.<Type>`" + `, where the package part is an import path or a
doublestar pattern.

## Examples
~~~cue
capabilities: [{name: "get-by-id", base: "**/mixins.GetMixin"}]
optional_type: "example.com/gitlab/base.Optional"
~~~`,
		extLinks: []HttpLink{"https://pkg.go.dev/github.com/bmatcuk/doublestar/v4#Match"},
	}

	baselineLoadFailedIssue = &Issue{
		id:   BaselineLoadFailedId,
		name: "baseline-load-failed",
		mdMsg: `
# Baseline could not be loaded

A baseline is a TOML file listing accepted findings by their stable ID.

## Things you can try
- Regenerate it from the current state:
~~~
$ managerlint baseline write managerlint-baseline.toml
~~~
- Check that each section holds an ` + "`entries`" + ` array of
  ` + "`{id, message}`" + ` tables.`,
	}

	noManagersFoundIssue = &Issue{
		id:   NoManagersFoundId,
		name: "no-managers-found",
		mdMsg: `
# No managers found

Discovery looks at struct types whose name ends with the manager suffix, in
the direct child packages of the namespace root.

## Things you can try
- Set the root explicitly:
~~~
$ managerlint check --root example.com/gitlab/objects
~~~
- Use ` + "`--recursive`" + ` when managers live deeper than one level.
- List what discovery sees:
~~~
$ managerlint list
~~~`,
	}

	issues = map[Id]*Issue{
		returnTypeMismatchIssue.Id(): returnTypeMismatchIssue,
		missingObjectTypeIssue.Id():  missingObjectTypeIssue,
		unresolvedOptionalIssue.Id(): unresolvedOptionalIssue,
		packageLoadFailedIssue.Id():  packageLoadFailedIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		invalidTypeRefIssue.Id():     invalidTypeRefIssue,
		baselineLoadFailedIssue.Id(): baselineLoadFailedIssue,
		noManagersFoundIssue.Id():    noManagersFoundIssue,
	}
)

// Values returns every issue ordered by id.
func Values() []*Issue {
	out := maps.Values(issues)
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

// Get returns the issue with the given id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}

// ByName returns the issue with the given name, or nil.
func ByName(name string) *Issue {
	for _, iss := range issues {
		if iss.name == name {
			return iss
		}
	}
	return nil
}
