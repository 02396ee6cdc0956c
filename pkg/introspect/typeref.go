// SPDX-License-Identifier: MPL-2.0

package introspect

import (
	"errors"
	"fmt"
	"go/token"
	"go/types"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrInvalidTypeRef is the sentinel error wrapped by InvalidTypeRefError.
var ErrInvalidTypeRef = errors.New("invalid type reference")

type (
	// TypeRef names a package-level type by package pattern and type name.
	// The package part is either an exact import path or a doublestar
	// pattern such as "**/mixins".
	TypeRef struct {
		Package string
		Name    string
	}

	// InvalidTypeRefError is returned when a type reference cannot be parsed.
	InvalidTypeRefError struct {
		Value  string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidTypeRefError) Error() string {
	return fmt.Sprintf("invalid type reference %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidTypeRef for errors.Is.
func (e *InvalidTypeRefError) Unwrap() error { return ErrInvalidTypeRef }

// ParseTypeRef parses "pkgpattern.Name". Type names never contain a dot, so
// the package part ends at the last dot and may itself contain dots:
//
//	example.com/gitlab/mixins.GetMixin → {example.com/gitlab/mixins, GetMixin}
//	gopkg.in/gitlab.v4.Optional        → {gopkg.in/gitlab.v4, Optional}
//	**/base.Optional                   → {**/base, Optional}
func ParseTypeRef(s string) (TypeRef, error) {
	s = strings.TrimSpace(s)
	dot := strings.LastIndex(s, ".")
	if dot < 0 {
		return TypeRef{}, &InvalidTypeRefError{Value: s, Reason: "want <package>.<Type>"}
	}

	ref := TypeRef{Package: s[:dot], Name: s[dot+1:]}
	if ref.Package == "" || ref.Name == "" || strings.HasSuffix(ref.Package, "/") {
		return TypeRef{}, &InvalidTypeRefError{Value: s, Reason: "empty package or type name"}
	}
	if !token.IsIdentifier(ref.Name) {
		return TypeRef{}, &InvalidTypeRefError{Value: s, Reason: "type name must be an identifier"}
	}
	if !doublestar.ValidatePattern(ref.Package) {
		return TypeRef{}, &InvalidTypeRefError{Value: s, Reason: "malformed package pattern"}
	}
	return ref, nil
}

// MustParseTypeRef is ParseTypeRef for compile-time constants.
func MustParseTypeRef(s string) TypeRef {
	ref, err := ParseTypeRef(s)
	if err != nil {
		panic(err)
	}
	return ref
}

// String returns the "package.Name" form.
func (r TypeRef) String() string {
	return r.Package + "." + r.Name
}

// IsZero reports whether the reference is unset.
func (r TypeRef) IsZero() bool {
	return r.Package == "" && r.Name == ""
}

// Matches reports whether obj is the referenced type.
func (r TypeRef) Matches(obj *types.TypeName) bool {
	if obj == nil || obj.Pkg() == nil || obj.Name() != r.Name {
		return false
	}
	return MatchPackage(r.Package, obj.Pkg().Path())
}

// MatchPackage reports whether an import path matches a package pattern.
// Patterns without glob metacharacters compare exactly.
func MatchPackage(pattern, path string) bool {
	if !isPattern(pattern) {
		return pattern == path
	}
	ok, err := doublestar.Match(pattern, path)
	return err == nil && ok
}

// MatchAnyPackage reports whether path matches one of the patterns.
func MatchAnyPackage(patterns []string, path string) bool {
	for _, p := range patterns {
		if MatchPackage(p, path) {
			return true
		}
	}
	return false
}

func isPattern(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}
