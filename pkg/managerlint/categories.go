// SPDX-License-Identifier: MPL-2.0

package managerlint

import (
	"errors"

	"github.com/invowk/managerlint/pkg/introspect"
)

// BaselinePolicy describes how a diagnostic category is treated by
// baseline generation and suppression.
type BaselinePolicy int

const (
	// BaselineSuppressible categories are included in baseline TOML and can
	// be suppressed by baseline matching.
	BaselineSuppressible BaselinePolicy = iota
	// BaselineAlwaysVisible categories are never baselined. They point at
	// configuration problems rather than at the checked code.
	BaselineAlwaysVisible
)

// CategorySpec is the canonical metadata for one diagnostic category.
type CategorySpec struct {
	Name           string
	BaselinePolicy BaselinePolicy
	// BaselineLabel is the section comment written to baseline TOML.
	BaselineLabel string
}

// diagnosticCategoryRegistry is the canonical category list. The names
// double as issue names for 'managerlint explain'.
var diagnosticCategoryRegistry = []CategorySpec{
	{Name: CategoryReturnTypeMismatch, BaselinePolicy: BaselineSuppressible, BaselineLabel: "Retrieval methods with a mismatched return type"},
	{Name: CategoryMissingObjectType, BaselinePolicy: BaselineSuppressible, BaselineLabel: "Managers without an object type field"},
	{Name: CategoryUnresolvedOptional, BaselinePolicy: BaselineAlwaysVisible},
}

// Categories returns the registry in canonical order.
func Categories() []CategorySpec {
	out := make([]CategorySpec, len(diagnosticCategoryRegistry))
	copy(out, diagnosticCategoryRegistry)
	return out
}

// BaselinedCategoryNames returns the names of the suppressible categories.
func BaselinedCategoryNames() []string {
	specs := suppressibleCategorySpecs()
	out := make([]string, 0, len(specs))
	for _, spec := range specs {
		out = append(out, spec.Name)
	}
	return out
}

// IsSuppressible reports whether findings of category may be baselined.
func IsSuppressible(category string) bool {
	for _, spec := range diagnosticCategoryRegistry {
		if spec.Name == category {
			return spec.BaselinePolicy == BaselineSuppressible
		}
	}
	return false
}

func suppressibleCategorySpecs() []CategorySpec {
	out := make([]CategorySpec, 0, len(diagnosticCategoryRegistry))
	for _, spec := range diagnosticCategoryRegistry {
		if spec.BaselinePolicy == BaselineSuppressible {
			out = append(out, spec)
		}
	}
	return out
}

// CategoryOf maps a failed or errored outcome to its category.
func CategoryOf(o introspect.Outcome) string {
	switch {
	case errors.Is(o.Err, introspect.ErrMissingObjectType):
		return CategoryMissingObjectType
	case errors.Is(o.Err, introspect.ErrUnresolvedOptional):
		return CategoryUnresolvedOptional
	default:
		return CategoryReturnTypeMismatch
	}
}
