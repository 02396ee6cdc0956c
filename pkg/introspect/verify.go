// SPDX-License-Identifier: MPL-2.0

package introspect

import (
	"errors"
	"fmt"
	"go/types"
)

const (
	// StatusSkipped marks a capability that does not apply to the record.
	StatusSkipped Status = iota
	// StatusPassed marks a declared type that matches the expected one.
	StatusPassed
	// StatusFailed marks a return type mismatch.
	StatusFailed
	// StatusError marks a record that could not be checked at all.
	StatusError
)

// noneType is printed in place of a declared type when the method is
// missing or has no results.
const noneType = "<none>"

var (
	// ErrReturnTypeMismatch is the sentinel error wrapped by MismatchError.
	ErrReturnTypeMismatch = errors.New("return type mismatch")
	// ErrUnresolvedOptional is returned when a capability allows an absent
	// result but the optional wrapper type was not found.
	ErrUnresolvedOptional = errors.New("optional wrapper type not resolved")
)

type (
	// Status is the verdict for one (record, capability) pair.
	Status int

	// Outcome is the result of verifying one record against one capability.
	Outcome struct {
		Record     Record
		Capability string
		Status     Status
		// Expected and Declared are nil for skipped outcomes. Declared is also
		// nil when the method is missing.
		Expected types.Type
		Declared types.Type
		// Message is the full diagnostic for failed and errored outcomes.
		Message string
		// Err is a *MismatchError, *MissingObjectTypeError or
		// *UnresolvedOptionalError for non-passing outcomes.
		Err error
	}

	// MismatchError is a return type mismatch with its rendered diagnostic.
	MismatchError struct {
		Record     Record
		Capability string
		Method     string
		Expected   types.Type
		Declared   types.Type
		Message    string
		// Snippet is the rendered remediation method and Imports the import
		// paths it refers to besides the manager's package.
		Snippet string
		Imports []string
	}

	// UnresolvedOptionalError reports a capability that allows absent results
	// while no optional wrapper type is available.
	UnresolvedOptionalError struct {
		Record     Record
		Capability string
		Optional   TypeRef
	}

	// Verifier compares declared retrieval method results against the
	// expectation computed by a Classifier.
	Verifier struct {
		// Optional is the generic wrapper used for capabilities that allow
		// absent results. It must have exactly one type parameter.
		Optional *types.Named
		// OptionalRef names the wrapper in error messages.
		OptionalRef TypeRef
	}
)

// String returns the lower-case status name.
func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Failed reports whether the outcome is a mismatch or an error.
func (o Outcome) Failed() bool {
	return o.Status == StatusFailed || o.Status == StatusError
}

// DeclaredString returns the declared type qualified by package name, or
// "<none>" when no method result was found.
func (o Outcome) DeclaredString() string {
	if o.Declared == nil {
		return noneType
	}
	return types.TypeString(o.Declared, nameQualifier)
}

// ExpectedString returns the expected type qualified by package name.
func (o Outcome) ExpectedString() string {
	if o.Expected == nil {
		return ""
	}
	return types.TypeString(o.Expected, nameQualifier)
}

// Error returns the full diagnostic.
func (e *MismatchError) Error() string { return e.Message }

// Unwrap returns ErrReturnTypeMismatch for errors.Is.
func (e *MismatchError) Unwrap() error { return ErrReturnTypeMismatch }

// Error implements the error interface.
func (e *UnresolvedOptionalError) Error() string {
	ref := e.Optional.String()
	if e.Optional.IsZero() {
		ref = "(unset)"
	}
	return fmt.Sprintf("type %s: capability %s allows absent results but optional type %s was not found",
		e.Record.Key(), e.Capability, ref)
}

// Unwrap returns ErrUnresolvedOptional for errors.Is.
func (e *UnresolvedOptionalError) Unwrap() error { return ErrUnresolvedOptional }

// Verify checks the declared first result of capb.Method on rec against exp.
// Inapplicable expectations are skipped. The method is looked up in the
// method set of *T, so methods promoted from embedded mixins count as
// declared by the manager.
func (v *Verifier) Verify(rec Record, exp Expectation, capb Capability) Outcome {
	out := Outcome{Record: rec, Capability: capb.Name}
	named := rec.Named()
	if !exp.Applicable || exp.Resource == nil || named == nil {
		out.Status = StatusSkipped
		return out
	}

	expected := exp.Resource
	if exp.AllowsAbsent {
		wrapped, err := v.wrap(exp.Resource)
		if err != nil {
			uerr := &UnresolvedOptionalError{Record: rec, Capability: capb.Name, Optional: v.OptionalRef}
			out.Status = StatusError
			out.Err = uerr
			out.Message = uerr.Error()
			return out
		}
		expected = wrapped
	}
	out.Expected = expected

	method := lookupMethod(named, capb.Method)
	if method != nil {
		if res := method.Signature().Results(); res.Len() > 0 {
			out.Declared = res.At(0).Type()
		}
	}

	if out.Declared != nil && types.Identical(out.Declared, expected) {
		out.Status = StatusPassed
		return out
	}

	data := remediationData(named, exp, capb, expected, method, v.Optional)
	snippet := renderSnippet(capb, data)
	out.Status = StatusFailed
	out.Message = mismatchMessage(rec, capb.Method, out.ExpectedString(), out.DeclaredString(),
		renderRemediation(snippet, data.Imports))
	out.Err = &MismatchError{
		Record:     rec,
		Capability: capb.Name,
		Method:     capb.Method,
		Expected:   expected,
		Declared:   out.Declared,
		Message:    out.Message,
		Snippet:    snippet,
		Imports:    data.Imports,
	}
	return out
}

func (v *Verifier) wrap(res types.Type) (types.Type, error) {
	if v.Optional == nil {
		return nil, ErrUnresolvedOptional
	}
	return types.Instantiate(nil, v.Optional, []types.Type{res}, true)
}

// lookupMethod returns the method name in the method set of *named, or nil
// when it is missing, ambiguous or shadowed by a field.
func lookupMethod(named *types.Named, name string) *types.Func {
	obj, _, _ := types.LookupFieldOrMethod(types.NewPointer(named), false, named.Obj().Pkg(), name)
	fn, _ := obj.(*types.Func)
	return fn
}

func mismatchMessage(rec Record, method, expected, declared, remediation string) string {
	file := rec.Position.Filename
	if file == "" {
		file = "<unknown>"
	}
	return fmt.Sprintf("type definition for %q in file %q must define a %q method returning %s but found %s\n"+
		"Recommend adding the following method:\n\n%s",
		rec.Name, file, method, expected, declared, remediation)
}
