// SPDX-License-Identifier: MPL-2.0

// Package introspect checks that resource manager types in a Go API client
// library declare precise return types for their retrieval methods.
//
// The check is a discover → classify → verify pipeline over type-checked
// packages:
//
//   - Discoverer enumerates every struct type whose name ends with the
//     manager suffix across the direct child packages of a root import path,
//     skipping types defined in the shared base package(s).
//   - Classifier decides whether a manager embeds a capability mixin anywhere
//     in its embedding chain and reads the resource type from the manager's
//     object-type field.
//   - Verifier compares the declared first result of the capability method
//     against the expected resource type using exact type identity and
//     renders a remediation snippet when they differ.
//
// No code from the target library is executed; everything is read from
// go/types metadata.
//
// File organization:
//   - record.go: Record, Key, RecordSet
//   - namespace.go: Namespace and the submodule predicate
//   - discover.go: Discoverer
//   - typeref.go: TypeRef parsing and doublestar matching
//   - classify.go: Capability, Ancestors, Classifier
//   - verify.go: Verifier, Outcome and diagnostics
//   - remediation.go: remediation templates and built-in capabilities
//   - engine.go: Engine and Report
//   - load.go: go/packages loader and optional type resolution
//
// Package introspecttest provides a type-checked fake client library for
// tests.
package introspect
