// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and the catalog of issues the
// checker can report.
//
// ActionableError carries the failed operation, the resource involved and
// suggestions for fixing it. When it refers to a catalog Issue, the CLI
// points at "managerlint explain <name>", which renders the issue's
// Markdown guidance with glamour.
package issue
