// SPDX-License-Identifier: MPL-2.0

// Command managervet runs the managerlint analyzer as a standalone checker.
//
// Usage:
//
//	managervet -root=example.com/gitlab/objects ./...
//	managervet -config=managerlint.cue -baseline=baseline.toml ./...
//	go vet -vettool=$(which managervet) ./...
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/invowk/managerlint/pkg/managerlint"
)

func main() {
	singlechecker.Main(managerlint.Analyzer)
}
