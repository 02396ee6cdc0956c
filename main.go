// SPDX-License-Identifier: MPL-2.0

// Command managerlint checks that the managers of an API client library
// declare retrieval methods returning their object types.
package main

import cmd "github.com/invowk/managerlint/cmd/managerlint"

func main() {
	cmd.Execute()
}
