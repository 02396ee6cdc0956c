// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against an embedded schema and
// decodes them into Go values.
//
// Every load follows the same three steps:
//
//  1. Compile the embedded schema and look up its root definition
//  2. Compile the user document and unify it with the definition
//  3. Validate and decode
//
// # Usage
//
//	//go:embed config_schema.cue
//	var schema []byte
//
//	res, err := cueutil.ParseAndDecode[map[string]any](
//	    schema, data, "#Config",
//	    cueutil.WithFilename(path),
//	    cueutil.WithConcrete(false),
//	)
//
// Errors carry the document path of the offending value, e.g.
// "managerlint.cue: capabilities[1].base: invalid value".
package cueutil
