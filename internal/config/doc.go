// SPDX-License-Identifier: MPL-2.0

// Package config handles managerlint configuration using Viper with CUE as the
// file format.
//
// A configuration is looked up in this order, first match wins:
//  1. the file given with --config
//  2. config.cue in the user config directory (~/.config/managerlint on Linux,
//     ~/Library/Application Support/managerlint on macOS, %APPDATA%\managerlint
//     on Windows)
//  3. managerlint.cue in the working directory
//
// Files are validated against the embedded CUE schema (config_schema.cue)
// before they are merged over the defaults. Scalar settings can be overridden
// with MANAGERLINT_ environment variables, e.g. MANAGERLINT_UI_FORMAT=json.
package config
