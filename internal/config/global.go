// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride allows tests to override the config directory without
// touching HOME or XDG_CONFIG_HOME.
var configDirOverride string

// Reset clears test overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride sets a custom config directory path.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
