// SPDX-License-Identifier: MPL-2.0

package conformance

import (
	"go/token"

	"github.com/charmbracelet/log"

	"github.com/invowk/managerlint/pkg/introspect"
)

// Option configures a Suite.
type Option func(*Suite)

// WithCapabilities replaces the built-in capabilities.
func WithCapabilities(caps ...introspect.Capability) Option {
	return func(s *Suite) {
		s.capabilities = caps
	}
}

// WithOptional names the generic wrapper used by capabilities that allow
// absent results. It is resolved among the namespace members.
func WithOptional(ref introspect.TypeRef) Option {
	return func(s *Suite) {
		s.optionalRef = ref
	}
}

// WithDiscoverer replaces the default discoverer. Its file set is kept
// unless the discoverer brings its own.
func WithDiscoverer(d *introspect.Discoverer) Option {
	return func(s *Suite) {
		s.discoverer = d
	}
}

// WithClassifier replaces the default classifier.
func WithClassifier(c *introspect.Classifier) Option {
	return func(s *Suite) {
		s.classifier = c
	}
}

// WithFileSet sets the file set used to report declaration positions.
func WithFileSet(fset *token.FileSet) Option {
	return func(s *Suite) {
		s.fset = fset
	}
}

// WithLogger sets the logger for discovery debug output.
func WithLogger(l *log.Logger) Option {
	return func(s *Suite) {
		s.logger = l
	}
}
