// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"go/token"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/invowk/managerlint/pkg/introspect"
)

const (
	// FormatText prints a styled report for terminals.
	FormatText OutputFormat = "text"
	// FormatJSON prints one JSON document.
	FormatJSON OutputFormat = "json"
	// FormatMarkdown prints Markdown, rendered with glamour on a terminal.
	FormatMarkdown OutputFormat = "markdown"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultOptionalType names the generic wrapper for absent results.
	DefaultOptionalType TypeRef = introspect.DefaultBasePattern + ".Optional"
)

var (
	// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidPackagePattern is returned for a malformed doublestar pattern.
	ErrInvalidPackagePattern = errors.New("invalid package pattern")
	// ErrInvalidIdentifier is returned for a field or method name that is not
	// a Go identifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrInvalidCapability is the sentinel error wrapped by InvalidCapabilityError.
	ErrInvalidCapability = errors.New("invalid capability")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	identRE          = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	capabilityNameRE = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
)

type (
	// OutputFormat selects how check reports are printed.
	OutputFormat string

	// InvalidOutputFormatError is returned when an OutputFormat value is not recognized.
	InvalidOutputFormatError struct {
		Value OutputFormat
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// TypeRef is a "<package pattern>.<Type>" reference, see introspect.ParseTypeRef.
	TypeRef string

	// InvalidPackagePatternError reports a malformed exclude pattern.
	InvalidPackagePatternError struct {
		Field   string
		Pattern string
	}

	// InvalidIdentifierError reports a name that must be a Go identifier.
	InvalidIdentifierError struct {
		Field string
		Value string
	}

	// InvalidCapabilityError collects the field errors of one capability.
	InvalidCapabilityError struct {
		Name        string
		FieldErrors []error
	}

	// InvalidConfigError collects field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// NamespaceConfig selects the packages to discover managers in.
	NamespaceConfig struct {
		// Root is the import path whose child packages are checked. Empty
		// means the import path of the checked directory.
		Root string `json:"root" mapstructure:"root"`
		// Recursive checks every descendant package instead of direct children.
		Recursive bool `json:"recursive" mapstructure:"recursive"`
		// Suffix identifies manager types by name.
		Suffix string `json:"suffix" mapstructure:"suffix"`
		// Exclude lists package patterns whose types are never checked.
		Exclude []string `json:"exclude" mapstructure:"exclude"`
	}

	// CapabilityConfig declares one capability to verify.
	CapabilityConfig struct {
		Name string `json:"name" mapstructure:"name"`
		// Base is the mixin type that grants the capability.
		Base TypeRef `json:"base" mapstructure:"base"`
		// Method defaults to "Get".
		Method       string `json:"method" mapstructure:"method"`
		AllowsAbsent bool   `json:"allows_absent" mapstructure:"allows_absent"`
		// Template is a text/template for the remediation snippet. Empty
		// selects the built-in one.
		Template string   `json:"template" mapstructure:"template"`
		Imports  []string `json:"imports" mapstructure:"imports"`
	}

	// UIConfig configures report output.
	UIConfig struct {
		Format      OutputFormat `json:"format" mapstructure:"format"`
		Verbose     bool         `json:"verbose" mapstructure:"verbose"`
		ColorScheme ColorScheme  `json:"color_scheme" mapstructure:"color_scheme"`
	}

	// Config holds the application configuration.
	Config struct {
		Namespace NamespaceConfig `json:"namespace" mapstructure:"namespace"`
		// ObjectField is the manager field declaring the resource type.
		ObjectField string `json:"object_field" mapstructure:"object_field"`
		// OptionalType is the generic wrapper for capabilities that allow
		// absent results.
		OptionalType TypeRef `json:"optional_type" mapstructure:"optional_type"`
		// Capabilities replaces the built-in capabilities when non-empty.
		Capabilities []CapabilityConfig `json:"capabilities" mapstructure:"capabilities"`
		// Baseline is a TOML file of accepted findings.
		Baseline string   `json:"baseline" mapstructure:"baseline"`
		UI       UIConfig `json:"ui" mapstructure:"ui"`
		// Jobs bounds concurrent checks. Zero means GOMAXPROCS.
		Jobs int `json:"jobs" mapstructure:"jobs"`

		// Source is the file the configuration was read from, if any.
		Source string `json:"-" mapstructure:"-"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Namespace: NamespaceConfig{
			Suffix:  introspect.DefaultManagerSuffix,
			Exclude: []string{introspect.DefaultBasePattern},
		},
		ObjectField:  introspect.DefaultObjectField,
		OptionalType: DefaultOptionalType,
		Capabilities: DefaultCapabilities(),
		UI: UIConfig{
			Format:      FormatText,
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// DefaultCapabilities returns the configuration form of the built-in
// capabilities.
func DefaultCapabilities() []CapabilityConfig {
	builtins := introspect.DefaultCapabilities()
	out := make([]CapabilityConfig, len(builtins))
	for i, c := range builtins {
		out[i] = CapabilityConfig{Name: c.Name, Base: TypeRef(c.Base.String()), Method: c.Method}
	}
	return out
}

// Error implements the error interface.
func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: text, json, markdown)", e.Value)
}

// Unwrap returns ErrInvalidOutputFormat for errors.Is.
func (e *InvalidOutputFormatError) Unwrap() error { return ErrInvalidOutputFormat }

// String returns the string representation of the OutputFormat.
func (f OutputFormat) String() string { return string(f) }

// IsValid returns whether the OutputFormat is one of the defined formats.
func (f OutputFormat) IsValid() (bool, []error) {
	switch f {
	case FormatText, FormatJSON, FormatMarkdown:
		return true, nil
	default:
		return false, []error{&InvalidOutputFormatError{Value: f}}
	}
}

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined schemes.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Parse parses the reference.
func (r TypeRef) Parse() (introspect.TypeRef, error) {
	return introspect.ParseTypeRef(string(r))
}

// IsValid returns whether the reference parses.
func (r TypeRef) IsValid() (bool, []error) {
	if _, err := r.Parse(); err != nil {
		return false, []error{err}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidPackagePatternError) Error() string {
	return fmt.Sprintf("%s: invalid package pattern %q", e.Field, e.Pattern)
}

// Unwrap returns ErrInvalidPackagePattern for errors.Is.
func (e *InvalidPackagePatternError) Unwrap() error { return ErrInvalidPackagePattern }

// Error implements the error interface.
func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("%s: %q is not a Go identifier", e.Field, e.Value)
}

// Unwrap returns ErrInvalidIdentifier for errors.Is.
func (e *InvalidIdentifierError) Unwrap() error { return ErrInvalidIdentifier }

// Error implements the error interface.
func (e *InvalidCapabilityError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("capability %q: %s", e.Name, strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidCapability for errors.Is.
func (e *InvalidCapabilityError) Unwrap() error { return ErrInvalidCapability }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// IsValid returns whether the namespace settings are usable.
func (n NamespaceConfig) IsValid() (bool, []error) {
	var errs []error
	if n.Suffix != "" && !identRE.MatchString(n.Suffix) {
		errs = append(errs, &InvalidIdentifierError{Field: "namespace.suffix", Value: n.Suffix})
	}
	for _, p := range n.Exclude {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, &InvalidPackagePatternError{Field: "namespace.exclude", Pattern: p})
		}
	}
	return len(errs) == 0, errs
}

// IsValid returns whether the capability can be compiled.
func (c CapabilityConfig) IsValid() (bool, []error) {
	var errs []error
	if !capabilityNameRE.MatchString(c.Name) {
		errs = append(errs, fmt.Errorf("name %q must be lower-case kebab-case", c.Name))
	}
	if valid, fieldErrs := c.Base.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.Method != "" && !identRE.MatchString(c.Method) {
		errs = append(errs, &InvalidIdentifierError{Field: "method", Value: c.Method})
	}
	if c.Template != "" {
		if _, err := introspect.NewTemplate(c.Name, c.Template); err != nil {
			errs = append(errs, fmt.Errorf("template: %w", err))
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidCapabilityError{Name: c.Name, FieldErrors: errs}}
	}
	return true, nil
}

// IsValid returns whether the UI settings are valid.
func (u UIConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := u.Format.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := u.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	return len(errs) == 0, errs
}

// IsValid validates every section and checks constraints the schema cannot
// express: parsable type references and unique capability names.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Namespace.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.ObjectField != "" && !identRE.MatchString(c.ObjectField) {
		errs = append(errs, &InvalidIdentifierError{Field: "object_field", Value: c.ObjectField})
	}
	if c.OptionalType != "" {
		if valid, fieldErrs := c.OptionalType.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	seen := make(map[string]bool, len(c.Capabilities))
	for _, capb := range c.Capabilities {
		if seen[capb.Name] {
			errs = append(errs, fmt.Errorf("capabilities: duplicate name %q", capb.Name))
		}
		seen[capb.Name] = true
		if valid, fieldErrs := capb.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if valid, fieldErrs := c.UI.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.Jobs < 0 {
		errs = append(errs, fmt.Errorf("jobs: must not be negative, got %d", c.Jobs))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Validate is IsValid returning a single error.
func (c Config) Validate() error {
	if valid, errs := c.IsValid(); !valid {
		return errs[0]
	}
	return nil
}

// BuildCapabilities compiles the configured capabilities. An empty list
// yields the built-ins.
func (c Config) BuildCapabilities() ([]introspect.Capability, error) {
	if len(c.Capabilities) == 0 {
		return introspect.DefaultCapabilities(), nil
	}
	out := make([]introspect.Capability, 0, len(c.Capabilities))
	for _, cc := range c.Capabilities {
		base, err := cc.Base.Parse()
		if err != nil {
			return nil, &InvalidCapabilityError{Name: cc.Name, FieldErrors: []error{err}}
		}
		capb := introspect.Capability{
			Name:         cc.Name,
			Base:         base,
			Method:       cc.Method,
			AllowsAbsent: cc.AllowsAbsent,
			Imports:      cc.Imports,
		}
		if capb.Method == "" {
			capb.Method = introspect.DefaultMethod
		}
		if cc.Template == "" {
			capb.Template = introspect.DefaultTemplate(cc.Name)
		} else if capb.Template, err = introspect.NewTemplate(cc.Name, cc.Template); err != nil {
			return nil, &InvalidCapabilityError{Name: cc.Name, FieldErrors: []error{err}}
		}
		out = append(out, capb)
	}
	return out, nil
}

// Discoverer returns a discoverer for the namespace settings.
func (c Config) Discoverer(fset *token.FileSet) *introspect.Discoverer {
	d := introspect.NewDiscoverer(fset)
	if c.Namespace.Suffix != "" {
		d.Suffix = c.Namespace.Suffix
	}
	if c.Namespace.Exclude != nil {
		d.Exclude = c.Namespace.Exclude
	}
	return d
}

// Classifier returns a classifier for the configured suffix and object field.
func (c Config) Classifier() *introspect.Classifier {
	cl := introspect.NewClassifier()
	if c.Namespace.Suffix != "" {
		cl.Suffix = c.Namespace.Suffix
	}
	if c.ObjectField != "" {
		cl.ObjectField = c.ObjectField
	}
	return cl
}

// Verifier returns a verifier whose optional wrapper is resolved in ns when
// any capability needs it. A wrapper that cannot be resolved is left nil, so
// the affected records report ErrUnresolvedOptional individually.
func (c Config) Verifier(ns introspect.Namespace, caps []introspect.Capability) (*introspect.Verifier, error) {
	ref := c.OptionalType
	if ref == "" {
		ref = DefaultOptionalType
	}
	parsed, err := ref.Parse()
	if err != nil {
		return nil, err
	}
	v := &introspect.Verifier{OptionalRef: parsed}
	for _, capb := range caps {
		if capb.AllowsAbsent {
			v.Optional, _ = introspect.FindOptional(parsed, ns)
			break
		}
	}
	return v, nil
}

// Engine assembles a check engine for ns.
func (c Config) Engine(ns introspect.Namespace, fset *token.FileSet) (*introspect.Engine, error) {
	caps, err := c.BuildCapabilities()
	if err != nil {
		return nil, err
	}
	v, err := c.Verifier(ns, caps)
	if err != nil {
		return nil, err
	}
	return &introspect.Engine{
		Discoverer:   c.Discoverer(fset),
		Classifier:   c.Classifier(),
		Verifier:     v,
		Capabilities: caps,
		Jobs:         c.Jobs,
	}, nil
}
