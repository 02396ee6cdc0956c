// SPDX-License-Identifier: MPL-2.0

// Package managerlint implements a go/analysis analyzer that checks manager
// types of an API client library: a manager embedding a retrieval mixin must
// declare a retrieval method whose result is the manager's object type (or
// the optional wrapper of it), not the generic object the mixin returns.
//
// Each analyzed package that is a submodule of the configured namespace root
// is checked on its own. Only types defined in the package are reported;
// re-exports are reported where they are defined. Findings listed in a
// baseline TOML file are suppressed. Diagnostics carry the remediation
// method in their message and never edit the checked sources.
package managerlint

import (
	"context"

	"golang.org/x/tools/go/analysis"

	"github.com/invowk/managerlint/internal/config"
	"github.com/invowk/managerlint/pkg/introspect"
)

// Diagnostic category constants for structured JSON output. They appear in
// the "category" field of analysis.Diagnostic when using -json mode.
const (
	CategoryReturnTypeMismatch = "return-type-mismatch"
	CategoryMissingObjectType  = "missing-object-type"
	CategoryUnresolvedOptional = "unresolved-optional"
)

// Flag binding variables for the analyzer's flag set. run() reads them once
// via newRunConfig().
var (
	configPath   string
	baselinePath string
	root         string
	recursive    bool
	suffix       string
)

// Analyzer is the managerlint analysis pass. Use it with singlechecker or
// multichecker, or via go vet -vettool.
var Analyzer = &analysis.Analyzer{
	Name: "managerlint",
	Doc:  "reports managers whose retrieval method does not return the managed object type",
	URL:  "https://github.com/invowk/managerlint",
	Run:  run,
}

func init() {
	Analyzer.Flags.StringVar(&configPath, "config", "",
		"path to a managerlint CUE config file (default: built-in settings)")
	Analyzer.Flags.StringVar(&baselinePath, "baseline", "",
		"path to baseline TOML file (suppress known findings, report only new ones)")
	Analyzer.Flags.StringVar(&root, "root", "",
		"import path whose child packages are checked (default: every package)")
	Analyzer.Flags.BoolVar(&recursive, "recursive", false,
		"check every package below -root instead of its direct children")
	Analyzer.Flags.StringVar(&suffix, "suffix", "",
		"type name suffix identifying managers (default \"Manager\")")
}

// runConfig holds the resolved flag values for a single run() invocation.
type runConfig struct {
	configPath   string
	baselinePath string
	root         string
	recursive    bool
	suffix       string
}

func newRunConfig() runConfig {
	return runConfig{
		configPath:   configPath,
		baselinePath: baselinePath,
		root:         root,
		recursive:    recursive,
		suffix:       suffix,
	}
}

// resolve loads the config file, if any, and applies flag overrides.
func (rc runConfig) resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if rc.configPath != "" {
		loaded, err := config.NewProvider().Load(context.Background(), config.LoadOptions{ConfigFilePath: rc.configPath})
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if rc.root != "" {
		cfg.Namespace.Root = rc.root
	}
	if rc.recursive {
		cfg.Namespace.Recursive = true
	}
	if rc.baselinePath != "" {
		cfg.Baseline = rc.baselinePath
	}
	if rc.suffix != "" {
		cfg.Namespace.Suffix = rc.suffix
	}
	return cfg, cfg.Validate()
}

func run(pass *analysis.Pass) (any, error) {
	rc := newRunConfig()

	cfg, err := rc.resolve()
	if err != nil {
		return nil, err
	}

	ns := introspect.NewNamespace(cfg.Namespace.Root, cfg.Namespace.Recursive, pass.Pkg)
	if !ns.IsSubmodule(pass.Pkg.Path()) {
		return nil, nil
	}

	bl, err := LoadBaseline(cfg.Baseline)
	if err != nil {
		return nil, err
	}

	eng, err := cfg.Engine(ns, pass.Fset)
	if err != nil {
		return nil, err
	}
	// The driver already analyzes packages concurrently.
	eng.Jobs = 1

	records := eng.Discoverer.DiscoverPackage(pass.Pkg, true).Sorted()
	if len(records) == 0 {
		return nil, nil
	}
	report, err := eng.Check(context.Background(), records)
	if err != nil {
		return nil, err
	}

	for _, o := range report.Failed() {
		f := NewFinding(o)
		if bl.Contains(f) {
			continue
		}
		d := analysis.Diagnostic{
			Pos:      o.Record.Type.Pos(),
			Category: f.Category,
			Message:  o.Message,
			URL:      DiagnosticURLForFinding(f.ID),
		}
		pass.Report(d)
	}

	return nil, nil
}
