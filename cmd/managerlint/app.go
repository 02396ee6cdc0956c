// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/invowk/managerlint/internal/config"
	"github.com/invowk/managerlint/internal/issue"
	"github.com/invowk/managerlint/pkg/introspect"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root for
	// the CLI layer: all Cobra command handlers receive an App reference and delegate
	// loading and checking through its service interfaces.
	App struct {
		Config ConfigProvider
		Loader PackageLoader
		stdout io.Writer
		stderr io.Writer

		// Bound to the persistent --config and --verbose flags.
		configPath string
		verbose    bool
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp. Tests can supply fakes to avoid
	// invoking the go command.
	Dependencies struct {
		Config ConfigProvider
		Loader PackageLoader
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// PackageLoader type-checks the packages of a directory.
	PackageLoader interface {
		Load(ctx context.Context, opts introspect.LoadOptions) (*introspect.Loaded, error)
	}

	// CheckRequest captures the inputs shared by check, list and baseline write.
	// Zero values leave the configured setting untouched.
	CheckRequest struct {
		Dir          string
		Root         string
		Recursive    bool
		Jobs         int
		Baseline     string
		Capabilities []string
	}

	// session is a loaded namespace with the engine configured for it.
	session struct {
		cfg    *config.Config
		ns     introspect.Namespace
		engine *introspect.Engine
	}

	goPackageLoader struct{}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Loader == nil {
		deps.Loader = goPackageLoader{}
	}

	return &App{
		Config: deps.Config,
		Loader: deps.Loader,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}, nil
}

func (goPackageLoader) Load(ctx context.Context, opts introspect.LoadOptions) (*introspect.Loaded, error) {
	return introspect.Load(ctx, opts)
}

// logger returns the CLI logger. Library packages only log at debug level,
// so their output appears with --verbose alone.
func (a *App) logger() *log.Logger {
	l := log.NewWithOptions(a.stderr, log.Options{Prefix: config.AppName})
	if a.verbose {
		l.SetLevel(log.DebugLevel)
	}
	return l
}

// loadConfig loads configuration for dir, honoring --config and the config
// file's ui.verbose setting.
func (a *App) loadConfig(ctx context.Context, dir string) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configPath, WorkDir: dir})
	if err != nil {
		return nil, err
	}
	if cfg.UI.Verbose {
		a.verbose = true
	}
	return cfg, nil
}

// prepare loads configuration and packages for req and assembles the engine.
func (a *App) prepare(ctx context.Context, req CheckRequest) (*session, error) {
	cfg, err := a.loadConfig(ctx, req.Dir)
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg, req)
	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("apply command line flags").
			WithSuggestion("Check the --root, --jobs and --capability values").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	logger := a.logger()
	logger.Debug("loading packages", "dir", displayDir(req.Dir))

	loaded, err := a.Loader.Load(ctx, introspect.LoadOptions{Dir: req.Dir})
	if isPartialLoad(loaded, err) {
		logger.Warn("some packages failed to load, their managers may be misreported", "err", err)
		err = nil
	}
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load packages").
			WithResource(displayDir(req.Dir)).
			WithSuggestions(
				"Run 'go build ./...' in the directory to see the compiler errors",
				"Make sure the directory is inside a Go module",
			).
			WithIssue(issue.PackageLoadFailedId).
			Wrap(err).
			BuildError()
	}

	ns := loaded.Namespace(cfg.Namespace.Root, cfg.Namespace.Recursive)
	if ns.Root == "" {
		return nil, issue.NewErrorContext().
			WithOperation("determine the namespace root").
			WithResource(displayDir(req.Dir)).
			WithSuggestion("Pass --root with the import path of the package that holds the managers").
			WithIssue(issue.NoManagersFoundId).
			BuildError()
	}

	eng, err := cfg.Engine(ns, loaded.Fset)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("build capabilities").
			WithIssue(issue.InvalidTypeRefId).
			Wrap(err).
			BuildError()
	}
	eng.Logger = logger
	eng.Discoverer.Logger = logger

	if eng.Capabilities, err = filterCapabilities(eng.Capabilities, req.Capabilities); err != nil {
		return nil, err
	}
	for _, c := range eng.Capabilities {
		if c.AllowsAbsent && eng.Verifier.Optional == nil {
			logger.Warn("optional type not found, checks that allow absent results will error",
				"capability", c.Name, "optional_type", eng.Verifier.OptionalRef.String())
		}
	}

	logger.Debug("namespace ready", "root", ns.Root, "recursive", ns.Recursive, "members", len(ns.Members))
	return &session{cfg: cfg, ns: ns, engine: eng}, nil
}

// run discovers and checks the managers of the session namespace.
func (s *session) run(ctx context.Context) (introspect.Report, error) {
	return s.engine.Run(ctx, s.ns)
}

func applyOverrides(cfg *config.Config, req CheckRequest) {
	if req.Root != "" {
		cfg.Namespace.Root = req.Root
	}
	if req.Recursive {
		cfg.Namespace.Recursive = true
	}
	if req.Jobs != 0 {
		cfg.Jobs = req.Jobs
	}
	if req.Baseline != "" {
		cfg.Baseline = req.Baseline
	}
}

// filterCapabilities keeps the named capabilities, in configuration order.
func filterCapabilities(caps []introspect.Capability, names []string) ([]introspect.Capability, error) {
	if len(names) == 0 {
		return caps, nil
	}
	known := make([]string, 0, len(caps))
	for _, c := range caps {
		known = append(known, c.Name)
	}
	for _, n := range names {
		if !slices.Contains(known, n) {
			return nil, issue.NewErrorContext().
				WithOperation("select capabilities").
				WithResource(n).
				WithSuggestion("Known capabilities: " + strings.Join(known, ", ")).
				Wrap(fmt.Errorf("%w: unknown capability %q", config.ErrInvalidCapability, n)).
				BuildError()
		}
	}
	return slices.DeleteFunc(slices.Clone(caps), func(c introspect.Capability) bool {
		return !slices.Contains(names, c.Name)
	}), nil
}

func displayDir(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

// isPartialLoad reports whether err only describes broken packages while a
// result was still produced.
func isPartialLoad(loaded *introspect.Loaded, err error) bool {
	var le *introspect.LoadError
	return loaded != nil && errors.As(err, &le)
}
