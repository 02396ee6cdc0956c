// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invowk/managerlint/internal/config"
	"github.com/invowk/managerlint/internal/issue"
	"github.com/invowk/managerlint/internal/watch"
	"github.com/invowk/managerlint/pkg/managerlint"
)

// newCheckCommand creates the `managerlint check` command.
func newCheckCommand(app *App) *cobra.Command {
	var (
		req       CheckRequest
		format    string
		watchMode bool
	)
	checkCmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "Verify the retrieval methods of all managers",
		Long: `Verify the retrieval methods of all managers.

The packages of dir (default: the current directory) are loaded with their
dependencies. Every manager below the namespace root is classified by the
mixins it embeds and its Get method is compared with its objCls field.

The command exits with status 1 when any manager fails a check that is not
listed in the baseline.

With --watch the check is repeated whenever a Go source, go.mod, go.sum or
configuration file below dir changes, until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				req.Dir = args[0]
			}
			if watchMode {
				return app.watchCheck(cmd.Context(), req, config.OutputFormat(format))
			}
			return app.runCheck(cmd.Context(), req, config.OutputFormat(format))
		},
	}

	addNamespaceFlags(checkCmd, &req)
	checkCmd.Flags().StringVar(&format, "format", "", "output format: text, json or markdown (default from config)")
	checkCmd.Flags().StringVar(&req.Baseline, "baseline", "", "TOML baseline of accepted findings")
	checkCmd.Flags().IntVarP(&req.Jobs, "jobs", "j", 0, "number of concurrent checks (default GOMAXPROCS)")
	checkCmd.Flags().StringSliceVar(&req.Capabilities, "capability", nil, "only check the named capabilities (repeatable)")
	checkCmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "re-run the check when sources change")

	return checkCmd
}

// addNamespaceFlags registers the flags that select the managers to inspect.
func addNamespaceFlags(cmd *cobra.Command, req *CheckRequest) {
	cmd.Flags().StringVar(&req.Root, "root", "", "import path of the namespace root (default: the package of dir)")
	cmd.Flags().BoolVarP(&req.Recursive, "recursive", "r", false, "include packages nested below the direct children of the root")
}

func (a *App) runCheck(ctx context.Context, req CheckRequest, format config.OutputFormat) error {
	if format != "" {
		if ok, errs := format.IsValid(); !ok {
			return errs[0]
		}
	}

	s, err := a.prepare(ctx, req)
	if err != nil {
		return err
	}
	if format == "" {
		format = s.cfg.UI.Format
	}

	bl, err := loadBaseline(s.cfg.Baseline)
	if err != nil {
		return err
	}

	report, err := s.run(ctx)
	if err != nil {
		return err
	}
	if len(report.Records) == 0 {
		a.logger().Warn("no managers found", "root", s.ns.Root, "recursive", s.ns.Recursive,
			"hint", "managerlint explain no-managers-found")
	}

	res := newCheckResult(s.ns.Root, report, bl)
	if err := renderResult(a.stdout, res, format, s.cfg.UI.ColorScheme); err != nil {
		return err
	}
	if res.Failed() {
		return &ExitError{Code: ExitFindings}
	}
	return nil
}

// watchCheck runs the check once, then again after every change below
// req.Dir until ctx is canceled. Findings do not end the loop.
func (a *App) watchCheck(ctx context.Context, req CheckRequest, format config.OutputFormat) error {
	rerun := func(ctx context.Context) error {
		err := a.runCheck(ctx, req, format)
		var exitErr *ExitError
		if errors.As(err, &exitErr) && exitErr.Err == nil {
			return nil
		}
		return err
	}
	if err := rerun(ctx); err != nil {
		// Configuration and load errors are reported but may be fixed while watching.
		fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, a.verbose))
	}

	logger := a.logger()
	w, err := watch.New(watch.Config{
		Dir:    req.Dir,
		Logger: logger,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(a.stdout, "\n%s %s\n\n", SubtitleStyle.Render("changed:"), strings.Join(changed, ", "))
			return rerun(ctx)
		},
	})
	if err != nil {
		return err
	}
	logger.Info("watching for changes", "dir", displayDir(req.Dir))
	return w.Run(ctx)
}

func loadBaseline(path string) (*managerlint.Baseline, error) {
	bl, err := managerlint.LoadBaseline(path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load baseline").
			WithResource(path).
			WithSuggestion("Regenerate it with 'managerlint baseline write " + path + "'").
			WithIssue(issue.BaselineLoadFailedId).
			Wrap(err).
			BuildError()
	}
	return bl, nil
}
