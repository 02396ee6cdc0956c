// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invowk/managerlint/pkg/managerlint"
)

// newBaselineCommand creates the `managerlint baseline` command tree.
func newBaselineCommand(app *App) *cobra.Command {
	baselineCmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage accepted findings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var req CheckRequest
	writeCmd := &cobra.Command{
		Use:   "write <file> [dir]",
		Short: "Write the current findings to a TOML baseline",
		Long: `Write the current findings to a TOML baseline.

Findings listed in the baseline are not reported by 'managerlint check
--baseline <file>' or by the analyzer's -baseline flag. Unresolved optional
types are never written, as they always need attention.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				req.Dir = args[1]
			}
			return app.runBaselineWrite(cmd.Context(), args[0], req)
		},
	}
	addNamespaceFlags(writeCmd, &req)
	baselineCmd.AddCommand(writeCmd)

	return baselineCmd
}

func (a *App) runBaselineWrite(ctx context.Context, path string, req CheckRequest) error {
	s, err := a.prepare(ctx, req)
	if err != nil {
		return err
	}
	report, err := s.run(ctx)
	if err != nil {
		return err
	}

	n, err := managerlint.WriteBaseline(path, managerlint.Findings(report))
	if err != nil {
		return fmt.Errorf("failed to write baseline: %w", err)
	}
	fmt.Fprintf(a.stdout, "%s %d findings to %s\n", SuccessStyle.Render("Wrote"), n, CmdStyle.Render(path))
	return nil
}
