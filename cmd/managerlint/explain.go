// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/invowk/managerlint/internal/config"
	"github.com/invowk/managerlint/internal/issue"
)

// newExplainCommand creates the `managerlint explain` command.
func newExplainCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "explain [issue]",
		Short: "Explain a diagnostic or error",
		Long: `Explain a diagnostic or error.

Without an argument, the known issues are listed. Diagnostic categories
such as return-type-mismatch double as issue names.`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			names := make([]string, 0, len(issue.Values()))
			for _, iss := range issue.Values() {
				names = append(names, iss.Name())
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				listIssues(app.stdout)
				return nil
			}
			return app.explain(cmd.Context(), args[0])
		},
	}
}

func (a *App) explain(ctx context.Context, name string) error {
	iss := issue.ByName(name)
	if iss == nil {
		return issue.NewErrorContext().
			WithOperation("explain issue").
			WithResource(name).
			WithSuggestion("Run 'managerlint explain' to list the known issues").
			Wrap(fmt.Errorf("unknown issue %q", name)).
			BuildError()
	}

	if !isTerminal(a.stdout) {
		_, err := io.WriteString(a.stdout, iss.Markdown()+"\n")
		return err
	}
	cfg, err := a.loadConfig(ctx, "")
	scheme := config.ColorSchemeAuto
	if err == nil {
		scheme = cfg.UI.ColorScheme
	}
	out, err := renderMarkdown(iss.Markdown(), scheme)
	if err != nil {
		return err
	}
	_, err = io.WriteString(a.stdout, out)
	return err
}

func listIssues(w io.Writer) {
	fmt.Fprintln(w, TitleStyle.Render("Known issues"))
	for _, iss := range issue.Values() {
		fmt.Fprintf(w, "  %s\n", CmdStyle.Render(iss.Name()))
	}
}
