// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// newListCommand creates the `managerlint list` command.
func newListCommand(app *App) *cobra.Command {
	var req CheckRequest
	listCmd := &cobra.Command{
		Use:   "list [dir]",
		Short: "List discovered managers and their capabilities",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				req.Dir = args[0]
			}
			return app.runList(cmd.Context(), req)
		},
	}
	addNamespaceFlags(listCmd, &req)
	return listCmd
}

func (a *App) runList(ctx context.Context, req CheckRequest) error {
	s, err := a.prepare(ctx, req)
	if err != nil {
		return err
	}
	report, err := s.run(ctx)
	if err != nil {
		return err
	}

	if len(report.Records) == 0 {
		fmt.Fprintf(a.stdout, "%s %s\n", SubtitleStyle.Render("No managers found below"), CmdStyle.Render(s.ns.Root))
		return nil
	}

	rows := make([][]string, 0, len(report.Records))
	for _, rec := range report.Records {
		caps := report.Applicable(rec.Key())
		capsCell := strings.Join(caps, ", ")
		if len(caps) == 0 {
			capsCell = "-"
		}
		rows = append(rows, []string{rec.Key().String(), capsCell, rec.Position.String()})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorMuted)).
		Headers("MANAGER", "CAPABILITIES", "POSITION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})

	fmt.Fprintln(a.stdout, TitleStyle.Render(fmt.Sprintf("Managers below %s", s.ns.Root)))
	fmt.Fprintln(a.stdout, t.Render())
	return nil
}
