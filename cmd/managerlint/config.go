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
)

// newConfigCommand creates the `managerlint config` command tree.
// Subcommands that read configuration use the App's ConfigProvider.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage managerlint configuration",
		Long: `Manage managerlint configuration.

Configuration is read from the first file found of:
  - the --config flag
  - Linux: ~/.config/managerlint/config.cue
    macOS: ~/Library/Application Support/managerlint/config.cue
    Windows: %APPDATA%\managerlint\config.cue
  - ./managerlint.cue

Environment variables prefixed with MANAGERLINT_ override file values,
e.g. MANAGERLINT_NAMESPACE_ROOT.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.showConfig(cmd.Context())
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context(), "")
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Output the CUE schema configuration files are validated against",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := app.stdout.Write(config.Schema())
			return err
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.showConfigPath()
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Create default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return app.initConfig(path, force)
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	return cfgCmd
}

func (a *App) showConfig(ctx context.Context) error {
	cfg, err := a.loadConfig(ctx, "")
	if err != nil {
		if rendered, renderErr := issue.Get(issue.ConfigLoadFailedId).Render("dark"); renderErr == nil {
			fmt.Fprint(a.stderr, rendered)
		}
		return err
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	w := a.stdout

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if cfg.Source != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), cfg.Source)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("namespace"))
	fmt.Fprintf(w, "  root: %s\n", orDefault(cfg.Namespace.Root, "(package of the checked directory)", valueStyle.Render))
	fmt.Fprintf(w, "  recursive: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.Namespace.Recursive)))
	fmt.Fprintf(w, "  suffix: %s\n", valueStyle.Render(cfg.Namespace.Suffix))
	fmt.Fprintf(w, "  exclude: %s\n", orDefault(strings.Join(cfg.Namespace.Exclude, ", "), "(none)", valueStyle.Render))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("object_field"), valueStyle.Render(cfg.ObjectField))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("optional_type"), valueStyle.Render(string(cfg.OptionalType)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("capabilities"))
	for _, c := range cfg.Capabilities {
		fmt.Fprintf(w, "  - %s %s", valueStyle.Render(c.Name), SubtitleStyle.Render(string(c.Base)))
		if c.AllowsAbsent {
			fmt.Fprintf(w, " %s", WarningStyle.Render("(allows absent)"))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("baseline"), orDefault(cfg.Baseline, "(none)", valueStyle.Render))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("jobs"), orDefault(jobsString(cfg.Jobs), "(GOMAXPROCS)", valueStyle.Render))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  format: %s\n", valueStyle.Render(string(cfg.UI.Format)))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))
	fmt.Fprintf(w, "  color_scheme: %s\n", valueStyle.Render(string(cfg.UI.ColorScheme)))

	return nil
}

func (a *App) showConfigPath() error {
	path, err := config.Resolve(config.LoadOptions{ConfigFilePath: a.configPath})
	if err != nil {
		return err
	}
	if path != "" {
		fmt.Fprintln(a.stdout, path)
		return nil
	}
	def, err := config.DefaultPath()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s %s\n", def, SubtitleStyle.Render("(not created, using defaults)"))
	return nil
}

func (a *App) initConfig(path string, force bool) error {
	written, err := config.CreateDefaultConfig(path, force)
	if errors.Is(err, config.ErrConfigExists) {
		fmt.Fprintf(a.stdout, "%s %s\n", WarningStyle.Render("Config file already exists:"), written)
		fmt.Fprintln(a.stdout, SubtitleStyle.Render("Use --force to overwrite it."))
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s %s\n", SuccessStyle.Render("Created config file:"), written)
	return nil
}

func orDefault(v, placeholder string, render func(...string) string) string {
	if v == "" {
		return SubtitleStyle.Render(placeholder)
	}
	return render(v)
}

func jobsString(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("%d", n)
}
