// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/invowk/managerlint/internal/config"
	"github.com/invowk/managerlint/pkg/introspect"
	"github.com/invowk/managerlint/pkg/managerlint"
)

type (
	// checkResult is a finished check with the baseline applied.
	checkResult struct {
		Root       string
		Report     introspect.Report
		Entries    []reportEntry
		Suppressed int
	}

	// reportEntry is a visible finding with its remediation, when it has one.
	reportEntry struct {
		managerlint.Finding
		Remediation string   `json:"remediation,omitempty"`
		Imports     []string `json:"imports,omitempty"`
	}

	jsonReport struct {
		Root       string        `json:"root"`
		Managers   int           `json:"managers"`
		Passed     int           `json:"passed"`
		Failed     int           `json:"failed"`
		Errors     int           `json:"errors"`
		Suppressed int           `json:"suppressed"`
		Findings   []reportEntry `json:"findings"`
	}
)

// newCheckResult filters the failed outcomes of report through bl.
func newCheckResult(root string, report introspect.Report, bl *managerlint.Baseline) checkResult {
	res := checkResult{Root: root, Report: report}
	for _, o := range report.Failed() {
		f := managerlint.NewFinding(o)
		if bl.Contains(f) {
			res.Suppressed++
			continue
		}
		e := reportEntry{Finding: f}
		var mismatch *introspect.MismatchError
		if errors.As(o.Err, &mismatch) {
			e.Remediation = mismatch.Snippet
			e.Imports = mismatch.Imports
		}
		res.Entries = append(res.Entries, e)
	}
	return res
}

// Failed reports whether any finding survived the baseline.
func (r checkResult) Failed() bool {
	return len(r.Entries) > 0
}

func (r checkResult) counts() (failed, errored int) {
	for _, e := range r.Entries {
		if e.Category == managerlint.CategoryReturnTypeMismatch {
			failed++
		} else {
			errored++
		}
	}
	return failed, errored
}

// renderResult writes res to w in the requested format.
func renderResult(w io.Writer, res checkResult, format config.OutputFormat, scheme config.ColorScheme) error {
	switch format {
	case config.FormatJSON:
		return renderJSON(w, res)
	case config.FormatMarkdown:
		md := markdownReport(res)
		if !isTerminal(w) {
			_, err := io.WriteString(w, md)
			return err
		}
		out, err := renderMarkdown(md, scheme)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	default:
		renderText(w, res)
		return nil
	}
}

func renderJSON(w io.Writer, res checkResult) error {
	failed, errored := res.counts()
	out := jsonReport{
		Root:       res.Root,
		Managers:   len(res.Report.Records),
		Passed:     res.Report.Counts().Passed,
		Failed:     failed,
		Errors:     errored,
		Suppressed: res.Suppressed,
		Findings:   res.Entries,
	}
	if out.Findings == nil {
		out.Findings = []reportEntry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderText(w io.Writer, res checkResult) {
	for _, e := range res.Entries {
		mark, style := "✗", ErrorStyle
		if e.Category != managerlint.CategoryReturnTypeMismatch {
			mark, style = "!", WarningStyle
		}
		fmt.Fprintf(w, "%s %s %s\n", style.Render(mark), CmdStyle.Render(e.Manager), SubtitleStyle.Render("["+e.Capability+"]"))
		if e.Position != "" {
			fmt.Fprintf(w, "  %s\n", VerboseStyle.Render(e.Position))
		}
		fmt.Fprintf(w, "  %s\n", e.Summary)
		if e.Remediation != "" {
			fmt.Fprintf(w, "  Recommend adding the following method:\n\n%s\n", snippetStyle.Render(e.Remediation))
			if len(e.Imports) > 0 {
				fmt.Fprintf(w, "\n  %s %s\n", SubtitleStyle.Render("Imports:"), strings.Join(e.Imports, ", "))
			}
		}
		fmt.Fprintln(w)
	}

	failed, errored := res.counts()
	summary := fmt.Sprintf("%d managers, %d passed, %d failed, %d errors",
		len(res.Report.Records), res.Report.Counts().Passed, failed, errored)
	if res.Suppressed > 0 {
		summary += fmt.Sprintf(", %d suppressed by baseline", res.Suppressed)
	}
	if res.Failed() {
		fmt.Fprintln(w, ErrorStyle.Render("FAIL")+" "+summary)
		return
	}
	fmt.Fprintln(w, SuccessStyle.Render("OK")+" "+summary)
}

func markdownReport(res checkResult) string {
	var sb strings.Builder
	failed, errored := res.counts()

	sb.WriteString("# managerlint report\n\n")
	fmt.Fprintf(&sb, "Namespace `%s`: %d managers, %d passed, %d failed, %d errors",
		res.Root, len(res.Report.Records), res.Report.Counts().Passed, failed, errored)
	if res.Suppressed > 0 {
		fmt.Fprintf(&sb, ", %d suppressed by baseline", res.Suppressed)
	}
	sb.WriteString(".\n")

	if !res.Failed() {
		return sb.String()
	}

	sb.WriteString("\n| Manager | Capability | Expected | Declared |\n|---|---|---|---|\n")
	for _, e := range res.Entries {
		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n", e.Manager, e.Capability, codeOrNA(e.Expected), codeOrNA(e.Declared))
	}

	for _, e := range res.Entries {
		fmt.Fprintf(&sb, "\n## `%s` (%s)\n\n", e.Manager, e.Capability)
		if e.Position != "" {
			fmt.Fprintf(&sb, "Defined at `%s`.\n\n", e.Position)
		}
		sb.WriteString(e.Summary + "\n")
		if e.Remediation != "" {
			sb.WriteString("\nRecommend adding the following method:\n\n```go\n" + e.Remediation + "\n```\n")
		}
		if len(e.Imports) > 0 {
			sb.WriteString("\nYou may also need to add the following imports:\n\n")
			for _, p := range e.Imports {
				fmt.Fprintf(&sb, "- `%s`\n", p)
			}
		}
		fmt.Fprintf(&sb, "\nFinding ID: `%s`\n", e.ID)
	}
	return sb.String()
}

func codeOrNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return "`" + s + "`"
}

// renderMarkdown renders md for the terminal with glamour.
func renderMarkdown(md string, scheme config.ColorScheme) (string, error) {
	var opts []glamour.TermRendererOption
	switch scheme {
	case config.ColorSchemeDark, config.ColorSchemeLight:
		opts = append(opts, glamour.WithStandardStyle(string(scheme)))
	default:
		opts = append(opts, glamour.WithAutoStyle())
	}
	if width := terminalWidth(); width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	return renderer.Render(md)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return width
}
