// Package report renders analysis results as styled text, JSON or TSV.
package report

import (
	"encoding/json"
	"extcheck/internal/core/app"
	"extcheck/internal/core/errors"
	"extcheck/internal/data/history"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatTSV  = "tsv"
	FormatDOT  = "dot"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Bold(true)

	problemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

// Write renders v, an *app.Report, *app.TypeReport, module name list or scan
// history, in format.
func Write(w io.Writer, format string, v any) error {
	var out string
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		out = string(data) + "\n"
	case FormatTSV:
		switch r := v.(type) {
		case *app.Report:
			out = ModuleTSV(r)
		case *app.TypeReport:
			out = TypeTSV(r)
		case []string:
			out = strings.Join(r, "\n") + "\n"
		case []history.Trend:
			out = HistoryTSV(r)
		default:
			return errors.Newf(errors.CodeNotSupported, "tsv output does not support %T", v)
		}
	case FormatDOT:
		r, ok := v.(*app.Report)
		if !ok {
			return errors.Newf(errors.CodeNotSupported, "dot output does not support %T", v)
		}
		out = ModuleDOT(r)
	case FormatText, "":
		switch r := v.(type) {
		case *app.Report:
			out = ModuleText(r)
		case *app.TypeReport:
			out = TypeText(r)
		case []string:
			out = ModulesText(r)
		case []history.Trend:
			out = HistoryText(r)
		default:
			return errors.Newf(errors.CodeNotSupported, "text output does not support %T", v)
		}
	default:
		return errors.Newf(errors.CodeNotSupported, "unknown output format %q", format)
	}
	_, err := io.WriteString(w, out)
	return err
}

func ModuleText(r *app.Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Module %s", r.Module)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%s (%d types, run %s)", r.Manifest, r.Types, r.RunID)))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render(fmt.Sprintf("Components (%d)", len(r.Components))))
	b.WriteString("\n")
	for _, c := range r.Components {
		b.WriteString("- " + componentLine(c) + "\n")
	}
	b.WriteString("\n")

	if len(r.Missing) == 0 && len(r.Unused) == 0 {
		b.WriteString(successStyle.Render("composer.json matches the code"))
		b.WriteString("\n")
	}
	if len(r.Missing) > 0 {
		b.WriteString(problemStyle.Render(fmt.Sprintf("Missing requirements (%d)", len(r.Missing))))
		b.WriteString("\n")
		for _, m := range r.Missing {
			b.WriteString(fmt.Sprintf("- %q: %q", m.Package, m.Suggested))
			if m.Installed != "" {
				b.WriteString(dimStyle.Render(fmt.Sprintf("  installed %s", m.Installed)))
			}
			b.WriteString("\n")
		}
	}
	writeList(&b, warningStyle, "Unused requirements", r.Unused)
	writeList(&b, warningStyle, "Deprecated dependencies", r.Deprecated)
	writeList(&b, dimStyle, "Unresolved dependencies", r.Unresolved)

	if len(r.Failures) > 0 {
		b.WriteString(problemStyle.Render(fmt.Sprintf("Failures (%d)", len(r.Failures))))
		b.WriteString("\n")
		for _, f := range r.Failures {
			b.WriteString(fmt.Sprintf("- %s: %s\n", f.Type, f.Error))
		}
	}
	return b.String()
}

func componentLine(c app.ComponentUsage) string {
	line := fmt.Sprintf("%s [%s]", c.Name, c.Type)
	if c.PackageName != "" && c.PackageName != c.Name {
		line += " " + c.PackageName
	}
	if c.PackageVersion != "" {
		line += " " + c.PackageVersion
	}
	return line
}

func writeList(b *strings.Builder, style lipgloss.Style, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(style.Render(fmt.Sprintf("%s (%d)", title, len(items))))
	b.WriteString("\n")
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
}

func TypeText(r *app.TypeReport) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(r.Type))
	if r.Deprecated {
		b.WriteString(" " + warningStyle.Render("(deprecated)"))
	}
	b.WriteString("\n")
	if r.File != "" {
		b.WriteString(dimStyle.Render(r.File))
		b.WriteString("\n")
	}

	switch {
	case r.Component != nil:
		b.WriteString("Component: " + componentLine(*r.Component) + "\n")
	case r.ComponentErr != "":
		b.WriteString(problemStyle.Render("Component: " + r.ComponentErr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	writeList(&b, sectionStyle, "Dependencies", r.Dependencies)
	if len(r.Dependencies) == 0 {
		b.WriteString(dimStyle.Render("No dependencies"))
		b.WriteString("\n")
	}
	return b.String()
}

func ModulesText(names []string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Modules (%d)", len(names))))
	b.WriteString("\n")
	for _, name := range names {
		b.WriteString("- " + name + "\n")
	}
	return b.String()
}

func ModuleTSV(r *app.Report) string {
	var buf strings.Builder

	buf.WriteString("Kind\tName\tDetail\tVersion\n")
	for _, c := range r.Components {
		buf.WriteString(fmt.Sprintf("component\t%s\t%s\t%s\n", c.Name, c.Type, c.PackageVersion))
	}
	for _, m := range r.Missing {
		buf.WriteString(fmt.Sprintf("missing\t%s\t%s\t%s\n", m.Package, m.Suggested, m.Installed))
	}
	for _, pkg := range r.Unused {
		buf.WriteString(fmt.Sprintf("unused\t%s\t\t\n", pkg))
	}
	for _, name := range r.Deprecated {
		buf.WriteString(fmt.Sprintf("deprecated\t%s\t\t\n", name))
	}
	for _, name := range r.Unresolved {
		buf.WriteString(fmt.Sprintf("unresolved\t%s\t\t\n", name))
	}
	for _, f := range r.Failures {
		buf.WriteString(fmt.Sprintf("failure\t%s\t%s\t\n", f.Type, f.Code))
	}
	return buf.String()
}

func TypeTSV(r *app.TypeReport) string {
	var buf strings.Builder
	buf.WriteString("Type\tDependency\n")
	for _, dep := range r.Dependencies {
		buf.WriteString(fmt.Sprintf("%s\t%s\n", r.Type, dep))
	}
	return buf.String()
}

func HistoryText(trends []history.Trend) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Scan history (%d)", len(trends))))
	b.WriteString("\n")
	if len(trends) == 0 {
		b.WriteString(dimStyle.Render("No scans recorded"))
		b.WriteString("\n")
		return b.String()
	}
	module := ""
	for _, t := range trends {
		if t.Module != module {
			module = t.Module
			b.WriteString(sectionStyle.Render(module))
			b.WriteString("\n")
		}
		line := fmt.Sprintf("  %s  types %d  missing %d%s  unused %d%s  deprecated %d%s",
			t.Timestamp.Format("2006-01-02 15:04"),
			t.TypeCount,
			t.MissingCount, delta(t.DeltaMissing),
			t.UnusedCount, delta(t.DeltaUnused),
			t.DeprecatedCount, delta(t.DeltaDeprecated))
		switch {
		case t.MissingCount > 0:
			b.WriteString(problemStyle.Render(line))
		case t.UnusedCount > 0 || t.DeprecatedCount > 0:
			b.WriteString(warningStyle.Render(line))
		default:
			b.WriteString(successStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func delta(d int) string {
	if d == 0 {
		return ""
	}
	return fmt.Sprintf(" (%+d)", d)
}

func HistoryTSV(trends []history.Trend) string {
	var buf strings.Builder
	buf.WriteString("Module\tRunID\tTimestamp\tTypes\tMissing\tUnused\tDeprecated\tUnresolved\tDeltaMissing\n")
	for _, t := range trends {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			t.Module, t.RunID, t.Timestamp.UTC().Format(time.RFC3339),
			t.TypeCount, t.MissingCount, t.UnusedCount, t.DeprecatedCount, t.UnresolvedCount, t.DeltaMissing))
	}
	return buf.String()
}
