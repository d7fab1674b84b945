package report

import (
	"extcheck/internal/core/app"
	"fmt"
	"strings"
)

// ModuleDOT draws the scanned module and the components it depends on as a
// Graphviz digraph. Missing requirements are drawn red, unused ones dashed.
func ModuleDOT(r *app.Report) string {
	var buf strings.Builder

	buf.WriteString("digraph components {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  overlap=false;\n\n")

	missing := make(map[string]app.Requirement, len(r.Missing))
	for _, m := range r.Missing {
		missing[m.Component] = m
	}

	label := fmt.Sprintf("%s\\n(%d types)", r.Module, r.Types)
	buf.WriteString(fmt.Sprintf("  %q [label=\"%s\", fillcolor=\"aliceblue\", style=\"rounded,filled\", penwidth=2.0];\n\n", r.Module, label))

	for _, c := range r.Components {
		nodeLabel := c.Name
		if c.PackageVersion != "" {
			nodeLabel += "\\n" + c.PackageVersion
		}
		switch {
		case c.Type == "module":
			buf.WriteString(fmt.Sprintf("  %q [label=\"%s\", fillcolor=\"white\", style=\"rounded,filled\", color=\"darkslategrey\"];\n", c.Name, nodeLabel))
		default:
			buf.WriteString(fmt.Sprintf("  %q [label=\"%s\", fillcolor=\"gainsboro\", style=\"rounded,filled\", color=\"grey\"];\n", c.Name, nodeLabel))
		}
	}
	for _, pkg := range r.Unused {
		buf.WriteString(fmt.Sprintf("  %q [label=\"%s\", fontcolor=\"grey\", style=dashed];\n", pkg, pkg))
	}
	buf.WriteString("\n")

	for _, c := range r.Components {
		if m, ok := missing[c.Name]; ok {
			buf.WriteString(fmt.Sprintf("  %q -> %q [color=\"red\", penwidth=2.5, label=\"missing %s\"];\n", r.Module, c.Name, m.Suggested))
			continue
		}
		buf.WriteString(fmt.Sprintf("  %q -> %q [color=\"forestgreen\"];\n", r.Module, c.Name))
	}
	for _, pkg := range r.Unused {
		buf.WriteString(fmt.Sprintf("  %q -> %q [color=\"grey\", style=dashed, label=\"unused\"];\n", r.Module, pkg))
	}

	buf.WriteString("}\n")
	return buf.String()
}
