// Package render turns a schema.Model into Graphviz DOT and materializes it
// as PNG or SVG via goccy/go-graphviz.
package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/listgraph/listgraph/pkg/schema"
)

// ToDOT converts a schema model to Graphviz DOT for entity-diagram rendering.
//
// Each list becomes a plaintext node with an HTML-like table label: a header
// row holding the list's display name and one row per column showing name and
// kind. Each relationship becomes a directed edge labeled with its lookup
// column name. Lists are emitted in display-name order so the output is
// stable across runs.
func ToDOT(m schema.Model) string {
	var buf bytes.Buffer
	buf.WriteString("digraph schema {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=plaintext];\n")
	buf.WriteString("\n")

	for _, l := range m.SortedLists() {
		fmt.Fprintf(&buf, "  %q [label=<%s>];\n", l.ID, tableLabel(l))
	}

	buf.WriteString("\n")
	for _, r := range m.Relationships {
		fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", r.SourceID, r.TargetID, r.Label)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// tableLabel builds the HTML-like label for one list. List and column names
// come from user data and are escaped before being embedded.
func tableLabel(l schema.List) string {
	var b bytes.Buffer
	b.WriteString("<TABLE BORDER=\"0\" CELLBORDER=\"1\" CELLSPACING=\"0\">")
	fmt.Fprintf(&b, "<TR><TD COLSPAN=\"2\"><B>%s</B></TD></TR>", html.EscapeString(l.DisplayName))
	for _, c := range l.Columns {
		fmt.Fprintf(&b, "<TR><TD>%s</TD><TD>%s</TD></TR>",
			html.EscapeString(c.Name), html.EscapeString(string(c.Kind)))
	}
	b.WriteString("</TABLE>")
	return b.String()
}
