package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/lineage/pkg/graph"
	"github.com/matzehuels/lineage/pkg/layout"
	"github.com/matzehuels/lineage/pkg/render"
)

// pointsPerPixel converts layout units (CSS pixels) to Graphviz points.
const pointsPerPixel = 0.75

// Options configures node-link diagram rendering.
type Options struct {
	// Direction is the rank direction used when Graphviz lays the graph out
	// itself. Defaults to left-to-right.
	Direction layout.Direction

	// Positioned pins every node to the coordinates computed by the layout
	// engine instead of letting Graphviz rank the graph.
	Positioned bool

	// Detailed adds the hierarchy key and child count to group labels.
	Detailed bool
}

// ToDOT converts a lineage graph to Graphviz DOT format.
//
// Attribute leaves are drawn as notes listing their values, expanded groups
// are filled, and collapsed groups carry a "+" marker.
func ToDOT(g graph.Graph, opts Options) string {
	rankdir := "LR"
	if opts.Direction == layout.TopToBottom {
		rankdir = "TB"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	if g.Title != "" {
		fmt.Fprintf(&buf, "  label=%s;\n  labelloc=t;\n", quote(g.Title))
	}
	if opts.Positioned {
		buf.WriteString("  splines=true;\n")
	}
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=1.0;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		attrs := fmtAttrs(n, g.Height, opts)
		fmt.Fprintf(&buf, "  %s [%s];\n", quote(n.ID), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %s -> %s;\n", quote(e.Source), quote(e.Target))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n graph.Node, detailed bool) string {
	if n.IsAttributes() {
		return n.Label + "\n" + strings.Join(n.Attributes, "\n")
	}

	label := n.Label
	if detailed && n.Key != "" && !n.IsRoot() {
		label = n.Key + ": " + label
	}
	if detailed && n.ChildCount != nil {
		label += fmt.Sprintf("\n%d children", *n.ChildCount)
	}
	if n.IsExpanded != nil && !*n.IsExpanded {
		label += " +"
	}
	return label
}

func fmtAttrs(n graph.Node, height float64, opts Options) []string {
	attrs := []string{"label=" + quote(fmtLabel(n, opts.Detailed))}
	switch {
	case n.IsRoot():
		attrs = append(attrs, "fillcolor=lightsteelblue", "penwidth=2")
	case n.IsAttributes():
		attrs = append(attrs, "shape=note", "style=filled", "fillcolor=lightyellow")
	case n.Expanded():
		attrs = append(attrs, "fillcolor=lightgrey")
	}
	if opts.Positioned {
		// Graphviz puts the origin bottom-left.
		x := n.Position.X * pointsPerPixel
		y := (height - n.Position.Y) * pointsPerPixel
		attrs = append(attrs,
			fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(x), fmtFloat(y)),
			"width="+fmtFloat(n.Width*pointsPerPixel/72),
			"height="+fmtFloat(n.Height*pointsPerPixel/72),
			"fixedsize=true",
		)
	}
	return attrs
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func quote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RenderSVG renders a DOT graph to SVG using Graphviz. Positioned graphs
// are rendered with the neato engine so pinned coordinates are honoured.
func RenderSVG(ctx context.Context, dot string, positioned bool) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	if positioned {
		gv.SetLayout(graphviz.NEATO)
	}

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// Render produces the requested output format ("dot", "svg", "pdf" or
// "png") for g.
func Render(ctx context.Context, g graph.Graph, format string, opts Options) ([]byte, error) {
	dot := ToDOT(g, opts)
	if format == "dot" {
		return []byte(dot), nil
	}
	svg, err := RenderSVG(ctx, dot, opts.Positioned)
	if err != nil {
		return nil, err
	}
	switch format {
	case "svg":
		return svg, nil
	case "pdf", "png":
		return render.DefaultConverter.Convert(ctx, svg, format)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
