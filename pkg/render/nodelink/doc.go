// Package nodelink renders lineage graphs as node-link diagrams.
//
// # Usage
//
// Convert a positioned graph to DOT, then render it:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Positioned: true})
//	svg, err := nodelink.RenderSVG(ctx, dot, true)
//
// [Render] picks the output by name ("dot", "svg", "pdf", "png").
//
// # Options
//
//   - Direction: rank direction when Graphviz ranks the graph (LR or TB)
//   - Positioned: pin nodes to the coordinates from the layout package
//   - Detailed: prefix group labels with their hierarchy key and add counts
//
// With Positioned set the diagram matches what any other renderer of the
// same graph shows; without it Graphviz's dot engine lays the tree out on
// its own, which is handy for quick previews of unpositioned graphs.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
