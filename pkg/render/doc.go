// Package render holds output helpers shared by the lineage renderers.
//
// [Converter] turns an SVG document into PDF or PNG with the external
// rsvg-convert tool from librsvg. The node-link renderer in the
// [nodelink] subpackage produces the SVG.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Positioned: true})
//	svg, err := nodelink.RenderSVG(ctx, dot, true)
//	pdf, err := render.DefaultConverter.Convert(ctx, svg, "pdf")
//
// [nodelink]: github.com/matzehuels/lineage/pkg/render/nodelink
package render
