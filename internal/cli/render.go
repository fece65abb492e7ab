package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/graph"
	"github.com/matzehuels/lineage/pkg/layout"
	"github.com/matzehuels/lineage/pkg/render/nodelink"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	output     string   // output file, or base path when several formats are requested
	formats    []string // "dot", "svg", "pdf", "png"
	direction  string
	positioned bool // keep the computed coordinates instead of re-running dot
	detailed   bool // show hierarchy key and child count on each node
}

func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render a graph written by fetch to DOT, SVG, PDF or PNG",
		Example: `  lineage render orders.json
  lineage render orders.json -f svg,png --positioned -o out/orders`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file or base path")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "comma-separated formats: dot, svg, pdf, png (default svg)")
	cmd.Flags().StringVar(&opts.direction, "direction", "LR", "rank direction: LR or TB")
	cmd.Flags().BoolVar(&opts.positioned, "positioned", false, "pin nodes to the computed layout")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show hierarchy keys and child counts")

	return cmd
}

// parseFormats parses the --format flag. Empty means svg.
func parseFormats(s string) []string {
	if formats := parseList(s); len(formats) > 0 {
		return formats
	}
	return []string{"svg"}
}

var validFormats = map[string]bool{"dot": true, "svg": true, "pdf": true, "png": true}

func validateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %s (must be 'dot', 'svg', 'pdf', or 'png')", f)
		}
	}
	return nil
}

// basePath derives the output path without extension. With no output it
// strips the extension from input; a known format extension on output is
// stripped as well.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if validFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPaths maps each format to its file. A single format with an
// explicit output is written exactly there.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	logger := loggerFrom(ctx)

	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return err
	}
	dir, err := layout.ParseDirection(opts.direction)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "direction")
	}
	nlOpts := nodelink.Options{Direction: dir, Positioned: opts.positioned, Detailed: opts.detailed}
	logger.Debug("rendering", "nodes", len(g.Nodes), "formats", opts.formats, "positioned", opts.positioned)

	paths := outputPaths(opts.output, input, opts.formats)
	for _, f := range opts.formats {
		data, err := nodelink.Render(ctx, g, f, nlOpts)
		if err != nil {
			if errors.GetCode(err) != "" {
				return err
			}
			return errors.Wrap(errors.ErrCodeInternal, err, "render %s", f)
		}
		if err := os.WriteFile(paths[f], data, 0o644); err != nil {
			return err
		}
	}

	printSuccess("Rendered %s", g.Title)
	for _, f := range opts.formats {
		printFile(paths[f])
	}
	return nil
}
