package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/internal/config"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/explorer"
	"github.com/matzehuels/lineage/pkg/graph"
	"github.com/matzehuels/lineage/pkg/query"
	"github.com/matzehuels/lineage/pkg/rows"
)

// fetchOpts holds the flags of the fetch command.
type fetchOpts struct {
	source    sourceFlags
	output    string
	hierarchy string   // comma-separated hierarchy keys
	clicks    []string // label@level targets, applied in order
	user      string   // load query and hierarchy from saved settings
	rawRows   bool     // write the result set instead of the graph
}

func (c *CLI) fetchCommand() *cobra.Command {
	var opts fetchOpts

	cmd := &cobra.Command{
		Use:   "fetch [query]",
		Short: "Run a query and write its drill-down graph",
		Long: `Run a query and write the positioned drill-down graph as JSON.

The rows are grouped by the columns given with --hierarchy (or the hierarchy
saved for --user). Each --click toggles a node addressed as label@level,
so the written graph can show any expansion state.`,
		Example: `  lineage fetch "SELECT * FROM main.sales.orders" --hierarchy region,country -o orders.json
  lineage fetch --user alice --click EMEA@0 -o emea.json
  lineage fetch "SELECT * FROM t" --file rows.json --rows`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var q string
			if len(args) == 1 {
				q = args[0]
			}
			return c.runFetch(cmd.Context(), q, opts)
		},
	}

	opts.source.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.hierarchy, "hierarchy", "", "comma-separated grouping columns")
	cmd.Flags().StringArrayVar(&opts.clicks, "click", nil, "toggle a node, as label@level (repeatable)")
	cmd.Flags().StringVar(&opts.user, "user", "", "use the query and hierarchy saved for this user")
	cmd.Flags().BoolVar(&opts.rawRows, "rows", false, "write the fetched {columns, rows} instead of the graph")

	return cmd
}

func (c *CLI) runFetch(ctx context.Context, q string, opts fetchOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	q, keys, err := c.resolvePreset(ctx, cfg, opts.user, q, parseList(opts.hierarchy))
	if err != nil {
		return err
	}

	fetcher, closeFetcher, err := c.newFetcher(ctx, cfg, opts.source)
	if err != nil {
		return err
	}
	defer closeFetcher()

	rs, err := c.fetchRows(ctx, fetcher, q)
	if err != nil {
		return err
	}

	out, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()

	if opts.rawRows {
		if err := rows.Encode(out, rs); err != nil {
			return err
		}
		if !isStdout(opts.output) {
			printSuccess("Wrote result set")
			printStats(statCount{rs.Len(), "rows"}, statCount{len(rs.Columns), "columns"})
			printFile(opts.output)
		}
		return nil
	}

	ex := explorer.New(explorer.WithLogger(c.Logger), explorer.WithLayout(cfg.LayoutOptions()))
	ex.Load(rs, q)
	if len(keys) > 0 {
		if err := ex.ApplyHierarchy(keys); err != nil {
			return err
		}
	}
	for _, target := range opts.clicks {
		label, level, err := parseClick(target)
		if err != nil {
			return err
		}
		if !ex.Click(label, level) {
			c.Logger.Warn("click had no effect", "label", label, "level", level)
		}
	}

	g := ex.Graph()
	if err := graph.WriteGraph(g, out); err != nil {
		return err
	}
	if !isStdout(opts.output) {
		printSuccess("Wrote graph")
		printStats(statCount{len(g.Nodes), "nodes"}, statCount{len(g.Edges), "edges"}, statCount{len(g.Levels), "levels"})
		printFile(opts.output)
		printNextStep("Render it", "lineage render "+opts.output)
	}
	return nil
}

// resolvePreset fills in the query and hierarchy saved for user where the
// command line leaves them empty.
func (c *CLI) resolvePreset(ctx context.Context, cfg config.Config, user, q string, keys []string) (string, []string, error) {
	if user != "" {
		store, err := newSettingsStore(ctx, cfg)
		if err != nil {
			return "", nil, err
		}
		defer store.Close(ctx)

		saved, err := store.Get(ctx, user)
		if err != nil {
			return "", nil, err
		}
		if q == "" {
			q = saved.Query
		}
		if len(keys) == 0 {
			keys = saved.Hierarchy
		}
		c.Logger.Debug("loaded settings", "user", user, "hierarchy", keys)
	}
	if q == "" {
		return "", nil, errors.New(errors.ErrCodeInvalidQuery, "No query provided")
	}
	return q, keys, nil
}

// fetchRows runs q behind a spinner and logs the row count.
func (c *CLI) fetchRows(ctx context.Context, f query.Fetcher, q string) (rows.ResultSet, error) {
	done := timed(c.Logger)
	spin := newSpinner(ctx, "Running query...")
	spin.Start()
	rs, err := f.Fetch(ctx, q)
	spin.Stop()
	if err != nil {
		return rows.ResultSet{}, err
	}
	done("Fetched rows", "rows", rs.Len(), "columns", len(rs.Columns))
	return rs, nil
}
