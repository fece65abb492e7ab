package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/explorer"
	"github.com/matzehuels/lineage/pkg/settings"
)

type exploreOpts struct {
	source    sourceFlags
	hierarchy string
	user      string
	pick      bool // always show the hierarchy picker
}

func (c *CLI) exploreCommand() *cobra.Command {
	var opts exploreOpts

	cmd := &cobra.Command{
		Use:   "explore [query]",
		Short: "Expand and collapse the drill-down tree in the terminal",
		Long: `Run a query and browse its drill-down tree interactively.

Without --hierarchy (or settings saved for --user) a picker asks for the
grouping columns first. With --user, "w" saves the current hierarchy and
query for that user.`,
		Example: `  lineage explore "SELECT * FROM main.sales.orders" --hierarchy region,country
  lineage explore --user alice`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var q string
			if len(args) == 1 {
				q = args[0]
			}
			return c.runExplore(cmd.Context(), q, opts)
		},
	}

	opts.source.register(cmd)
	cmd.Flags().StringVar(&opts.hierarchy, "hierarchy", "", "comma-separated grouping columns")
	cmd.Flags().StringVar(&opts.user, "user", "", "load and save settings for this user")
	cmd.Flags().BoolVar(&opts.pick, "pick", false, "choose the hierarchy interactively even when one is given")

	return cmd
}

func (c *CLI) runExplore(ctx context.Context, q string, opts exploreOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	keys := parseList(opts.hierarchy)

	var store settings.Store
	if opts.user != "" {
		if err := errors.ValidateUserID(opts.user); err != nil {
			return err
		}
		if store, err = newSettingsStore(ctx, cfg); err != nil {
			return err
		}
		defer store.Close(ctx)

		saved, err := store.Get(ctx, opts.user)
		switch {
		case errors.Is(err, errors.ErrCodeSettingsNotFound):
			c.Logger.Debug("no saved settings", "user", opts.user)
		case err != nil:
			return err
		default:
			if q == "" {
				q = saved.Query
			}
			if len(keys) == 0 {
				keys = saved.Hierarchy
			}
		}
	}
	if q == "" {
		return errors.New(errors.ErrCodeInvalidQuery, "No query provided")
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

	ex := explorer.New(explorer.WithLogger(c.Logger), explorer.WithLayout(cfg.LayoutOptions()))
	ex.Load(rs, q)

	if len(keys) == 0 || opts.pick {
		final, err := tea.NewProgram(NewHierarchyModel(ex.Columns(), keys), tea.WithContext(ctx)).Run()
		if err != nil {
			return err
		}
		picked := final.(HierarchyModel)
		if !picked.Done {
			printInfo("No hierarchy selected")
			return nil
		}
		keys = picked.Chosen
	}
	if err := ex.ApplyHierarchy(keys); err != nil {
		return err
	}

	var save func([]string) error
	if store != nil {
		save = func(keys []string) error {
			_, err := store.Save(ctx, settings.Settings{User: opts.user, Query: q, Hierarchy: keys})
			return err
		}
	}

	if _, err := tea.NewProgram(NewTreeModel(ex, save), tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return err
	}
	return nil
}
