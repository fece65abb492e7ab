package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/internal/server"
	"github.com/matzehuels/lineage/pkg/observability"
	"github.com/matzehuels/lineage/pkg/session"
	"github.com/matzehuels/lineage/pkg/settings"
)

type serveOpts struct {
	source     sourceFlags
	addr       string
	noSettings bool
}

func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the explorer over HTTP",
		Long: `Start the HTTP API. Clients open a session with a query, apply a
hierarchy and toggle nodes; every response carries the positioned graph.`,
		Example: `  lineage serve --addr :8080
  lineage serve --file rows.json --no-settings`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	opts.source.register(cmd)
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :5000)")
	cmd.Flags().BoolVar(&opts.noSettings, "no-settings", false, "disable the /settings routes")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if opts.addr != "" {
		addr = opts.addr
	}

	fetcher, closeFetcher, err := c.newFetcher(ctx, cfg, opts.source)
	if err != nil {
		return err
	}
	defer closeFetcher()

	var store settings.Store
	if !opts.noSettings {
		if store, err = newSettingsStore(ctx, cfg); err != nil {
			return err
		}
		defer store.Close(context.Background())
	}

	var counters observability.Counters
	observability.Register(counters.Hooks())
	defer observability.Reset()

	ttl := cfg.Server.SessionTTL.Duration
	srv := server.New(server.Options{
		Fetcher:    fetcher,
		Sessions:   session.NewMemoryStore(ttl),
		Settings:   store,
		Layout:     cfg.LayoutOptions(),
		Logger:     c.Logger,
		SessionTTL: ttl,
		Counters:   &counters,
	})

	err = srv.ListenAndServe(ctx, addr)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
