// Package cli implements the lineage command-line interface.
//
// fetch runs a query and writes rows or a positioned graph, render turns a
// graph into DOT, SVG, PDF or PNG, explore opens the tree in the terminal
// and serve exposes the same explorer over HTTP. settings and cache manage
// saved hierarchies and fetched results.
//
// Log output goes to the writer given to [New]. -v/--verbose switches to
// debug level, otherwise LINEAGE_LOG_LEVEL is honored.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/internal/config"
	"github.com/matzehuels/lineage/pkg/buildinfo"
	"github.com/matzehuels/lineage/pkg/cache"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/query"
	"github.com/matzehuels/lineage/pkg/settings"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for cache key prefixes and display.
	appName = "lineage"

	redisPrefix = appName + ":"
)

// Log levels accepted by [New].
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	baseLevel  log.Level
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), baseLevel: level}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "lineage",
		Short: "Lineage explores tabular data as a drill-down tree",
		Long: `Lineage groups the rows of a query result by an ordered list of columns
and lets you expand and collapse the resulting tree one level at a time.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := resolveLevel(c.verbose, os.Getenv(logLevelEnv), c.baseLevel)
			if err != nil {
				return err
			}
			c.SetLogLevel(level)
			cmd.SetContext(contextWithLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/lineage/lineage.toml)")

	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.settingsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.configPath)
}

// =============================================================================
// Backend Factories
// =============================================================================

// sourceFlags selects where rows come from and how the cache is used.
type sourceFlags struct {
	file    string
	noCache bool
	refresh bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "file", "", "read rows from a {columns, rows} JSON file instead of Databricks")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "bypass the result cache")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached results but store fresh ones")
}

// newFetcher builds the fetcher described by cfg and flags. The returned
// close function releases the cache backend.
func (c *CLI) newFetcher(ctx context.Context, cfg config.Config, flags sourceFlags) (query.Fetcher, func(), error) {
	var (
		inner  query.Fetcher
		source string
	)
	if flags.file != "" {
		abs, err := filepath.Abs(flags.file)
		if err != nil {
			return nil, nil, err
		}
		inner = query.FileFetcher{Path: abs}
		source = "file:" + abs
	} else {
		client, err := query.NewDatabricksClient(cfg.DatabricksConfig(),
			query.WithClientLogger(c.Logger),
			query.WithRateLimit(cfg.Databricks.RateLimit))
		if err != nil {
			return nil, nil, err
		}
		inner, source = client, client.Source()
	}

	if flags.noCache {
		return inner, func() {}, nil
	}
	store, err := newCache(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	fetcher := &query.CachedFetcher{
		Inner:   inner,
		Cache:   store,
		Keyer:   cache.NewScopedKeyer(cache.NewDefaultKeyer(), appName),
		Source:  source,
		TTL:     cfg.Cache.TTL.Duration,
		Refresh: flags.refresh,
		Logger:  c.Logger,
	}
	return fetcher, func() { store.Close() }, nil
}

func newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case config.BackendNone:
		return cache.Disabled, nil
	case config.BackendMemory:
		return cache.NewMemoryCache(), nil
	case config.BackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.Cache.RedisAddr, Prefix: redisPrefix})
	default:
		return newFileCache(cfg)
	}
}

func newFileCache(cfg config.Config) (*cache.FileCache, error) {
	dir, err := cfg.CacheDir()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "cache directory")
	}
	return cache.NewFileCache(dir)
}

func newSettingsStore(ctx context.Context, cfg config.Config) (settings.Store, error) {
	if cfg.Settings.Backend == config.BackendMongo {
		return settings.NewMongoStore(ctx, settings.MongoConfig{
			URI:      cfg.Settings.MongoURI,
			Database: cfg.Settings.MongoDatabase,
		})
	}
	dir, err := cfg.SettingsDir()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "settings directory")
	}
	return settings.NewFileStore(dir)
}

// =============================================================================
// Argument Helpers
// =============================================================================

// parseList splits a comma-separated flag value, dropping blanks.
func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseClick parses a "label@level" click target. The label may itself
// contain '@'; the level follows the last one.
func parseClick(s string) (string, int, error) {
	i := strings.LastIndex(s, "@")
	if i < 0 {
		return "", 0, errors.New(errors.ErrCodeInvalidInput, "click %q: want label@level", s)
	}
	level, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return "", 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "click %q: bad level", s)
	}
	return s[:i], level, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// openOutput opens path for writing; "" and "-" mean stdout.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

func isStdout(path string) bool { return path == "" || path == "-" }
