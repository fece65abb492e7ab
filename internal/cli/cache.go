package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/internal/config"
	"github.com/matzehuels/lineage/pkg/cache"
	"github.com/matzehuels/lineage/pkg/errors"
)

// cacheCommand creates the cache management command. Only the file backend
// can be inspected; Redis entries expire on their own.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the query result cache",
	}

	cmd.AddCommand(c.cacheStatsCommand())
	cmd.AddCommand(c.cachePruneCommand())
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// fileCache opens the configured file cache or explains why it cannot.
func (c *CLI) fileCache() (*cache.FileCache, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Backend != config.BackendFile {
		return nil, errors.New(errors.ErrCodeUnsupported, "cache backend is %q; only the file cache can be managed here", cfg.Cache.Backend)
	}
	return newFileCache(cfg)
}

func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the number and size of cached results",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.fileCache()
			if err != nil {
				return err
			}
			stats, err := fc.Stats()
			if err != nil {
				return err
			}
			printKeyValue("Directory", fc.Dir())
			printKeyValue("Entries", fmt.Sprint(stats.Entries))
			printKeyValue("Expired", fmt.Sprint(stats.Expired))
			printKeyValue("Size", formatBytes(stats.Bytes))
			return nil
		},
	}
}

func (c *CLI) cachePruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired and unreadable cached results",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.fileCache()
			if err != nil {
				return err
			}
			n, err := fc.Prune()
			if err != nil {
				return err
			}
			if n == 0 {
				printInfo("Nothing to prune")
				return nil
			}
			printSuccess("Pruned %d cached results", n)
			return nil
		},
	}
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached results",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.fileCache()
			if err != nil {
				return err
			}
			stats, err := fc.Stats()
			if err != nil {
				return err
			}
			if stats.Entries == 0 {
				printInfo("Cache is empty")
				return nil
			}
			if err := fc.Clear(); err != nil {
				return err
			}
			printSuccess("Cleared %d cached results", stats.Entries)
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			dir, err := cfg.CacheDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

// formatBytes renders n with a binary unit, e.g. "1.5 KiB".
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
