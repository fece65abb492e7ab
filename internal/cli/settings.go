package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/pkg/settings"
)

func (c *CLI) settingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage saved queries and hierarchies",
	}

	cmd.AddCommand(c.settingsListCommand())
	cmd.AddCommand(c.settingsGetCommand())
	cmd.AddCommand(c.settingsSetCommand())
	cmd.AddCommand(c.settingsDeleteCommand())

	return cmd
}

// withSettings opens the configured store for the duration of fn.
func (c *CLI) withSettings(ctx context.Context, fn func(settings.Store) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	store, err := newSettingsStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close(ctx)
	return fn(store)
}

func (c *CLI) settingsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all saved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSettings(cmd.Context(), func(store settings.Store) error {
				all, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(all) == 0 {
					printInfo("No saved settings")
					return nil
				}
				fmt.Println(settingsTable(all))
				return nil
			})
		},
	}
}

// settingsTable renders saved settings as a bordered table.
func settingsTable(all []settings.Settings) string {
	rows := make([][]string, len(all))
	for i, s := range all {
		rows[i] = []string{s.User, strings.Join(s.Hierarchy, " → "), truncate(s.Query, 48), s.UpdatedAt.Local().Format(time.DateTime)}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("User", "Hierarchy", "Query", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return styleHeader
			case col == 0:
				return StyleTitle
			case col >= 2:
				return StyleDim
			default:
				return StyleValue
			}
		}).
		Render()
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}

func (c *CLI) settingsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get USER",
		Short: "Show the settings saved for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSettings(cmd.Context(), func(store settings.Store) error {
				s, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printKeyValue("User", s.User)
				printKeyValue("Hierarchy", strings.Join(s.Hierarchy, ", "))
				printKeyValue("Query", s.Query)
				printKeyValue("Updated", s.UpdatedAt.Local().Format(time.DateTime))
				return nil
			})
		},
	}
}

func (c *CLI) settingsSetCommand() *cobra.Command {
	var q, hierarchy string

	cmd := &cobra.Command{
		Use:     "set USER",
		Short:   "Save a query and hierarchy for a user",
		Example: `  lineage settings set alice --query "SELECT * FROM main.sales.orders" --hierarchy region,country`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSettings(cmd.Context(), func(store settings.Store) error {
				saved, err := store.Save(cmd.Context(), settings.Settings{
					User:      args[0],
					Query:     q,
					Hierarchy: parseList(hierarchy),
				})
				if err != nil {
					return err
				}
				printSuccess("Saved settings for %s", saved.User)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&q, "query", "", "query to save")
	cmd.Flags().StringVar(&hierarchy, "hierarchy", "", "comma-separated grouping columns")
	cmd.MarkFlagRequired("query")

	return cmd
}

func (c *CLI) settingsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete USER",
		Short: "Delete the settings saved for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSettings(cmd.Context(), func(store settings.Store) error {
				deleted, err := store.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !deleted {
					printWarning("No settings saved for %s", args[0])
					return nil
				}
				printSuccess("Deleted settings for %s", args[0])
				return nil
			})
		},
	}
}
