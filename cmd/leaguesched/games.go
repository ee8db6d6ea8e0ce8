package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/derekprior/leaguesched/internal/db"
	"github.com/derekprior/leaguesched/internal/games"
)

func newGamesCmd() *cobra.Command {
	gamesCmd := &cobra.Command{
		Use:   "games",
		Short: "Inspect stored games and record results",
	}

	var configFile string
	gamesCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to league file (default: league.yaml in current directory)")

	var division string
	listCmd := &cobra.Command{
		Use:          "list",
		Short:        "List the stored games of a division",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(configFile, func(database *db.DB) error {
				return runList(cmd.Context(), database, division)
			})
		},
	}
	listCmd.Flags().StringVar(&division, "division", "", "Division ID")
	listCmd.MarkFlagRequired("division")

	statusCmd := func(use, short string, status games.Status) *cobra.Command {
		return &cobra.Command{
			Use:          use + " <game-id>",
			Short:        short,
			Args:         cobra.ExactArgs(1),
			SilenceUsage: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(configFile, func(database *db.DB) error {
					if err := database.Queries.SetStatus(cmd.Context(), args[0], status); err != nil {
						return err
					}
					fmt.Printf("✓ Game %s marked %s\n", args[0], status)
					return nil
				})
			},
		}
	}

	lockCmd := func(use, short string, locked bool) *cobra.Command {
		return &cobra.Command{
			Use:          use + " <game-id>",
			Short:        short,
			Args:         cobra.ExactArgs(1),
			SilenceUsage: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(configFile, func(database *db.DB) error {
					if err := database.Queries.SetLocked(cmd.Context(), args[0], locked); err != nil {
						return err
					}
					fmt.Printf("✓ Game %s %sed\n", args[0], use)
					return nil
				})
			},
		}
	}

	gamesCmd.AddCommand(
		listCmd,
		statusCmd("played", "Record that a game was played; played games are locked", games.StatusPlayed),
		statusCmd("cancel", "Cancel a game", games.StatusCanceled),
		statusCmd("reschedule", "Return a canceled game to scheduled", games.StatusScheduled),
		lockCmd("lock", "Protect a game from regeneration", true),
		lockCmd("unlock", "Let regeneration move or delete a game again", false),
	)
	return gamesCmd
}

func withDatabase(configFlag string, fn func(*db.DB) error) error {
	cfg, err := loadConfig(configFlag)
	if err != nil {
		return err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(database)
}

func runList(ctx context.Context, database *db.DB, division string) error {
	gs, err := database.ListGamesForDivision(ctx, division)
	if err != nil {
		return err
	}
	if len(gs) == 0 {
		fmt.Printf("No games stored for %s\n", division)
		return nil
	}
	fmt.Printf("  %-4s %-36s %-10s %-11s %-24s %-9s %s\n", "Week", "ID", "Date", "Time", "Location", "Status", "Locked")
	for _, g := range gs {
		locked := ""
		if g.Locked {
			locked = "🔒"
		}
		fmt.Printf("  %-4d %-36s %-10s %-11s %-24s %-9s %s\n",
			g.Week, g.ID, g.Start.Format("2006-01-02"),
			g.Start.Format("15:04")+"-"+g.End.Format("15:04"),
			g.LocationID, g.Status, locked)
	}
	return nil
}
