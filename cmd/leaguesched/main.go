package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/derekprior/leaguesched/internal/config"
	"github.com/derekprior/leaguesched/internal/db"
	"github.com/derekprior/leaguesched/internal/logging"
)

const (
	defaultConfigFile   = "league.yaml"
	defaultDatabaseFile = "league.db"
)

func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile, nil
	}
	return "", fmt.Errorf("no league file found. Either create %s in the current directory or pass --config", defaultConfigFile)
}

// loadConfig reads the league file and reconfigures logging from it.
func loadConfig(configFlag string) (*config.Config, error) {
	path, err := resolveConfigPath(configFlag)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := logging.Setup(nil, cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, err
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join(filepath.Dir(path), defaultDatabaseFile)
	}
	return cfg, nil
}

func openDatabase(cfg *config.Config) (*db.DB, error) {
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	log.Debug().Str("path", cfg.Database.Path).Msg("Database opened")
	return database, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "leaguesched",
		Short: "Weekly season schedule generator for recreational leagues",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Setup(nil, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
		},
	}

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter league.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultConfigFile, "Output path for the league file")

	rootCmd.AddCommand(initCmd, newScheduleCmd(), newGamesCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}

const configTemplate = `# League Season Configuration
# ===========================
# Each division plays one game per week on a fixed weekday and time.

# Default time zone for divisions whose city does not set one.
timezone: "America/New_York"

# Cities map a division to the time zone its dates are read in.
cities:
  - name: "Reading"
    timezone: "America/New_York"

# The SQLite file holding generated games. LEAGUE_DATABASE_PATH overrides it.
database:
  path: "league.db"

# Log level (debug, info, warn, error) and format (console or json).
# LOG_LEVEL and LOG_FORMAT override these.
logging:
  level: "info"
  format: "console"

divisions:
  - id: "u12"
    name: "Under 12"
    city: "Reading"
    season:
      weekday: "Tuesday"
      start_time: "18:30"
      end_time: "19:45"
      start_date: "2024-01-02"

      # Bound the season with a week count, an end date, or both.
      # When both are set, whichever is reached first ends the season.
      weeks: 10
      # end_date: "2024-03-31"

      # Blackouts are skipped without using up a week. Use 'date' for a
      # single day or 'start_date'/'end_date' for an inclusive range.
      blackouts:
        - date: "2024-02-13"
          reason: "Winter break"

      # The last N playable weeks are marked as playoffs.
      playoff_weeks: 2

      # Informational only; it must not fall after start_date.
      early_registration_cutoff: "2023-12-15"

      location: "Symonds Field"
`
