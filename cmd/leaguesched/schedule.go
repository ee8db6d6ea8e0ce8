package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/derekprior/leaguesched/internal/config"
	"github.com/derekprior/leaguesched/internal/db"
	"github.com/derekprior/leaguesched/internal/excel"
	"github.com/derekprior/leaguesched/internal/games"
	"github.com/derekprior/leaguesched/internal/jobs"
	"github.com/derekprior/leaguesched/internal/schedule"
	"github.com/derekprior/leaguesched/internal/validator"
)

func newScheduleCmd() *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Generate, regenerate and check season schedules",
	}

	var configFile string
	scheduleCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to league file (default: league.yaml in current directory)")

	var outputFile string
	generateCmd := &cobra.Command{
		Use:          "generate",
		Short:        "Generate every division's season into a workbook without touching the database",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(configFile, outputFile)
		},
	}
	generateCmd.Flags().StringVarP(&outputFile, "output", "o", "season.xlsx", "Output Excel file path")

	var division string
	regenerateCmd := &cobra.Command{
		Use:          "regenerate",
		Short:        "Reconcile the stored games with the league file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegenerate(cmd.Context(), configFile, division)
		},
	}
	regenerateCmd.Flags().StringVar(&division, "division", "", "Only regenerate this division")

	checkCmd := &cobra.Command{
		Use:          "check <season.xlsx>",
		Short:        "Report location conflicts in an edited workbook",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(args[0])
		},
	}

	var every time.Duration
	var cronExpr string
	watchCmd := &cobra.Command{
		Use:          "watch",
		Short:        "Regenerate periodically until interrupted",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(configFile, every, cronExpr)
		},
	}
	watchCmd.Flags().DurationVar(&every, "every", time.Hour, "Regeneration interval")
	watchCmd.Flags().StringVar(&cronExpr, "cron", "", "Crontab expression; overrides --every")

	var historyLimit int
	historyCmd := &cobra.Command{
		Use:          "history",
		Short:        "Show recent regeneration runs",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(configFile, func(database *db.DB) error {
				return runHistory(cmd.Context(), database, division, historyLimit)
			})
		},
	}
	historyCmd.Flags().StringVar(&division, "division", "", "Only show this division")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of runs to show")

	scheduleCmd.AddCommand(generateCmd, regenerateCmd, checkCmd, watchCmd, historyCmd)
	return scheduleCmd
}

// validateAll checks every division and prints every violation before failing.
func validateAll(divisions []config.Division) error {
	invalid := 0
	for _, d := range divisions {
		err := validator.Validate(d.Season).Err()
		var verr *validator.InvalidConfigError
		if !errors.As(err, &verr) {
			continue
		}
		invalid++
		fmt.Printf("✗ Division %s:\n", d.ID)
		for _, v := range verr.Violations {
			fmt.Printf("    %s\n", v)
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d divisions have an invalid season: %w", invalid, len(divisions), validator.ErrInvalidConfig)
	}
	return nil
}

func runGenerate(configFlag, outputPath string) error {
	cfg, err := loadConfig(configFlag)
	if err != nil {
		return err
	}
	if err := validateAll(cfg.Divisions); err != nil {
		return err
	}

	var divisions []excel.Division
	var all []games.Game
	for _, d := range cfg.Divisions {
		plan := schedule.Reconciler{DivisionID: d.ID}.Reconcile(nil, schedule.Generate(d.Season))
		gs := plan.Apply(nil)
		all = append(all, gs...)
		divisions = append(divisions, excel.Division{
			ID:       d.ID,
			Name:     d.Name,
			Calendar: schedule.GenerateCalendar(d.Season),
			Games:    gs,
		})
		fmt.Printf("✓ %-12s %2d weeks, first %s, last %s\n", d.ID, len(gs), firstDate(gs), lastDate(gs))
	}

	conflicts := schedule.DetectConflicts(all, nil)
	printConflicts(conflicts)

	f, err := excel.Generate(divisions, conflicts)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}

	fmt.Printf("\n✓ Schedule saved to %s\n", outputPath)
	return nil
}

func firstDate(gs []games.Game) string {
	if len(gs) == 0 {
		return "-"
	}
	return gs[0].Start.Format("2006-01-02")
}

func lastDate(gs []games.Game) string {
	if len(gs) == 0 {
		return "-"
	}
	return gs[len(gs)-1].Start.Format("2006-01-02")
}

func printConflicts(conflicts []schedule.Conflict) {
	if len(conflicts) == 0 {
		fmt.Println("\n✓ No location conflicts")
		return
	}
	fmt.Printf("\nLocation conflicts (%d):\n", len(conflicts))
	for _, c := range conflicts {
		fmt.Printf("  ⚠ %s\n", c)
	}
}

func jobsFor(cfg *config.Config, division string) ([]schedule.Job, error) {
	var out []schedule.Job
	for _, d := range cfg.Divisions {
		if division != "" && d.ID != division {
			continue
		}
		out = append(out, schedule.Job{DivisionID: d.ID, Season: d.Season})
	}
	if division != "" && len(out) == 0 {
		return nil, fmt.Errorf("unknown division %q", division)
	}
	return out, nil
}

// regenerate runs one full pass and records each successful division.
func regenerate(ctx context.Context, database *db.DB, cfg *config.Config, division string) error {
	todo, err := jobsFor(cfg, division)
	if err != nil {
		return err
	}

	svc := schedule.NewService(database)
	summaries, runErr := svc.RegenerateAll(ctx, todo)

	for i, sum := range summaries {
		if sum.Err != nil {
			fmt.Printf("✗ %-12s %s\n", todo[i].DivisionID, sum.Err)
			var verr *validator.InvalidConfigError
			if errors.As(sum.Err, &verr) {
				for _, v := range verr.Violations {
					fmt.Printf("    %s\n", v)
				}
			}
			continue
		}
		printSummary(sum)
		if _, err := database.Queries.CreateRun(ctx, db.Run{
			DivisionID:     sum.DivisionID,
			Created:        sum.Created,
			Updated:        sum.Updated,
			Deleted:        sum.Deleted,
			Unchanged:      sum.Unchanged,
			Conflicts:      len(sum.Conflicts),
			LockedWarnings: len(sum.LockedWarnings),
		}); err != nil {
			log.Warn().Err(err).Str("division_id", sum.DivisionID).Msg("Recording regeneration run failed")
		}
	}

	return runErr
}

func printSummary(sum schedule.Summary) {
	fmt.Printf("✓ %-12s created %d, updated %d, deleted %d, unchanged %d\n",
		sum.DivisionID, sum.Created, sum.Updated, sum.Deleted, sum.Unchanged)
	for _, w := range sum.LockedWarnings {
		fmt.Printf("  ⚠ %s\n", w)
	}
	for _, c := range sum.Conflicts {
		fmt.Printf("  ⚠ %s\n", c)
	}
}

func runRegenerate(ctx context.Context, configFlag, division string) error {
	cfg, err := loadConfig(configFlag)
	if err != nil {
		return err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	return regenerate(ctx, database, cfg, division)
}

func runCheck(path string) error {
	gs, err := excel.ReadGames(path)
	if err != nil {
		return err
	}
	conflicts := schedule.DetectConflicts(gs, nil)
	fmt.Printf("Checked %d games\n", len(gs))
	printConflicts(conflicts)
	if len(conflicts) > 0 {
		return fmt.Errorf("%d location conflicts found", len(conflicts))
	}
	return nil
}

func runWatch(configFlag string, every time.Duration, cronExpr string) error {
	cfg, err := loadConfig(configFlag)
	if err != nil {
		return err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := jobs.New()
	if err != nil {
		return fmt.Errorf("creating job runner: %w", err)
	}

	// The league file is re-read on every run so edits take effect without a restart.
	task := func() {
		current, err := loadConfig(configFlag)
		if err != nil {
			log.Error().Err(err).Msg("Reloading league file failed")
			return
		}
		if err := regenerate(ctx, database, current, ""); err != nil {
			log.Error().Err(err).Msg("Scheduled regeneration failed")
		}
	}

	if cronExpr != "" {
		_, err = runner.AddCronJob("regenerate", cronExpr, task)
	} else {
		_, err = runner.AddIntervalJob("regenerate", every, task)
	}
	if err != nil {
		return fmt.Errorf("registering job: %w", err)
	}

	runner.Start()
	<-ctx.Done()
	return runner.Stop()
}

func runHistory(ctx context.Context, database *db.DB, division string, limit int) error {
	runs, err := database.Queries.ListRuns(ctx, division, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No regeneration runs recorded")
		return nil
	}
	fmt.Printf("  %-20s %-12s %7s %7s %7s %9s %9s %6s\n", "Ran at", "Division", "Created", "Updated", "Deleted", "Unchanged", "Conflicts", "Locked")
	for _, r := range runs {
		fmt.Printf("  %-20s %-12s %7d %7d %7d %9d %9d %6d\n",
			r.RanAt.Format("2006-01-02 15:04:05"), r.DivisionID,
			r.Created, r.Updated, r.Deleted, r.Unchanged, r.Conflicts, r.LockedWarnings)
	}
	return nil
}
