package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"

	"capdigital/backend/config"
	"capdigital/backend/services"
	"capdigital/backend/utils"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// openDB is swapped out by tests.
var openDB = func(cfg *config.Config, logger *log.Logger) (*gorm.DB, error) {
	return utils.InitDB(cfg, logger)
}

var (
	jsonOutput  bool
	deleteOrphs bool

	db     *gorm.DB
	logger *log.Logger

	rootCmd = &cobra.Command{
		Use:           "capdigital-repair",
		Short:         "Operator tooling for the CapDigital catalog and progress data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if db != nil {
				return nil
			}
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			logger = utils.InitLogger(utils.LoggerConfig{
				Format:       cfg.LogFormat,
				Output:       cmd.ErrOrStderr(),
				EnableColors: cfg.LogColors,
			})
			db, err = openDB(cfg, logger)
			return err
		},
	}

	auditCmd = &cobra.Command{
		Use:   "audit",
		Short: "Compare declared lesson counts with actual lessons and list orphan lessons",
		Args:  cobra.NoArgs,
		RunE:  runAudit,
	}

	syncCountsCmd = &cobra.Command{
		Use:   "sync-counts",
		Short: "Set every course's lessons_count to its number of active lessons",
		Args:  cobra.NoArgs,
		RunE:  runSyncCounts,
	}

	orphansCmd = &cobra.Command{
		Use:   "orphans",
		Short: "List progress records whose lesson no longer exists",
		Args:  cobra.NoArgs,
		RunE:  runOrphans,
	}

	userReportCmd = &cobra.Command{
		Use:   "user-report [user-id|email]",
		Short: "Show a learner's per-lesson completion for every course",
		Args:  cobra.ExactArgs(1),
		RunE:  runUserReport,
	}

	reevaluateCmd = &cobra.Command{
		Use:   "reevaluate [user-id|email]",
		Short: "Grant any achievements a learner is owed",
		Args:  cobra.ExactArgs(1),
		RunE:  runReevaluate,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	orphansCmd.Flags().BoolVar(&deleteOrphs, "delete", false, "delete the orphaned records")

	rootCmd.AddCommand(auditCmd, syncCountsCmd, orphansCmd, userReportCmd, reevaluateCmd)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runAudit(cmd *cobra.Command, args []string) error {
	audit, err := services.NewRepairService(db, logger).AuditCatalog(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, audit)
	}

	for _, c := range audit.Courses {
		mark := "ok"
		if !c.InSync {
			mark = "DRIFT"
		}
		fmt.Fprintf(out, "%-5s course %d %q declared=%d actual=%d\n", mark, c.CourseID, c.Title, c.DeclaredCount, c.ActualCount)
	}
	for _, l := range audit.OrphanLessons {
		fmt.Fprintf(out, "orphan lesson %d %q (course %d)\n", l.ID, l.Title, l.CourseID)
	}
	fmt.Fprintf(out, "%d course(s) drifted, %d orphan lesson(s)\n", audit.Drifted(), len(audit.OrphanLessons))
	return nil
}

func runSyncCounts(cmd *cobra.Command, args []string) error {
	changed, err := services.NewRepairService(db, logger).SyncLessonCounts(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, changed)
	}
	for _, c := range changed {
		fmt.Fprintf(out, "course %d %q: %d -> %d\n", c.CourseID, c.Title, c.DeclaredCount, c.ActualCount)
	}
	fmt.Fprintf(out, "%d course(s) updated\n", len(changed))
	return nil
}

func runOrphans(cmd *cobra.Command, args []string) error {
	svc := services.NewRepairService(db, logger)
	out := cmd.OutOrStdout()

	if deleteOrphs {
		n, err := svc.DeleteOrphanedProgress(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(out, map[string]int64{"deleted": n})
		}
		fmt.Fprintf(out, "%d orphaned progress record(s) deleted\n", n)
		return nil
	}

	orphans, err := svc.OrphanedProgress(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(out, orphans)
	}
	for _, p := range orphans {
		fmt.Fprintf(out, "progress %d user=%s lesson=%d\n", p.ID, p.UserID, p.LessonID)
	}
	fmt.Fprintf(out, "%d orphaned progress record(s)\n", len(orphans))
	return nil
}

func runUserReport(cmd *cobra.Command, args []string) error {
	user, err := services.NewAuthService(db, nil, 0, logger).FindUser(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	report, err := services.NewRepairService(db, logger).UserReport(cmd.Context(), user.ID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, report)
	}

	fmt.Fprintf(out, "%s (%s)\n", user.Email, user.ID)
	for _, c := range report {
		fmt.Fprintf(out, "course %d %q: %d%%\n", c.CourseID, c.Title, c.Percentage)
		for _, l := range c.Lessons {
			mark := " "
			if l.Completed {
				mark = "x"
			}
			fmt.Fprintf(out, "  [%s] %2d %s\n", mark, l.OrderIndex, l.Title)
		}
	}
	return nil
}

func runReevaluate(cmd *cobra.Command, args []string) error {
	achievements := services.NewAchievementService(db, logger)
	user, err := services.NewAuthService(db, achievements, 0, logger).FindUser(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	granted, err := achievements.Evaluate(cmd.Context(), user.ID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, granted)
	}
	for _, a := range granted {
		fmt.Fprintf(out, "granted %d %q (+%d)\n", a.ID, a.Title, a.Points)
	}
	fmt.Fprintf(out, "%d achievement(s) granted to %s\n", len(granted), user.Email)
	return nil
}
