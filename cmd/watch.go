// =============================================================================
// Bill Generator - Watch Command
// =============================================================================
//
// COMMAND USAGE:
//   billgen watch [--schedule "*/5 * * * *"] [--run-now]
//
// Bills whatever is in the input directory on a cron schedule until
// interrupted. A run that is still going when the next one is due causes
// that next run to be skipped. Inputs are archived on success only when
// archive_inputs is set; otherwise they are billed again on every run.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var (
	watchSchedule string
	watchRunNow   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Process the input directory on a schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "Cron expression, overriding watch_schedule")
	watchCmd.Flags().BoolVar(&watchRunNow, "run-now", false, "Run once immediately before following the schedule")
}

func runWatch(cmd *cobra.Command) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	schedule := env.cfg.WatchSchedule
	if watchSchedule != "" {
		schedule = watchSchedule
	}

	loc, err := time.LoadLocation(env.cfg.WatchTimezone)
	if err != nil {
		return fmt.Errorf("invalid watch timezone: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tick := func() {
		jobs, err := planJobs(env)
		if err != nil {
			env.logger.Error("Watch run failed: %v", err)
			return
		}
		if len(jobs) == 0 {
			env.logger.Debug("Watch run at %s: nothing to do", time.Now().In(loc).Format(time.RFC3339))
			return
		}
		report := runBatch(ctx, env, jobs, batchOptions{})
		env.logger.Info("Watch run %s: %d billed, %d failed", report.runID,
			len(report.results)-report.failed-report.skipped, report.failed)
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(schedule, tick); err != nil {
		return fmt.Errorf("invalid watch schedule %q: %w", schedule, err)
	}

	if watchRunNow {
		tick()
	}

	c.Start()
	env.logger.Info("Watching %s on schedule %q (%s)", env.cfg.InputDir, schedule, loc)

	<-ctx.Done()
	env.logger.Info("Stopping; waiting for a running batch to finish")
	<-c.Stop().Done()
	return nil
}

// cmdContext guards against commands run without a context.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
