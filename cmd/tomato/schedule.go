package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/charlie0129/tomato/pkg/client"
)

func NewScheduleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedule [cron-expression]",
		Aliases: []string{"sch", "sched"},
		Short:   "Manage automatic focus session schedule",
		Long: `Manage automatic focus session schedule.

The schedule command can be used in multiple ways:
  tomato schedule 'minute hour day month weekday' Set schedule with cron expression
  tomato schedule disable                         Disable the schedule
  tomato schedule postpone [minutes]              Postpone next run
  tomato schedule skip                            Skip next run
  tomato schedule show                            Show current schedule

A scheduled run starts a focus session unless one is already running.`,
		Example: `  tomato schedule '0 9 * * 1-5'  (At 09:00 on weekdays)
  tomato schedule '30 13 * * *'  (At 13:30 every day)`,
		GroupID: gConfig,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runScheduleShow(cmd)
			}
			return runScheduleSet(cmd, args[0])
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "disable",
			Short: "Disable the focus session schedule",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if _, err := apiClient.SetSchedule(""); err != nil {
					return err
				}
				cmd.Println("Focus session schedule disabled.")
				return nil
			},
		},
		newSchedulePostponeCommand(),
		&cobra.Command{
			Use:   "skip",
			Short: "Skip the next scheduled focus session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				st, err := apiClient.SkipSchedule()
				if err != nil {
					return err
				}
				cmd.Println("Next scheduled run skipped.")
				printScheduleStatus(cmd, st)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show the current focus session schedule",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runScheduleShow(cmd)
			},
		},
	)

	return cmd
}

func newSchedulePostponeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "postpone [minutes]",
		Short: "Postpone the next scheduled focus session",
		Example: `  tomato schedule postpone     (Postpone by 15 minutes)
  tomato schedule postpone 45  (Postpone by 45 minutes)`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			minutes := 15
			if len(args) > 0 {
				m, err := parseIntArg(args, "minutes")
				if err != nil {
					return err
				}
				minutes = m
			}
			st, err := apiClient.PostponeSchedule(minutes)
			if err != nil {
				return err
			}
			cmd.Printf("Next run postponed by %s.\n", time.Duration(minutes)*time.Minute)
			printScheduleStatus(cmd, st)
			return nil
		},
	}
}

func runScheduleSet(cmd *cobra.Command, cronExpr string) error {
	if cronExpr == "" {
		return fmt.Errorf("cron expression cannot be empty")
	}
	st, err := apiClient.SetSchedule(cronExpr)
	if err != nil {
		return err
	}
	cmd.Println("Focus sessions scheduled.")
	printScheduleStatus(cmd, st)
	return nil
}

func runScheduleShow(cmd *cobra.Command) error {
	st, err := apiClient.GetSchedule()
	if err != nil {
		return err
	}
	if st.Expr == "" {
		cmd.Println("Focus session schedule is not set.")
		return nil
	}
	printScheduleStatus(cmd, st)
	return nil
}

func printScheduleStatus(cmd *cobra.Command, st *client.ScheduleStatus) {
	cmd.Printf("  Schedule: %s\n", bold("%s", st.Expr))
	if !st.NextRun.IsZero() {
		cmd.Printf("  Next run: %s\n", st.NextRun.Local().Format(time.DateTime))
	}
	cmd.Printf("  Active: %s\n", bool2Text(st.Running))
}
