package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/charlie0129/tomato/pkg/timer"
	"github.com/charlie0129/tomato/pkg/tui"
)

func NewStatusCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gInfo,
		Short:   "Get the current status of the timer",
		Long:    `Get the timer state, today's and this week's progress, and the timer settings.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := apiClient.GetSnapshot()
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), snap)
			}
			printStatus(cmd, snap)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw snapshot as JSON")
	return cmd
}

func printStatus(cmd *cobra.Command, snap *timer.Snapshot) {
	cmd.Println(bold("Timer:"))
	cmd.Printf("  Phase: %s\n", phaseText(snap.Phase))
	cmd.Printf("  Remaining: %s\n", bold("%s", timer.FormatRemaining(snap.RemainingSeconds)))
	cmd.Printf("  Running: %s\n", bool2Text(snap.IsRunning))
	cmd.Printf("  Tag: %s\n", bold("%s", snap.CurrentTag))
	cmd.Printf("  Blacklist locked: %s\n", bool2Text(snap.BlacklistLocked))

	cmd.Println()

	g := snap.GoalProgress
	cmd.Println(bold("Progress:"))
	cmd.Printf("  Today: %s\n", goalText(g.DailyCompleted, g.DailyGoal))
	cmd.Printf("    %s\n", tagCounts(snap.TodayStats.ByTag))
	cmd.Printf("  This week: %s\n", goalText(g.WeeklyCompleted, g.WeeklyGoal))
	cmd.Printf("    %s\n", tagCounts(snap.WeekStats.ByTag))

	cmd.Println()

	s := snap.Settings
	cmd.Println(bold("Settings:"))
	cmd.Printf("  Focus / short break / long break: %s\n", bold("%d / %d / %d min", s.Pomodoro, s.ShortBreak, s.LongBreak))
	cmd.Printf("  Long break every: %s\n", bold("%d sessions", s.LongBreakInterval))
	cmd.Printf("  Auto-continue: %s", bool2Text(s.AutoContinueEnabled))
	if s.AutoContinueEnabled {
		cmd.Printf(" (%d sessions)", s.AutoContinuePomodoros)
	}
	cmd.Println()
	cmd.Printf("  Record interruptions: %s\n", bool2Text(s.Interruption.Enabled))
}

func NewComboCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "combo",
		GroupID: gInfo,
		Short:   "Show the current combo and the all-time total",
		Long: `Show the current combo and the all-time total.

The combo counts focus sessions completed back to back. It continues when the
next session starts within the break plus five minutes, and ends when a
session is interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			combo, err := apiClient.GetCombo()
			if err != nil {
				return err
			}
			cmd.Printf("Current combo: %s\n", bold("%d", combo.CurrentCombo))
			cmd.Printf("Total sessions: %s\n", bold("%d", combo.TotalPomodoros))
			return nil
		},
	}
}

func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "watch",
		GroupID: gInfo,
		Short:   "Watch the timer in the terminal",
		RunE: func(_ *cobra.Command, _ []string) error {
			return tui.Run(apiClient)
		},
	}
}
