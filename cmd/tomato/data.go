package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/tomato/pkg/interruption"
)

func NewTagsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tags",
		Short:   "List, add or remove tags",
		GroupID: gData,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tags, err := apiClient.GetTags()
			if err != nil {
				return err
			}
			for _, t := range tags {
				cmd.Println(t)
			}
			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <tag>",
			Short: "Add a tag",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				if _, err := apiClient.AddTag(args[0]); err != nil {
					return fmt.Errorf("failed to add tag: %w", err)
				}
				logrus.Infof("successfully added tag %q", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <tag>",
			Short: "Remove a tag. The last tag cannot be removed",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				if _, err := apiClient.RemoveTag(args[0]); err != nil {
					return fmt.Errorf("failed to remove tag: %w", err)
				}
				logrus.Infof("successfully removed tag %q", args[0])
				return nil
			},
		},
	)
	return cmd
}

func NewInterruptCommand() *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:     "interrupt [reason]",
		Short:   "Record an interruption of the current focus session",
		GroupID: gData,
		Long: `Record an interruption of the current focus session.

This only records the interruption and ends the combo. Use 'tomato reset' or
'tomato skip' to also stop the session.`,
		RunE: func(_ *cobra.Command, args []string) error {
			t, err := interruption.ParseType(typ)
			if err != nil {
				return err
			}
			rec, err := apiClient.RecordInterruption(t, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("failed to record interruption: %w", err)
			}
			logrus.WithField("id", rec.ID).Infof("recorded interruption after %s of focus", time.Duration(rec.FocusedSeconds)*time.Second)
			return nil
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", "reset", "interruption type (reset, skip, quit)")
	return cmd
}

func NewInterruptionsCommand() *cobra.Command {
	var r rangeFlags
	cmd := &cobra.Command{
		Use:     "interruptions",
		Short:   "Show interruption statistics",
		GroupID: gData,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := apiClient.GetInterruptionStats(r.dateRange())
			if err != nil {
				return err
			}
			printInterruptionStats(cmd, stats)
			return nil
		},
	}
	r.register(cmd)
	return cmd
}

func printInterruptionStats(cmd *cobra.Command, s *interruption.Stats) {
	cmd.Println(bold("Interruptions %s to %s:", s.Range.From, s.Range.To))
	cmd.Printf("  Total: %s\n", bold("%d", s.TotalInterruptions))
	cmd.Printf("  Per day: %s, per week: %s\n", bold("%.1f", s.DailyAverage), bold("%.1f", s.WeeklyAverage))
	cmd.Printf("  Interruption rate: %s\n", rateText(s.InterruptionRate))
	cmd.Printf("  Average focus before interruption: %s\n", bold("%s", (time.Duration(s.AverageFocusedSeconds)*time.Second).Round(time.Second)))

	if len(s.ReasonDistribution) > 0 {
		cmd.Println()
		cmd.Println(bold("Reasons:"))
		for _, rc := range s.ReasonDistribution {
			cmd.Printf("  %-24s %d\n", rc.Reason, rc.Count)
		}
	}

	if s.TotalInterruptions > 0 {
		cmd.Println()
		cmd.Println(bold("By hour:"))
		printHourly(cmd, s.HourlyCounts[:])
	}
}

func rateText(rate float64) string {
	s := fmt.Sprintf("%.0f%%", rate*100)
	switch {
	case rate >= 0.5:
		return color.New(color.Bold, color.FgRed).Sprint(s)
	case rate >= 0.2:
		return color.New(color.Bold, color.FgYellow).Sprint(s)
	default:
		return color.New(color.Bold, color.FgGreen).Sprint(s)
	}
}

// printHourly prints one bar per hour that has any count.
func printHourly(cmd *cobra.Command, counts []int) {
	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}
	for h, c := range counts {
		if c == 0 {
			continue
		}
		cmd.Printf("  %02d:00 %-30s %d\n", h, bar(c, max, 30), c)
	}
}

func NewAnalysisCommand() *cobra.Command {
	var r rangeFlags
	cmd := &cobra.Command{
		Use:     "analysis",
		Short:   "Show when and on what you focus",
		GroupID: gData,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := apiClient.GetAnalysis(r.dateRange())
			if err != nil {
				return err
			}

			cmd.Println(bold("Focus analysis %s to %s:", a.From, a.To))
			if a.Summary != "" {
				cmd.Printf("  %s\n", a.Summary)
			}

			cmd.Println()
			cmd.Println(bold("By hour:"))
			printHourly(cmd, a.HourlyCounts)

			cmd.Println()
			cmd.Println(bold("By weekday:"))
			for i, c := range a.WeekdayCounts {
				cmd.Printf("  %-9s %d\n", time.Weekday((i+1)%7), c)
			}

			if len(a.TagEfficiency) > 0 {
				cmd.Println()
				cmd.Println(bold("By tag:"))
				for _, t := range a.TagEfficiency {
					cmd.Printf("  %-16s %3d sessions, %.1f min average\n", t.Tag, t.Count, t.AvgDuration)
				}
			}
			return nil
		},
	}
	r.register(cmd)
	return cmd
}

func NewDailyCommand() *cobra.Command {
	var r rangeFlags
	cmd := &cobra.Command{
		Use:     "daily",
		Short:   "Show daily totals",
		GroupID: gData,
		RunE: func(cmd *cobra.Command, _ []string) error {
			totals, err := apiClient.GetDailyTotals(r.dateRange())
			if err != nil {
				return err
			}
			if len(totals) == 0 {
				cmd.Println("No focus sessions in this range.")
				return nil
			}
			cmd.Println(bold("%-10s  %9s  %7s  %13s", "Date", "Sessions", "Minutes", "Interruptions"))
			for _, d := range totals {
				cmd.Printf("%-10s  %9d  %7d  %13d\n", d.Date, d.Pomodoros, d.Minutes, d.Interruptions)
			}
			return nil
		},
	}
	r.register(cmd)
	return cmd
}
