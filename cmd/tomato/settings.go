package main

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/tomato/pkg/appdata"
)

func NewSettingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "settings",
		Short:   "Show or change timer settings",
		GroupID: gConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSettingsShow(cmd)
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show timer settings as JSON",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runSettingsShow(cmd)
			},
		},
		newSettingsSetCommand(),
	)
	return cmd
}

func runSettingsShow(cmd *cobra.Command) error {
	s, err := apiClient.GetSettings()
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), s)
}

// settingsFlags holds one flag per user-facing setting.
type settingsFlags struct {
	pomodoro              int
	shortBreak            int
	longBreak             int
	longBreakInterval     int
	autoContinue          bool
	autoContinuePomodoros int
	interruptions         bool
}

func (f *settingsFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&f.pomodoro, "pomodoro", 0, "focus length in minutes")
	fs.IntVar(&f.shortBreak, "short-break", 0, "short break length in minutes")
	fs.IntVar(&f.longBreak, "long-break", 0, "long break length in minutes")
	fs.IntVar(&f.longBreakInterval, "long-break-interval", 0, "number of focus sessions before a long break")
	fs.BoolVar(&f.autoContinue, "auto-continue", false, "start the next phase automatically")
	fs.IntVar(&f.autoContinuePomodoros, "auto-continue-pomodoros", 0, "number of focus sessions to chain automatically")
	fs.BoolVar(&f.interruptions, "interruptions", false, "record interruptions when a focus session is reset or skipped")
}

// apply copies the flags that were set onto s.
func (f *settingsFlags) apply(cmd *cobra.Command, s *appdata.Settings) int {
	n := 0
	set := func(name string, fn func()) {
		if cmd.Flags().Changed(name) {
			fn()
			n++
		}
	}
	set("pomodoro", func() { s.Pomodoro = f.pomodoro })
	set("short-break", func() { s.ShortBreak = f.shortBreak })
	set("long-break", func() { s.LongBreak = f.longBreak })
	set("long-break-interval", func() { s.LongBreakInterval = f.longBreakInterval })
	set("auto-continue", func() { s.AutoContinueEnabled = f.autoContinue })
	set("auto-continue-pomodoros", func() { s.AutoContinuePomodoros = f.autoContinuePomodoros })
	set("interruptions", func() { s.Interruption.Enabled = f.interruptions })
	return n
}

func newSettingsSetCommand() *cobra.Command {
	var f settingsFlags
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change timer settings",
		Example: `  tomato settings set --pomodoro 50 --short-break 10
  tomato settings set --auto-continue --auto-continue-pomodoros 4`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := apiClient.GetSettings()
			if err != nil {
				return err
			}
			if f.apply(cmd, s) == 0 {
				return fmt.Errorf("no settings given, see 'tomato settings set --help'")
			}
			if _, err := apiClient.SetSettings(*s); err != nil {
				return fmt.Errorf("failed to update settings: %w", err)
			}
			logrus.Info("successfully updated settings")
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func NewGoalCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "goal <daily> [weekly]",
		Short:   "Set daily and weekly focus goals",
		GroupID: gConfig,
		Long: `Set daily and weekly focus goals, counted in focus sessions.

A goal of 0 disables it. When weekly is omitted it is left unchanged. You are
notified halfway to a goal and when you reach it.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			daily, err := parseIntArg(args[:1], "daily goal")
			if err != nil {
				return err
			}
			var weekly int
			if len(args) == 2 {
				weekly, err = parseIntArg(args[1:], "weekly goal")
				if err != nil {
					return err
				}
			} else {
				s, err := apiClient.GetSettings()
				if err != nil {
					return err
				}
				weekly = s.WeeklyGoal
			}

			if _, err := apiClient.SetGoals(daily, weekly); err != nil {
				return fmt.Errorf("failed to set goals: %w", err)
			}
			logrus.Infof("successfully set goals to %d daily, %d weekly", daily, weekly)
			return nil
		},
	}
}

func NewBlacklistCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "blacklist",
		Short:   "Manage programs closed during focus sessions",
		GroupID: gConfig,
		Long: `Manage programs closed during focus sessions.

Names are process names, matched ignoring case and a trailing .exe. While a
focus session is started the blacklist cannot shrink.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBlacklistList(cmd)
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List blacklisted programs",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runBlacklistList(cmd)
			},
		},
		&cobra.Command{
			Use:   "add <name> [display name]",
			Short: "Add a program to the blacklist",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(_ *cobra.Command, args []string) error {
				items, err := apiClient.GetBlacklist()
				if err != nil {
					return err
				}
				item := appdata.BlacklistItem{Name: args[0], DisplayName: args[0]}
				if len(args) == 2 {
					item.DisplayName = args[1]
				}
				if _, err := apiClient.SetBlacklist(append(items, item)); err != nil {
					return fmt.Errorf("failed to update blacklist: %w", err)
				}
				logrus.Infof("successfully added %q to the blacklist", item.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <name>",
			Short: "Remove a program from the blacklist",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				items, err := apiClient.GetBlacklist()
				if err != nil {
					return err
				}
				kept := removeBlacklistItem(items, args[0])
				if len(kept) == len(items) {
					return fmt.Errorf("%q is not on the blacklist", args[0])
				}
				if _, err := apiClient.SetBlacklist(kept); err != nil {
					return fmt.Errorf("failed to update blacklist: %w", err)
				}
				logrus.Infof("successfully removed %q from the blacklist", args[0])
				return nil
			},
		},
	)
	return cmd
}

func runBlacklistList(cmd *cobra.Command) error {
	items, err := apiClient.GetBlacklist()
	if err != nil {
		return err
	}
	if len(items) == 0 {
		cmd.Println("The blacklist is empty.")
		return nil
	}
	for _, it := range items {
		if it.DisplayName != "" && it.DisplayName != it.Name {
			cmd.Printf("%s (%s)\n", it.Name, it.DisplayName)
		} else {
			cmd.Println(it.Name)
		}
	}
	return nil
}

// removeBlacklistItem drops name, compared case-insensitively.
func removeBlacklistItem(items []appdata.BlacklistItem, name string) []appdata.BlacklistItem {
	kept := make([]appdata.BlacklistItem, 0, len(items))
	for _, it := range items {
		if !strings.EqualFold(it.Name, strings.TrimSpace(name)) {
			kept = append(kept, it)
		}
	}
	return kept
}
