package main

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/tomato/pkg/timer"
)

func printShortSnapshot(cmd *cobra.Command, snap *timer.Snapshot) {
	state := "paused"
	if snap.IsRunning {
		state = "running"
	}
	cmd.Printf("%s %s, %s left (%s)\n", phaseText(snap.Phase), state, bold("%s", timer.FormatRemaining(snap.RemainingSeconds)), snap.CurrentTag)
}

func NewStartCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "start",
		Short:   "Start or resume the timer",
		GroupID: gTimer,
		Long: `Start or resume the timer.

Starting a focus session closes the programs on the blacklist and keeps them
closed until the session is reset, skipped or completed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := apiClient.Start()
			if err != nil {
				return fmt.Errorf("failed to start timer: %w", err)
			}
			printShortSnapshot(cmd, snap)
			return nil
		},
	}
}

func NewPauseCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "pause",
		Short:   "Pause the timer",
		GroupID: gTimer,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := apiClient.Pause()
			if err != nil {
				return fmt.Errorf("failed to pause timer: %w", err)
			}
			printShortSnapshot(cmd, snap)
			return nil
		},
	}
}

func newAbandonCommand(use, short, long string, call func(reason string) (*timer.Snapshot, error)) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:     use + " [reason]",
		Short:   short,
		Long:    long,
		GroupID: gTimer,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				reason = strings.Join(args, " ")
			}
			snap, err := call(reason)
			if err != nil {
				return fmt.Errorf("failed to %s timer: %w", use, err)
			}
			printShortSnapshot(cmd, snap)
			return nil
		},
	}
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "why the focus session was abandoned")
	return cmd
}

func NewResetCommand() *cobra.Command {
	return newAbandonCommand("reset", "Reset the current phase",
		`Reset the current phase to its full length.

Resetting a started focus session is recorded as an interruption when
interruption recording is enabled, and ends the current combo.`,
		func(reason string) (*timer.Snapshot, error) { return apiClient.Reset(reason) })
}

func NewSkipCommand() *cobra.Command {
	return newAbandonCommand("skip", "Skip to the next phase",
		`Skip to the next phase without recording it as completed.

Skipping a started focus session is recorded as an interruption when
interruption recording is enabled, and ends the current combo.`,
		func(reason string) (*timer.Snapshot, error) { return apiClient.Skip(reason) })
}

func NewTagCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "tag [name]",
		Short:   "Show or set the tag of focus sessions",
		GroupID: gTimer,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				snap, err := apiClient.GetSnapshot()
				if err != nil {
					return err
				}
				cmd.Println(snap.CurrentTag)
				return nil
			}

			snap, err := apiClient.SetTag(args[0])
			if err != nil {
				return fmt.Errorf("failed to set tag: %w", err)
			}
			logrus.Infof("successfully set tag to %q", snap.CurrentTag)
			return nil
		},
	}
}
