package gui

import (
	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/tomato/pkg/client"
	"github.com/charlie0129/tomato/pkg/events"
	"github.com/charlie0129/tomato/pkg/timer"
	"github.com/charlie0129/tomato/pkg/version"
)

func NewTrayCommand(unixSocketPath *string, groupID string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tray",
		Short:   "Show the timer in the system tray",
		GroupID: groupID,
		Long: `Show the timer in the system tray.

The tray talks to a running tomato daemon. Quitting the tray does not stop the timer.`,
		Run: func(_ *cobra.Command, _ []string) {
			Run(*unixSocketPath)
		},
	}

	return cmd
}

// Run blocks until the tray is quit.
func Run(unixSocketPath string) {
	logrus.WithField("version", version.Version).WithField("gitCommit", version.GitCommit).Info("tomato tray")
	ctrl := newMenuController(client.NewClient(unixSocketPath))
	systray.Run(ctrl.onReady, ctrl.onExit)
}

// handleEvent reacts to one daemon event. Only snapshots change the tray.
func (c *menuController) handleEvent(ev events.Event) {
	logrus.WithFields(logrus.Fields{
		"event": ev.Name,
		"data":  string(ev.Data),
	}).Trace("new event")

	if ev.Name != events.TimerSnapshot {
		return
	}
	snap, err := events.DecodeAs[timer.Snapshot](ev)
	if err != nil {
		logrus.WithError(err).Error("failed to decode timer.snapshot event")
		return
	}
	c.applySnapshot(&snap)
}
