package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	utilsdaemon "github.com/charlie0129/tomato/pkg/utils/daemon"
)

func serviceOptions() (utilsdaemon.Options, error) {
	opts, err := utilsdaemon.DefaultOptions()
	if err != nil {
		return opts, err
	}
	opts.ConfigPath = configPath
	opts.DataPath = dataPath
	opts.SocketPath = unixSocketPath
	return opts, nil
}

func NewInstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "install",
		Short:       "Install tomato daemon as a user service",
		GroupID:     gDaemon,
		Annotations: map[string]string{annotationOffline: "true"},
		Long: `Install tomato daemon as a user service.

On Linux this writes a systemd user unit, on macOS a launchd agent. The
service starts the daemon at login with the current --config, --data and
--daemon-socket paths.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := serviceOptions()
			if err != nil {
				return err
			}
			if err := utilsdaemon.Install(opts); err != nil {
				return err
			}
			logrus.Infof("installation succeeded")
			cmd.Println("tomato daemon is running. Try 'tomato status'.")
			return nil
		},
	}
}

func NewUninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "uninstall",
		Short:       "Uninstall tomato daemon service",
		GroupID:     gDaemon,
		Annotations: map[string]string{annotationOffline: "true"},
		Long: `Stop the tomato daemon service and remove it.

Your focus history and settings are kept.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			opts, err := serviceOptions()
			if err != nil {
				return err
			}
			if err := utilsdaemon.Uninstall(opts); err != nil {
				return err
			}
			logrus.Infof("successfully uninstalled tomato daemon")
			return nil
		},
	}
}
