package main

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/tomato/pkg/daemon"
	"github.com/charlie0129/tomato/pkg/version"
)

var (
	// alwaysAllowNonRootAccess indicates whether to always allow other users to access the tomato daemon.
	alwaysAllowNonRootAccess = false
)

// NewDaemonCommand .
func NewDaemonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "daemon",
		Short:       "Run tomato daemon in the foreground",
		GroupID:     gDaemon,
		Annotations: map[string]string{annotationOffline: "true"},
		RunE: func(_ *cobra.Command, _ []string) error {
			logrus.WithFields(logrus.Fields{
				"version": version.Version,
				"commit":  version.GitCommit,
			}).Info("tomato daemon starting")

			for _, p := range []string{configPath, dataPath, unixSocketPath} {
				if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
					return err
				}
			}

			return daemon.Run(daemon.Options{
				ConfigPath:     configPath,
				DataPath:       dataPath,
				UnixSocketPath: unixSocketPath,
				AllowNonRoot:   alwaysAllowNonRootAccess,
			})
		},
	}

	f := cmd.Flags()

	f.BoolVar(&alwaysAllowNonRootAccess, "always-allow-non-root-access", false,
		"Always allow other users to access the daemon.")

	return cmd
}

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version",
		GroupID:     gDaemon,
		Annotations: map[string]string{annotationOffline: "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("client: %s %s\n", version.Version, version.GitCommit)
			if v, err := apiClient.GetVersion(); err == nil {
				cmd.Printf("daemon: %s\n", v)
			}
		},
	}
}

func getVersion() (string, string, error) {
	daemonVersion, err := apiClient.GetVersion()
	if err != nil {
		return version.Version, "", err
	}
	return version.Version, daemonVersion, nil
}
