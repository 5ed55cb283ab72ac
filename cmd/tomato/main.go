package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/charlie0129/tomato/pkg/client"
	"github.com/charlie0129/tomato/pkg/gui"
)

var (
	logLevel       = "info"
	unixSocketPath = defaultSocketPath()
	configPath     = defaultStatePath("config.json")
	dataPath       = defaultStatePath("data.json")

	apiClient *client.Client
)

var (
	gTimer        = "Timer:"
	gInfo         = "Info:"
	gData         = "Data:"
	gConfig       = "Configuration:"
	gDaemon       = "Daemon:"
	commandGroups = []string{
		gTimer,
		gInfo,
		gData,
		gConfig,
		gDaemon,
	}
)

// annotationOffline marks commands that do not talk to the daemon.
const annotationOffline = "offline"

func defaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "tomato.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("tomato-%d.sock", os.Getuid()))
}

func defaultStatePath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "tomato", name)
}

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

// bindEnv lets TOMATO_<FLAG> environment variables fill global flags that
// were not given on the command line.
func bindEnv(flags *pflag.FlagSet) error {
	v := viper.New()
	v.SetEnvPrefix("TOMATO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || err != nil || !v.IsSet(f.Name) {
			return
		}
		if setErr := f.Value.Set(v.GetString(f.Name)); setErr != nil {
			err = fmt.Errorf("invalid value for TOMATO_%s: %w", strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_")), setErr)
		}
	})
	return err
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrDaemonNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: tomato daemon is not running")
		fmt.Fprintln(os.Stderr, "Start it with 'tomato daemon', or install it as a service with 'tomato install'.")
	} else if errors.Is(err, client.ErrPermissionDenied) {
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - The daemon socket belongs to another user")
		fmt.Fprintln(os.Stderr, "  - Restart the daemon with '--always-allow-non-root-access' to share it")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tomato",
		Short: "tomato is a pomodoro focus timer",
		Long: `tomato is a pomodoro focus timer.

A daemon keeps the timer running, records your focus history and keeps
distracting programs closed during focus sessions. This command talks to it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := bindEnv(cmd.Root().PersistentFlags()); err != nil {
				return err
			}
			if err := setupLogger(); err != nil {
				return err
			}

			apiClient = client.NewClient(unixSocketPath)
			if cmd.Annotations[annotationOffline] == "true" {
				return nil
			}

			if clientVersion, daemonVersion, err := getVersion(); err == nil {
				if daemonVersion != clientVersion {
					logrus.WithFields(logrus.Fields{
						"clientVersion": clientVersion,
						"daemonVersion": daemonVersion,
					}).Warn("Version mismatch between client and daemon. Restart the daemon after upgrading tomato.")
				}
			} else if errors.Is(err, client.ErrNotFound) {
				logrus.Error("tomato daemon is too old to report its version. Restart the daemon after upgrading tomato.")
			}

			return nil
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "daemon config file path")
	globalFlags.StringVar(&dataPath, "data", dataPath, "daemon data file path")
	globalFlags.StringVar(&unixSocketPath, "daemon-socket", unixSocketPath, "tomato daemon unix socket path")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		// Timer
		NewStartCommand(),
		NewPauseCommand(),
		NewResetCommand(),
		NewSkipCommand(),
		NewTagCommand(),
		// Info
		NewStatusCommand(),
		NewComboCommand(),
		NewWatchCommand(),
		// Data
		NewHistoryCommand(),
		NewTagsCommand(),
		NewInterruptCommand(),
		NewInterruptionsCommand(),
		NewAnalysisCommand(),
		NewDailyCommand(),
		// Configuration
		NewSettingsCommand(),
		NewGoalCommand(),
		NewBlacklistCommand(),
		NewScheduleCommand(),
		// Daemon
		NewDaemonCommand(),
		NewInstallCommand(),
		NewUninstallCommand(),
		gui.NewTrayCommand(&unixSocketPath, gDaemon),
		NewVersionCommand(),
	)

	return cmd
}
