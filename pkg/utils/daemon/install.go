package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// runCommand runs one enable or disable step.
var runCommand = func(args []string) error {
	out, err := exec.Command(args[0], args[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// DefaultOptions fills the executable path and home directory of the
// current user.
func DefaultOptions() (Options, error) {
	// Get the path to the current executable
	exePath, err := os.Executable()
	if err != nil {
		return Options{}, fmt.Errorf("failed to get the path to the current executable: %w", err)
	}
	exePath, err = filepath.Abs(exePath)
	if err != nil {
		return Options{}, fmt.Errorf("failed to get the absolute path to the current executable: %w", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Options{}, fmt.Errorf("failed to get home directory: %w", err)
	}
	return Options{ExePath: exePath, HomeDir: home}, nil
}

func Install(opts Options) error {
	return install(runtime.GOOS, opts)
}

func install(goos string, opts Options) error {
	svc, err := NewService(goos, opts)
	if err != nil {
		return err
	}

	logrus.Infof("current executable path: %s", opts.ExePath)

	// warn if the file already exists
	if _, err := os.Stat(svc.Path); err == nil {
		return fmt.Errorf("%s already exists. Did you forget to uninstall tomato before installing it again? Please run 'tomato uninstall' first", svc.Path)
	}

	logrus.Infof("writing service to %s", svc.Path)
	if err := os.MkdirAll(filepath.Dir(svc.Path), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(svc.Path), err)
	}
	if err := os.WriteFile(svc.Path, svc.Content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", svc.Path, err)
	}

	logrus.Infof("starting tomato")
	for _, args := range svc.Enable {
		if err := runCommand(args); err != nil {
			return fmt.Errorf("failed to enable service: %w", err)
		}
	}

	return nil
}
