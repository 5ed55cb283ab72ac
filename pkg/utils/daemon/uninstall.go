package daemon

import (
	"fmt"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"
)

func Uninstall(opts Options) error {
	return uninstall(runtime.GOOS, opts)
}

func uninstall(goos string, opts Options) error {
	svc, err := NewService(goos, opts)
	if err != nil {
		return err
	}

	// if the file doesn't exist, there is nothing to stop or remove
	if _, err := os.Stat(svc.Path); err != nil {
		if os.IsNotExist(err) {
			logrus.Infof("%s does not exist, nothing to uninstall", svc.Path)
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", svc.Path, err)
	}

	logrus.Infof("stopping tomato")
	for _, args := range svc.Disable {
		if err := runCommand(args); err != nil {
			// The service may already be stopped. Removing the file still
			// keeps it from starting again.
			logrus.WithError(err).Warn("failed to disable service")
		}
	}

	logrus.Infof("removing %s", svc.Path)
	if err := os.Remove(svc.Path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", svc.Path, err)
	}

	return nil
}
