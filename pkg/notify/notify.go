// Package notify delivers timer notifications to logs, event subscribers and
// the desktop.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/tomato/pkg/config"
	"github.com/charlie0129/tomato/pkg/events"
	"github.com/charlie0129/tomato/pkg/timer"
)

const commandTimeout = 10 * time.Second

// Log writes notifications to the standard logrus logger.
type Log struct{}

func (Log) Notify(title, body string) error {
	logrus.WithField("body", body).Info(title)
	return nil
}

// Hub publishes notifications as events.
type Hub struct {
	Hub *events.Hub
}

func (h Hub) Notify(title, body string) error {
	h.Hub.Publish(events.Notification, events.NotificationEvent{Title: title, Body: body})
	return nil
}

// Multi sends to every notifier and joins their errors.
type Multi []timer.Notifier

func (m Multi) Notify(title, body string) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(title, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Async delivers through N in the background and only logs failures.
type Async struct {
	N timer.Notifier
}

func (a Async) Notify(title, body string) error {
	go func() {
		if err := a.N.Notify(title, body); err != nil {
			logrus.WithError(err).WithField("title", title).Warn("failed to deliver notification")
		}
	}()
	return nil
}

// Runner runs an external program.
type Runner func(ctx context.Context, name string, args ...string) error

// Desktop shows notifications with notify-send on Linux, osascript on macOS,
// or a user supplied command. Options are read from conf on every call, so a
// reloaded config takes effect immediately.
type Desktop struct {
	conf config.Config
	goos string
	run  Runner
}

func NewDesktop(conf config.Config) *Desktop {
	return &Desktop{conf: conf, goos: runtime.GOOS, run: runCommand}
}

func (d *Desktop) Notify(title, body string) error {
	if !d.conf.DesktopNotifications() {
		return nil
	}
	name, args, err := d.command(title, body)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := d.run(ctx, name, args...); err != nil {
		return pkgerrors.Wrapf(err, "failed to show desktop notification with %s", name)
	}
	return nil
}

// command builds the program invocation. A custom command gets the title and
// body appended as its last two arguments.
func (d *Desktop) command(title, body string) (string, []string, error) {
	if custom := strings.Fields(d.conf.NotifyCommand()); len(custom) > 0 {
		return custom[0], append(custom[1:], title, body), nil
	}
	switch d.goos {
	case "linux", "freebsd", "openbsd":
		return "notify-send", []string{"--app-name=tomato", title, body}, nil
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(body), escapeAppleScript(title))
		return "/usr/bin/osascript", []string{"-e", script}, nil
	}
	return "", nil, fmt.Errorf("desktop notifications are not supported on %s; set notifyCommand instead", d.goos)
}

func escapeAppleScript(in string) string {
	out := strings.Builder{}
	for _, r := range in {
		switch r {
		case '"':
			out.WriteString(`\"`)
		case '\\':
			out.WriteString(`\\`)
		case '\n':
			out.WriteString(`\n`)
		default:
			out.WriteRune(r)
		}
	}
	return out.String()
}

func runCommand(ctx context.Context, name string, args ...string) error {
	output := &bytes.Buffer{}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = output
	cmd.Stderr = output
	if err := cmd.Run(); err != nil {
		return pkgerrors.Wrapf(err, "output: %s", strings.TrimSpace(output.String()))
	}
	return nil
}
