package notify

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/charlie0129/tomato/pkg/config"
	"github.com/charlie0129/tomato/pkg/events"
	"github.com/charlie0129/tomato/pkg/timer"
)

type invocation struct {
	name string
	args []string
}

func newTestDesktop(goos string, runErr error) (*Desktop, config.Config, *[]invocation) {
	conf := config.NewFileFromConfig(nil, "")
	var calls []invocation
	d := &Desktop{
		conf: conf,
		goos: goos,
		run: func(_ context.Context, name string, args ...string) error {
			calls = append(calls, invocation{name: name, args: args})
			return runErr
		},
	}
	return d, conf, &calls
}

func TestDesktopCommands(t *testing.T) {
	tests := []struct {
		name    string
		goos    string
		custom  string
		want    invocation
		wantErr bool
	}{
		{
			name: "linux",
			goos: "linux",
			want: invocation{"notify-send", []string{"--app-name=tomato", "Focus complete", "Up next: Short break (5 min)"}},
		},
		{
			name: "darwin",
			goos: "darwin",
			want: invocation{"/usr/bin/osascript", []string{"-e", `display notification "Up next: Short break (5 min)" with title "Focus complete"`}},
		},
		{
			name:   "custom command",
			goos:   "windows",
			custom: "my-notifier --urgent",
			want:   invocation{"my-notifier", []string{"--urgent", "Focus complete", "Up next: Short break (5 min)"}},
		},
		{
			name:    "unsupported",
			goos:    "plan9",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, conf, calls := newTestDesktop(tt.goos, nil)
			conf.SetNotifyCommand(tt.custom)
			err := d.Notify("Focus complete", "Up next: Short break (5 min)")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Notify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(*calls) != 1 || !reflect.DeepEqual((*calls)[0], tt.want) {
				t.Fatalf("calls = %+v, want %+v", *calls, tt.want)
			}
		})
	}
}

func TestDesktopDisabled(t *testing.T) {
	d, conf, calls := newTestDesktop("linux", nil)
	conf.SetDesktopNotifications(false)
	if err := d.Notify("a", "b"); err != nil {
		t.Fatal(err)
	}
	if len(*calls) != 0 {
		t.Fatalf("nothing should run when disabled, got %+v", *calls)
	}
}

func TestDesktopRunError(t *testing.T) {
	d, _, _ := newTestDesktop("linux", errors.New("exit status 1"))
	err := d.Notify("a", "b")
	if err == nil || !strings.Contains(err.Error(), "notify-send") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestEscapeAppleScript(t *testing.T) {
	if got := escapeAppleScript("say \"hi\"\\\n"); got != `say \"hi\"\\\n` {
		t.Fatalf("escapeAppleScript() = %q", got)
	}
}

func TestMulti(t *testing.T) {
	hub := events.NewHub()
	ch := hub.Subscribe()
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	m := Multi{
		Log{},
		Hub{Hub: hub},
		timer.NotifierFunc(func(string, string) error { return errA }),
		nil,
		timer.NotifierFunc(func(string, string) error { return errB }),
	}
	err := m.Notify("Daily goal reached", "5/5")
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("expected both errors joined, got %v", err)
	}

	ev := <-ch
	payload, err := events.DecodeAs[events.NotificationEvent](ev)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Name != events.Notification || payload.Title != "Daily goal reached" || payload.Body != "5/5" {
		t.Fatalf("unexpected event %+v %+v", ev, payload)
	}
}

func TestAsync(t *testing.T) {
	done := make(chan string, 1)
	a := Async{N: timer.NotifierFunc(func(title, _ string) error {
		done <- title
		return errors.New("ignored")
	})}
	if err := a.Notify("Long break over", "Up next: Focus (25 min)"); err != nil {
		t.Fatalf("Async must not return delivery errors, got %v", err)
	}
	if got := <-done; got != "Long break over" {
		t.Fatalf("delivered %q", got)
	}
}
