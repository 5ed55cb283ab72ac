package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/charlie0129/tomato/pkg/appdata"
	"github.com/charlie0129/tomato/pkg/timer"
)

func TestParseIntArg(t *testing.T) {
	if v, err := parseIntArg([]string{"42"}, "goal"); err != nil || v != 42 {
		t.Fatalf("parseIntArg = %d, %v", v, err)
	}
	if _, err := parseIntArg([]string{"many"}, "goal"); err == nil {
		t.Fatal("expected error for non-numeric argument")
	}
	if _, err := parseIntArg(nil, "goal"); err == nil {
		t.Fatal("expected error for missing argument")
	}
}

func TestRangeFlagsResolve(t *testing.T) {
	clock := timer.StaticClock{Date: "2024-05-01", Time: "10:00"}

	tests := []struct {
		name string
		in   rangeFlags
		want appdata.DateRange
	}{
		{"defaults to current week", rangeFlags{}, appdata.DateRange{From: "2024-04-29", To: "2024-05-05"}},
		{"from only", rangeFlags{from: "2024-04-01"}, appdata.DateRange{From: "2024-04-01", To: "2024-05-05"}},
		{"both", rangeFlags{from: "2024-01-01", to: "2024-01-31"}, appdata.DateRange{From: "2024-01-01", To: "2024-01-31"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.resolve(clock); got != tt.want {
				t.Fatalf("resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		n, max, width int
		want          string
	}{
		{0, 10, 20, ""},
		{5, 0, 20, ""},
		{10, 10, 4, "████"},
		{5, 10, 4, "██"},
		{1, 100, 4, "█"},
	}
	for _, tt := range tests {
		if got := bar(tt.n, tt.max, tt.width); got != tt.want {
			t.Errorf("bar(%d, %d, %d) = %q, want %q", tt.n, tt.max, tt.width, got, tt.want)
		}
	}
}

func TestTagCounts(t *testing.T) {
	if got := tagCounts(nil); got != "-" {
		t.Fatalf("tagCounts(nil) = %q", got)
	}
	got := tagCounts([]timer.TagCount{{Tag: "Work", Count: 3}, {Tag: "Reading", Count: 1}})
	if got != "Work 3, Reading 1" {
		t.Fatalf("tagCounts = %q", got)
	}
}

func TestRemoveBlacklistItem(t *testing.T) {
	items := []appdata.BlacklistItem{
		{Name: "Slack", DisplayName: "Slack"},
		{Name: "discord", DisplayName: "Discord"},
	}
	kept := removeBlacklistItem(items, " SLACK ")
	if len(kept) != 1 || kept[0].Name != "discord" {
		t.Fatalf("unexpected result %+v", kept)
	}
	if kept := removeBlacklistItem(items, "steam"); len(kept) != 2 {
		t.Fatalf("removing an unknown name changed the list: %+v", kept)
	}
}

func TestSettingsFlagsApply(t *testing.T) {
	var f settingsFlags
	cmd := &cobra.Command{Use: "set"}
	f.register(cmd)
	if err := cmd.Flags().Parse([]string{"--pomodoro=50", "--auto-continue"}); err != nil {
		t.Fatal(err)
	}

	s := appdata.DefaultSettings()
	shortBreak := s.ShortBreak
	if n := f.apply(cmd, &s); n != 2 {
		t.Fatalf("apply changed %d settings, want 2", n)
	}
	if s.Pomodoro != 50 || !s.AutoContinueEnabled {
		t.Fatalf("flags not applied: %+v", s)
	}
	if s.ShortBreak != shortBreak {
		t.Fatalf("unset flag overwrote short break: %d", s.ShortBreak)
	}
}

func TestBindEnv(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	socket := flags.String("daemon-socket", "/default.sock", "")
	level := flags.String("log-level", "info", "")
	if err := flags.Parse([]string{"--log-level=debug"}); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TOMATO_DAEMON_SOCKET", "/run/user/1000/tomato.sock")
	t.Setenv("TOMATO_LOG_LEVEL", "trace")

	if err := bindEnv(flags); err != nil {
		t.Fatal(err)
	}
	if *socket != "/run/user/1000/tomato.sock" {
		t.Fatalf("socket = %q, want the environment value", *socket)
	}
	if *level != "debug" {
		t.Fatalf("log level = %q, the command line should win", *level)
	}
}
