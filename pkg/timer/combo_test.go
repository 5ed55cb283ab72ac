package timer

import (
	"testing"

	"github.com/charlie0129/tomato/pkg/appdata"
	"github.com/charlie0129/tomato/pkg/apperr"
)

func at(hhmm string) StaticClock { return StaticClock{Date: "2024-05-01", Time: hhmm} }

func TestComboContinuation(t *testing.T) {
	s := appdata.DefaultSettings() // short break 5

	tests := []struct {
		name      string
		startedAt string
		want      int
	}{
		{name: "right after the break", startedAt: "10:05", want: 2},
		{name: "at the edge of the grace window", startedAt: "10:10", want: 2},
		{name: "one minute too late", startedAt: "10:11", want: 1},
		{name: "clock went backwards", startedAt: "09:59", want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := appdata.Default()
			c := NewComboRuntime()

			if err := c.OnWorkStarted(at("09:35")); err != nil {
				t.Fatal(err)
			}
			got, err := c.OnWorkCompleted(data, at("10:00"), appdata.PhaseShortBreak, s)
			if err != nil || got != 1 {
				t.Fatalf("first completion = %d, %v; want 1", got, err)
			}

			if err := c.OnWorkStarted(at(tt.startedAt)); err != nil {
				t.Fatal(err)
			}
			got, err = c.OnWorkCompleted(data, at("10:40"), appdata.PhaseShortBreak, s)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want || data.CurrentCombo != tt.want {
				t.Fatalf("combo = %d (stored %d), want %d", got, data.CurrentCombo, tt.want)
			}
		})
	}
}

func TestComboUsesTheBreakThatFollowed(t *testing.T) {
	s := appdata.DefaultSettings() // long break 15
	data := appdata.Default()
	c := NewComboRuntime()

	_ = c.OnWorkStarted(at("09:35"))
	if _, err := c.OnWorkCompleted(data, at("10:00"), appdata.PhaseLongBreak, s); err != nil {
		t.Fatal(err)
	}
	_ = c.OnWorkStarted(at("10:20")) // 15 + 5
	got, _ := c.OnWorkCompleted(data, at("10:45"), appdata.PhaseShortBreak, s)
	if got != 2 {
		t.Fatalf("combo = %d, want 2", got)
	}
}

func TestComboRestoredFromDisk(t *testing.T) {
	// A persisted combo without timing memory cannot be continued.
	s := appdata.DefaultSettings()
	data := appdata.Default()
	data.CurrentCombo = 7
	c := NewComboRuntime()

	_ = c.OnWorkStarted(at("10:00"))
	got, _ := c.OnWorkCompleted(data, at("10:25"), appdata.PhaseShortBreak, s)
	if got != 1 {
		t.Fatalf("combo = %d, want 1", got)
	}
}

func TestComboInterrupted(t *testing.T) {
	s := appdata.DefaultSettings()
	data := appdata.Default()
	c := NewComboRuntime()

	_ = c.OnWorkStarted(at("09:35"))
	_, _ = c.OnWorkCompleted(data, at("10:00"), appdata.PhaseShortBreak, s)
	_ = c.OnWorkStarted(at("10:05"))

	c.OnInterrupted(data)
	if data.CurrentCombo != 0 || c.lastCompletedAt != nil || c.continuation {
		t.Fatalf("interruption must clear the streak: combo=%d %+v", data.CurrentCombo, c)
	}

	_ = c.OnWorkStarted(at("10:06"))
	got, _ := c.OnWorkCompleted(data, at("10:31"), appdata.PhaseShortBreak, s)
	if got != 1 {
		t.Fatalf("combo after interruption = %d, want 1", got)
	}
}

func TestComboRejectsWorkToWork(t *testing.T) {
	data := appdata.Default()
	data.CurrentCombo = 3
	c := NewComboRuntime()

	_, err := c.OnWorkCompleted(data, at("10:00"), appdata.PhaseWork, appdata.DefaultSettings())
	if !apperr.IsInvariant(err) {
		t.Fatalf("expected invariant error, got %v", err)
	}
	if data.CurrentCombo != 3 {
		t.Fatalf("combo must be left untouched, got %d", data.CurrentCombo)
	}
}

func TestComboBadClock(t *testing.T) {
	data := appdata.Default()
	c := NewComboRuntime()
	bad := StaticClock{Date: "yesterday", Time: "noon"}

	if _, err := c.OnWorkCompleted(data, bad, appdata.PhaseShortBreak, appdata.DefaultSettings()); !apperr.IsInvariant(err) {
		t.Fatalf("expected invariant error, got %v", err)
	}

	_, _ = c.OnWorkCompleted(data, at("10:00"), appdata.PhaseShortBreak, appdata.DefaultSettings())
	if err := c.OnWorkStarted(bad); !apperr.IsInvariant(err) {
		t.Fatalf("expected invariant error, got %v", err)
	}
}
