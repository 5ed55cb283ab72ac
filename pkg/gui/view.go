package gui

import (
	"errors"
	"fmt"

	"github.com/charlie0129/tomato/pkg/client"
	"github.com/charlie0129/tomato/pkg/timer"
)

// maxTagItems is how many tag entries the Tag submenu can show. systray
// cannot remove items, so the slots are created once and hidden when unused.
const maxTagItems = 12

// menuView is everything the tray shows for one snapshot.
type menuView struct {
	Title   string
	Tooltip string
	Status  string
	Tag     string
	Today   string
	Week    string

	Online   bool
	CanStart bool
	CanPause bool
	// CanReset is false when there is nothing to reset.
	CanReset   bool
	CurrentTag string
}

func buildView(snap *timer.Snapshot) menuView {
	remaining := timer.FormatRemaining(snap.RemainingSeconds)
	state := "paused"
	if snap.IsRunning {
		state = "running"
	}
	full := uint64(snap.Settings.PhaseMinutes(snap.Phase)) * 60

	return menuView{
		Title:      fmt.Sprintf("%s %s", snap.Phase.Glyph(), remaining),
		Tooltip:    fmt.Sprintf("tomato: %s %s, %s left", snap.Phase.DisplayName(), state, remaining),
		Status:     fmt.Sprintf("%s (%s)", snap.Phase.DisplayName(), state),
		Tag:        "Tag: " + snap.CurrentTag,
		Today:      "Today: " + timer.GoalText(snap.GoalProgress.DailyCompleted, snap.GoalProgress.DailyGoal),
		Week:       "This week: " + timer.GoalText(snap.GoalProgress.WeeklyCompleted, snap.GoalProgress.WeeklyGoal),
		Online:     true,
		CanStart:   !snap.IsRunning,
		CanPause:   snap.IsRunning,
		CanReset:   snap.IsRunning || snap.RemainingSeconds != full,
		CurrentTag: snap.CurrentTag,
	}
}

// offlineView is shown while the daemon cannot be reached.
func offlineView(err error) menuView {
	status := "Cannot reach daemon"
	switch {
	case errors.Is(err, client.ErrDaemonNotRunning):
		status = "Daemon not running"
	case errors.Is(err, client.ErrPermissionDenied):
		status = "Permission denied"
	}
	return menuView{
		Title:   "🍅 --:--",
		Tooltip: "tomato: " + status,
		Status:  status,
		Tag:     "Tag: -",
		Today:   "Today: -",
		Week:    "This week: -",
	}
}

// tagSlots maps tags onto the fixed tag items. Tags beyond maxTagItems are
// dropped. The current tag is always kept, replacing the last slot if needed.
func tagSlots(tags []string, current string) []string {
	if len(tags) <= maxTagItems {
		return tags
	}
	out := append([]string(nil), tags[:maxTagItems]...)
	for _, t := range out {
		if t == current {
			return out
		}
	}
	for _, t := range tags[maxTagItems:] {
		if t == current {
			out[maxTagItems-1] = current
			break
		}
	}
	return out
}
