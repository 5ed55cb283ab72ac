package timer

import (
	"errors"
	"fmt"

	"github.com/charlie0129/tomato/pkg/appdata"
)

// Notifier shows a titled message to the user.
type Notifier interface {
	Notify(title, body string) error
}

// NotifierFunc adapts a function to a Notifier.
type NotifierFunc func(title, body string) error

func (f NotifierFunc) Notify(title, body string) error { return f(title, body) }

// NopNotifier discards every message.
type NopNotifier struct{}

func (NopNotifier) Notify(string, string) error { return nil }

// NotifyPhaseEnd tells the user that ended is over and what comes next.
func NotifyPhaseEnd(n Notifier, ended, next appdata.Phase, autoStarted bool, settings appdata.Settings) error {
	var title string
	switch ended {
	case appdata.PhaseWork:
		title = "Focus complete"
	case appdata.PhaseShortBreak:
		title = "Short break over"
	default:
		title = "Long break over"
	}

	lead := "Up next"
	if autoStarted {
		lead = "Auto-started"
	}
	body := fmt.Sprintf("%s: %s (%d min)", lead, next.DisplayName(), settings.PhaseMinutes(next))
	return n.Notify(title, body)
}

// NotifyGoalProgress sends the 50% and 100% notifications for every goal
// threshold that lies in (before, after]. A threshold crossed once never fires
// again because the next completion starts from a higher before count.
func NotifyGoalProgress(n Notifier, settings appdata.Settings, dailyBefore, dailyAfter, weeklyBefore, weeklyAfter int) error {
	var errs []error
	errs = append(errs, notifyGoal(n, "Daily", "today", settings.DailyGoal, dailyBefore, dailyAfter)...)
	errs = append(errs, notifyGoal(n, "Weekly", "this week", settings.WeeklyGoal, weeklyBefore, weeklyAfter)...)
	return errors.Join(errs...)
}

func notifyGoal(n Notifier, label, period string, goal, before, after int) []error {
	if goal <= 0 {
		return nil
	}
	var errs []error
	half := (goal + 1) / 2
	if crossed(half, before, after) {
		body := fmt.Sprintf("Halfway there: %d/%d focus sessions %s", after, goal, period)
		if err := n.Notify(label+" goal progress", body); err != nil {
			errs = append(errs, err)
		}
	}
	if crossed(goal, before, after) {
		body := fmt.Sprintf("Goal reached: %d/%d focus sessions %s", after, goal, period)
		if err := n.Notify(label+" goal reached", body); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func crossed(threshold, before, after int) bool {
	return before < threshold && threshold <= after
}
