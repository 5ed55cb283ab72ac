package timer

import "fmt"

// FormatRemaining renders seconds as MM:SS. Minutes are not wrapped into
// hours, so a 90 minute phase reads 90:00.
func FormatRemaining(seconds uint64) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Fraction is how much of the current phase has elapsed, in [0, 1].
func (s Snapshot) Fraction() float64 {
	total := uint64(s.Settings.PhaseMinutes(s.Phase)) * 60
	if total == 0 || s.RemainingSeconds >= total {
		return 0
	}
	return float64(total-s.RemainingSeconds) / float64(total)
}

// GoalText renders completed sessions against a goal. A goal of 0 means
// unset and only the count is shown.
func GoalText(completed, goal int) string {
	if goal <= 0 {
		return fmt.Sprintf("%d", completed)
	}
	return fmt.Sprintf("%d/%d", completed, goal)
}
