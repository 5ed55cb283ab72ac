package timer

import (
	"github.com/charlie0129/tomato/pkg/appdata"
	"github.com/charlie0129/tomato/pkg/apperr"
)

const (
	maxDailyGoal  = 1000
	maxWeeklyGoal = 10000
	maxVolume     = 100
)

type intRange struct {
	field    string
	value    int
	min, max int
}

// ValidateSettings rejects settings that are out of range. It must be called
// before any settings are applied.
func ValidateSettings(s appdata.Settings) error {
	ranges := []intRange{
		{"pomodoro", s.Pomodoro, 1, 60},
		{"shortBreak", s.ShortBreak, 1, 30},
		{"longBreak", s.LongBreak, 1, 60},
		{"longBreakInterval", s.LongBreakInterval, 1, 10},
		{"autoContinuePomodoros", s.AutoContinuePomodoros, 1, 20},
		{"dailyGoal", s.DailyGoal, 0, maxDailyGoal},
		{"weeklyGoal", s.WeeklyGoal, 0, maxWeeklyGoal},
		{"audio.volume", s.Audio.Volume, 0, maxVolume},
	}
	for _, r := range ranges {
		if r.value < r.min || r.value > r.max {
			return apperr.Validationf("%s must be between %d and %d, got %d", r.field, r.min, r.max, r.value)
		}
	}
	return nil
}

// ValidateGoals checks only the goal fields.
func ValidateGoals(daily, weekly int) error {
	if daily < 0 || daily > maxDailyGoal {
		return apperr.Validationf("dailyGoal must be between 0 and %d, got %d", maxDailyGoal, daily)
	}
	if weekly < 0 || weekly > maxWeeklyGoal {
		return apperr.Validationf("weeklyGoal must be between 0 and %d, got %d", maxWeeklyGoal, weekly)
	}
	return nil
}
