package timer

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/tomato/pkg/appdata"
	"github.com/charlie0129/tomato/pkg/apperr"
)

// comboGrace is how late a session may start after its break and still
// continue the streak.
const comboGrace = 5 * time.Minute

// ComboRuntime decides whether consecutive completions form a streak. The
// streak value itself lives in AppData.CurrentCombo.
type ComboRuntime struct {
	lastCompletedAt          *time.Time
	lastExpectedBreakMinutes int
	continuation             bool
}

// NewComboRuntime returns a runtime with no completion memory.
func NewComboRuntime() *ComboRuntime {
	return &ComboRuntime{}
}

// OnWorkStarted must be called right after a work session starts running.
func (c *ComboRuntime) OnWorkStarted(clock Clock) error {
	if c.lastCompletedAt == nil {
		c.continuation = false
		return nil
	}
	now, err := ClockNow(clock)
	if err != nil {
		return err
	}
	diff := now.Sub(*c.lastCompletedAt)
	window := time.Duration(c.lastExpectedBreakMinutes)*time.Minute + comboGrace
	c.continuation = diff >= 0 && diff <= window

	logrus.WithFields(logrus.Fields{
		"sinceLastCompletion": diff.String(),
		"window":              window.String(),
		"continuation":        c.continuation,
	}).Debug("combo: work started")
	return nil
}

// OnWorkCompleted must be called when a work session completes naturally.
// nextPhase is the break that is about to start. The new combo is stored in
// data and returned.
func (c *ComboRuntime) OnWorkCompleted(data *appdata.AppData, clock Clock, nextPhase appdata.Phase, settings appdata.Settings) (int, error) {
	if !nextPhase.IsBreak() {
		return data.CurrentCombo, apperr.Invariantf("work session completed into %q instead of a break", nextPhase)
	}
	now, err := ClockNow(clock)
	if err != nil {
		return data.CurrentCombo, err
	}

	if data.CurrentCombo <= 0 || !c.continuation {
		data.CurrentCombo = 1
	} else {
		data.CurrentCombo++
	}
	c.lastCompletedAt = &now
	c.lastExpectedBreakMinutes = settings.PhaseMinutes(nextPhase)
	c.continuation = false

	return data.CurrentCombo, nil
}

// OnInterrupted breaks the streak and forgets all timing memory.
func (c *ComboRuntime) OnInterrupted(data *appdata.AppData) {
	data.CurrentCombo = 0
	c.lastCompletedAt = nil
	c.lastExpectedBreakMinutes = 0
	c.continuation = false
}
