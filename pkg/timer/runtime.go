// Package timer implements the pomodoro phase state machine together with its
// streak and statistics bookkeeping. Nothing here blocks or performs I/O: the
// caller drives Tick once per second, persists AppData and serializes access.
package timer

import (
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/tomato/pkg/appdata"
)

// Runtime is the in-memory timer. It is not persisted.
type Runtime struct {
	phase            appdata.Phase
	remainingSeconds uint64
	running          bool
	currentTag       string

	// Set on the first Start of a work phase, cleared on every phase change.
	workStartedDate string
	workStartedTime string
	workLockActive  bool

	autoWorkRemaining int
}

// Snapshot is a read-only view of the timer for frontends.
type Snapshot struct {
	Phase            appdata.Phase    `json:"phase"`
	RemainingSeconds uint64           `json:"remainingSeconds"`
	IsRunning        bool             `json:"isRunning"`
	CurrentTag       string           `json:"currentTag"`
	BlacklistLocked  bool             `json:"blacklistLocked"`
	Settings         appdata.Settings `json:"settings"`
	TodayStats       TodayStats       `json:"todayStats"`
	WeekStats        WeekStats        `json:"weekStats"`
	GoalProgress     GoalProgress     `json:"goalProgress"`
}

// WorkCompletedEvent locates the record written for a completed work session.
type WorkCompletedEvent struct {
	Date        string                `json:"date"`
	RecordIndex int                   `json:"recordIndex"`
	Record      appdata.HistoryRecord `json:"record"`
}

// TickResult tells the caller what a Tick changed.
type TickResult struct {
	HistoryChanged  bool
	PhaseEnded      bool
	WorkAutoStarted bool
	WorkCompleted   *WorkCompletedEvent
}

// New returns a stopped runtime at the start of a work phase.
func New(settings appdata.Settings, tags []string, clock Clock) *Runtime {
	tag := appdata.DefaultTag
	if len(tags) > 0 {
		tag = tags[0]
	}
	r := &Runtime{
		phase:            appdata.PhaseWork,
		remainingSeconds: settings.PhaseSeconds(appdata.PhaseWork),
		currentTag:       appdata.NormalizeTag(tag),
	}
	r.normalize(clock)
	return r
}

func (r *Runtime) Phase() appdata.Phase     { return r.phase }
func (r *Runtime) RemainingSeconds() uint64 { return r.remainingSeconds }
func (r *Runtime) IsRunning() bool          { return r.running }
func (r *Runtime) CurrentTag() string       { return r.currentTag }
func (r *Runtime) AutoWorkRemaining() int   { return r.autoWorkRemaining }

// BlacklistLocked reports whether a work session has started and not ended yet.
func (r *Runtime) BlacklistLocked() bool {
	return r.phase == appdata.PhaseWork && r.workLockActive
}

// FocusedSeconds is how long the current work phase has been counted down.
func (r *Runtime) FocusedSeconds(settings appdata.Settings) uint64 {
	if r.phase != appdata.PhaseWork {
		return 0
	}
	total := settings.PhaseSeconds(appdata.PhaseWork)
	if r.remainingSeconds >= total {
		return 0
	}
	return total - r.remainingSeconds
}

// Start runs the timer. It returns true only when this call began a new work
// session, i.e. moved the lock from inactive to active.
func (r *Runtime) Start(settings appdata.Settings, clock Clock) bool {
	if r.running {
		return false
	}
	r.running = true

	if r.phase != appdata.PhaseWork || r.workLockActive {
		return false
	}
	r.workLockActive = true
	r.workStartedDate = clock.TodayDate()
	r.workStartedTime = clock.NowHHMM()
	if settings.AutoContinueEnabled && r.autoWorkRemaining == 0 {
		r.autoWorkRemaining = settings.AutoContinuePomodoros
	}
	return true
}

// Pause stops the countdown. The lock and the captured start time are kept.
func (r *Runtime) Pause() {
	r.running = false
}

// Reset returns to a full, stopped work phase and ends any auto-continue chain.
func (r *Runtime) Reset(settings appdata.Settings) {
	r.applyPhase(appdata.PhaseWork, settings)
	r.autoWorkRemaining = 0
}

// Skip jumps to the phase that would follow a natural completion, without
// writing history. completedToday is the number of sessions already recorded today.
func (r *Runtime) Skip(settings appdata.Settings, completedToday int) {
	next := nextPhase(r.phase, settings, completedToday)
	r.applyPhase(next, settings)
}

// SetCurrentTag replaces the tag. Blank tags become the default tag.
func (r *Runtime) SetCurrentTag(tag string, clock Clock) {
	r.currentTag = appdata.NormalizeTag(tag)
	r.normalize(clock)
}

// SyncSettings applies new durations to a stopped timer.
func (r *Runtime) SyncSettings(settings appdata.Settings) {
	if r.running {
		return
	}
	r.remainingSeconds = settings.PhaseSeconds(r.phase)
}

// Tick advances the countdown by one second and handles the end of a phase.
// Notifier failures are logged and never stop the transition.
func (r *Runtime) Tick(data *appdata.AppData, clock Clock, notifier Notifier) TickResult {
	if !r.running {
		return TickResult{}
	}
	if r.remainingSeconds > 0 {
		r.remainingSeconds--
	}
	if r.remainingSeconds > 0 {
		return TickResult{}
	}
	return r.finishPhase(data, clock, notifier)
}

func (r *Runtime) finishPhase(data *appdata.AppData, clock Clock, notifier Notifier) TickResult {
	settings := data.Settings
	ended := r.phase
	result := TickResult{PhaseEnded: true}

	todayBefore, weekBefore := completedCounts(data, clock)
	todayAfter, weekAfter := todayBefore, weekBefore

	if ended == appdata.PhaseWork {
		r.normalize(clock)
		rec := appdata.HistoryRecord{
			Tag:       r.currentTag,
			StartTime: r.workStartedTime,
			EndTime:   clock.NowHHMM(),
			Duration:  settings.Pomodoro,
			Phase:     appdata.PhaseWork,
		}
		idx := data.AppendRecord(r.workStartedDate, rec)
		result.HistoryChanged = true
		result.WorkCompleted = &WorkCompletedEvent{Date: r.workStartedDate, RecordIndex: idx, Record: rec}

		todayAfter++
		weekAfter++
		if !settings.AutoContinueEnabled {
			r.autoWorkRemaining = 0
		} else if r.autoWorkRemaining > 0 {
			r.autoWorkRemaining--
		}

		if err := NotifyGoalProgress(notifier, settings, todayBefore, todayAfter, weekBefore, weekAfter); err != nil {
			logrus.WithError(err).Warn("failed to send goal notification")
		}
	}

	next := nextPhase(ended, settings, todayAfter)
	r.applyPhase(next, settings)

	autoStart := next.IsBreak() || (settings.AutoContinueEnabled && r.autoWorkRemaining > 0)
	if autoStart {
		began := r.Start(settings, clock)
		result.WorkAutoStarted = next == appdata.PhaseWork && began
	}

	logrus.WithFields(logrus.Fields{
		"ended":             ended,
		"next":              next,
		"autoStarted":       autoStart,
		"completedToday":    todayAfter,
		"autoWorkRemaining": r.autoWorkRemaining,
	}).Info("phase ended")

	if err := NotifyPhaseEnd(notifier, ended, next, autoStart, settings); err != nil {
		logrus.WithError(err).Warn("failed to send phase notification")
	}

	return result
}

// Snapshot builds the frontend view. Stats are computed from data.
func (r *Runtime) Snapshot(data *appdata.AppData, clock Clock) Snapshot {
	from, to := clock.CurrentWeekRange()
	today := ComputeTodayStats(data, clock.TodayDate())
	week := ComputeWeekStats(data, from, to)
	return Snapshot{
		Phase:            r.phase,
		RemainingSeconds: r.remainingSeconds,
		IsRunning:        r.running,
		CurrentTag:       r.currentTag,
		BlacklistLocked:  r.BlacklistLocked(),
		Settings:         data.Settings,
		TodayStats:       today,
		WeekStats:        week,
		GoalProgress: GoalProgress{
			DailyGoal:       data.Settings.DailyGoal,
			DailyCompleted:  today.Total,
			WeeklyGoal:      data.Settings.WeeklyGoal,
			WeeklyCompleted: week.Total,
		},
	}
}

func (r *Runtime) applyPhase(p appdata.Phase, settings appdata.Settings) {
	r.phase = p
	r.remainingSeconds = settings.PhaseSeconds(p)
	r.running = false
	r.workStartedDate = ""
	r.workStartedTime = ""
	r.workLockActive = false
}

// normalize back-fills the session start of a running work phase so that a
// completed record never lacks a date or time.
func (r *Runtime) normalize(clock Clock) {
	if !r.running || r.phase != appdata.PhaseWork {
		return
	}
	r.workLockActive = true
	if r.workStartedDate == "" {
		r.workStartedDate = clock.TodayDate()
	}
	if r.workStartedTime == "" {
		r.workStartedTime = clock.NowHHMM()
	}
}

func nextPhase(ended appdata.Phase, settings appdata.Settings, completedToday int) appdata.Phase {
	if ended != appdata.PhaseWork {
		return appdata.PhaseWork
	}
	interval := settings.LongBreakInterval
	if interval > 0 && completedToday > 0 && completedToday%interval == 0 {
		return appdata.PhaseLongBreak
	}
	return appdata.PhaseShortBreak
}
