package daemon

import (
	"context"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/tomato/pkg/appdata"
	"github.com/charlie0129/tomato/pkg/apperr"
	"github.com/charlie0129/tomato/pkg/archive"
	"github.com/charlie0129/tomato/pkg/events"
	"github.com/charlie0129/tomato/pkg/interruption"
	"github.com/charlie0129/tomato/pkg/processes"
	"github.com/charlie0129/tomato/pkg/store"
	"github.com/charlie0129/tomato/pkg/timer"
)

const killTimeout = 10 * time.Second

var milestones = []int64{100, 500, 1000}

// StateConfig wires the collaborators of a State. Only Store is required.
type StateConfig struct {
	Store      store.Store
	Archive    *archive.Archive
	Hub        *events.Hub
	Notifier   timer.Notifier
	Terminator processes.Terminator
	Clock      timer.Clock
	Now        func() time.Time
}

// State owns the persisted data and the timer runtime.
//
// Lock order is dataMu, then timerMu. The combo runtime is guarded by timerMu.
// Side effects that may block (notifications, process termination, events)
// are collected in an outbox and run after both locks are released.
type State struct {
	dataMu sync.Mutex
	data   *appdata.AppData

	timerMu sync.Mutex
	rt      *timer.Runtime
	combo   *timer.ComboRuntime

	store      store.Store
	archive    *archive.Archive
	hub        *events.Hub
	notifier   timer.Notifier
	terminator processes.Terminator
	clock      timer.Clock
	now        func() time.Time
}

// NewState loads data from the store and creates a stopped timer.
func NewState(cfg StateConfig) (*State, error) {
	if cfg.Store == nil {
		return nil, pkgerrors.New("state requires a store")
	}
	data, err := cfg.Store.Load()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load data")
	}

	s := &State{
		data:       data,
		combo:      timer.NewComboRuntime(),
		store:      cfg.Store,
		archive:    cfg.Archive,
		hub:        cfg.Hub,
		notifier:   cfg.Notifier,
		terminator: cfg.Terminator,
		clock:      cfg.Clock,
		now:        cfg.Now,
	}
	if s.notifier == nil {
		s.notifier = timer.NopNotifier{}
	}
	if s.terminator == nil {
		s.terminator = processes.Noop{}
	}
	if s.clock == nil {
		s.clock = timer.SystemClock{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.rt = timer.New(data.Settings, data.Tags, s.clock)

	if s.archive != nil {
		if err := s.archive.Rebuild(data); err != nil {
			logrus.WithError(err).Error("failed to rebuild analysis archive")
		}
	}
	return s, nil
}

type note struct {
	title, body string
}

type pendingEvent struct {
	name    string
	payload any
}

// outbox collects side effects while locks are held. It doubles as the
// Notifier handed to the timer runtime.
type outbox struct {
	notes  []note
	events []pendingEvent
	kill   []string
}

func (o *outbox) Notify(title, body string) error {
	o.notes = append(o.notes, note{title: title, body: body})
	return nil
}

func (o *outbox) publish(name string, payload any) {
	o.events = append(o.events, pendingEvent{name: name, payload: payload})
}

func (s *State) flush(o *outbox) {
	for _, n := range o.notes {
		if err := s.notifier.Notify(n.title, n.body); err != nil {
			logrus.WithError(err).WithField("title", n.title).Warn("failed to deliver notification")
		}
	}
	for _, ev := range o.events {
		s.hub.Publish(ev.name, ev.payload)
	}
	if len(o.kill) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), killTimeout)
		defer cancel()
		summary := s.terminator.Terminate(ctx, o.kill)
		s.hub.Publish(events.BlacklistKill, summary)
	}
}

// update runs fn with both locks held, then flushes the outbox.
func (s *State) update(fn func(data *appdata.AppData, rt *timer.Runtime, o *outbox) error) error {
	o := &outbox{}
	err := func() error {
		s.dataMu.Lock()
		defer s.dataMu.Unlock()
		s.timerMu.Lock()
		defer s.timerMu.Unlock()
		return fn(s.data, s.rt, o)
	}()
	s.flush(o)
	return err
}

// view runs fn with both locks held and no side effects.
func (s *State) view(fn func(data *appdata.AppData, rt *timer.Runtime)) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	fn(s.data, s.rt)
}

// persistLocked saves data. dataMu must be held.
func (s *State) persistLocked(data *appdata.AppData) error {
	if err := s.store.Save(data); err != nil {
		return pkgerrors.Wrap(err, "failed to save data")
	}
	return nil
}

func (s *State) snapshotLocked(data *appdata.AppData, rt *timer.Runtime) timer.Snapshot {
	return rt.Snapshot(data, s.clock)
}

// Snapshot returns the current timer view.
func (s *State) Snapshot() timer.Snapshot {
	var snap timer.Snapshot
	s.view(func(data *appdata.AppData, rt *timer.Runtime) {
		snap = s.snapshotLocked(data, rt)
	})
	return snap
}

// Data returns a deep copy of the persisted data.
func (s *State) Data() *appdata.AppData {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return s.data.Clone()
}

// Tick advances the timer by one second and performs everything that hangs
// off a phase change: streak and counters, archive mirroring, persistence,
// events and blacklist enforcement.
func (s *State) Tick() timer.TickResult {
	var res timer.TickResult
	_ = s.update(func(data *appdata.AppData, rt *timer.Runtime, o *outbox) error {
		res = rt.Tick(data, s.clock, o)
		persist := res.HistoryChanged

		if res.WorkAutoStarted {
			if err := s.combo.OnWorkStarted(s.clock); err != nil {
				logrus.WithError(err).Warn("failed to update combo window")
			}
			o.kill = data.BlacklistNames()
		}

		if ev := res.WorkCompleted; ev != nil {
			today := timer.ComputeTodayStats(data, s.clock.TodayDate()).Total
			goalReached := data.Settings.DailyGoal > 0 && today == data.Settings.DailyGoal

			data.TotalPomodoros++
			persist = true

			combo, err := s.combo.OnWorkCompleted(data, s.clock, rt.Phase(), data.Settings)
			if err != nil {
				logrus.WithError(err).Error("failed to update combo")
			}

			if s.archive != nil {
				if err := s.archive.PutRecord(ev.Date, ev.RecordIndex, ev.Record); err != nil {
					logrus.WithError(err).Warn("failed to mirror record to archive")
				}
			}

			o.publish(events.WorkCompleted, ev)
			o.publish(events.PomodoroCompleted, events.PomodoroCompletedEvent{
				Combo:            combo,
				Total:            data.TotalPomodoros,
				DailyGoalReached: goalReached,
			})
			for _, m := range milestones {
				if data.TotalPomodoros == m {
					o.publish(events.PomodoroMilestone, events.PomodoroMilestoneEvent{Milestone: m})
				}
			}
		}

		if persist {
			if err := s.persistLocked(data); err != nil {
				logrus.WithError(err).Error("failed to persist data after tick")
			}
		}

		if rt.IsRunning() || res.PhaseEnded {
			o.publish(events.TimerSnapshot, s.snapshotLocked(data, rt))
		}
		return nil
	})
	return res
}

// Start runs the timer. Starting a fresh work session terminates blacklisted
// processes.
func (s *State) Start() timer.Snapshot {
	var snap timer.Snapshot
	_ = s.update(func(data *appdata.AppData, rt *timer.Runtime, o *outbox) error {
		if rt.Start(data.Settings, s.clock) {
			if err := s.combo.OnWorkStarted(s.clock); err != nil {
				logrus.WithError(err).Warn("failed to update combo window")
			}
			o.kill = data.BlacklistNames()
			logrus.WithFields(logrus.Fields{
				"tag":       rt.CurrentTag(),
				"remaining": rt.RemainingSeconds(),
			}).Info("focus session started")
		}
		snap = s.snapshotLocked(data, rt)
		o.publish(events.TimerSnapshot, snap)
		return nil
	})
	return snap
}

// Pause stops the countdown without ending the session.
func (s *State) Pause() timer.Snapshot {
	var snap timer.Snapshot
	_ = s.update(func(data *appdata.AppData, rt *timer.Runtime, o *outbox) error {
		rt.Pause()
		snap = s.snapshotLocked(data, rt)
		o.publish(events.TimerSnapshot, snap)
		return nil
	})
	return snap
}

// Reset returns to a fresh work phase. Abandoning a started focus session is
// recorded as an interruption with reason.
func (s *State) Reset(reason string) (timer.Snapshot, error) {
	return s.abandon(appdata.InterruptionReset, reason, func(data *appdata.AppData, rt *timer.Runtime) {
		rt.Reset(data.Settings)
	})
}

// Skip jumps to the next phase without writing history. Skipping a started
// focus session is recorded as an interruption with reason.
func (s *State) Skip(reason string) (timer.Snapshot, error) {
	return s.abandon(appdata.InterruptionSkip, reason, func(data *appdata.AppData, rt *timer.Runtime) {
		completed := timer.ComputeTodayStats(data, s.clock.TodayDate()).Total
		rt.Skip(data.Settings, completed)
	})
}

func (s *State) abandon(typ appdata.InterruptionType, reason string, apply func(*appdata.AppData, *timer.Runtime)) (timer.Snapshot, error) {
	var snap timer.Snapshot
	err := s.update(func(data *appdata.AppData, rt *timer.Runtime, o *outbox) error {
		persist := false
		if rt.BlacklistLocked() {
			if data.Settings.Interruption.Enabled {
				if _, err := s.recordLocked(data, rt, typ, reason, o); err != nil {
					return err
				}
			} else {
				s.combo.OnInterrupted(data)
			}
			persist = true
		}

		apply(data, rt)
		logrus.WithFields(logrus.Fields{"action": typ, "phase": rt.Phase()}).Info("timer changed")

		snap = s.snapshotLocked(data, rt)
		o.publish(events.TimerSnapshot, snap)
		if persist {
			return s.persistLocked(data)
		}
		return nil
	})
	return snap, err
}

// recordLocked stores an interruption. Both locks must be held.
func (s *State) recordLocked(data *appdata.AppData, rt *timer.Runtime, typ appdata.InterruptionType, reason string, o *outbox) (appdata.InterruptionRecord, error) {
	now := s.now()
	rec, err := interruption.Record(data, rt, s.combo, typ, reason, now)
	if err != nil {
		return rec, err
	}
	if s.archive != nil {
		if err := s.archive.PutInterruption(now.Format(appdata.DateLayout), rec); err != nil {
			logrus.WithError(err).Warn("failed to mirror interruption to archive")
		}
	}
	o.publish(events.InterruptionLogged, rec)
	logrus.WithFields(logrus.Fields{
		"type":    rec.Type,
		"reason":  rec.Reason,
		"focused": rec.FocusedSeconds,
	}).Info("interruption recorded")
	return rec, nil
}

// RecordInterruption records an interruption of the started focus session
// without changing the timer.
func (s *State) RecordInterruption(typ appdata.InterruptionType, reason string) (appdata.InterruptionRecord, error) {
	var rec appdata.InterruptionRecord
	err := s.update(func(data *appdata.AppData, rt *timer.Runtime, o *outbox) error {
		var err error
		if rec, err = s.recordLocked(data, rt, typ, reason, o); err != nil {
			return err
		}
		return s.persistLocked(data)
	})
	return rec, err
}

// RecordQuit records a quit interruption when a started focus session is
// abandoned by shutting down. It reports whether anything was written.
func (s *State) RecordQuit() bool {
	wrote := false
	_ = s.update(func(data *appdata.AppData, rt *timer.Runtime, o *outbox) error {
		if !data.Settings.Interruption.Enabled || !rt.BlacklistLocked() {
			return nil
		}
		if _, err := s.recordLocked(data, rt, appdata.InterruptionQuit, "", o); err != nil {
			logrus.WithError(err).Warn("failed to record quit interruption")
			return nil
		}
		wrote = true
		if err := s.persistLocked(data); err != nil {
			logrus.WithError(err).Error("failed to persist quit interruption")
		}
		return nil
	})
	return wrote
}

// SetTag sets the tag of the current session and remembers it.
func (s *State) SetTag(tag string) (timer.Snapshot, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return timer.Snapshot{}, apperr.Validationf("tag must not be empty")
	}
	var snap timer.Snapshot
	err := s.update(func(data *appdata.AppData, rt *timer.Runtime, o *outbox) error {
		rt.SetCurrentTag(tag, s.clock)
		data.AddTag(tag)
		snap = s.snapshotLocked(data, rt)
		o.publish(events.TimerSnapshot, snap)
		return s.persistLocked(data)
	})
	return snap, err
}

// Tags returns the known tags.
func (s *State) Tags() []string {
	return s.Data().Tags
}

// AddTag remembers tag.
func (s *State) AddTag(tag string) ([]string, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, apperr.Validationf("tag must not be empty")
	}
	var tags []string
	err := s.update(func(data *appdata.AppData, _ *timer.Runtime, _ *outbox) error {
		changed := data.AddTag(tag)
		tags = append([]string(nil), data.Tags...)
		if !changed {
			return nil
		}
		return s.persistLocked(data)
	})
	return tags, err
}

// RemoveTag forgets tag. The last remaining tag cannot be removed.
func (s *State) RemoveTag(tag string) ([]string, error) {
	var tags []string
	err := s.update(func(data *appdata.AppData, _ *timer.Runtime, _ *outbox) error {
		if len(data.Tags) == 1 && data.Tags[0] == strings.TrimSpace(tag) {
			return apperr.Conflictf("cannot remove the last tag %q", data.Tags[0])
		}
		if !data.RemoveTag(tag) {
			return apperr.NotFoundf("tag %q does not exist", tag)
		}
		tags = append([]string(nil), data.Tags...)
		return s.persistLocked(data)
	})
	return tags, err
}

// Settings returns the current settings.
func (s *State) Settings() appdata.Settings {
	return s.Data().Settings
}

// UpdateSettings validates and applies settings. A stopped timer picks up the
// new phase duration immediately.
func (s *State) UpdateSettings(settings appdata.Settings) (appdata.Settings, error) {
	if err := timer.ValidateSettings(settings); err != nil {
		return appdata.Settings{}, err
	}
	err := s.update(func(data *appdata.AppData, rt *timer.Runtime, o *outbox) error {
		data.Settings = settings
		rt.SyncSettings(settings)
		o.publish(events.TimerSnapshot, s.snapshotLocked(data, rt))
		return s.persistLocked(data)
	})
	if err != nil {
		return appdata.Settings{}, err
	}
	logrus.WithFields(logrus.Fields{
		"pomodoro":          settings.Pomodoro,
		"shortBreak":        settings.ShortBreak,
		"longBreak":         settings.LongBreak,
		"longBreakInterval": settings.LongBreakInterval,
		"autoContinue":      settings.AutoContinueEnabled,
	}).Info("settings updated")
	return settings, nil
}

// SetGoals updates the daily and weekly goals. Zero disables a goal.
func (s *State) SetGoals(daily, weekly int) (appdata.Settings, error) {
	if err := timer.ValidateGoals(daily, weekly); err != nil {
		return appdata.Settings{}, err
	}
	var settings appdata.Settings
	err := s.update(func(data *appdata.AppData, rt *timer.Runtime, o *outbox) error {
		data.Settings.DailyGoal = daily
		data.Settings.WeeklyGoal = weekly
		settings = data.Settings
		o.publish(events.TimerSnapshot, s.snapshotLocked(data, rt))
		return s.persistLocked(data)
	})
	return settings, err
}

// Blacklist returns the configured blacklist.
func (s *State) Blacklist() []appdata.BlacklistItem {
	return s.Data().Blacklist
}

// SetBlacklist replaces the blacklist. While a focus session holds the lock,
// entries may only be added, and added entries are terminated right away.
func (s *State) SetBlacklist(items []appdata.BlacklistItem) ([]appdata.BlacklistItem, error) {
	if err := appdata.ValidateBlacklist(items); err != nil {
		return nil, err
	}
	normalized := make([]appdata.BlacklistItem, len(items))
	for i, it := range items {
		normalized[i] = appdata.BlacklistItem{Name: strings.TrimSpace(it.Name), DisplayName: strings.TrimSpace(it.DisplayName)}
	}

	err := s.update(func(data *appdata.AppData, rt *timer.Runtime, o *outbox) error {
		old := map[string]struct{}{}
		for _, it := range data.Blacklist {
			old[strings.ToLower(it.Name)] = struct{}{}
		}
		next := map[string]struct{}{}
		var added []string
		for _, it := range normalized {
			key := strings.ToLower(it.Name)
			next[key] = struct{}{}
			if _, ok := old[key]; !ok {
				added = append(added, it.Name)
			}
		}

		locked := rt.BlacklistLocked()
		if locked {
			for name := range old {
				if _, ok := next[name]; !ok {
					return apperr.ErrBlacklistLocked
				}
			}
		}

		data.Blacklist = normalized
		if locked && len(added) > 0 {
			logrus.WithField("names", added).Info("blacklist extended during focus session, terminating new entries")
			o.kill = added
		}
		return s.persistLocked(data)
	})
	if err != nil {
		return nil, err
	}
	return normalized, nil
}

// GuardBlacklist terminates blacklisted processes if a focus session holds the
// lock. It reports whether termination was attempted.
func (s *State) GuardBlacklist() bool {
	attempted := false
	_ = s.update(func(data *appdata.AppData, rt *timer.Runtime, o *outbox) error {
		if !rt.BlacklistLocked() || len(data.Blacklist) == 0 {
			return nil
		}
		o.kill = data.BlacklistNames()
		attempted = true
		return nil
	})
	return attempted
}

// History returns the history days within r, newest first.
func (s *State) History(r appdata.DateRange) ([]appdata.HistoryDay, error) {
	if err := appdata.ValidateDateRange(r); err != nil {
		return nil, err
	}
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return s.data.HistoryIn(r), nil
}

// SetRemark updates the remark of one history record.
func (s *State) SetRemark(date string, index int, remark string) (appdata.HistoryRecord, error) {
	if err := appdata.ValidateDate(date); err != nil {
		return appdata.HistoryRecord{}, err
	}
	var rec appdata.HistoryRecord
	err := s.update(func(data *appdata.AppData, _ *timer.Runtime, _ *outbox) error {
		var err error
		rec, err = data.SetRemark(date, index, remark)
		if err != nil {
			return err
		}
		if s.archive != nil {
			if err := s.archive.SetRemark(date, index, rec.Remark); err != nil {
				logrus.WithError(err).Warn("failed to mirror remark to archive")
			}
		}
		return s.persistLocked(data)
	})
	return rec, err
}

// InterruptionStats summarizes interruptions within r.
func (s *State) InterruptionStats(r appdata.DateRange) (interruption.Stats, error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return interruption.Compute(s.data, r)
}

// ComboStatus is the streak and lifetime counter.
type ComboStatus struct {
	CurrentCombo   int   `json:"currentCombo"`
	TotalPomodoros int64 `json:"totalPomodoros"`
}

func (s *State) Combo() ComboStatus {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return ComboStatus{CurrentCombo: s.data.CurrentCombo, TotalPomodoros: s.data.TotalPomodoros}
}

func (s *State) requireArchive() error {
	if s.archive == nil {
		return apperr.Conflictf("the analysis archive is not available")
	}
	return nil
}

// Analysis returns focus patterns within r.
func (s *State) Analysis(r appdata.DateRange) (*archive.FocusAnalysis, error) {
	if err := appdata.ValidateDateRange(r); err != nil {
		return nil, err
	}
	if err := s.requireArchive(); err != nil {
		return nil, err
	}
	return s.archive.FocusAnalysis(r.From, r.To)
}

// DailyTotals returns per-day totals within r.
func (s *State) DailyTotals(r appdata.DateRange) ([]archive.DayTotal, error) {
	if err := appdata.ValidateDateRange(r); err != nil {
		return nil, err
	}
	if err := s.requireArchive(); err != nil {
		return nil, err
	}
	return s.archive.DailyTotals(r.From, r.To)
}

// Save persists the data.
func (s *State) Save() error {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return s.persistLocked(s.data)
}
