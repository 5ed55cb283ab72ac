package timer

import (
	"testing"

	"github.com/charlie0129/tomato/pkg/appdata"
)

func TestNew(t *testing.T) {
	s := appdata.DefaultSettings()

	r := New(s, []string{"Study", "Work"}, testClock)
	if r.Phase() != appdata.PhaseWork || r.RemainingSeconds() != 25*60 || r.IsRunning() {
		t.Fatalf("unexpected initial state: %+v", r)
	}
	if r.CurrentTag() != "Study" {
		t.Fatalf("expected first tag, got %q", r.CurrentTag())
	}
	if r.BlacklistLocked() {
		t.Fatalf("a fresh runtime must not be locked")
	}

	if got := New(s, nil, testClock).CurrentTag(); got != appdata.DefaultTag {
		t.Fatalf("expected default tag, got %q", got)
	}
	if got := New(s, []string{"  "}, testClock).CurrentTag(); got != appdata.DefaultTag {
		t.Fatalf("blank first tag should normalize to default, got %q", got)
	}
}

func TestTickDecrementsWhileRunning(t *testing.T) {
	s := appdata.DefaultSettings()
	data := newTestData(s)
	r := New(s, data.Tags, testClock)
	n := &recordingNotifier{}

	for _, remaining := range []uint64{1500, 100, 2} {
		r.remainingSeconds = remaining
		r.running = true
		res := r.Tick(data, testClock, n)
		if r.RemainingSeconds() != remaining-1 {
			t.Fatalf("remaining = %d, want %d", r.RemainingSeconds(), remaining-1)
		}
		if res.PhaseEnded || res.HistoryChanged || r.Phase() != appdata.PhaseWork {
			t.Fatalf("unexpected phase change at remaining=%d: %+v", remaining, res)
		}
	}
	if len(n.sent) != 0 {
		t.Fatalf("no notification expected, got %v", n.sent)
	}
}

func TestTickWhileStoppedIsNoop(t *testing.T) {
	s := shortSettings()
	data := newTestData(s)
	r := New(s, data.Tags, testClock)
	r.remainingSeconds = 1

	res := r.Tick(data, testClock, &recordingNotifier{})
	if res != (TickResult{}) {
		t.Fatalf("expected empty result, got %+v", res)
	}
	if r.RemainingSeconds() != 1 || r.Phase() != appdata.PhaseWork || len(data.History) != 0 {
		t.Fatalf("stopped tick mutated state")
	}
}

func TestStartLocksOnlyOnce(t *testing.T) {
	s := appdata.DefaultSettings()
	r := New(s, nil, testClock)

	if !r.Start(s, testClock) {
		t.Fatalf("first start of a work phase should begin a session")
	}
	if !r.BlacklistLocked() || r.workStartedDate != "2024-05-01" || r.workStartedTime != "10:00" {
		t.Fatalf("start did not capture the session: %+v", r)
	}
	if r.Start(s, StaticClock{Date: "2024-05-01", Time: "10:05"}) {
		t.Fatalf("start while running must be a no-op")
	}

	r.Pause()
	if !r.BlacklistLocked() {
		t.Fatalf("pause must keep the lock")
	}
	if r.Start(s, StaticClock{Date: "2024-05-01", Time: "10:07"}) {
		t.Fatalf("resuming must not begin a new session")
	}
	if r.workStartedTime != "10:00" {
		t.Fatalf("resuming overwrote the start time: %s", r.workStartedTime)
	}
}

func TestStartDuringBreakDoesNotLock(t *testing.T) {
	s := appdata.DefaultSettings()
	r := New(s, nil, testClock)
	r.Skip(s, 0)

	if r.Phase() != appdata.PhaseShortBreak {
		t.Fatalf("expected short break, got %s", r.Phase())
	}
	if r.Start(s, testClock) {
		t.Fatalf("starting a break is not a work session")
	}
	if r.BlacklistLocked() || !r.IsRunning() {
		t.Fatalf("break should run unlocked")
	}
}

func TestReset(t *testing.T) {
	s := shortSettings()
	s.AutoContinueEnabled = true
	s.AutoContinuePomodoros = 3
	data := newTestData(s)
	r := New(s, nil, testClock)
	r.Start(s, testClock)
	r.Tick(data, testClock, NopNotifier{})

	r.Reset(s)
	if r.Phase() != appdata.PhaseWork || r.RemainingSeconds() != 60 || r.IsRunning() || r.BlacklistLocked() {
		t.Fatalf("reset left state behind: %+v", r)
	}
	if r.AutoWorkRemaining() != 0 {
		t.Fatalf("reset must clear the auto-continue chain")
	}
	if len(data.History) != 0 {
		t.Fatalf("reset must not touch history")
	}
}

func TestSkipNeverWritesHistory(t *testing.T) {
	s := shortSettings()
	s.LongBreakInterval = 2
	data := newTestData(s)
	r := New(s, nil, testClock)
	r.Start(s, testClock)

	r.Skip(s, 1)
	if r.Phase() != appdata.PhaseShortBreak {
		t.Fatalf("1 completed with interval 2 should skip to short break, got %s", r.Phase())
	}
	if r.IsRunning() || r.BlacklistLocked() {
		t.Fatalf("skip must stop and unlock")
	}
	if len(data.History) != 0 {
		t.Fatalf("skip wrote history")
	}

	r.Skip(s, 1)
	if r.Phase() != appdata.PhaseWork {
		t.Fatalf("skipping a break goes to work, got %s", r.Phase())
	}

	r.Skip(s, 2)
	if r.Phase() != appdata.PhaseLongBreak || r.RemainingSeconds() != 120 {
		t.Fatalf("2 completed with interval 2 should skip to long break, got %s/%d", r.Phase(), r.RemainingSeconds())
	}
}

func TestSetCurrentTag(t *testing.T) {
	s := appdata.DefaultSettings()
	r := New(s, nil, testClock)

	r.SetCurrentTag("  Reading ", testClock)
	if r.CurrentTag() != "Reading" {
		t.Fatalf("tag = %q", r.CurrentTag())
	}
	r.SetCurrentTag("   ", testClock)
	if r.CurrentTag() != appdata.DefaultTag {
		t.Fatalf("blank tag should normalize, got %q", r.CurrentTag())
	}

	// A running work phase missing its start time is repaired.
	r.running = true
	r.SetCurrentTag("Code", StaticClock{Date: "2024-05-01", Time: "11:11"})
	if r.workStartedDate != "2024-05-01" || r.workStartedTime != "11:11" || !r.BlacklistLocked() {
		t.Fatalf("running work phase was not back-filled: %+v", r)
	}
}

func TestWorkCompletionWritesOneRecord(t *testing.T) {
	s := shortSettings()
	data := newTestData(s)
	r := New(s, []string{"Study"}, testClock)
	r.Start(s, StaticClock{Date: "2024-05-01", Time: "09:59"})

	ended := tickN(r, data, testClock, NopNotifier{}, 60)
	if len(ended) != 1 {
		t.Fatalf("expected exactly one phase end, got %d", len(ended))
	}
	res := ended[0]
	if !res.HistoryChanged || res.WorkCompleted == nil {
		t.Fatalf("work completion not reported: %+v", res)
	}
	want := appdata.HistoryRecord{Tag: "Study", StartTime: "09:59", EndTime: "10:00", Duration: 1, Phase: appdata.PhaseWork}
	if res.WorkCompleted.Record != want || res.WorkCompleted.Date != "2024-05-01" || res.WorkCompleted.RecordIndex != 0 {
		t.Fatalf("unexpected event: %+v", res.WorkCompleted)
	}
	if len(data.History) != 1 || len(data.History[0].Records) != 1 || data.History[0].Records[0] != want {
		t.Fatalf("unexpected history: %+v", data.History)
	}
	if r.Phase() != appdata.PhaseShortBreak || !r.IsRunning() || r.BlacklistLocked() {
		t.Fatalf("expected running unlocked short break, got %+v", r)
	}
}

func TestRecordUsesSessionStartDate(t *testing.T) {
	s := shortSettings()
	data := newTestData(s)
	r := New(s, nil, testClock)
	r.Start(s, StaticClock{Date: "2024-04-30", Time: "23:59"})

	ended := tickN(r, data, StaticClock{Date: "2024-05-01", Time: "00:00"}, NopNotifier{}, 60)
	if len(ended) != 1 || ended[0].WorkCompleted.Date != "2024-04-30" {
		t.Fatalf("record should be filed under the start date: %+v", ended)
	}
}

func TestBreakCompletionGoesToWork(t *testing.T) {
	s := shortSettings()
	data := newTestData(s)
	r := New(s, nil, testClock)
	r.Skip(s, 0)
	r.Start(s, testClock)

	ended := tickN(r, data, testClock, NopNotifier{}, 60)
	if len(ended) != 1 || ended[0].HistoryChanged || ended[0].WorkCompleted != nil {
		t.Fatalf("break end should not touch history: %+v", ended)
	}
	if r.Phase() != appdata.PhaseWork || r.IsRunning() || ended[0].WorkAutoStarted {
		t.Fatalf("work should wait for the user without auto-continue: %+v", r)
	}
}

func TestLongBreakCadence(t *testing.T) {
	s := shortSettings()
	s.LongBreakInterval = 2
	data := newTestData(s)
	data.AppendRecord("2024-05-01", appdata.HistoryRecord{Tag: "Work", StartTime: "08:00", EndTime: "08:01", Duration: 1, Phase: appdata.PhaseWork})

	r := New(s, nil, testClock)
	r.Start(s, testClock)
	tickN(r, data, testClock, NopNotifier{}, 60)

	if r.Phase() != appdata.PhaseLongBreak {
		t.Fatalf("expected long break, got %s", r.Phase())
	}
	if r.RemainingSeconds() != 120 {
		t.Fatalf("remaining = %d, want 120", r.RemainingSeconds())
	}
	if !r.IsRunning() {
		t.Fatalf("breaks always auto-start")
	}
}

func TestLongBreakOnlyOnMultiples(t *testing.T) {
	s := shortSettings()
	s.LongBreakInterval = 3
	tests := []struct {
		completedToday int
		want           appdata.Phase
	}{
		{0, appdata.PhaseShortBreak},
		{1, appdata.PhaseShortBreak},
		{2, appdata.PhaseShortBreak},
		{3, appdata.PhaseLongBreak},
		{4, appdata.PhaseShortBreak},
		{6, appdata.PhaseLongBreak},
	}
	for _, tt := range tests {
		if got := nextPhase(appdata.PhaseWork, s, tt.completedToday); got != tt.want {
			t.Errorf("nextPhase(work, %d) = %s, want %s", tt.completedToday, got, tt.want)
		}
	}
	for _, p := range []appdata.Phase{appdata.PhaseShortBreak, appdata.PhaseLongBreak} {
		if got := nextPhase(p, s, 3); got != appdata.PhaseWork {
			t.Errorf("nextPhase(%s) = %s, want work", p, got)
		}
	}
}

func TestAutoContinueChain(t *testing.T) {
	s := shortSettings()
	s.AutoContinueEnabled = true
	s.AutoContinuePomodoros = 2
	data := newTestData(s)
	r := New(s, nil, testClock)
	if !r.Start(s, testClock) {
		t.Fatalf("expected a new session")
	}
	if r.AutoWorkRemaining() != 2 {
		t.Fatalf("chain should be initialized to 2, got %d", r.AutoWorkRemaining())
	}

	// work -> short break -> work (auto) -> short break -> work (manual)
	ended := tickN(r, data, testClock, NopNotifier{}, 4*60)
	if len(ended) != 4 {
		t.Fatalf("expected 4 phase ends, got %d", len(ended))
	}
	if !ended[1].WorkAutoStarted {
		t.Fatalf("second work phase should auto-start")
	}
	if ended[3].WorkAutoStarted {
		t.Fatalf("third work phase must not auto-start")
	}
	if r.Phase() != appdata.PhaseWork || r.IsRunning() || r.AutoWorkRemaining() != 0 {
		t.Fatalf("expected a stopped work phase with an exhausted chain, got %+v", r)
	}
	if got := len(data.History[0].Records); got != 2 {
		t.Fatalf("expected 2 records, got %d", got)
	}
}

func TestDisablingAutoContinueClearsChain(t *testing.T) {
	s := shortSettings()
	s.AutoContinueEnabled = true
	s.AutoContinuePomodoros = 3
	data := newTestData(s)
	r := New(s, nil, testClock)
	r.Start(s, testClock)

	tickN(r, data, testClock, NopNotifier{}, 60)
	if r.AutoWorkRemaining() != 2 {
		t.Fatalf("chain after one session = %d, want 2", r.AutoWorkRemaining())
	}

	data.Settings.AutoContinueEnabled = false
	tickN(r, data, testClock, NopNotifier{}, 60) // short break
	if r.IsRunning() {
		t.Fatalf("work must not auto-start while auto-continue is disabled")
	}
	r.Start(data.Settings, testClock)
	tickN(r, data, testClock, NopNotifier{}, 60)
	if r.AutoWorkRemaining() != 0 {
		t.Fatalf("chain after a session without auto-continue = %d, want 0", r.AutoWorkRemaining())
	}

	// Re-enabling starts a full chain on the next manual start.
	data.Settings.AutoContinueEnabled = true
	ended := tickN(r, data, testClock, NopNotifier{}, 60)
	if len(ended) != 1 || ended[0].WorkAutoStarted {
		t.Fatalf("a cleared chain must not auto-start work: %+v", ended)
	}
	r.Start(data.Settings, testClock)
	if r.AutoWorkRemaining() != 3 {
		t.Fatalf("chain after re-enabling = %d, want 3", r.AutoWorkRemaining())
	}
}

func TestAutoStartedWorkIsLocked(t *testing.T) {
	s := shortSettings()
	s.AutoContinueEnabled = true
	s.AutoContinuePomodoros = 2
	data := newTestData(s)
	r := New(s, nil, testClock)
	r.Start(s, testClock)

	tickN(r, data, testClock, NopNotifier{}, 2*60)
	if r.Phase() != appdata.PhaseWork || !r.IsRunning() || !r.BlacklistLocked() {
		t.Fatalf("auto-started work must be running and locked: %+v", r)
	}
}

func TestNotifierFailureDoesNotBlockTransition(t *testing.T) {
	s := shortSettings()
	s.DailyGoal = 1
	data := newTestData(s)
	r := New(s, nil, testClock)
	r.Start(s, testClock)
	n := &recordingNotifier{err: errNotifyFailed}

	ended := tickN(r, data, testClock, n, 60)
	if len(ended) != 1 || r.Phase() != appdata.PhaseShortBreak || len(data.History) != 1 {
		t.Fatalf("transition did not complete: %+v", r)
	}
	if n.count("Focus complete") != 1 || n.count("Daily goal reached") != 1 {
		t.Fatalf("expected notifications to be attempted, got %v", n.sent)
	}
}

func TestPhaseEndNotificationCopy(t *testing.T) {
	s := shortSettings()
	data := newTestData(s)
	r := New(s, nil, testClock)
	r.Start(s, testClock)
	n := &recordingNotifier{}

	tickN(r, data, testClock, n, 2*60)
	if len(n.sent) != 2 {
		t.Fatalf("expected 2 notifications, got %v", n.sent)
	}
	if n.sent[0] != (sentMessage{title: "Focus complete", body: "Auto-started: Short break (1 min)"}) {
		t.Fatalf("unexpected first notification: %+v", n.sent[0])
	}
	if n.sent[1] != (sentMessage{title: "Short break over", body: "Up next: Focus (1 min)"}) {
		t.Fatalf("unexpected second notification: %+v", n.sent[1])
	}
}

func TestBlacklistLockedInvariant(t *testing.T) {
	s := shortSettings()
	s.AutoContinueEnabled = true
	s.AutoContinuePomodoros = 3
	data := newTestData(s)
	r := New(s, nil, testClock)
	r.Start(s, testClock)

	for i := 0; i < 6*60; i++ {
		r.Tick(data, testClock, NopNotifier{})
		want := r.Phase() == appdata.PhaseWork && r.workLockActive
		if r.BlacklistLocked() != want {
			t.Fatalf("tick %d: BlacklistLocked() = %v, want %v", i, r.BlacklistLocked(), want)
		}
		if r.Phase() != appdata.PhaseWork && r.workLockActive {
			t.Fatalf("tick %d: lock survived a phase change", i)
		}
	}
}

func TestSyncSettings(t *testing.T) {
	s := appdata.DefaultSettings()
	r := New(s, nil, testClock)

	s.Pomodoro = 50
	r.SyncSettings(s)
	if r.RemainingSeconds() != 50*60 {
		t.Fatalf("stopped timer should pick up new duration, got %d", r.RemainingSeconds())
	}

	r.Start(s, testClock)
	s.Pomodoro = 10
	r.SyncSettings(s)
	if r.RemainingSeconds() != 50*60 {
		t.Fatalf("running timer must keep its countdown, got %d", r.RemainingSeconds())
	}
}

func TestFocusedSeconds(t *testing.T) {
	s := appdata.DefaultSettings()
	r := New(s, nil, testClock)
	if r.FocusedSeconds(s) != 0 {
		t.Fatalf("nothing focused yet")
	}
	r.remainingSeconds = 25*60 - 90
	if got := r.FocusedSeconds(s); got != 90 {
		t.Fatalf("FocusedSeconds() = %d, want 90", got)
	}
	r.Skip(s, 0)
	if r.FocusedSeconds(s) != 0 {
		t.Fatalf("breaks have no focused time")
	}
}

func TestSnapshot(t *testing.T) {
	s := appdata.DefaultSettings()
	s.DailyGoal = 8
	s.WeeklyGoal = 30
	data := newTestData(s)
	data.AppendRecord("2024-05-01", appdata.HistoryRecord{Tag: "Work", Phase: appdata.PhaseWork})
	data.AppendRecord("2024-04-29", appdata.HistoryRecord{Tag: "Study", Phase: appdata.PhaseWork})
	data.AppendRecord("2024-04-28", appdata.HistoryRecord{Tag: "Study", Phase: appdata.PhaseWork})

	r := New(s, data.Tags, testClock)
	r.Start(s, testClock)
	snap := r.Snapshot(data, testClock)

	if !snap.IsRunning || !snap.BlacklistLocked || snap.Phase != appdata.PhaseWork {
		t.Fatalf("unexpected snapshot state: %+v", snap)
	}
	if snap.TodayStats.Total != 1 || snap.WeekStats.Total != 2 {
		t.Fatalf("unexpected totals: today=%d week=%d", snap.TodayStats.Total, snap.WeekStats.Total)
	}
	want := GoalProgress{DailyGoal: 8, DailyCompleted: 1, WeeklyGoal: 30, WeeklyCompleted: 2}
	if snap.GoalProgress != want {
		t.Fatalf("GoalProgress = %+v, want %+v", snap.GoalProgress, want)
	}
}
