package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/tomato/pkg/config"
)

var (
	tickInterval = time.Second
	tickRecorder = NewTickRecorder(90)
	// Long enough to notice a laptop lid being closed, short enough to not
	// keep stale records around.
	continuousTickWindow = 30*time.Second + time.Second
)

// TickRecorder records the last N tick times.
type TickRecorder struct {
	MaxRecordCount int
	Times          []time.Time
	mu             *sync.Mutex
}

// NewTickRecorder returns a new TickRecorder.
func NewTickRecorder(maxRecordCount int) *TickRecorder {
	return &TickRecorder{
		MaxRecordCount: maxRecordCount,
		Times:          make([]time.Time, 0),
		mu:             &sync.Mutex{},
	}
}

// Add adds a new record.
func (r *TickRecorder) Add(t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Strip monotonic clock reading, so that gaps caused by system sleep
	// show up when comparing against the wall clock.
	t = t.Round(0)

	if len(r.Times) >= r.MaxRecordCount {
		r.Times = r.Times[1:]
	}
	r.Times = append(r.Times, t)
}

// Clear clears all records.
func (r *TickRecorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Times = make([]time.Time, 0)
}

// Last returns the last record, or the zero time.
func (r *TickRecorder) Last() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.Times) == 0 {
		return time.Time{}
	}
	return r.Times[len(r.Times)-1]
}

// ContinuousIn returns the number of continuous records within last before now.
// Two adjacent records are continuous when they are less than
// tickInterval+1s apart.
func (r *TickRecorder) ContinuousIn(now time.Time, last time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	gap := tickInterval + time.Second

	// The last record must be recent.
	if len(r.Times) > 0 && now.Sub(r.Times[len(r.Times)-1]) >= gap {
		return 0
	}

	count := 0
	for i := len(r.Times) - 1; i >= 0; i-- {
		record := r.Times[i]
		if now.Sub(record) > last {
			break
		}

		after := record
		if i+1 < len(r.Times) {
			after = r.Times[i+1]
		}
		if after.Sub(record) >= gap {
			break
		}
		count++
	}

	return count
}

// missedTicks logs and reports a gap between the last tick and now. Missed
// ticks are never replayed: a suspended machine does not count as focus time.
func missedTicks(now time.Time) (time.Duration, bool) {
	last := tickRecorder.Last()
	if last.IsZero() {
		return 0, false
	}
	gap := now.Round(0).Sub(last)
	if gap < tickInterval*2 {
		return gap, false
	}
	logrus.WithFields(logrus.Fields{
		"gap":        gap.String(),
		"lastTick":   last.Format(time.RFC3339),
		"continuous": tickRecorder.ContinuousIn(last, continuousTickWindow),
	}).Info("possibly missed ticks, system may have been asleep")
	return gap, true
}

// tickLoop drives the timer until ctx is done.
func tickLoop(ctx context.Context, st *State) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	logrus.Debug("tick loop starts")
	for {
		select {
		case <-ctx.Done():
			logrus.Debug("tick loop stopped")
			return
		case now := <-ticker.C:
			missedTicks(now)
			tickRecorder.Add(now)
			st.Tick()
		}
	}
}

// guardLoop re-terminates blacklisted processes during focus sessions.
// Options are re-read from conf on every round so SIGHUP reloads apply.
func guardLoop(ctx context.Context, st *State, conf config.Config) {
	logrus.Debug("blacklist guard starts")
	for {
		interval := time.Duration(conf.GuardIntervalSeconds()) * time.Second
		if interval <= 0 {
			interval = 5 * time.Second
		}
		select {
		case <-ctx.Done():
			logrus.Debug("blacklist guard stopped")
			return
		case <-time.After(interval):
			if !conf.BlacklistGuard() {
				continue
			}
			if st.GuardBlacklist() {
				logrus.Trace("blacklist guard round")
			}
		}
	}
}
