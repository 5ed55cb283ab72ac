// Package interruption records abandoned focus sessions and summarizes them.
package interruption

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/charlie0129/tomato/pkg/appdata"
	"github.com/charlie0129/tomato/pkg/apperr"
	"github.com/charlie0129/tomato/pkg/timer"
)

// UnspecifiedReason replaces blank reasons in the reason distribution.
const UnspecifiedReason = "Unspecified"

// ParseType parses reset, skip or quit.
func ParseType(s string) (appdata.InterruptionType, error) {
	t := appdata.InterruptionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", apperr.Validationf("interruption type must be reset, skip or quit, got %q", s)
	}
	return t, nil
}

// Record stores an interruption of the running focus session under the date
// of now and resets the combo. It fails when recording is disabled or no focus
// session has been started.
func Record(
	data *appdata.AppData,
	rt *timer.Runtime,
	combo *timer.ComboRuntime,
	typ appdata.InterruptionType,
	reason string,
	now time.Time,
) (appdata.InterruptionRecord, error) {
	if !typ.Valid() {
		return appdata.InterruptionRecord{}, apperr.Validationf("unknown interruption type %q", typ)
	}
	if !data.Settings.Interruption.Enabled {
		return appdata.InterruptionRecord{}, apperr.Validationf("interruption recording is disabled")
	}
	if rt.Phase() != appdata.PhaseWork || !rt.BlacklistLocked() {
		return appdata.InterruptionRecord{}, apperr.Validationf("interruptions can only be recorded during a started focus session")
	}

	rec := appdata.InterruptionRecord{
		ID:               uuid.NewString(),
		Timestamp:        now.Format(time.RFC3339),
		RemainingSeconds: rt.RemainingSeconds(),
		FocusedSeconds:   rt.FocusedSeconds(data.Settings),
		Reason:           strings.TrimSpace(reason),
		Type:             typ,
		Tag:              rt.CurrentTag(),
	}
	data.AppendInterruption(now.Format(appdata.DateLayout), rec)
	combo.OnInterrupted(data)
	return rec, nil
}

// ReasonCount is how often one reason was given.
type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// Stats summarizes the interruptions of a date range.
type Stats struct {
	Range              appdata.DateRange `json:"range"`
	TotalInterruptions int               `json:"totalInterruptions"`
	DailyAverage       float64           `json:"dailyAverage"`
	// WeeklyAverage is normalized by the number of ISO weeks the range touches.
	WeeklyAverage         float64       `json:"weeklyAverage"`
	HourlyCounts          [24]int       `json:"hourlyCounts"`
	ReasonDistribution    []ReasonCount `json:"reasonDistribution"`
	InterruptionRate      float64       `json:"interruptionRate"`
	AverageFocusedSeconds float64       `json:"averageFocusedSeconds"`
}

// Compute summarizes the interruptions dated within r.
func Compute(data *appdata.AppData, r appdata.DateRange) (Stats, error) {
	if err := appdata.ValidateDateRange(r); err != nil {
		return Stats{}, err
	}
	from, _ := time.Parse(appdata.DateLayout, r.From)
	to, _ := time.Parse(appdata.DateLayout, r.To)

	stats := Stats{Range: r, ReasonDistribution: []ReasonCount{}}
	reasons := map[string]int{}
	var focused uint64
	for _, day := range data.Interruptions {
		if !r.Contains(day.Date) {
			continue
		}
		for _, rec := range day.Records {
			stats.TotalInterruptions++
			focused += rec.FocusedSeconds
			// Hours are read in the offset the timestamp was written with.
			if ts, err := time.Parse(time.RFC3339, rec.Timestamp); err == nil {
				stats.HourlyCounts[ts.Hour()]++
			}
			reason := strings.TrimSpace(rec.Reason)
			if reason == "" {
				reason = UnspecifiedReason
			}
			reasons[reason]++
		}
	}

	for reason, n := range reasons {
		stats.ReasonDistribution = append(stats.ReasonDistribution, ReasonCount{Reason: reason, Count: n})
	}
	sort.Slice(stats.ReasonDistribution, func(i, j int) bool {
		a, b := stats.ReasonDistribution[i], stats.ReasonDistribution[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Reason < b.Reason
	})

	total := float64(stats.TotalInterruptions)
	stats.DailyAverage = total / float64(dayCount(from, to))
	stats.WeeklyAverage = total / float64(weekCount(from, to))

	completed := timer.ComputeWeekStats(data, r.From, r.To).Total
	if started := completed + stats.TotalInterruptions; started > 0 {
		stats.InterruptionRate = total / float64(started)
	}
	if stats.TotalInterruptions > 0 {
		stats.AverageFocusedSeconds = float64(focused) / total
	}
	return stats, nil
}

func dayCount(from, to time.Time) int {
	return int(to.Sub(from).Hours()/24) + 1
}

func weekCount(from, to time.Time) int {
	seen := map[[2]int]struct{}{}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		y, w := d.ISOWeek()
		seen[[2]int{y, w}] = struct{}{}
	}
	return max(len(seen), 1)
}
