package timer

import (
	"sort"

	"github.com/charlie0129/tomato/pkg/appdata"
)

// TagCount is the number of completed focus sessions with one tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TodayStats is the focus summary of one day.
type TodayStats struct {
	Total int        `json:"total"`
	ByTag []TagCount `json:"byTag"`
}

// WeekStats is the focus summary of a date range.
type WeekStats struct {
	Total int        `json:"total"`
	ByTag []TagCount `json:"byTag"`
}

// GoalProgress compares completed sessions with the configured goals.
type GoalProgress struct {
	DailyGoal       int `json:"dailyGoal"`
	DailyCompleted  int `json:"dailyCompleted"`
	WeeklyGoal      int `json:"weeklyGoal"`
	WeeklyCompleted int `json:"weeklyCompleted"`
}

// ComputeTodayStats counts the focus records dated today.
func ComputeTodayStats(data *appdata.AppData, today string) TodayStats {
	total, byTag := countWork(data, appdata.DateRange{From: today, To: today})
	return TodayStats{Total: total, ByTag: byTag}
}

// ComputeWeekStats counts the focus records dated within [from, to].
func ComputeWeekStats(data *appdata.AppData, from, to string) WeekStats {
	total, byTag := countWork(data, appdata.DateRange{From: from, To: to})
	return WeekStats{Total: total, ByTag: byTag}
}

func countWork(data *appdata.AppData, r appdata.DateRange) (int, []TagCount) {
	counts := map[string]int{}
	total := 0
	for _, day := range data.History {
		if !r.Contains(day.Date) {
			continue
		}
		for _, rec := range day.Records {
			if rec.Phase != appdata.PhaseWork {
				continue
			}
			total++
			counts[rec.Tag]++
		}
	}

	byTag := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		byTag = append(byTag, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(byTag, func(i, j int) bool { return byTag[i].Tag < byTag[j].Tag })
	return total, byTag
}

func completedCounts(data *appdata.AppData, clock Clock) (today, week int) {
	from, to := clock.CurrentWeekRange()
	return ComputeTodayStats(data, clock.TodayDate()).Total, ComputeWeekStats(data, from, to).Total
}
