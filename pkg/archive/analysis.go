package archive

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// FocusAnalysis describes when and on what the user focuses.
type FocusAnalysis struct {
	From string `json:"from"`
	To   string `json:"to"`
	// HourlyCounts is indexed by the hour the session started.
	HourlyCounts []int `json:"hourlyCounts"`
	// PeriodCounts buckets hours into 0-6, 6-12, 12-18 and 18-24.
	PeriodCounts []int `json:"periodCounts"`
	// WeekdayCounts runs Monday to Sunday.
	WeekdayCounts []int `json:"weekdayCounts"`
	// WeekdayHourCounts[weekday][hour]
	WeekdayHourCounts [][]int         `json:"weekdayHourCounts"`
	TagEfficiency     []TagEfficiency `json:"tagEfficiency"`
	Summary           string          `json:"summary"`
}

// TagEfficiency is the average session length of one tag.
type TagEfficiency struct {
	Tag         string  `json:"tag"`
	AvgDuration float64 `json:"avgDuration"` // minutes
	Count       int     `json:"count"`
}

// DayTotal aggregates one day.
type DayTotal struct {
	Date          string `json:"date"`
	Pomodoros     int    `json:"pomodoros"`
	Minutes       int    `json:"minutes"`
	Interruptions int    `json:"interruptions"`
}

// FocusAnalysis aggregates the work records dated within [from, to].
func (a *Archive) FocusAnalysis(from, to string) (*FocusAnalysis, error) {
	out := &FocusAnalysis{
		From:              from,
		To:                to,
		HourlyCounts:      make([]int, 24),
		PeriodCounts:      make([]int, 4),
		WeekdayCounts:     make([]int, 7),
		WeekdayHourCounts: make([][]int, 7),
		TagEfficiency:     []TagEfficiency{},
	}
	for i := range out.WeekdayHourCounts {
		out.WeekdayHourCounts[i] = make([]int, 24)
	}

	// strftime('%w') counts from Sunday; shift to Monday = 0.
	rows, err := a.db.Query(`
		SELECT (CAST(strftime('%w', date) AS INTEGER) + 6) % 7 AS weekday,
		       CAST(substr(start_time, 1, instr(start_time || ':', ':') - 1) AS INTEGER) AS hour,
		       COUNT(*)
		FROM work_records
		WHERE phase = 'work' AND date BETWEEN ? AND ?
		GROUP BY weekday, hour`, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to query focus distribution")
	}
	defer rows.Close()

	for rows.Next() {
		var weekday, hour, count int
		if err := rows.Scan(&weekday, &hour, &count); err != nil {
			return nil, pkgerrors.Wrap(err, "failed to scan focus distribution")
		}
		if weekday < 0 || weekday > 6 {
			continue
		}
		if hour < 0 || hour > 23 {
			hour = 0
		}
		out.HourlyCounts[hour] += count
		out.PeriodCounts[hour/6] += count
		out.WeekdayCounts[weekday] += count
		out.WeekdayHourCounts[weekday][hour] += count
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to iterate focus distribution")
	}

	tagRows, err := a.db.Query(`
		SELECT tag, COUNT(*) AS n, AVG(duration) AS avg_duration
		FROM work_records
		WHERE phase = 'work' AND date BETWEEN ? AND ?
		GROUP BY tag
		ORDER BY n DESC, avg_duration DESC, tag`, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to query tag efficiency")
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var te TagEfficiency
		if err := tagRows.Scan(&te.Tag, &te.Count, &te.AvgDuration); err != nil {
			return nil, pkgerrors.Wrap(err, "failed to scan tag efficiency")
		}
		out.TagEfficiency = append(out.TagEfficiency, te)
	}
	if err := tagRows.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to iterate tag efficiency")
	}

	out.Summary = summarize(out.HourlyCounts)
	return out, nil
}

// DailyTotals returns per-day focus and interruption counts within [from, to], oldest first.
func (a *Archive) DailyTotals(from, to string) ([]DayTotal, error) {
	rows, err := a.db.Query(`
		SELECT date, SUM(p), SUM(m), SUM(i) FROM (
			SELECT date, 1 AS p, duration AS m, 0 AS i FROM work_records
			WHERE phase = 'work' AND date BETWEEN ? AND ?
			UNION ALL
			SELECT date, 0, 0, 1 FROM interruptions
			WHERE date BETWEEN ? AND ?
		)
		GROUP BY date
		ORDER BY date`, from, to, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to query daily totals")
	}
	defer rows.Close()

	totals := []DayTotal{}
	for rows.Next() {
		var d DayTotal
		if err := rows.Scan(&d.Date, &d.Pomodoros, &d.Minutes, &d.Interruptions); err != nil {
			return nil, pkgerrors.Wrap(err, "failed to scan daily totals")
		}
		totals = append(totals, d)
	}
	return totals, pkgerrors.Wrap(rows.Err(), "failed to iterate daily totals")
}

// summarize names the busiest two-hour window.
func summarize(hourly []int) string {
	total := 0
	for _, n := range hourly {
		total += n
	}
	if len(hourly) != 24 || total == 0 {
		return "No focus data yet"
	}

	bestStart, bestSum := 0, 0
	for start := 0; start < 23; start++ {
		if sum := hourly[start] + hourly[start+1]; sum > bestSum {
			bestStart, bestSum = start, sum
		}
	}
	return fmt.Sprintf("You focus best between %02d:00 and %02d:00", bestStart, bestStart+2)
}
