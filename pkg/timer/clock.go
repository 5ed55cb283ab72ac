package timer

import (
	"time"

	"github.com/charlie0129/tomato/pkg/appdata"
	"github.com/charlie0129/tomato/pkg/apperr"
)

const timeLayout = "15:04"

// Clock supplies the wall-clock strings the timer works with.
type Clock interface {
	// TodayDate returns the local date as YYYY-MM-DD.
	TodayDate() string
	// NowHHMM returns the local time as HH:mm.
	NowHHMM() string
	// CurrentWeekRange returns the Monday..Sunday range containing today.
	CurrentWeekRange() (from, to string)
}

// SystemClock reads the local system time.
type SystemClock struct{}

var _ Clock = SystemClock{}

func (SystemClock) TodayDate() string { return time.Now().Format(appdata.DateLayout) }

func (SystemClock) NowHHMM() string { return time.Now().Format(timeLayout) }

func (SystemClock) CurrentWeekRange() (string, string) {
	return WeekRange(time.Now())
}

// StaticClock always reports the same instant.
type StaticClock struct {
	Date string
	Time string
}

var _ Clock = StaticClock{}

func (c StaticClock) TodayDate() string { return c.Date }

func (c StaticClock) NowHHMM() string { return c.Time }

func (c StaticClock) CurrentWeekRange() (string, string) {
	t, err := time.ParseInLocation(appdata.DateLayout, c.Date, time.Local)
	if err != nil {
		return c.Date, c.Date
	}
	return WeekRange(t)
}

// WeekRange returns the Monday-start week containing t.
func WeekRange(t time.Time) (string, string) {
	offset := (int(t.Weekday()) + 6) % 7 // days since Monday
	monday := t.AddDate(0, 0, -offset)
	sunday := monday.AddDate(0, 0, 6)
	return monday.Format(appdata.DateLayout), sunday.Format(appdata.DateLayout)
}

// ParseDateTime combines a YYYY-MM-DD date and an HH:mm time in the local zone.
// A malformed input is an invariant violation of the Clock that produced it.
func ParseDateTime(date, hhmm string) (time.Time, error) {
	t, err := time.ParseInLocation(appdata.DateLayout+" "+timeLayout, date+" "+hhmm, time.Local)
	if err != nil {
		return time.Time{}, apperr.Invariantf("clock returned unparsable date/time %q %q: %v", date, hhmm, err)
	}
	return t, nil
}

// ClockNow returns the instant the clock currently reports, at minute precision.
func ClockNow(c Clock) (time.Time, error) {
	return ParseDateTime(c.TodayDate(), c.NowHHMM())
}
