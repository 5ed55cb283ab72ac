package timer

import (
	"errors"

	"github.com/charlie0129/tomato/pkg/appdata"
)

type sentMessage struct {
	title string
	body  string
}

// recordingNotifier remembers every message and optionally fails.
type recordingNotifier struct {
	sent []sentMessage
	err  error
}

func (n *recordingNotifier) Notify(title, body string) error {
	n.sent = append(n.sent, sentMessage{title: title, body: body})
	return n.err
}

func (n *recordingNotifier) count(title string) int {
	c := 0
	for _, m := range n.sent {
		if m.title == title {
			c++
		}
	}
	return c
}

var errNotifyFailed = errors.New("notification daemon unavailable")

// 2024-05-01 is a Wednesday.
var testClock = StaticClock{Date: "2024-05-01", Time: "10:00"}

func shortSettings() appdata.Settings {
	s := appdata.DefaultSettings()
	s.Pomodoro = 1
	s.ShortBreak = 1
	s.LongBreak = 2
	s.LongBreakInterval = 4
	return s
}

func newTestData(s appdata.Settings) *appdata.AppData {
	d := appdata.Default()
	d.Settings = s
	return d
}

// tickN ticks n times and returns the results that ended a phase.
func tickN(r *Runtime, data *appdata.AppData, clock Clock, n Notifier, count int) []TickResult {
	var ended []TickResult
	for i := 0; i < count; i++ {
		res := r.Tick(data, clock, n)
		if res.PhaseEnded {
			ended = append(ended, res)
		}
	}
	return ended
}
