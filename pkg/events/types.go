package events

import "encoding/json"

// Event names
const (
	TimerSnapshot      = "timer.snapshot"
	WorkCompleted      = "timer.work_completed"
	PomodoroCompleted  = "pomodoro.completed"
	PomodoroMilestone  = "pomodoro.milestone"
	BlacklistKill      = "blacklist.kill_result"
	Notification       = "notification"
	ScheduleUpcoming   = "schedule.upcoming"
	ScheduleError      = "schedule.error"
	InterruptionLogged = "interruption.recorded"
)

// Event is a generic SSE event from daemon.
type Event struct {
	ID   string          // SSE event id
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// PomodoroCompletedEvent is the payload of pomodoro.completed.
type PomodoroCompletedEvent struct {
	Combo            int   `json:"combo"`
	Total            int64 `json:"total"`
	DailyGoalReached bool  `json:"dailyGoalReached"`
}

// PomodoroMilestoneEvent is the payload of pomodoro.milestone.
type PomodoroMilestoneEvent struct {
	Milestone int64 `json:"milestone"`
}

// NotificationEvent is the payload of notification.
type NotificationEvent struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ScheduleUpcomingEvent is the payload of schedule.upcoming.
type ScheduleUpcomingEvent struct {
	RunAt string `json:"runAt"` // RFC3339
}

// ScheduleErrorEvent is the payload of schedule.error.
type ScheduleErrorEvent struct {
	Message string `json:"message"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	payload, err := events.DecodeAs[events.PomodoroCompletedEvent](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(payload.Combo, payload.Total)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
