// Package appdata defines the data tomato persists between runs.
package appdata

// Phase is one of the three pomodoro phases.
type Phase string

const (
	PhaseWork       Phase = "work"
	PhaseShortBreak Phase = "shortBreak"
	PhaseLongBreak  Phase = "longBreak"
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseWork, PhaseShortBreak, PhaseLongBreak:
		return true
	}
	return false
}

// IsBreak reports whether p is one of the break phases.
func (p Phase) IsBreak() bool {
	return p == PhaseShortBreak || p == PhaseLongBreak
}

// Glyph is the short symbol shown next to the remaining time.
func (p Phase) Glyph() string {
	switch p {
	case PhaseShortBreak:
		return "☕"
	case PhaseLongBreak:
		return "🌿"
	default:
		return "🍅"
	}
}

// DisplayName is the human readable name of the phase.
func (p Phase) DisplayName() string {
	switch p {
	case PhaseWork:
		return "Focus"
	case PhaseShortBreak:
		return "Short break"
	case PhaseLongBreak:
		return "Long break"
	default:
		return string(p)
	}
}

// Settings is the user configuration of the timer. Durations are minutes.
type Settings struct {
	Pomodoro              int  `json:"pomodoro"`
	ShortBreak            int  `json:"shortBreak"`
	LongBreak             int  `json:"longBreak"`
	LongBreakInterval     int  `json:"longBreakInterval"`
	AutoContinueEnabled   bool `json:"autoContinueEnabled"`
	AutoContinuePomodoros int  `json:"autoContinuePomodoros"`
	// DailyGoal and WeeklyGoal are unset when 0.
	DailyGoal  int `json:"dailyGoal"`
	WeeklyGoal int `json:"weeklyGoal"`

	// The fields below are not used by the timer and are carried through as-is.
	AlwaysOnTop  bool                 `json:"alwaysOnTop"`
	Audio        AudioSettings        `json:"audio"`
	Interruption InterruptionSettings `json:"interruption"`
}

// AudioSettings is consumed by audio frontends.
type AudioSettings struct {
	Enabled        bool   `json:"enabled"`
	CurrentAudioID string `json:"currentAudioId"`
	Volume         int    `json:"volume"`
}

// InterruptionSettings controls interruption bookkeeping.
type InterruptionSettings struct {
	Enabled bool `json:"enabled"`
}

// PhaseMinutes returns the configured length of phase p in minutes.
func (s Settings) PhaseMinutes(p Phase) int {
	switch p {
	case PhaseShortBreak:
		return s.ShortBreak
	case PhaseLongBreak:
		return s.LongBreak
	default:
		return s.Pomodoro
	}
}

// PhaseSeconds returns the configured length of phase p in seconds.
func (s Settings) PhaseSeconds(p Phase) uint64 {
	m := s.PhaseMinutes(p)
	if m < 0 {
		return 0
	}
	return uint64(m) * 60
}

// HistoryRecord is one completed focus session.
type HistoryRecord struct {
	Tag       string `json:"tag"`
	StartTime string `json:"startTime"` // HH:mm
	EndTime   string `json:"endTime,omitempty"`
	Duration  int    `json:"duration"` // minutes
	Phase     Phase  `json:"phase"`
	Remark    string `json:"remark"`
}

// HistoryDay groups the records of one date (YYYY-MM-DD).
type HistoryDay struct {
	Date    string          `json:"date"`
	Records []HistoryRecord `json:"records"`
}

// BlacklistItem is a process that gets terminated during focus sessions.
type BlacklistItem struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// InterruptionType is how a focus session was abandoned.
type InterruptionType string

const (
	InterruptionReset InterruptionType = "reset"
	InterruptionSkip  InterruptionType = "skip"
	InterruptionQuit  InterruptionType = "quit"
)

// Valid reports whether t is a known interruption type.
func (t InterruptionType) Valid() bool {
	switch t {
	case InterruptionReset, InterruptionSkip, InterruptionQuit:
		return true
	}
	return false
}

// InterruptionRecord is one abandoned focus session.
type InterruptionRecord struct {
	ID               string           `json:"id"`
	Timestamp        string           `json:"timestamp"` // RFC3339, local offset
	RemainingSeconds uint64           `json:"remainingSeconds"`
	FocusedSeconds   uint64           `json:"focusedSeconds"`
	Reason           string           `json:"reason"`
	Type             InterruptionType `json:"type"`
	Tag              string           `json:"tag"`
}

// InterruptionDay groups the interruptions of one date.
type InterruptionDay struct {
	Date    string               `json:"date"`
	Records []InterruptionRecord `json:"records"`
}

// DateRange is an inclusive YYYY-MM-DD range.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Contains reports whether date falls in the range. Dates compare as strings.
func (r DateRange) Contains(date string) bool {
	return date >= r.From && date <= r.To
}

// AppData is everything tomato persists.
type AppData struct {
	Settings       Settings          `json:"settings"`
	Blacklist      []BlacklistItem   `json:"blacklist"`
	Tags           []string          `json:"tags"`
	History        []HistoryDay      `json:"history"`
	Interruptions  []InterruptionDay `json:"interruptions"`
	CurrentCombo   int               `json:"currentCombo"`
	TotalPomodoros int64             `json:"totalPomodoros"`
}
