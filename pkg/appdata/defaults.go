package appdata

// DefaultTag is used whenever a tag is blank.
const DefaultTag = "Work"

// DefaultTags is the tag list of a fresh install.
func DefaultTags() []string {
	return []string{"Work", "Study", "Reading", "Writing"}
}

// DefaultSettings is the settings of a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Pomodoro:              25,
		ShortBreak:            5,
		LongBreak:             15,
		LongBreakInterval:     4,
		AutoContinueEnabled:   false,
		AutoContinuePomodoros: 4,
		Audio: AudioSettings{
			Enabled: true,
			Volume:  60,
		},
		Interruption: InterruptionSettings{
			Enabled: true,
		},
	}
}

// Default returns the data of a fresh install.
func Default() *AppData {
	return &AppData{
		Settings:      DefaultSettings(),
		Blacklist:     []BlacklistItem{},
		Tags:          DefaultTags(),
		History:       []HistoryDay{},
		Interruptions: []InterruptionDay{},
	}
}
