package config

import "github.com/sirupsen/logrus"

// Config holds daemon options. User-facing timer settings are part of the
// persisted AppData instead.
type Config interface {
	AllowNonRootAccess() bool
	DesktopNotifications() bool
	NotifyCommand() string
	Schedule() string
	ScheduleLeadMinutes() int
	BlacklistGuard() bool
	GuardIntervalSeconds() int
	ArchivePath() string

	SetAllowNonRootAccess(bool)
	SetDesktopNotifications(bool)
	SetNotifyCommand(string)
	SetSchedule(string)
	SetScheduleLeadMinutes(int)
	SetBlacklistGuard(bool)
	SetGuardIntervalSeconds(int)
	SetArchivePath(string)

	LogrusFields() logrus.Fields

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
