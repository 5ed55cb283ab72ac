package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/tomato/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		AllowNonRootAccess:   ptr.To(false),
		DesktopNotifications: ptr.To(true),
		// Empty means: pick notify-send or osascript depending on the OS.
		NotifyCommand:        ptr.To(""),
		Schedule:             ptr.To(""),
		ScheduleLeadMinutes:  ptr.To(5),
		BlacklistGuard:       ptr.To(true),
		GuardIntervalSeconds: ptr.To(5),
		// Empty means: next to the data file.
		ArchivePath: ptr.To(""),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	return &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}
}

type RawFileConfig struct {
	AllowNonRootAccess   *bool   `json:"allowNonRootAccess,omitempty"`
	DesktopNotifications *bool   `json:"desktopNotifications,omitempty"`
	NotifyCommand        *string `json:"notifyCommand,omitempty"`
	Schedule             *string `json:"schedule,omitempty"`
	ScheduleLeadMinutes  *int    `json:"scheduleLeadMinutes,omitempty"`
	BlacklistGuard       *bool   `json:"blacklistGuard,omitempty"`
	GuardIntervalSeconds *int    `json:"guardIntervalSeconds,omitempty"`
	ArchivePath          *string `json:"archivePath,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	return &RawFileConfig{
		AllowNonRootAccess:   ptr.To(c.AllowNonRootAccess()),
		DesktopNotifications: ptr.To(c.DesktopNotifications()),
		NotifyCommand:        ptr.To(c.NotifyCommand()),
		Schedule:             ptr.To(c.Schedule()),
		ScheduleLeadMinutes:  ptr.To(c.ScheduleLeadMinutes()),
		BlacklistGuard:       ptr.To(c.BlacklistGuard()),
		GuardIntervalSeconds: ptr.To(c.GuardIntervalSeconds()),
		ArchivePath:          ptr.To(c.ArchivePath()),
	}, nil
}

// get reads one field under the read lock, falling back to its default.
func get[T any](f *File, field func(*RawFileConfig) *T) T {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(field(f.c), *field(defaultFileConfig))
}

// set writes one field under the write lock.
func set[T any](f *File, field func(*RawFileConfig) **T, v T) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	*field(f.c) = &v
}

func (f *File) AllowNonRootAccess() bool {
	return get(f, func(c *RawFileConfig) *bool { return c.AllowNonRootAccess })
}

func (f *File) DesktopNotifications() bool {
	return get(f, func(c *RawFileConfig) *bool { return c.DesktopNotifications })
}

func (f *File) NotifyCommand() string {
	return get(f, func(c *RawFileConfig) *string { return c.NotifyCommand })
}

func (f *File) Schedule() string {
	return get(f, func(c *RawFileConfig) *string { return c.Schedule })
}

func (f *File) ScheduleLeadMinutes() int {
	return get(f, func(c *RawFileConfig) *int { return c.ScheduleLeadMinutes })
}

func (f *File) BlacklistGuard() bool {
	return get(f, func(c *RawFileConfig) *bool { return c.BlacklistGuard })
}

func (f *File) GuardIntervalSeconds() int {
	return get(f, func(c *RawFileConfig) *int { return c.GuardIntervalSeconds })
}

func (f *File) ArchivePath() string {
	return get(f, func(c *RawFileConfig) *string { return c.ArchivePath })
}

func (f *File) SetAllowNonRootAccess(b bool) {
	set(f, func(c *RawFileConfig) **bool { return &c.AllowNonRootAccess }, b)
}

func (f *File) SetDesktopNotifications(b bool) {
	set(f, func(c *RawFileConfig) **bool { return &c.DesktopNotifications }, b)
}

func (f *File) SetNotifyCommand(s string) {
	set(f, func(c *RawFileConfig) **string { return &c.NotifyCommand }, s)
}

func (f *File) SetSchedule(s string) {
	set(f, func(c *RawFileConfig) **string { return &c.Schedule }, s)
}

func (f *File) SetScheduleLeadMinutes(i int) {
	if i < 0 {
		panic("schedule lead minutes must not be negative")
	}
	set(f, func(c *RawFileConfig) **int { return &c.ScheduleLeadMinutes }, i)
}

func (f *File) SetBlacklistGuard(b bool) {
	set(f, func(c *RawFileConfig) **bool { return &c.BlacklistGuard }, b)
}

func (f *File) SetGuardIntervalSeconds(i int) {
	if i <= 0 {
		panic("guard interval must be positive")
	}
	set(f, func(c *RawFileConfig) **int { return &c.GuardIntervalSeconds }, i)
}

func (f *File) SetArchivePath(s string) {
	set(f, func(c *RawFileConfig) **string { return &c.ArchivePath }, s)
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// Keep f.c non-nil so the getters fall back to defaults.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// json.Decoder cannot tell an empty file from a broken one.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}
	if f.filepath == "" {
		return pkgerrors.New("config has no file path")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	return logrus.Fields{
		"allowNonRootAccess":   f.AllowNonRootAccess(),
		"desktopNotifications": f.DesktopNotifications(),
		"notifyCommand":        f.NotifyCommand(),
		"schedule":             f.Schedule(),
		"scheduleLeadMinutes":  f.ScheduleLeadMinutes(),
		"blacklistGuard":       f.BlacklistGuard(),
		"guardIntervalSeconds": f.GuardIntervalSeconds(),
		"archivePath":          f.ArchivePath(),
	}
}
