// Package store persists AppData as a JSON document.
package store

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/tomato/pkg/appdata"
	"github.com/charlie0129/tomato/pkg/timer"
)

// Store loads and saves AppData.
type Store interface {
	Load() (*appdata.AppData, error)
	Save(data *appdata.AppData) error
}

var _ Store = &File{}

// File stores AppData in a JSON file. Writes replace the file atomically.
type File struct {
	mu       sync.Mutex
	filepath string
}

func NewFile(path string) *File {
	return &File{filepath: path}
}

func (f *File) Path() string { return f.filepath }

// Load reads the file. A missing or empty file yields the defaults, and
// out-of-range settings are replaced by the defaults.
func (f *File) Load() (*appdata.AppData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.WithField("path", f.filepath).Info("data file does not exist, starting fresh")
			return appdata.Default(), nil
		}
		return nil, pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func() {
		if err := fp.Close(); err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}()

	b, err := io.ReadAll(fp)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}
	if strings.TrimSpace(string(b)) == "" {
		return appdata.Default(), nil
	}

	data := appdata.Default()
	if err := json.Unmarshal(b, data); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal data from file %s", f.filepath)
	}

	if err := timer.ValidateSettings(data.Settings); err != nil {
		logrus.WithError(err).Warn("stored settings are invalid, falling back to defaults")
		data.Settings = appdata.DefaultSettings()
	}
	data.Normalize()

	return data, nil
}

// Save writes data to a temporary file next to the target and renames it.
func (f *File) Save(data *appdata.AppData) error {
	if data == nil {
		return pkgerrors.New("data is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.filepath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return pkgerrors.Wrapf(err, "failed to create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.filepath)+".*")
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create temporary file in %s", dir)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmpName)
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		_ = tmp.Close()
		return pkgerrors.Wrapf(err, "failed to encode data to %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return pkgerrors.Wrapf(err, "failed to close %s", tmpName)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return pkgerrors.Wrapf(err, "failed to chmod %s", tmpName)
	}
	if err := os.Rename(tmpName, f.filepath); err != nil {
		return pkgerrors.Wrapf(err, "failed to replace %s", f.filepath)
	}
	return nil
}

// Memory keeps AppData in memory. Used by tests and dry runs.
type Memory struct {
	mu    sync.Mutex
	data  *appdata.AppData
	saves int
}

var _ Store = &Memory{}

func NewMemory(data *appdata.AppData) *Memory {
	if data == nil {
		data = appdata.Default()
	}
	return &Memory{data: data.Clone()}
}

func (m *Memory) Load() (*appdata.AppData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.Clone(), nil
}

func (m *Memory) Save(data *appdata.AppData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data.Clone()
	m.saves++
	return nil
}

// SaveCount returns how many times Save was called.
func (m *Memory) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
