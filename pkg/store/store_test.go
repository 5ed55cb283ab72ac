package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charlie0129/tomato/pkg/appdata"
)

func TestFileLoadMissingOrEmpty(t *testing.T) {
	dir := t.TempDir()

	data, err := NewFile(filepath.Join(dir, "missing.json")).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if data.Settings != appdata.DefaultSettings() {
		t.Fatalf("expected default settings, got %+v", data.Settings)
	}

	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte("  \n"), 0644); err != nil {
		t.Fatal(err)
	}
	data, err = NewFile(empty).Load()
	if err != nil || len(data.Tags) != len(appdata.DefaultTags()) {
		t.Fatalf("empty file should load defaults: %+v, %v", data, err)
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.json")
	f := NewFile(path)

	data := appdata.Default()
	data.Settings.DailyGoal = 8
	data.CurrentCombo = 3
	data.TotalPomodoros = 120
	data.AppendRecord("2024-05-01", appdata.HistoryRecord{Tag: "Work", StartTime: "09:00", EndTime: "09:25", Duration: 25, Phase: appdata.PhaseWork, Remark: "draft"})
	data.Blacklist = append(data.Blacklist, appdata.BlacklistItem{Name: "steam", DisplayName: "Steam"})

	if err := f.Save(data); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := f.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Settings.DailyGoal != 8 || loaded.CurrentCombo != 3 || loaded.TotalPomodoros != 120 {
		t.Fatalf("counters not restored: %+v", loaded)
	}
	if loaded.History[0].Records[0].Remark != "draft" || loaded.Blacklist[0].Name != "steam" {
		t.Fatalf("records not restored: %+v", loaded)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestFileLoadInvalidSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(`{"settings":{"pomodoro":0,"longBreakInterval":0},"tags":["Code"]}`), 0644); err != nil {
		t.Fatal(err)
	}
	data, err := NewFile(path).Load()
	if err != nil {
		t.Fatal(err)
	}
	if data.Settings != appdata.DefaultSettings() {
		t.Fatalf("invalid settings should fall back to defaults, got %+v", data.Settings)
	}
	if len(data.Tags) != 1 || data.Tags[0] != "Code" {
		t.Fatalf("the rest of the data must be kept, got tags %v", data.Tags)
	}
}

func TestFileLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(`{"settings":`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFile(path).Load(); err == nil {
		t.Fatalf("expected an error for a corrupt file")
	}
}
