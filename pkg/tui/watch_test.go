package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/charlie0129/tomato/pkg/appdata"
	"github.com/charlie0129/tomato/pkg/timer"
)

type fakeController struct {
	snap  timer.Snapshot
	err   error
	calls []string
}

func (f *fakeController) result(call string) (*timer.Snapshot, error) {
	f.calls = append(f.calls, call)
	if f.err != nil {
		return nil, f.err
	}
	s := f.snap
	return &s, nil
}

func (f *fakeController) GetSnapshot() (*timer.Snapshot, error) { return f.result("snapshot") }
func (f *fakeController) Start() (*timer.Snapshot, error)       { return f.result("start") }
func (f *fakeController) Pause() (*timer.Snapshot, error)       { return f.result("pause") }
func (f *fakeController) Skip(string) (*timer.Snapshot, error)  { return f.result("skip") }
func (f *fakeController) Reset(string) (*timer.Snapshot, error) { return f.result("reset") }

func newSnapshot() timer.Snapshot {
	settings := appdata.DefaultSettings()
	settings.Pomodoro = 25
	return timer.Snapshot{
		Phase:            appdata.PhaseWork,
		RemainingSeconds: 12*60 + 30,
		IsRunning:        true,
		CurrentTag:       "Writing",
		Settings:         settings,
		GoalProgress:     timer.GoalProgress{DailyGoal: 8, DailyCompleted: 2, WeeklyCompleted: 9},
	}
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestKeysCallDaemon(t *testing.T) {
	tests := []struct {
		key  rune
		want string
	}{
		{'s', "start"},
		{'p', "pause"},
		{'n', "skip"},
		{'r', "reset"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			api := &fakeController{snap: newSnapshot()}
			m, cmd := New(api).Update(keyPress(tt.key))
			if cmd == nil {
				t.Fatal("expected a command")
			}
			msg := cmd()
			if len(api.calls) != 1 || api.calls[0] != tt.want {
				t.Fatalf("calls = %v, want [%s]", api.calls, tt.want)
			}
			m, _ = m.Update(msg)
			if got := m.(Model).snap; got == nil || got.CurrentTag != "Writing" {
				t.Fatalf("snapshot not applied: %+v", got)
			}
		})
	}
}

func TestQuit(t *testing.T) {
	_, cmd := New(&fakeController{}).Update(keyPress('q'))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should quit")
	}
}

func TestView(t *testing.T) {
	api := &fakeController{snap: newSnapshot()}
	var m tea.Model = New(api)

	if v := m.View(); !strings.Contains(v, "Connecting to daemon") {
		t.Fatalf("initial view = %q", v)
	}

	m, _ = m.Update(snapshotMsg{snap: &api.snap})
	v := m.View()
	for _, want := range []string{"Focus", "12:30", "#Writing", "2/8", "9"} {
		if !strings.Contains(v, want) {
			t.Errorf("view does not contain %q:\n%s", want, v)
		}
	}
	if strings.Contains(v, "(paused)") {
		t.Error("running timer shown as paused")
	}

	// A failed poll keeps the last snapshot and shows the error.
	m, _ = m.Update(snapshotMsg{err: errors.New("daemon not running")})
	v = m.View()
	if !strings.Contains(v, "12:30") || !strings.Contains(v, "daemon not running") {
		t.Fatalf("view after error = %q", v)
	}
}

func TestTickPolls(t *testing.T) {
	_, cmd := New(&fakeController{}).Update(tickMsg{})
	if cmd == nil {
		t.Fatal("tick should schedule the next poll")
	}
}
