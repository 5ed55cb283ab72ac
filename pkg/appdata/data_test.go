package appdata

import (
	"testing"

	"github.com/charlie0129/tomato/pkg/apperr"
)

func TestEnsureDayIsFindOrCreate(t *testing.T) {
	d := Default()

	first := d.EnsureDay("2024-05-01")
	second := d.EnsureDay("2024-05-02")
	again := d.EnsureDay("2024-05-01")

	if first != again {
		t.Fatalf("EnsureDay created a duplicate day: %d != %d", first, again)
	}
	if second == first {
		t.Fatalf("distinct dates must map to distinct days")
	}
	if len(d.History) != 2 {
		t.Fatalf("expected 2 days, got %d", len(d.History))
	}
}

func TestAppendRecordReturnsIndex(t *testing.T) {
	d := Default()
	rec := HistoryRecord{Tag: "Work", StartTime: "09:00", EndTime: "09:25", Duration: 25, Phase: PhaseWork}

	if got := d.AppendRecord("2024-05-01", rec); got != 0 {
		t.Fatalf("first index = %d, want 0", got)
	}
	if got := d.AppendRecord("2024-05-01", rec); got != 1 {
		t.Fatalf("second index = %d, want 1", got)
	}
}

func TestHistoryInSortsNewestFirst(t *testing.T) {
	d := Default()
	for _, date := range []string{"2024-05-02", "2024-04-30", "2024-05-05", "2024-05-03"} {
		d.AppendRecord(date, HistoryRecord{Tag: "Work", Phase: PhaseWork})
	}

	days := d.HistoryIn(DateRange{From: "2024-05-01", To: "2024-05-04"})
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	if days[0].Date != "2024-05-03" || days[1].Date != "2024-05-02" {
		t.Fatalf("unexpected order: %s, %s", days[0].Date, days[1].Date)
	}

	// The result must not alias the stored records.
	days[0].Records[0].Remark = "changed"
	if d.History[d.FindDay("2024-05-03")].Records[0].Remark != "" {
		t.Fatalf("HistoryIn leaked a reference to stored records")
	}
}

func TestSetRemark(t *testing.T) {
	d := Default()
	d.AppendRecord("2024-05-01", HistoryRecord{Tag: "Work", Phase: PhaseWork})

	tests := []struct {
		name    string
		date    string
		index   int
		wantErr bool
	}{
		{name: "ok", date: "2024-05-01", index: 0},
		{name: "missing day", date: "2024-05-02", index: 0, wantErr: true},
		{name: "index out of range", date: "2024-05-01", index: 1, wantErr: true},
		{name: "negative index", date: "2024-05-01", index: -1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := d.SetRemark(tt.date, tt.index, "  deep work  ")
			if tt.wantErr {
				if !apperr.IsValidation(err) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Remark != "deep work" {
				t.Fatalf("remark = %q, want trimmed", rec.Remark)
			}
		})
	}
}

func TestTags(t *testing.T) {
	d := Default()
	if d.AddTag("Work") {
		t.Fatalf("adding an existing tag must be a no-op")
	}
	if d.AddTag("   ") {
		t.Fatalf("adding a blank tag must be a no-op")
	}
	if !d.AddTag(" Exercise ") {
		t.Fatalf("expected new tag to be added")
	}
	if d.Tags[len(d.Tags)-1] != "Exercise" {
		t.Fatalf("expected trimmed tag, got %q", d.Tags[len(d.Tags)-1])
	}
	if !d.RemoveTag("Study") || d.RemoveTag("Study") {
		t.Fatalf("RemoveTag should report presence exactly once")
	}
}

func TestNormalize(t *testing.T) {
	d := &AppData{
		Settings:     DefaultSettings(),
		Tags:         []string{" ", "Work", "Work", "Code"},
		History:      []HistoryDay{{Date: "2024-05-01", Records: []HistoryRecord{{Tag: "Work"}}}},
		CurrentCombo: -3,
	}
	d.Normalize()

	if len(d.Tags) != 2 || d.Tags[0] != "Work" || d.Tags[1] != "Code" {
		t.Fatalf("unexpected tags: %v", d.Tags)
	}
	if d.History[0].Records[0].Phase != PhaseWork {
		t.Fatalf("records without a phase should default to work")
	}
	if d.CurrentCombo != 0 {
		t.Fatalf("combo should be clamped to 0")
	}
	if d.Blacklist == nil || d.Interruptions == nil {
		t.Fatalf("nil slices should be replaced")
	}

	empty := &AppData{}
	empty.Normalize()
	if len(empty.Tags) != len(DefaultTags()) {
		t.Fatalf("empty tag list should fall back to defaults")
	}
}

func TestCloneIsDeep(t *testing.T) {
	d := Default()
	d.AppendRecord("2024-05-01", HistoryRecord{Tag: "Work", Phase: PhaseWork})
	d.Blacklist = append(d.Blacklist, BlacklistItem{Name: "game", DisplayName: "Game"})

	c := d.Clone()
	c.History[0].Records[0].Tag = "Other"
	c.Blacklist[0].Name = "other"
	c.Tags[0] = "Other"

	if d.History[0].Records[0].Tag != "Work" || d.Blacklist[0].Name != "game" || d.Tags[0] != "Work" {
		t.Fatalf("Clone shares memory with the original")
	}
}
