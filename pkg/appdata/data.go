package appdata

import (
	"slices"
	"sort"
	"strings"

	"github.com/charlie0129/tomato/pkg/apperr"
)

// NormalizeTag trims tag and falls back to DefaultTag when it is blank.
func NormalizeTag(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return DefaultTag
	}
	return tag
}

// EnsureDay returns the index of the history day for date, appending an
// empty day when none exists yet.
func (d *AppData) EnsureDay(date string) int {
	if i := d.FindDay(date); i >= 0 {
		return i
	}
	d.History = append(d.History, HistoryDay{Date: date, Records: []HistoryRecord{}})
	return len(d.History) - 1
}

// FindDay returns the index of the history day for date, or -1.
func (d *AppData) FindDay(date string) int {
	for i := range d.History {
		if d.History[i].Date == date {
			return i
		}
	}
	return -1
}

// AppendRecord appends rec to the day of date and returns its index within that day.
func (d *AppData) AppendRecord(date string, rec HistoryRecord) int {
	i := d.EnsureDay(date)
	d.History[i].Records = append(d.History[i].Records, rec)
	return len(d.History[i].Records) - 1
}

// HistoryIn returns copies of the days within r, newest first.
func (d *AppData) HistoryIn(r DateRange) []HistoryDay {
	out := make([]HistoryDay, 0)
	for _, day := range d.History {
		if !r.Contains(day.Date) {
			continue
		}
		out = append(out, HistoryDay{Date: day.Date, Records: slices.Clone(day.Records)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// SetRemark updates the remark of the index-th record of date.
func (d *AppData) SetRemark(date string, index int, remark string) (HistoryRecord, error) {
	i := d.FindDay(date)
	if i < 0 {
		return HistoryRecord{}, apperr.Validationf("no history for %s", date)
	}
	if index < 0 || index >= len(d.History[i].Records) {
		return HistoryRecord{}, apperr.Validationf("record index %d out of range for %s (%d records)", index, date, len(d.History[i].Records))
	}
	d.History[i].Records[index].Remark = strings.TrimSpace(remark)
	return d.History[i].Records[index], nil
}

// AppendInterruption stores rec under date.
func (d *AppData) AppendInterruption(date string, rec InterruptionRecord) {
	for i := range d.Interruptions {
		if d.Interruptions[i].Date == date {
			d.Interruptions[i].Records = append(d.Interruptions[i].Records, rec)
			return
		}
	}
	d.Interruptions = append(d.Interruptions, InterruptionDay{Date: date, Records: []InterruptionRecord{rec}})
}

// AddTag appends tag unless it is blank or already present. It reports whether
// the list changed.
func (d *AppData) AddTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" || slices.Contains(d.Tags, tag) {
		return false
	}
	d.Tags = append(d.Tags, tag)
	return true
}

// RemoveTag removes tag and reports whether it was present.
func (d *AppData) RemoveTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	i := slices.Index(d.Tags, tag)
	if i < 0 {
		return false
	}
	d.Tags = slices.Delete(d.Tags, i, i+1)
	return true
}

// BlacklistNames returns the process names of the blacklist.
func (d *AppData) BlacklistNames() []string {
	names := make([]string, 0, len(d.Blacklist))
	for _, it := range d.Blacklist {
		names = append(names, it.Name)
	}
	return names
}

// Normalize repairs data loaded from disk: nil slices become empty, missing
// tags fall back to the defaults and counters are clamped at zero.
func (d *AppData) Normalize() {
	if d.Blacklist == nil {
		d.Blacklist = []BlacklistItem{}
	}
	if d.History == nil {
		d.History = []HistoryDay{}
	}
	if d.Interruptions == nil {
		d.Interruptions = []InterruptionDay{}
	}

	tags := make([]string, 0, len(d.Tags))
	for _, t := range d.Tags {
		t = strings.TrimSpace(t)
		if t != "" && !slices.Contains(tags, t) {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		tags = DefaultTags()
	}
	d.Tags = tags

	for i := range d.History {
		if d.History[i].Records == nil {
			d.History[i].Records = []HistoryRecord{}
		}
		for j := range d.History[i].Records {
			if !d.History[i].Records[j].Phase.Valid() {
				d.History[i].Records[j].Phase = PhaseWork
			}
		}
	}

	if d.CurrentCombo < 0 {
		d.CurrentCombo = 0
	}
	if d.TotalPomodoros < 0 {
		d.TotalPomodoros = 0
	}
}

// Clone returns a deep copy of d.
func (d *AppData) Clone() *AppData {
	c := *d
	c.Blacklist = slices.Clone(d.Blacklist)
	c.Tags = slices.Clone(d.Tags)
	c.History = make([]HistoryDay, len(d.History))
	for i, day := range d.History {
		c.History[i] = HistoryDay{Date: day.Date, Records: slices.Clone(day.Records)}
	}
	c.Interruptions = make([]InterruptionDay, len(d.Interruptions))
	for i, day := range d.Interruptions {
		c.Interruptions[i] = InterruptionDay{Date: day.Date, Records: slices.Clone(day.Records)}
	}
	return &c
}
