package client

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/tomato/pkg/appdata"
	"github.com/charlie0129/tomato/pkg/archive"
	"github.com/charlie0129/tomato/pkg/export"
	"github.com/charlie0129/tomato/pkg/interruption"
	"github.com/charlie0129/tomato/pkg/timer"
)

// ComboStatus is the response of GET /combo.
type ComboStatus struct {
	CurrentCombo   int   `json:"currentCombo"`
	TotalPomodoros int64 `json:"totalPomodoros"`
}

// ScheduleStatus is the response of the /schedule endpoints.
type ScheduleStatus struct {
	Expr    string    `json:"expr"`
	NextRun time.Time `json:"nextRun"`
	Running bool      `json:"running"`
}

// getJSON decodes the response of GET path into v.
func (c *Client) getJSON(path string, v any, what string) error {
	ret, err := c.Get(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to get %s", what)
	}
	if err := json.Unmarshal([]byte(ret), v); err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal %s", what)
	}
	return nil
}

// sendJSON marshals body, sends it and decodes the response into v. A nil
// body sends nothing.
func (c *Client) sendJSON(method, path string, body, v any, what string) error {
	payload := ""
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = string(b)
	}
	ret, err := c.Send(method, path, payload)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to %s", what)
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(ret), v); err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal response of %s", what)
	}
	return nil
}

func rangeQuery(r appdata.DateRange) url.Values {
	q := url.Values{}
	if r.From != "" {
		q.Set("from", r.From)
	}
	if r.To != "" {
		q.Set("to", r.To)
	}
	return q
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func (c *Client) GetSnapshot() (*timer.Snapshot, error) {
	var snap timer.Snapshot
	if err := c.getJSON("/snapshot", &snap, "timer snapshot"); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) timerCommand(action string, body any) (*timer.Snapshot, error) {
	var snap timer.Snapshot
	if err := c.sendJSON("POST", "/timer/"+action, body, &snap, action+" timer"); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) Start() (*timer.Snapshot, error) { return c.timerCommand("start", nil) }
func (c *Client) Pause() (*timer.Snapshot, error) { return c.timerCommand("pause", nil) }

// Reset abandons the current phase. reason may be empty.
func (c *Client) Reset(reason string) (*timer.Snapshot, error) {
	return c.timerCommand("reset", map[string]string{"reason": reason})
}

// Skip moves on to the next phase. reason may be empty.
func (c *Client) Skip(reason string) (*timer.Snapshot, error) {
	return c.timerCommand("skip", map[string]string{"reason": reason})
}

func (c *Client) SetTag(tag string) (*timer.Snapshot, error) {
	var snap timer.Snapshot
	if err := c.sendJSON("PUT", "/tag", tag, &snap, "set tag"); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) GetTags() ([]string, error) {
	var tags []string
	return tags, c.getJSON("/tags", &tags, "tags")
}

func (c *Client) AddTag(tag string) ([]string, error) {
	var tags []string
	return tags, c.sendJSON("POST", "/tags", tag, &tags, "add tag")
}

func (c *Client) RemoveTag(tag string) ([]string, error) {
	var tags []string
	return tags, c.sendJSON("DELETE", "/tags/"+url.PathEscape(tag), nil, &tags, "remove tag")
}

func (c *Client) GetSettings() (*appdata.Settings, error) {
	var s appdata.Settings
	if err := c.getJSON("/settings", &s, "settings"); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) SetSettings(s appdata.Settings) (*appdata.Settings, error) {
	var updated appdata.Settings
	if err := c.sendJSON("PUT", "/settings", s, &updated, "update settings"); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) SetGoals(daily, weekly int) (*appdata.Settings, error) {
	var updated appdata.Settings
	body := map[string]int{"dailyGoal": daily, "weeklyGoal": weekly}
	if err := c.sendJSON("PUT", "/goals", body, &updated, "set goals"); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) GetBlacklist() ([]appdata.BlacklistItem, error) {
	var items []appdata.BlacklistItem
	return items, c.getJSON("/blacklist", &items, "blacklist")
}

func (c *Client) SetBlacklist(items []appdata.BlacklistItem) ([]appdata.BlacklistItem, error) {
	if items == nil {
		items = []appdata.BlacklistItem{}
	}
	var updated []appdata.BlacklistItem
	return updated, c.sendJSON("PUT", "/blacklist", items, &updated, "set blacklist")
}

func (c *Client) GetHistory(r appdata.DateRange) ([]appdata.HistoryDay, error) {
	var days []appdata.HistoryDay
	return days, c.getJSON(withQuery("/history", rangeQuery(r)), &days, "history")
}

func (c *Client) SetRemark(date string, index int, remark string) (*appdata.HistoryRecord, error) {
	var rec appdata.HistoryRecord
	body := map[string]any{"date": date, "index": index, "remark": remark}
	if err := c.sendJSON("PUT", "/history/remark", body, &rec, "set remark"); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ExportHistory returns the export document as the daemon rendered it.
func (c *Client) ExportHistory(r appdata.DateRange, format export.Format, fields []export.Field) (string, error) {
	q := rangeQuery(r)
	q.Set("format", string(format))
	if len(fields) > 0 {
		names := make([]string, len(fields))
		for i, f := range fields {
			names[i] = string(f)
		}
		q.Set("fields", strings.Join(names, ","))
	}
	ret, err := c.Get(withQuery("/history/export", q))
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to export history")
	}
	return ret, nil
}

func (c *Client) RecordInterruption(typ appdata.InterruptionType, reason string) (*appdata.InterruptionRecord, error) {
	var rec appdata.InterruptionRecord
	body := map[string]string{"type": string(typ), "reason": reason}
	if err := c.sendJSON("POST", "/interruptions", body, &rec, "record interruption"); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) GetInterruptionStats(r appdata.DateRange) (*interruption.Stats, error) {
	var stats interruption.Stats
	if err := c.getJSON(withQuery("/interruptions/stats", rangeQuery(r)), &stats, "interruption stats"); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) GetCombo() (*ComboStatus, error) {
	var combo ComboStatus
	if err := c.getJSON("/combo", &combo, "combo"); err != nil {
		return nil, err
	}
	return &combo, nil
}

func (c *Client) GetAnalysis(r appdata.DateRange) (*archive.FocusAnalysis, error) {
	var a archive.FocusAnalysis
	if err := c.getJSON(withQuery("/analysis", rangeQuery(r)), &a, "focus analysis"); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) GetDailyTotals(r appdata.DateRange) ([]archive.DayTotal, error) {
	var totals []archive.DayTotal
	return totals, c.getJSON(withQuery("/stats/daily", rangeQuery(r)), &totals, "daily totals")
}

func (c *Client) GetSchedule() (*ScheduleStatus, error) {
	var st ScheduleStatus
	if err := c.getJSON("/schedule", &st, "schedule"); err != nil {
		return nil, err
	}
	return &st, nil
}

// SetSchedule sets the cron expression. An empty expression disables it.
func (c *Client) SetSchedule(expr string) (*ScheduleStatus, error) {
	var st ScheduleStatus
	if err := c.sendJSON("PUT", "/schedule", expr, &st, "set schedule"); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) PostponeSchedule(minutes int) (*ScheduleStatus, error) {
	var st ScheduleStatus
	if err := c.sendJSON("POST", "/schedule/postpone", map[string]int{"minutes": minutes}, &st, "postpone schedule"); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) SkipSchedule() (*ScheduleStatus, error) {
	var st ScheduleStatus
	if err := c.sendJSON("POST", "/schedule/skip", nil, &st, "skip schedule"); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) GetVersion() (string, error) {
	var v string
	return v, c.getJSON("/version", &v, "version")
}
