// Package export writes focus history as CSV, JSON or YAML.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/charlie0129/tomato/pkg/appdata"
	"github.com/charlie0129/tomato/pkg/apperr"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts csv, json, yaml and yml, ignoring case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", apperr.Validationf("unsupported export format %q (want csv, json or yaml)", s)
}

// ContentType is the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	default:
		return "text/csv"
	}
}

// Field is a CSV column.
type Field string

const (
	FieldDate      Field = "date"
	FieldStartTime Field = "startTime"
	FieldEndTime   Field = "endTime"
	FieldDuration  Field = "duration"
	FieldTag       Field = "tag"
	FieldPhase     Field = "phase"
	FieldRemark    Field = "remark"
)

// Header is the CSV column name of f.
func (f Field) Header() string {
	switch f {
	case FieldStartTime:
		return "start_time"
	case FieldEndTime:
		return "end_time"
	}
	return string(f)
}

var allFields = []Field{FieldDate, FieldStartTime, FieldEndTime, FieldDuration, FieldTag, FieldPhase, FieldRemark}

// DefaultFields is used when no fields are requested.
func DefaultFields() []Field {
	return []Field{FieldDate, FieldStartTime, FieldEndTime, FieldDuration, FieldTag, FieldPhase}
}

// ParseFields parses a comma separated field list. An empty list yields the defaults.
func ParseFields(s string) ([]Field, error) {
	var fields []Field
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		found := false
		for _, f := range allFields {
			if strings.EqualFold(part, string(f)) || strings.EqualFold(part, f.Header()) {
				fields = append(fields, f)
				found = true
				break
			}
		}
		if !found {
			return nil, apperr.Validationf("unknown export field %q", part)
		}
	}
	if len(fields) == 0 {
		return DefaultFields(), nil
	}
	return fields, nil
}

// Record is one exported history row.
type Record struct {
	Date      string `json:"date" yaml:"date"`
	StartTime string `json:"startTime" yaml:"startTime"`
	EndTime   string `json:"endTime" yaml:"endTime"`
	Duration  int    `json:"duration" yaml:"duration"`
	Tag       string `json:"tag" yaml:"tag"`
	Phase     string `json:"phase" yaml:"phase"`
	Remark    string `json:"remark" yaml:"remark"`
}

// Document is the JSON and YAML export layout.
type Document struct {
	ExportDate string            `json:"exportDate" yaml:"exportDate"`
	Range      appdata.DateRange `json:"range" yaml:"range"`
	Records    []Record          `json:"records" yaml:"records"`
}

// Flatten turns history days into one record per session.
func Flatten(days []appdata.HistoryDay) []Record {
	out := make([]Record, 0)
	for _, day := range days {
		for _, r := range day.Records {
			end := r.EndTime
			if end == "" {
				end = DeriveEndTime(r.StartTime, r.Duration)
			}
			out = append(out, Record{
				Date:      day.Date,
				StartTime: r.StartTime,
				EndTime:   end,
				Duration:  r.Duration,
				Tag:       r.Tag,
				Phase:     string(r.Phase),
				Remark:    r.Remark,
			})
		}
	}
	return out
}

// DeriveEndTime adds minutes to an HH:mm start time, wrapping at midnight.
// It returns "" when start is not a valid time.
func DeriveEndTime(start string, minutes int) string {
	t, err := time.Parse("15:04", start)
	if err != nil {
		return ""
	}
	total := (t.Hour()*60 + t.Minute() + minutes) % (24 * 60)
	if total < 0 {
		total += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// FileName is the default file name of an export.
func FileName(r appdata.DateRange, f Format) string {
	return fmt.Sprintf("tomato-history-%s-%s.%s", r.From, r.To, f)
}

// Options configures Write.
type Options struct {
	Format Format
	Range  appdata.DateRange
	// Fields selects CSV columns. Ignored by JSON and YAML.
	Fields []Field
	// ExportDate is stamped into JSON and YAML documents.
	ExportDate string
}

// Write exports days to w.
func Write(w io.Writer, days []appdata.HistoryDay, opts Options) error {
	records := Flatten(days)
	switch opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return pkgerrors.Wrap(enc.Encode(document(records, opts)), "failed to encode json export")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(document(records, opts)); err != nil {
			return pkgerrors.Wrap(err, "failed to encode yaml export")
		}
		return pkgerrors.Wrap(enc.Close(), "failed to flush yaml export")
	case FormatCSV, "":
		return writeCSV(w, records, opts.Fields)
	default:
		return apperr.Validationf("unsupported export format %q", opts.Format)
	}
}

func document(records []Record, opts Options) Document {
	return Document{ExportDate: opts.ExportDate, Range: opts.Range, Records: records}
}

func writeCSV(w io.Writer, records []Record, fields []Field) error {
	if len(fields) == 0 {
		fields = DefaultFields()
	}

	cw := csv.NewWriter(w)
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.Header()
	}
	if err := cw.Write(header); err != nil {
		return pkgerrors.Wrap(err, "failed to write csv header")
	}

	for _, r := range records {
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = csvValue(r, f)
		}
		if err := cw.Write(row); err != nil {
			return pkgerrors.Wrap(err, "failed to write csv row")
		}
	}
	cw.Flush()
	return pkgerrors.Wrap(cw.Error(), "failed to flush csv")
}

func csvValue(r Record, f Field) string {
	switch f {
	case FieldDate:
		return r.Date
	case FieldStartTime:
		return r.StartTime
	case FieldEndTime:
		return r.EndTime
	case FieldDuration:
		return strconv.Itoa(r.Duration)
	case FieldTag:
		return r.Tag
	case FieldPhase:
		return r.Phase
	case FieldRemark:
		return r.Remark
	}
	return ""
}
