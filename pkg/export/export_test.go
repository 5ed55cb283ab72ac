package export

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/charlie0129/tomato/pkg/appdata"
	"github.com/charlie0129/tomato/pkg/apperr"
)

func sampleDays() []appdata.HistoryDay {
	return []appdata.HistoryDay{
		{Date: "2024-05-02", Records: []appdata.HistoryRecord{
			{Tag: "Work", StartTime: "09:00", EndTime: "09:25", Duration: 25, Phase: appdata.PhaseWork, Remark: "outline, review"},
		}},
		{Date: "2024-05-01", Records: []appdata.HistoryRecord{
			{Tag: "Study", StartTime: "23:50", Duration: 25, Phase: appdata.PhaseWork},
		}},
	}
}

var sampleRange = appdata.DateRange{From: "2024-05-01", To: "2024-05-02"}

func TestDeriveEndTime(t *testing.T) {
	tests := []struct {
		start   string
		minutes int
		want    string
	}{
		{"09:00", 25, "09:25"},
		{"09:50", 25, "10:15"},
		{"23:50", 25, "00:15"},
		{"bogus", 25, ""},
		{"24:00", 5, ""},
	}
	for _, tt := range tests {
		if got := DeriveEndTime(tt.start, tt.minutes); got != tt.want {
			t.Errorf("DeriveEndTime(%q, %d) = %q, want %q", tt.start, tt.minutes, got, tt.want)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleDays(), Options{Format: FormatCSV, Range: sampleRange}); err != nil {
		t.Fatal(err)
	}
	want := "date,start_time,end_time,duration,tag,phase\n" +
		"2024-05-02,09:00,09:25,25,Work,work\n" +
		"2024-05-01,23:50,00:15,25,Study,work\n"
	if buf.String() != want {
		t.Fatalf("csv =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteCSVSelectedFields(t *testing.T) {
	fields, err := ParseFields("tag, remark, start_time")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, sampleDays(), Options{Format: FormatCSV, Fields: fields}); err != nil {
		t.Fatal(err)
	}
	want := "tag,remark,start_time\nWork,\"outline, review\",09:00\nStudy,,23:50\n"
	if buf.String() != want {
		t.Fatalf("csv =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteJSONAndYAML(t *testing.T) {
	opts := Options{Range: sampleRange, ExportDate: "2024-05-03"}

	var jbuf bytes.Buffer
	opts.Format = FormatJSON
	if err := Write(&jbuf, sampleDays(), opts); err != nil {
		t.Fatal(err)
	}
	var fromJSON Document
	if err := json.Unmarshal(jbuf.Bytes(), &fromJSON); err != nil {
		t.Fatal(err)
	}

	var ybuf bytes.Buffer
	opts.Format = FormatYAML
	if err := Write(&ybuf, sampleDays(), opts); err != nil {
		t.Fatal(err)
	}
	var fromYAML Document
	if err := yaml.Unmarshal(ybuf.Bytes(), &fromYAML); err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(fromJSON, fromYAML) {
		t.Fatalf("json and yaml exports differ:\n%+v\n%+v", fromJSON, fromYAML)
	}
	if fromJSON.ExportDate != "2024-05-03" || fromJSON.Range != sampleRange || len(fromJSON.Records) != 2 {
		t.Fatalf("unexpected document: %+v", fromJSON)
	}
	if fromJSON.Records[1].EndTime != "00:15" {
		t.Fatalf("missing end time should be derived, got %q", fromJSON.Records[1].EndTime)
	}
	if !strings.HasPrefix(ybuf.String(), "exportDate:") {
		t.Fatalf("unexpected yaml:\n%s", ybuf.String())
	}
}

func TestParse(t *testing.T) {
	for in, want := range map[string]Format{"": FormatCSV, "CSV": FormatCSV, "json": FormatJSON, "yml": FormatYAML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xlsx"); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	fields, err := ParseFields("")
	if err != nil || !reflect.DeepEqual(fields, DefaultFields()) {
		t.Fatalf("empty field list should yield defaults, got %v, %v", fields, err)
	}
	if _, err := ParseFields("date,color"); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFileName(t *testing.T) {
	if got := FileName(sampleRange, FormatYAML); got != "tomato-history-2024-05-01-2024-05-02.yaml" {
		t.Fatalf("FileName() = %q", got)
	}
}
