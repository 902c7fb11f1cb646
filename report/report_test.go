package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ev "github.com/uvacab/ev5validator"
	"github.com/uvacab/ev5validator/terminology"
)

var fixedTime = time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)

func sampleReport() *ev.Report {
	r := ev.NewReport("/data/batch_01.ev5")
	r.Add(ev.Result{Token: ev.Token{Block: "A", Field: "STATUS", Value: "OK", Line: 1, Column: 2}, Status: ev.StatusValid}, 0)
	r.Add(ev.Result{
		Token:         ev.Token{Block: "A", Field: "STATUS", Value: "BAD", Line: 2, Column: 2},
		Status:        ev.StatusInvalid,
		ExpectedCodes: "DOWN, OK",
	}, 0)
	r.Add(ev.Result{
		Token:         ev.Token{Block: "B", Field: "SHADE", Value: "DARK", Line: 3, Column: 2},
		Status:        ev.StatusUnknownField,
		ExpectedCodes: ev.UnknownFieldNote,
	}, 0)
	return r
}

func sampleSnapshot(t *testing.T) *terminology.Snapshot {
	t.Helper()
	snap, err := terminology.NewSnapshot([]ev.RegistryCode{
		{Field: "STATUS", Code: "OK", Description: "Operational"},
		{Field: "STATUS", Code: "DOWN", Description: "Not operational"},
		{Field: "COLOR", Code: "RED", Description: "Red"},
	})
	if err != nil {
		t.Fatalf("NewSnapshot() error = %v", err)
	}
	return snap
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("csv ReadAll() error = %v", err)
	}
	return rows
}

func TestNames(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{IssueReportName("/data/batch_01.ev5", "csv"), "batch_01_schema_validated.csv"},
		{IssueReportName("plain", "xlsx"), "plain_schema_validated.xlsx"},
		{SummaryName(fixedTime), "validation_summary_20240309_140506.csv"},
		{ValidCodesName(fixedTime, "csv"), "valid_codes_20240309.csv"},
		{CodeSystemsName(fixedTime), "valid_codes_20240309_codesystems.json"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("name = %q; want %q", tt.got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in        string
		want      Format
		csv, xlsx bool
		wantErr   bool
	}{
		{"csv", FormatCSV, true, false, false},
		{"XLSX", FormatXLSX, false, true, false},
		{"both", FormatBoth, true, true, false},
		{"", FormatCSV, true, false, false},
		{"pdf", "", false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v; wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want || got.CSV() != tt.csv || got.XLSX() != tt.xlsx {
				t.Errorf("ParseFormat(%q) = %q (csv %v, xlsx %v)", tt.in, got, got.CSV(), got.XLSX())
			}
		})
	}
}

func TestWriteIssuesCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteIssuesCSV(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteIssuesCSV() error = %v", err)
	}

	rows := readCSV(t, buf.Bytes())
	want := [][]string{
		IssueHeader,
		{"A", "2", "2", "STATUS", "BAD", "CODE", "DOWN, OK", "INVALID"},
		{"B", "3", "2", "SHADE", "DARK", "FIELD", ev.UnknownFieldNote, "UNKNOWN_FIELD"},
	}
	if len(rows) != len(want) {
		t.Fatalf("len(rows) = %d; want %d", len(rows), len(want))
	}
	for i := range want {
		if strings.Join(rows[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("row %d = %v; want %v", i, rows[i], want[i])
		}
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	failed := ev.NewReport("missing.ev5")
	failed.Err = &ev.FileAccessError{Path: "missing.ev5", Err: os.ErrNotExist}

	var buf bytes.Buffer
	if err := WriteSummaryCSV(&buf, "run-1", []*ev.Report{sampleReport(), failed}); err != nil {
		t.Fatalf("WriteSummaryCSV() error = %v", err)
	}

	rows := readCSV(t, buf.Bytes())
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d; want 3", len(rows))
	}
	got := strings.Join(rows[1], ",")
	want := "run-1,/data/batch_01.ev5,3,1,1,1,0,33.33,"
	if got != want {
		t.Errorf("row 1 = %q; want %q", got, want)
	}
	if rows[2][7] != "0.00" || rows[2][8] == "" {
		t.Errorf("failed row = %v; want rate 0.00 and an error", rows[2])
	}
}

func TestWriteValidCodesCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteValidCodesCSV(&buf, sampleSnapshot(t).Rows()); err != nil {
		t.Fatalf("WriteValidCodesCSV() error = %v", err)
	}
	rows := readCSV(t, buf.Bytes())
	want := []string{"CodeName,Code,Description", "COLOR,RED,Red", "STATUS,DOWN,Not operational", "STATUS,OK,Operational"}
	if len(rows) != len(want) {
		t.Fatalf("len(rows) = %d; want %d", len(rows), len(want))
	}
	for i := range want {
		if got := strings.Join(rows[i], ","); got != want[i] {
			t.Errorf("row %d = %q; want %q", i, got, want[i])
		}
	}
}

func TestWriteIssuesWorkbook(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteIssuesWorkbook(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteIssuesWorkbook() error = %v", err)
	}

	rows, err := ReadSheet(bytes.NewReader(buf.Bytes()), SheetIssues)
	if err != nil {
		t.Fatalf("ReadSheet() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d; want 3", len(rows))
	}
	if rows[0][0] != "Block" || rows[1][4] != "BAD" || rows[1][1] != "2" {
		t.Errorf("rows = %v", rows)
	}

	summary, err := ReadSheet(bytes.NewReader(buf.Bytes()), SheetSummary)
	if err != nil {
		t.Fatalf("ReadSheet(Summary) error = %v", err)
	}
	if len(summary) < 2 || summary[1][0] != "TotalTokens" || summary[1][1] != "3" {
		t.Errorf("summary = %v", summary)
	}
}

func TestWriteValidCodesWorkbook(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteValidCodesWorkbook(&buf, sampleSnapshot(t)); err != nil {
		t.Fatalf("WriteValidCodesWorkbook() error = %v", err)
	}

	rows, err := ReadSheet(bytes.NewReader(buf.Bytes()), SheetValidCodes)
	if err != nil {
		t.Fatalf("ReadSheet() error = %v", err)
	}
	// Header: COLOR, STATUS. Column A has one code, column B two.
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d; want 3 (%v)", len(rows), rows)
	}
	if strings.Join(rows[0], ",") != "COLOR,STATUS" {
		t.Errorf("header = %v; want [COLOR STATUS]", rows[0])
	}
	if strings.Join(rows[1], ",") != "RED,DOWN" {
		t.Errorf("row 1 = %v; want [RED DOWN]", rows[1])
	}
	if len(rows[2]) != 2 || rows[2][0] != "" || rows[2][1] != "OK" {
		t.Errorf("row 2 = %q; want [\"\" OK]", rows[2])
	}
}

func TestWriteCodeSystems(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCodeSystems(&buf, sampleSnapshot(t)); err != nil {
		t.Fatalf("WriteCodeSystems() error = %v", err)
	}
	var systems []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &systems); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(systems) != 2 {
		t.Fatalf("len(systems) = %d; want 2", len(systems))
	}
	if systems[0]["url"] != terminology.FieldURL("COLOR") {
		t.Errorf("url = %v; want %s", systems[0]["url"], terminology.FieldURL("COLOR"))
	}
}

func TestWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := NewWriter(dir, FormatBoth, WithRunID("run-42"), WithClock(func() time.Time { return fixedTime }))

	if w.RunID() != "run-42" {
		t.Errorf("RunID() = %q; want run-42", w.RunID())
	}

	paths, err := w.WriteReport(sampleReport())
	if err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	wantPaths := []string{
		filepath.Join(dir, "batch_01_schema_validated.csv"),
		filepath.Join(dir, "batch_01_schema_validated.xlsx"),
	}
	if strings.Join(paths, ";") != strings.Join(wantPaths, ";") {
		t.Errorf("paths = %v; want %v", paths, wantPaths)
	}

	clean := ev.NewReport("clean.ev5")
	paths, err = w.WriteReport(clean)
	if err != nil || len(paths) != 0 {
		t.Errorf("WriteReport(clean) = %v, %v; want nothing written", paths, err)
	}

	summary, err := w.WriteSummary([]*ev.Report{sampleReport(), clean})
	if err != nil {
		t.Fatalf("WriteSummary() error = %v", err)
	}
	if filepath.Base(summary) != "validation_summary_20240309_140506.csv" {
		t.Errorf("summary = %q", summary)
	}
	data, err := os.ReadFile(summary)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if rows := readCSV(t, data); len(rows) != 3 || rows[1][0] != "run-42" {
		t.Errorf("summary rows = %v", rows)
	}

	exported, err := w.WriteValidCodes(sampleSnapshot(t))
	if err != nil {
		t.Fatalf("WriteValidCodes() error = %v", err)
	}
	if len(exported) != 3 {
		t.Errorf("len(exported) = %d; want 3", len(exported))
	}
	for _, p := range exported {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("Stat(%s) error = %v", p, err)
		}
	}
}

func TestNewWriter_RunID(t *testing.T) {
	a := NewWriter(t.TempDir(), FormatCSV)
	b := NewWriter(t.TempDir(), FormatCSV)
	if a.RunID() == "" || a.RunID() == b.RunID() {
		t.Errorf("run IDs %q and %q should be distinct and non-empty", a.RunID(), b.RunID())
	}
}
