package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Format selects the tabular output format.
type Format string

// Output formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatBoth Format = "both"
)

// ParseFormat parses "csv", "xlsx" or "both", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatBoth:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want csv, xlsx or both)", s)
	}
}

// CSV reports whether CSV output is selected.
func (f Format) CSV() bool { return f == FormatCSV || f == FormatBoth }

// XLSX reports whether spreadsheet output is selected.
func (f Format) XLSX() bool { return f == FormatXLSX || f == FormatBoth }

// IssueReportName returns "<stem>_schema_validated.<ext>" for a data file.
func IssueReportName(file, ext string) string {
	base := filepath.Base(file)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + "_schema_validated." + ext
}

// SummaryName returns "validation_summary_YYYYMMDD_HHMMSS.csv".
func SummaryName(t time.Time) string {
	return "validation_summary_" + t.Format("20060102_150405") + ".csv"
}

// ValidCodesName returns "valid_codes_YYYYMMDD.<ext>".
func ValidCodesName(t time.Time, ext string) string {
	return "valid_codes_" + t.Format("20060102") + "." + ext
}

// CodeSystemsName returns "valid_codes_YYYYMMDD_codesystems.json".
func CodeSystemsName(t time.Time) string {
	return "valid_codes_" + t.Format("20060102") + "_codesystems.json"
}
