package report

import (
	"encoding/csv"
	"io"
	"strconv"

	ev "github.com/uvacab/ev5validator"
)

// IssueHeader is the column layout of an issue report.
var IssueHeader = []string{
	"Block", "Line", "Column", "Field", "Value",
	"InvalidType", "ExpectedCodes", "Status",
}

// SummaryHeader is the column layout of a run summary.
var SummaryHeader = []string{
	"RunID", "File", "TotalTokens", "ValidCount", "InvalidCount",
	"UnknownFieldCount", "UnrecognizedLines", "ValidRate", "Error",
}

// ValidCodesHeader is the column layout of a registry export.
var ValidCodesHeader = []string{"CodeName", "Code", "Description"}

// IssueRow flattens a result into IssueHeader order.
func IssueRow(res ev.Result) []string {
	return []string{
		res.Token.Block,
		strconv.Itoa(res.Token.Line),
		strconv.Itoa(res.Token.Column),
		res.Token.Field,
		res.Token.Value,
		string(res.Kind()),
		res.ExpectedCodes,
		string(res.Status),
	}
}

// SummaryRow flattens a summary into SummaryHeader order.
func SummaryRow(runID string, s ev.Summary) []string {
	return []string{
		runID,
		s.File,
		strconv.Itoa(s.TotalTokens),
		strconv.Itoa(s.ValidCount),
		strconv.Itoa(s.InvalidCount),
		strconv.Itoa(s.UnknownFieldCount),
		strconv.Itoa(s.UnrecognizedLines),
		s.ValidRate.StringFixed(2),
		s.Error,
	}
}

// WriteIssuesCSV writes the issues of r as CSV.
func WriteIssuesCSV(w io.Writer, r *ev.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(IssueHeader); err != nil {
		return err
	}
	for _, res := range r.Issues {
		if err := cw.Write(IssueRow(res)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSV writes one summary row per report.
func WriteSummaryCSV(w io.Writer, runID string, reports []*ev.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryHeader); err != nil {
		return err
	}
	for _, r := range reports {
		if err := cw.Write(SummaryRow(runID, r.Summary())); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteValidCodesCSV writes registry rows as CSV. rows are written in the
// order given; Snapshot.Rows is already sorted by field then code.
func WriteValidCodesCSV(w io.Writer, rows []ev.RegistryCode) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ValidCodesHeader); err != nil {
		return err
	}
	for _, rc := range rows {
		if err := cw.Write([]string{rc.Field, rc.Code, rc.Description}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
