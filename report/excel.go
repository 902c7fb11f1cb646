package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	ev "github.com/uvacab/ev5validator"
	"github.com/uvacab/ev5validator/terminology"
)

// Sheet names.
const (
	SheetIssues     = "Issues"
	SheetSummary    = "Summary"
	SheetValidCodes = "ValidCodes"
)

// WriteIssuesWorkbook writes r as a workbook with an Issues sheet (one row
// per issue) and a Summary sheet (counts).
func WriteIssuesWorkbook(w io.Writer, r *ev.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetIssues); err != nil {
		return err
	}
	if err := writeRow(f, SheetIssues, 1, IssueHeader); err != nil {
		return err
	}
	for i, res := range r.Issues {
		row := []any{
			res.Token.Block,
			res.Token.Line,
			res.Token.Column,
			res.Token.Field,
			res.Token.Value,
			string(res.Kind()),
			res.ExpectedCodes,
			string(res.Status),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetIssues, cell, &row); err != nil {
			return err
		}
	}
	boldHeader(f, SheetIssues, len(IssueHeader))

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}
	s := r.Summary()
	pairs := [][2]any{
		{"File", s.File},
		{"TotalTokens", s.TotalTokens},
		{"ValidCount", s.ValidCount},
		{"InvalidCount", s.InvalidCount},
		{"UnknownFieldCount", s.UnknownFieldCount},
		{"UnrecognizedLines", s.UnrecognizedLines},
		{"ValidRate", s.ValidRate.StringFixed(2)},
		{"Truncated", r.Truncated},
	}
	for i, p := range pairs {
		row := []any{p[0], p[1]}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

// WriteValidCodesWorkbook writes the snapshot as a dropdown source: one
// column per field, sorted, with that field's sorted codes below it.
func WriteValidCodesWorkbook(w io.Writer, snap *terminology.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetValidCodes); err != nil {
		return err
	}

	fields := snap.Fields()
	if err := writeRow(f, SheetValidCodes, 1, fields); err != nil {
		return err
	}
	for col, field := range fields {
		for row, code := range snap.Codes(field) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellStr(SheetValidCodes, cell, code); err != nil {
				return err
			}
		}
	}
	boldHeader(f, SheetValidCodes, len(fields))

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

// ReadSheet returns the rows of sheet from an xlsx stream.
func ReadSheet(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetRows(sheet)
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := f.SetCellStr(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

// boldHeader styles row 1 and widens the columns to fit the header.
func boldHeader(f *excelize.File, sheet string, cols int) {
	if cols == 0 {
		return
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return
	}
	last, _ := excelize.CoordinatesToCellName(cols, 1)
	_ = f.SetCellStyle(sheet, "A1", last, style)

	for i := 1; i <= cols; i++ {
		colName, _ := excelize.ColumnNumberToName(i)
		header, _ := f.GetCellValue(sheet, colName+"1")
		width := float64(len(header) + 4)
		if width < 12 {
			width = 12
		}
		_ = f.SetColWidth(sheet, colName, colName, width)
	}
}
