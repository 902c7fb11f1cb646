// Package report persists validation results.
//
// For every file with issues a Writer produces <stem>_schema_validated.csv
// and/or .xlsx. A run ends with validation_summary_YYYYMMDD_HHMMSS.csv.
// The registry snapshot used by the run can be exported as
// valid_codes_YYYYMMDD.csv, a dropdown workbook valid_codes_YYYYMMDD.xlsx
// (one column per field) and FHIR R4 CodeSystems.
package report
