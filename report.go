package ev5validator

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Report aggregates the results of validating one file.
// Only non-valid results are retained; valid tokens are counted.
// Use Release() to return a pooled report once it has been written.
type Report struct {
	File string `json:"file"`

	TotalTokens       int `json:"totalTokens"`
	ValidCount        int `json:"validCount"`
	InvalidCount      int `json:"invalidCount"`
	UnknownFieldCount int `json:"unknownFieldCount"`

	// UnrecognizedLines counts lines whose block is not in the schema.
	UnrecognizedLines int `json:"unrecognizedLines"`

	// Issues holds INVALID and UNKNOWN_FIELD results in file order.
	Issues []Result `json:"issues,omitempty"`

	// Truncated is set when Issues stopped at the configured cap.
	Truncated bool `json:"truncated,omitempty"`

	// Err is set when the file could not be validated.
	Err error `json:"-"`
}

var reportPool = sync.Pool{
	New: func() any {
		return &Report{
			Issues: make([]Result, 0, 32),
		}
	},
}

// AcquireReport gets an empty Report for file from the pool.
func AcquireReport(file string) *Report {
	r := reportPool.Get().(*Report)
	r.Reset()
	r.File = file
	return r
}

// Release returns the Report to the pool.
// After calling Release, the Report should not be used.
func (r *Report) Release() {
	if r == nil {
		return
	}
	// Don't keep reports with oversized issue slices
	if cap(r.Issues) <= 4096 {
		reportPool.Put(r)
	}
}

// Reset clears the report for reuse.
func (r *Report) Reset() {
	r.File = ""
	r.TotalTokens = 0
	r.ValidCount = 0
	r.InvalidCount = 0
	r.UnknownFieldCount = 0
	r.UnrecognizedLines = 0
	r.Issues = r.Issues[:0]
	r.Truncated = false
	r.Err = nil
}

// NewReport creates a new (non-pooled) report.
func NewReport(file string) *Report {
	return &Report{
		File:   file,
		Issues: make([]Result, 0, 8),
	}
}

// Add counts a result and keeps it when it is not VALID.
// maxIssues caps the kept results; 0 means unlimited.
func (r *Report) Add(res Result, maxIssues int) {
	r.TotalTokens++
	switch res.Status {
	case StatusValid:
		r.ValidCount++
		return
	case StatusInvalid:
		r.InvalidCount++
	case StatusUnknownField:
		r.UnknownFieldCount++
	}
	if maxIssues > 0 && len(r.Issues) >= maxIssues {
		r.Truncated = true
		return
	}
	r.Issues = append(r.Issues, res)
}

// HasIssues returns true if any token was INVALID or UNKNOWN_FIELD.
func (r *Report) HasIssues() bool {
	return r.InvalidCount+r.UnknownFieldCount > 0
}

// Failed returns true if the file could not be validated.
func (r *Report) Failed() bool {
	return r.Err != nil
}

// Summary is the per-file summary row of a run.
type Summary struct {
	File              string          `json:"file"`
	TotalTokens       int             `json:"totalTokens"`
	ValidCount        int             `json:"validCount"`
	InvalidCount      int             `json:"invalidCount"`
	UnknownFieldCount int             `json:"unknownFieldCount"`
	UnrecognizedLines int             `json:"unrecognizedLines"`
	ValidRate         decimal.Decimal `json:"validRate"`
	Error             string          `json:"error,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// Summary returns the summary row for the report.
// ValidRate is the percentage of valid tokens rounded to two places,
// zero when the file had no tokens.
func (r *Report) Summary() Summary {
	s := Summary{
		File:              r.File,
		TotalTokens:       r.TotalTokens,
		ValidCount:        r.ValidCount,
		InvalidCount:      r.InvalidCount,
		UnknownFieldCount: r.UnknownFieldCount,
		UnrecognizedLines: r.UnrecognizedLines,
		ValidRate:         decimal.Zero,
	}
	if r.TotalTokens > 0 {
		s.ValidRate = decimal.NewFromInt(int64(r.ValidCount)).
			Mul(hundred).
			Div(decimal.NewFromInt(int64(r.TotalTokens))).
			Round(2)
	}
	if r.Err != nil {
		s.Error = r.Err.Error()
	}
	return s
}
