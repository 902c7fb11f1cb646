package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	ev "github.com/uvacab/ev5validator"
	"github.com/uvacab/ev5validator/pkg/logger"
	"github.com/uvacab/ev5validator/terminology"
)

// Writer writes report files into one output directory.
type Writer struct {
	dir    string
	format Format
	runID  string
	now    func() time.Time
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithRunID sets the run identifier recorded in summaries.
func WithRunID(id string) WriterOption {
	return func(w *Writer) {
		w.runID = id
	}
}

// WithClock sets the time source used for file names.
func WithClock(now func() time.Time) WriterOption {
	return func(w *Writer) {
		w.now = now
	}
}

// NewWriter creates a Writer for dir. The directory is created on first
// write. Each Writer gets a fresh random run ID unless WithRunID is given.
func NewWriter(dir string, format Format, opts ...WriterOption) *Writer {
	w := &Writer{
		dir:    dir,
		format: format,
		runID:  uuid.NewString(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// RunID returns the run identifier.
func (w *Writer) RunID() string {
	return w.runID
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// WriteReport writes the issue report(s) for r in the configured formats
// and returns the paths written. Reports without issues are skipped.
func (w *Writer) WriteReport(r *ev.Report) ([]string, error) {
	if !r.HasIssues() {
		return nil, nil
	}

	var paths []string
	if w.format.CSV() {
		p, err := w.create(IssueReportName(r.File, "csv"), func(out io.Writer) error {
			return WriteIssuesCSV(out, r)
		})
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	if w.format.XLSX() {
		p, err := w.create(IssueReportName(r.File, "xlsx"), func(out io.Writer) error {
			return WriteIssuesWorkbook(out, r)
		})
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// WriteSummary writes the run summary CSV.
func (w *Writer) WriteSummary(reports []*ev.Report) (string, error) {
	return w.create(SummaryName(w.now()), func(out io.Writer) error {
		return WriteSummaryCSV(out, w.runID, reports)
	})
}

// WriteValidCodes exports the snapshot as the dated CSV and dropdown
// workbook, plus its FHIR CodeSystems, and returns the paths written.
func (w *Writer) WriteValidCodes(snap *terminology.Snapshot) ([]string, error) {
	now := w.now()

	var paths []string
	steps := []struct {
		name  string
		write func(io.Writer) error
	}{
		{ValidCodesName(now, "csv"), func(out io.Writer) error {
			return WriteValidCodesCSV(out, snap.Rows())
		}},
		{ValidCodesName(now, "xlsx"), func(out io.Writer) error {
			return WriteValidCodesWorkbook(out, snap)
		}},
		{CodeSystemsName(now), func(out io.Writer) error {
			return WriteCodeSystems(out, snap)
		}},
	}
	for _, s := range steps {
		p, err := w.create(s.name, s.write)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// WriteCodeSystems writes the snapshot as a JSON array of R4 CodeSystems.
func WriteCodeSystems(out io.Writer, snap *terminology.Snapshot) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(snap.CodeSystems())
}

func (w *Writer) create(name string, write func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", &ev.FileAccessError{Path: path, Err: err}
	}

	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", &ev.FileAccessError{Path: path, Err: err}
	}

	logger.WithFields(logger.Fields{"run_id": w.runID, "file": path}).Debug("report written")
	return path, nil
}
