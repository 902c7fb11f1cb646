// Package engine classifies EV5 tokens against a registry snapshot and
// aggregates the results per file.
package engine

import (
	"context"
	"errors"
	"io"
	"iter"
	"time"

	ev "github.com/uvacab/ev5validator"
	"github.com/uvacab/ev5validator/pkg/logger"
	"github.com/uvacab/ev5validator/schema"
	"github.com/uvacab/ev5validator/terminology"
	"github.com/uvacab/ev5validator/tokenizer"
	"github.com/uvacab/ev5validator/worker"
)

// Validator checks EV5 files against a schema and a registry snapshot.
// Both are read-only, so a Validator is safe for concurrent use.
type Validator struct {
	// Configuration
	options *ev.Options

	// Shared read-only state
	index    *schema.Index
	snapshot *terminology.Snapshot

	tokenizer *tokenizer.Tokenizer

	// Metrics
	metrics *ev.Metrics
}

// New creates a Validator. A nil index or snapshot is a construction error,
// surfaced before any file is read.
func New(index *schema.Index, snap *terminology.Snapshot, opts ...ev.Option) (*Validator, error) {
	if index == nil || index.Len() == 0 {
		return nil, &ev.SchemaError{Reason: "no schema loaded"}
	}
	if snap == nil || snap.Size() == 0 {
		return nil, &ev.RegistryError{Index: -1, Reason: "no registry snapshot loaded"}
	}

	options := ev.DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &Validator{
		options:   options,
		index:     index,
		snapshot:  snap,
		tokenizer: tokenizer.New(index, tokenizer.WithSections(options.Sections)),
		metrics:   ev.NewMetrics(),
	}, nil
}

// Classify decides the status of a single token.
//
// A field with no codes at all in the registry is UNKNOWN_FIELD; a value
// registered for its field is VALID; anything else is INVALID. Disabled
// checks classify as VALID.
func (v *Validator) Classify(tok ev.Token) ev.Result {
	res := ev.Result{Token: tok, Status: ev.StatusValid}

	if !v.snapshot.HasField(tok.Field) {
		if v.options.ValidateFieldTypes {
			res.Status = ev.StatusUnknownField
			if v.options.ExpectedCodes {
				res.ExpectedCodes = ev.UnknownFieldNote
			}
		}
		return res
	}

	if !v.options.ValidateCodes || v.snapshot.Contains(tok.Field, tok.Value) {
		return res
	}

	res.Status = ev.StatusInvalid
	if v.options.ExpectedCodes {
		res.ExpectedCodes = v.snapshot.ExpectedCodes(tok.Field)
	}
	return res
}

// Validate checks the file at path. The returned report is owned by the
// caller, who may Release it once written. A file that cannot be opened
// or read yields a *ev.FileAccessError and no report.
func (v *Validator) Validate(path string) (*ev.Report, error) {
	start := time.Now()

	report := ev.AcquireReport(path)
	var stats tokenizer.Stats
	if err := v.collect(report, v.tokenizer.Tokens(path, &stats)); err != nil {
		report.Release()
		return nil, err
	}
	report.UnrecognizedLines = stats.UnrecognizedLines

	v.metrics.RecordReport(report, time.Since(start))
	logger.Debug("validated %s: %d tokens, %d invalid, %d unknown field, %d unrecognized lines",
		path, report.TotalTokens, report.InvalidCount, report.UnknownFieldCount, report.UnrecognizedLines)

	return report, nil
}

// ValidateReader checks already-open content; name is recorded as the file.
func (v *Validator) ValidateReader(name string, r io.Reader) (*ev.Report, error) {
	report := ev.AcquireReport(name)
	var stats tokenizer.Stats
	if err := v.collect(report, v.tokenizer.Read(r, &stats)); err != nil {
		report.Release()
		var fae *ev.FileAccessError
		if !errors.As(err, &fae) {
			return nil, &ev.FileAccessError{Path: name, Err: err}
		}
		if fae.Path == "" {
			fae.Path = name
		}
		return nil, err
	}
	report.UnrecognizedLines = stats.UnrecognizedLines
	return report, nil
}

func (v *Validator) collect(report *ev.Report, tokens iter.Seq2[ev.Token, error]) error {
	for tok, err := range tokens {
		if err != nil {
			return err
		}
		res := v.Classify(tok)
		res.File = report.File
		report.Add(res, v.options.MaxIssues)
	}
	return nil
}

// ValidateBatch validates paths in parallel and returns one report per path,
// in path order. A file that fails yields a report with Err set; the rest of
// the batch still runs.
func (v *Validator) ValidateBatch(ctx context.Context, paths []string) []*ev.Report {
	batch := worker.NewBatch(func(ctx context.Context, path string) (*ev.Report, error) {
		return v.Validate(path)
	}, v.options.WorkerCount)

	res := batch.Run(ctx, paths)

	reports := make([]*ev.Report, len(paths))
	for i, jr := range res.Results {
		if jr.Err != nil {
			r := ev.NewReport(jr.Item)
			r.Err = jr.Err
			v.metrics.RecordReport(r, jr.Duration)
			logger.WithFields(logger.Fields{"file": jr.Item}).Debug("skipped: ", jr.Err)
			reports[i] = r
			continue
		}
		reports[i] = jr.Result
	}
	return reports
}

// Metrics returns the validator's metrics.
func (v *Validator) Metrics() *ev.Metrics {
	return v.metrics
}

// Options returns the validator's options.
func (v *Validator) Options() *ev.Options {
	return v.options
}

// Snapshot returns the registry snapshot the validator checks against.
func (v *Validator) Snapshot() *terminology.Snapshot {
	return v.snapshot
}

// Index returns the schema index.
func (v *Validator) Index() *schema.Index {
	return v.index
}
