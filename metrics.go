package ev5validator

import (
	"sync/atomic"
	"time"
)

// Metrics tracks run statistics using lock-free atomic operations.
// All methods are safe for concurrent use.
type Metrics struct {
	// File counts
	filesTotal  atomic.Uint64
	filesFailed atomic.Uint64
	filesClean  atomic.Uint64

	// Token counts
	tokensTotal       atomic.Uint64
	tokensValid       atomic.Uint64
	tokensInvalid     atomic.Uint64
	tokensUnknown     atomic.Uint64
	unrecognizedLines atomic.Uint64

	// Timing (stored as nanoseconds)
	fileTimeTotal atomic.Uint64
	fileTimeMin   atomic.Uint64
	fileTimeMax   atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// Initialize min to max uint64 so first value becomes the minimum
	m.fileTimeMin.Store(^uint64(0))
	return m
}

// RecordReport records a validated file.
func (m *Metrics) RecordReport(r *Report, duration time.Duration) {
	m.filesTotal.Add(1)
	if r.Failed() {
		m.filesFailed.Add(1)
		return
	}
	if !r.HasIssues() {
		m.filesClean.Add(1)
	}

	m.tokensTotal.Add(uint64(r.TotalTokens))             //nolint:gosec // counts are never negative
	m.tokensValid.Add(uint64(r.ValidCount))              //nolint:gosec // counts are never negative
	m.tokensInvalid.Add(uint64(r.InvalidCount))          //nolint:gosec // counts are never negative
	m.tokensUnknown.Add(uint64(r.UnknownFieldCount))     //nolint:gosec // counts are never negative
	m.unrecognizedLines.Add(uint64(r.UnrecognizedLines)) //nolint:gosec // counts are never negative

	ns := uint64(duration.Nanoseconds()) //nolint:gosec // durations are positive
	m.fileTimeTotal.Add(ns)

	for {
		old := m.fileTimeMin.Load()
		if ns >= old || m.fileTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.fileTimeMax.Load()
		if ns <= old || m.fileTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// FilesTotal returns the number of files seen, failed ones included.
func (m *Metrics) FilesTotal() uint64 {
	return m.filesTotal.Load()
}

// FilesFailed returns the number of files that could not be read.
func (m *Metrics) FilesFailed() uint64 {
	return m.filesFailed.Load()
}

// TokensTotal returns the number of tokens checked.
func (m *Metrics) TokensTotal() uint64 {
	return m.tokensTotal.Load()
}

// AverageFileTime returns the average time spent on a readable file.
func (m *Metrics) AverageFileTime() time.Duration {
	done := m.filesTotal.Load() - m.filesFailed.Load()
	if done == 0 {
		return 0
	}
	return time.Duration(m.fileTimeTotal.Load() / done) //nolint:gosec // nanoseconds within int64 range
}

// Snapshot represents a point-in-time snapshot of all metrics.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`

	FilesTotal  uint64 `json:"files_total"`
	FilesFailed uint64 `json:"files_failed"`
	FilesClean  uint64 `json:"files_clean"`

	TokensTotal       uint64 `json:"tokens_total"`
	TokensValid       uint64 `json:"tokens_valid"`
	TokensInvalid     uint64 `json:"tokens_invalid"`
	TokensUnknown     uint64 `json:"tokens_unknown_field"`
	UnrecognizedLines uint64 `json:"unrecognized_lines"`

	AvgFileTimeNs uint64 `json:"avg_file_time_ns"`
	MinFileTimeNs uint64 `json:"min_file_time_ns"`
	MaxFileTimeNs uint64 `json:"max_file_time_ns"`
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	minTime := m.fileTimeMin.Load()
	if minTime == ^uint64(0) {
		minTime = 0
	}
	return Snapshot{
		Timestamp:         time.Now(),
		FilesTotal:        m.filesTotal.Load(),
		FilesFailed:       m.filesFailed.Load(),
		FilesClean:        m.filesClean.Load(),
		TokensTotal:       m.tokensTotal.Load(),
		TokensValid:       m.tokensValid.Load(),
		TokensInvalid:     m.tokensInvalid.Load(),
		TokensUnknown:     m.tokensUnknown.Load(),
		UnrecognizedLines: m.unrecognizedLines.Load(),
		AvgFileTimeNs:     uint64(m.AverageFileTime().Nanoseconds()), //nolint:gosec // positive
		MinFileTimeNs:     minTime,
		MaxFileTimeNs:     m.fileTimeMax.Load(),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.filesTotal.Store(0)
	m.filesFailed.Store(0)
	m.filesClean.Store(0)
	m.tokensTotal.Store(0)
	m.tokensValid.Store(0)
	m.tokensInvalid.Store(0)
	m.tokensUnknown.Store(0)
	m.unrecognizedLines.Store(0)
	m.fileTimeTotal.Store(0)
	m.fileTimeMin.Store(^uint64(0))
	m.fileTimeMax.Store(0)
}
