package worker

import "time"

// JobResult is the outcome of one job.
type JobResult[T, R any] struct {
	// Index is the position of Item in the submitted slice.
	Index int

	Item   T
	Result R
	Err    error

	Duration time.Duration
}

// BatchResult aggregates the results of a batch, ordered by Index.
type BatchResult[T, R any] struct {
	Results []*JobResult[T, R]

	TotalJobs     int
	CompletedJobs int
	FailedJobs    int

	TotalDuration time.Duration
}

// HasFailures returns true if any job returned an error.
func (br *BatchResult[T, R]) HasFailures() bool {
	return br.FailedJobs > 0
}

// Errors returns the errors of failed jobs in order.
func (br *BatchResult[T, R]) Errors() []error {
	var errs []error
	for _, r := range br.Results {
		if r != nil && r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}
