package ev5validator

import "runtime"

// Option configures the Validator.
type Option func(*Options)

// Options holds all configuration for the Validator.
type Options struct {
	// Classification
	ValidateFieldTypes bool
	ValidateCodes      bool
	ExpectedCodes      bool

	// Record layout
	Sections bool

	// Limits
	MaxIssues   int
	WorkerCount int
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		ValidateFieldTypes: true,
		ValidateCodes:      true,
		ExpectedCodes:      true,

		Sections: false,

		MaxIssues:   0, // unlimited
		WorkerCount: runtime.NumCPU(),
	}
}

// WithFieldValidation reports tokens whose field has no registry codes as
// UNKNOWN_FIELD. When disabled such tokens are counted but not reported.
func WithFieldValidation(enable bool) Option {
	return func(o *Options) {
		o.ValidateFieldTypes = enable
	}
}

// WithCodeValidation reports unregistered values as INVALID.
// When disabled, values of registered fields are always counted valid.
func WithCodeValidation(enable bool) Option {
	return func(o *Options) {
		o.ValidateCodes = enable
	}
}

// WithExpectedCodes attaches the field's registered codes to INVALID results.
func WithExpectedCodes(enable bool) Option {
	return func(o *Options) {
		o.ExpectedCodes = enable
	}
}

// WithSections reads files whose blocks are introduced by
// "--- NAME ---" header lines instead of a leading discriminator column.
func WithSections(enable bool) Option {
	return func(o *Options) {
		o.Sections = enable
	}
}

// WithMaxIssues caps the results kept per report. Counts stay exact.
// Use 0 for unlimited.
func WithMaxIssues(max int) Option {
	return func(o *Options) {
		if max >= 0 {
			o.MaxIssues = max
		}
	}
}

// WithWorkerCount sets the number of workers for batch validation.
// Defaults to runtime.NumCPU().
func WithWorkerCount(count int) Option {
	return func(o *Options) {
		if count > 0 {
			o.WorkerCount = count
		}
	}
}

// LenientOptions mirrors the legacy behaviour of only checking codes of
// fields the registry knows about.
func LenientOptions() []Option {
	return []Option{
		WithFieldValidation(false),
		WithCodeValidation(true),
	}
}
