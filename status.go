package ev5validator

import "fmt"

// Status is the classification of one token against the registry.
type Status string

const (
	// StatusValid means the registry lists the value for the token's field.
	StatusValid Status = "VALID"
	// StatusInvalid means the field is registered but the value is not.
	StatusInvalid Status = "INVALID"
	// StatusUnknownField means the registry has no codes for the field.
	StatusUnknownField Status = "UNKNOWN_FIELD"
)

// Kind tells which check a non-valid result failed.
type Kind string

const (
	// KindCode is a value that is not a registered code.
	KindCode Kind = "CODE"
	// KindField is a field the registry does not know.
	KindField Kind = "FIELD"
)

// Kind returns the check kind for a non-valid status, or "" for VALID.
func (s Status) Kind() Kind {
	switch s {
	case StatusInvalid:
		return KindCode
	case StatusUnknownField:
		return KindField
	default:
		return ""
	}
}

// UnknownFieldNote is the expected-codes text carried by UNKNOWN_FIELD results.
const UnknownFieldNote = "Field type not recognized"

// Token is one schema-resolved code candidate taken from a data file.
// Line is 1-based; Column is the position in the record layout.
type Token struct {
	Value  string `json:"value"`
	Block  string `json:"block"`
	Field  string `json:"field"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// Result is the classification of a single token.
type Result struct {
	File   string `json:"file"`
	Token  Token  `json:"token"`
	Status Status `json:"status"`

	// ExpectedCodes lists the registered codes for the field when the
	// result is INVALID and expected codes are enabled.
	ExpectedCodes string `json:"expectedCodes,omitempty"`
}

// Kind returns the failed check, see Status.Kind.
func (r Result) Kind() Kind {
	return r.Status.Kind()
}

// String returns a human-readable representation of the result.
func (r Result) String() string {
	return fmt.Sprintf("%s.%s = %s (line %d, column %d): %s",
		r.Token.Block, r.Token.Field, r.Token.Value, r.Token.Line, r.Token.Column, r.Status)
}

// RegistryCode is one (field, code, description) triple from the registry.
// The JSON names follow the registry's wire format.
type RegistryCode struct {
	Field       string `json:"codeName"`
	Code        string `json:"code"`
	Description string `json:"description"`
}
