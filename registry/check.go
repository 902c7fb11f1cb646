package registry

import (
	"fmt"

	"github.com/gofhir/fhirpath"
	"github.com/gofhir/fhirpath/types"
)

// Check is a FHIRPath expression a registry response must satisfy.
type Check struct {
	Expr   string
	Reason string

	compiled *fhirpath.Expression
}

// NewCheck compiles expr. reason is reported when the check fails; it
// defaults to the expression itself.
func NewCheck(expr, reason string) (*Check, error) {
	compiled, err := fhirpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to compile FHIRPath expression '%s': %w", expr, err)
	}
	if reason == "" {
		reason = "check failed: " + expr
	}
	return &Check{Expr: expr, Reason: reason, compiled: compiled}, nil
}

// MustCheck is like NewCheck but panics on a compile error.
func MustCheck(expr, reason string) *Check {
	c, err := NewCheck(expr, reason)
	if err != nil {
		panic(err)
	}
	return c
}

// Run evaluates the check against a JSON document. Empty results fail;
// a single boolean is taken as is; any other non-empty result passes.
func (c *Check) Run(doc []byte) error {
	result, err := c.compiled.Evaluate(doc)
	if err != nil {
		return fmt.Errorf("failed to evaluate FHIRPath expression '%s': %w", c.Expr, err)
	}
	if !truthy(result) {
		return fmt.Errorf("%s", c.Reason)
	}
	return nil
}

func truthy(result types.Collection) bool {
	if len(result) == 0 {
		return false
	}
	if len(result) == 1 {
		if b, ok := result[0].(types.Boolean); ok {
			return b.Bool()
		}
	}
	return true
}
