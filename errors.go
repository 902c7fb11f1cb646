package ev5validator

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks against the typed errors below.
var (
	ErrSchema     = errors.New("schema error")
	ErrRegistry   = errors.New("registry error")
	ErrFileAccess = errors.New("file access error")
)

// SchemaError reports a malformed or ambiguous schema definition.
// It is fatal: no file can be validated against a broken schema.
type SchemaError struct {
	Block  string
	Field  string
	Column int
	Reason string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Block == "":
		return fmt.Sprintf("schema: %s", e.Reason)
	case e.Field == "":
		return fmt.Sprintf("schema: block %q: %s", e.Block, e.Reason)
	default:
		return fmt.Sprintf("schema: block %q field %q (column %d): %s", e.Block, e.Field, e.Column, e.Reason)
	}
}

// Unwrap returns ErrSchema.
func (e *SchemaError) Unwrap() error { return ErrSchema }

// RegistryError reports an empty or malformed registry snapshot.
// Index is the position of the offending entry, or -1 when the input as a
// whole is at fault.
type RegistryError struct {
	Index  int
	Reason string
}

func (e *RegistryError) Error() string {
	if e.Index < 0 {
		return "registry: " + e.Reason
	}
	return fmt.Sprintf("registry: entry %d: %s", e.Index, e.Reason)
}

// Unwrap returns ErrRegistry.
func (e *RegistryError) Unwrap() error { return ErrRegistry }

// FileAccessError reports a data file that could not be opened or read.
// It aborts validation of that file only.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *FileAccessError) Unwrap() []error { return []error{ErrFileAccess, e.Err} }
