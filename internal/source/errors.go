package source

import (
	"errors"
	"fmt"
)

// The five discriminable error kinds from the error-handling design.
// Callers type-assert with errors.As to recover the structured detail;
// errors.Is works against the sentinel kinds below.
var (
	ErrInvalidQuery   = errors.New("source: invalid query")
	ErrLabelNotFound  = errors.New("source: label not found")
	ErrConfigNotFound = errors.New("source: no matching configuration")
	ErrParseSentinel  = errors.New("source: parse error")
	ErrSourceFailure  = errors.New("source: backing store failure")
)

// ParseError carries the file path and codec diagnostic for a failed
// parse of a matched file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("source: parse error in %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return ErrParseSentinel }

func NewParseError(path string, err error) error {
	return &ParseError{Path: path, Err: err}
}

// SourceError wraps a clone/fetch/checkout command failure together with
// the underlying command's stderr output. It is never cached.
type SourceError struct {
	Op     string
	Stderr string
	Err    error
}

func (e *SourceError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("source: %s failed: %v: %s", e.Op, e.Err, e.Stderr)
	}

	return fmt.Sprintf("source: %s failed: %v", e.Op, e.Err)
}

func (e *SourceError) Unwrap() error { return ErrSourceFailure }

func NewSourceError(op, stderr string, err error) error {
	return &SourceError{Op: op, Stderr: stderr, Err: err}
}

// InvalidQueryError describes exactly what was wrong with a query.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("source: invalid query: %s", e.Reason)
}

func (e *InvalidQueryError) Unwrap() error { return ErrInvalidQuery }

func NewInvalidQueryError(reason string) error {
	return &InvalidQueryError{Reason: reason}
}

// LabelNotFoundError names the label that failed to resolve to any
// branch, tag or commit.
type LabelNotFoundError struct {
	Label string
}

func (e *LabelNotFoundError) Error() string {
	return fmt.Sprintf("source: label not found: %s", e.Label)
}

func (e *LabelNotFoundError) Unwrap() error { return ErrLabelNotFound }

func NewLabelNotFoundError(label string) error {
	return &LabelNotFoundError{Label: label}
}
