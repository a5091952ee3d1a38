package compiler

import (
	stderrors "errors"
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/joinery/internal/querysql"
	"github.com/roach88/joinery/internal/schema"
)

// CompileError represents a compilation error with source position.
// Err carries the underlying schema or builder error when there is one.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
	Err     error
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap exposes the underlying error to errors.Is / errors.As.
func (e *CompileError) Unwrap() error { return e.Err }

// noPos marks errors from YAML documents, which carry paths instead of positions.
var noPos = token.NoPos

func wrapError(field string, pos token.Pos, err error) *CompileError {
	return &CompileError{Field: field, Message: err.Error(), Pos: pos, Err: err}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

// Unclassified build failures.
const (
	CodeCompile = "COMPILE_ERROR"
	CodeUnknown = "ERROR"
)

// ErrorCode reports the stable code behind a build error: the builder's or
// the schema's own code when one is wrapped, CodeCompile for document
// errors, CodeUnknown otherwise. Returns "" for nil.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if c := querysql.ErrorCodeOf(err); c != "" {
		return string(c)
	}
	var se *schema.SchemaError
	if stderrors.As(err, &se) {
		return string(se.Code)
	}
	var ae *schema.AttributeLookupError
	if stderrors.As(err, &ae) {
		return string(schema.ErrCodeAttributeNotFound)
	}
	var ce *CompileError
	if stderrors.As(err, &ce) {
		return CodeCompile
	}
	return CodeUnknown
}
