package querysql

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes query building errors.
type ErrorCode string

const (
	// ErrCodeNoJoinPath indicates a selected view has no relation to any view already in the join tree.
	ErrCodeNoJoinPath ErrorCode = "JOIN_NO_PATH"

	// ErrCodeUnknownView indicates a view was never placed in the join tree.
	ErrCodeUnknownView ErrorCode = "JOIN_UNKNOWN_VIEW"

	// ErrCodeAggregateGroupBy indicates the visible attributes are not exactly the group keys plus the aggregates.
	ErrCodeAggregateGroupBy ErrorCode = "VALIDATION_AGGREGATE_GROUP_BY"

	// ErrCodeOptions indicates invalid selection options.
	ErrCodeOptions ErrorCode = "VALIDATION_OPTIONS"

	// ErrCodeEmptySelect indicates a query with no visible attribute.
	ErrCodeEmptySelect ErrorCode = "VALIDATION_EMPTY_SELECT"

	// ErrCodeUnboundCondition indicates a condition without values was rendered in literal mode.
	ErrCodeUnboundCondition ErrorCode = "VALIDATION_UNBOUND_CONDITION"

	// ErrCodeDuplicateOutput indicates two visible attributes share an output name in a query view.
	ErrCodeDuplicateOutput ErrorCode = "VALIDATION_DUPLICATE_OUTPUT"
)

// JoinPathError is returned when a view cannot be attached to the join tree.
type JoinPathError struct {
	Code    ErrorCode
	Message string

	// View is the display name of the view that could not be placed.
	View string
}

// Error implements the error interface.
func (e *JoinPathError) Error() string {
	return fmt.Sprintf("%s: %s (view=%s)", e.Code, e.Message, e.View)
}

// ValidationError is returned when a query's selection is inconsistent.
// No SQL is produced for a query that fails validation.
type ValidationError struct {
	Code    ErrorCode
	Message string

	// Attributes names the offending attributes as "View.attr".
	Attributes []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Attributes) > 0 {
		return fmt.Sprintf("%s: %s (attributes=%s)", e.Code, e.Message, strings.Join(e.Attributes, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsJoinPathError reports whether err is a JoinPathError.
// Uses errors.As to handle wrapped errors.
func IsJoinPathError(err error) bool {
	var je *JoinPathError
	return errors.As(err, &je)
}

// IsValidationError reports whether err is a ValidationError, optionally
// restricted to the given codes.
func IsValidationError(err error, codes ...ErrorCode) bool {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	if len(codes) == 0 {
		return true
	}
	for _, c := range codes {
		if ve.Code == c {
			return true
		}
	}
	return false
}

// ErrorCodeOf extracts the code from a querysql error, or "" for other errors.
func ErrorCodeOf(err error) ErrorCode {
	var je *JoinPathError
	if errors.As(err, &je) {
		return je.Code
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}
