package schema

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes schema errors.
type ErrorCode string

const (
	// ErrCodeNoRelatedView indicates a second-or-later view was added without a relation.
	ErrCodeNoRelatedView ErrorCode = "SCHEMA_NO_RELATED_VIEW"

	// ErrCodeUnknownView indicates a relation references a view that is not registered.
	ErrCodeUnknownView ErrorCode = "SCHEMA_UNKNOWN_VIEW"

	// ErrCodeInvalidRelation indicates a malformed relation or attribute pair.
	ErrCodeInvalidRelation ErrorCode = "SCHEMA_INVALID_RELATION"

	// ErrCodeDuplicateView indicates the same view was registered twice.
	ErrCodeDuplicateView ErrorCode = "SCHEMA_DUPLICATE_VIEW"

	// ErrCodeInvalidView indicates a view definition is malformed.
	ErrCodeInvalidView ErrorCode = "SCHEMA_INVALID_VIEW"

	// ErrCodeAttributeNotFound indicates an attribute lookup failed.
	ErrCodeAttributeNotFound ErrorCode = "ATTRIBUTE_NOT_FOUND"
)

// SchemaError is returned when a view or relation cannot be registered.
type SchemaError struct {
	Code    ErrorCode
	Message string

	// View is the display name of the view being registered (if any).
	View string

	// Related is the display name of the view on the other side of the relation.
	Related string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	switch {
	case e.View != "" && e.Related != "":
		return fmt.Sprintf("%s: %s (view=%s, related=%s)", e.Code, e.Message, e.View, e.Related)
	case e.View != "":
		return fmt.Sprintf("%s: %s (view=%s)", e.Code, e.Message, e.View)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// AttributeLookupError is returned when a name does not match any attribute
// a view exposes. For query views only visible attributes are exposed.
type AttributeLookupError struct {
	View      string
	Attribute string
}

// Error implements the error interface.
func (e *AttributeLookupError) Error() string {
	return fmt.Sprintf("%s: attribute %q not found in view %s", ErrCodeAttributeNotFound, e.Attribute, e.View)
}

// IsSchemaError reports whether err is a SchemaError, optionally with one of
// the given codes. Uses errors.As to handle wrapped errors.
func IsSchemaError(err error, codes ...ErrorCode) bool {
	var se *SchemaError
	if !errors.As(err, &se) {
		return false
	}
	if len(codes) == 0 {
		return true
	}
	for _, c := range codes {
		if se.Code == c {
			return true
		}
	}
	return false
}

// IsAttributeLookupError reports whether err is an AttributeLookupError.
func IsAttributeLookupError(err error) bool {
	var ae *AttributeLookupError
	return errors.As(err, &ae)
}

func newSchemaError(code ErrorCode, message string, view, related *View) *SchemaError {
	e := &SchemaError{Code: code, Message: message}
	if view != nil {
		e.View = view.Name()
	}
	if related != nil {
		e.Related = related.Name()
	}
	return e
}
