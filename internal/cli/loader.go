package cli

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue/token"

	"github.com/roach88/joinery/internal/compiler"
	"github.com/roach88/joinery/internal/queryir"
	"github.com/roach88/joinery/internal/querysql"
	"github.com/roach88/joinery/internal/schema"
)

// LoadError represents an error that occurred while loading a schema or a
// query document.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeScanError     = "E002" // Directory scan error
	ErrCodeNoFiles       = "E003" // No CUE files found
	ErrCodeLoadFailed    = "E004" // CUE load failed
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeBuildFailed   = "E006" // Schema build failed
	ErrCodeDocument      = "E007" // Query document invalid
	ErrCodeCatalog       = "E008" // Statement catalog unavailable
	ErrCodeInvalidOption = "E009" // Bad flag value (dialect, placeholder, query name)

	// Query build errors
	ErrCodeJoinPath        = "E201" // No relation to the join tree
	ErrCodeAggregateGroup  = "E202" // Visible fields not group keys plus aggregates
	ErrCodeOptions         = "E203" // Invalid selection options
	ErrCodeEmptySelect     = "E204" // Every field hidden
	ErrCodeUnbound         = "E205" // Unbound condition in literal output
	ErrCodeDuplicateOutput = "E206" // View exposes one name twice
	ErrCodeSchema          = "E210" // Schema rejected a registered view
	ErrCodeAttribute       = "E211" // Attribute not found
	ErrCodeCheckFailed     = "E220" // SQL does not prepare
	ErrCodeTestFailed      = "E230" // Conformance scenario failed
)

// loadSchema compiles the CUE schema at path.
func loadSchema(path string) (*schema.Schema, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema: %v", err)}
	}

	if info.IsDir() {
		files, err := compiler.FindCUEFiles(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
		}
		if len(files) == 0 {
			return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}
		}
	}

	s, err := compiler.LoadSchema(path)
	if err != nil {
		return nil, convertSchemaError(err)
	}
	return s, nil
}

// convertSchemaError converts a schema compile error to a LoadError with
// position info. Positioned errors come from CUE itself; the rest are
// schema rules such as an unrelated view.
func convertSchemaError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) && compileErr.Pos.IsValid() {
		code := ErrCodeBuildFailed
		if compileErr.Field == "cue" {
			code = ErrCodeLoadFailed
		}
		return &LoadError{Code: code, Message: compileErr.Message, Pos: compileErr.Pos}
	}
	return &LoadError{Code: ErrCodeBuildFailed, Message: err.Error()}
}

// loadDocument reads and parses a query document.
func loadDocument(path string) (*queryir.Document, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("query document not found: %s", path)}
	}
	doc, err := queryir.LoadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDocument, Message: err.Error()}
	}
	return doc, nil
}

// MapBuildErrorToCode maps a query build error to a CLI error code.
func MapBuildErrorToCode(err error) string {
	switch compiler.ErrorCode(err) {
	case string(querysql.ErrCodeNoJoinPath), string(querysql.ErrCodeUnknownView):
		return ErrCodeJoinPath
	case string(querysql.ErrCodeAggregateGroupBy):
		return ErrCodeAggregateGroup
	case string(querysql.ErrCodeOptions):
		return ErrCodeOptions
	case string(querysql.ErrCodeEmptySelect):
		return ErrCodeEmptySelect
	case string(querysql.ErrCodeUnboundCondition):
		return ErrCodeUnbound
	case string(querysql.ErrCodeDuplicateOutput):
		return ErrCodeDuplicateOutput
	case string(schema.ErrCodeAttributeNotFound):
		return ErrCodeAttribute
	case string(schema.ErrCodeNoRelatedView), string(schema.ErrCodeUnknownView),
		string(schema.ErrCodeInvalidRelation), string(schema.ErrCodeDuplicateView),
		string(schema.ErrCodeInvalidView):
		return ErrCodeSchema
	case compiler.CodeCompile:
		return ErrCodeDocument
	default:
		return ErrCodeGeneric
	}
}

// loadErrorCode returns the code of a LoadError, or ErrCodeGeneric.
func loadErrorCode(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}
