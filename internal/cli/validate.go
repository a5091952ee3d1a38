package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/joinery/internal/compiler"
	"github.com/roach88/joinery/internal/queryir"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Schema string
	Strict bool // treat warnings as errors
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []string                   `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <queries.yaml>",
		Short: "Validate a query document without building it",
		Long: `Validate a query document against a CUE schema without building SQL.

Checks that every attribute exists, aggregates and group keys line up and
registered views relate to the schema. Also reports portability warnings
for the document and relation cycles in the schema.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", "", "CUE schema file or directory (default from config)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on warnings")

	return cmd
}

func runValidate(opts *ValidateOptions, docPath string, cmd *cobra.Command) error {
	p := opts.printer(cmd)
	cfg := opts.config()

	schemaPath := cfg.ResolvedSchema(opts.Schema)
	s, err := loadSchema(schemaPath)
	if err != nil {
		code, msg := loadErrorCode(err)
		return outputCommandError(p, code, msg)
	}

	doc, err := loadDocument(docPath)
	if err != nil {
		code, msg := loadErrorCode(err)
		return outputCommandError(p, code, msg)
	}
	p.Notef("Validating %d quer(ies) against %s", len(doc.Queries), schemaPath)

	result := ValidationResult{
		Errors:   compiler.ValidateDocument(s, doc),
		Warnings: collectWarnings(doc, compiler.AnalyzeCycles(s)),
	}
	result.Valid = len(result.Errors) == 0 && (!opts.Strict || len(result.Warnings) == 0)

	if !result.Valid {
		return outputValidationErrors(p, result)
	}
	return outputValidateSuccess(p, result)
}

// collectWarnings gathers the document lint and the schema's relation cycles.
func collectWarnings(doc *queryir.Document, cycles []compiler.CycleWarning) []string {
	warnings := append([]string{}, queryir.Validate(doc).Warnings...)
	for _, c := range cycles {
		warnings = append(warnings, "schema: "+c.Message)
	}
	return warnings
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(p *Printer, result ValidationResult) error {
	if p.JSON {
		return p.OK(result)
	}

	p.Textf("✓ All queries valid\n")
	printWarnings(p, result.Warnings)
	return nil
}

// outputValidationErrors outputs validation errors and warnings.
func outputValidationErrors(p *Printer, result ValidationResult) error {
	count := len(result.Errors)
	if count == 0 {
		count = len(result.Warnings)
	}

	if p.JSON {
		response := Envelope{
			Status: "error",
			Data:   result,
		}
		if len(result.Errors) > 0 {
			response.Error = &Problem{Code: result.Errors[0].Code, Message: result.Errors[0].Message}
		} else {
			response.Error = &Problem{Code: ErrCodeGeneric, Message: result.Warnings[0]}
		}

		if err := p.Emit(response); err != nil {
			return err
		}

		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d problem(s)", count))
	}

	p.Textf("✗ Validation failed\n")
	p.Textf("\n")

	for _, err := range result.Errors {
		p.Textf("  %s: %s: %s\n", err.Code, err.Field, err.Message)
	}
	printWarnings(p, result.Warnings)

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d problem(s)", count))
}

func printWarnings(p *Printer, warnings []string) {
	for _, w := range warnings {
		p.Textf("  warning: %s\n", w)
	}
}
