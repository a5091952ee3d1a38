package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Process exit codes.
const (
	ExitSuccess      = 0 // everything built, validated, prepared or passed
	ExitFailure      = 1 // a query, statement or scenario is wrong
	ExitCommandError = 2 // the command could not run: bad paths, flags, schema or catalog
)

// ExitError carries the process exit code for an error returned from a
// command. main reads it with GetExitCode.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError with a plain message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Err: errors.New(message)}
}

// WrapExitError returns an ExitError whose message is "message: err".
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Err: fmt.Errorf("%s: %w", message, err)}
}

// GetExitCode finds the exit code carried by err. Errors without one exit
// with ExitFailure; nil exits with ExitSuccess.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Envelope wraps every JSON result the CLI prints.
type Envelope struct {
	Status string   `json:"status"` // "ok" or "error"
	Data   any      `json:"data,omitempty"`
	Error  *Problem `json:"error,omitempty"`
}

// Problem is the error half of an Envelope.
type Problem struct {
	Code    string `json:"code"` // E0xx load errors, E2xx build and run errors
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Printer writes command results to Out, as text or as an Envelope, and
// verbose progress notes to Diag so JSON on Out stays parseable.
type Printer struct {
	JSON    bool
	Verbose bool
	Out     io.Writer
	Diag    io.Writer // nil means Out
}

// Emit writes env as indented JSON.
func (p *Printer) Emit(env Envelope) error {
	enc := json.NewEncoder(p.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// OK prints a successful result. In text mode data is printed with %v;
// commands with structured text output print it themselves.
func (p *Printer) OK(data any) error {
	if p.JSON {
		return p.Emit(Envelope{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(p.Out, data)
	return err
}

// Fail prints an error result.
func (p *Printer) Fail(code, message string, details any) error {
	if p.JSON {
		return p.Emit(Envelope{Status: "error", Error: &Problem{Code: code, Message: message, Details: details}})
	}
	fmt.Fprintf(p.Out, "Error [%s]: %s\n", code, message)
	if p.Verbose && details != nil {
		fmt.Fprintf(p.Out, "  details: %v\n", details)
	}
	return nil
}

// Textf prints to Out. JSON output never goes through Textf.
func (p *Printer) Textf(format string, args ...any) {
	fmt.Fprintf(p.Out, format, args...)
}

// Notef prints a progress note to Diag when verbose.
func (p *Printer) Notef(format string, args ...any) {
	if !p.Verbose {
		return
	}
	fmt.Fprintf(p.diag(), format+"\n", args...)
}

func (p *Printer) diag() io.Writer {
	if p.Diag != nil {
		return p.Diag
	}
	return p.Out
}
