package harness

import "github.com/roach88/joinery/internal/ir"

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true when the expectation and every assertion hold.
	Pass bool `json:"pass"`

	// SQL is the built statement; empty when the build failed.
	SQL string `json:"sql,omitempty"`

	// Source is the nested SQL of the view the build query registered.
	Source string `json:"source,omitempty"`

	// Args are placeholder values after binding; nil marks an unbound slot.
	Args []ir.Value `json:"args,omitempty"`

	// Unbound lists placeholders still without a value.
	Unbound []string `json:"unbound,omitempty"`

	// Params maps placeholder names to the "View.attr" they filter.
	Params map[string]string `json:"params,omitempty"`

	// Fingerprint identifies the statement text and its bindings.
	Fingerprint string `json:"fingerprint,omitempty"`

	// ErrorCode and ErrorMessage describe a failed build.
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	// Errors lists failed expectations and assertions.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
		Params: make(map[string]string),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
