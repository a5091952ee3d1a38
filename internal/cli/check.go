package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/joinery/internal/store"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Schema      string
	Dialect     string
	Placeholder string
}

// CheckedQuery is the check outcome for one query.
type CheckedQuery struct {
	Name  string `json:"name"`
	SQL   string `json:"sql"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// CheckResult holds the overall check result.
type CheckResult struct {
	Queries []CheckedQuery `json:"queries"`
	Passed  int            `json:"passed"`
	Failed  int            `json:"failed"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <queries.yaml> [query...]",
		Short: "Prepare built statements against the schema's tables",
		Long: `Build the queries of a document and prepare each statement in an
in-memory SQLite database holding one table per view source.

A statement that fails to prepare references a column or table the schema
does not declare, or is not valid SQL.

Exit codes:
  0 - Every statement prepared
  1 - One or more statements failed
  2 - Command error (invalid paths, etc.)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", "", "CUE schema file or directory (default from config)")
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "", "SQL dialect")
	cmd.Flags().StringVar(&opts.Placeholder, "placeholder", "", "placeholder format (question|dollar|colon|atp)")

	return cmd
}

func runCheck(opts *CheckOptions, docPath string, only []string, cmd *cobra.Command) error {
	p := opts.printer(cmd)

	built, err := compileDocument(p, opts.config(), docTarget{
		Doc:         docPath,
		Only:        only,
		Schema:      opts.Schema,
		Dialect:     opts.Dialect,
		Placeholder: opts.Placeholder,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result := CheckResult{Queries: make([]CheckedQuery, 0, len(built.Selected))}
	for _, c := range built.Selected {
		cq := CheckedQuery{Name: c.Name, SQL: c.Statement.SQL, OK: true}
		if err := store.Check(ctx, built.Schema, c.Statement.SQL); err != nil {
			cq.OK = false
			cq.Error = err.Error()
			result.Failed++
		} else {
			result.Passed++
		}
		result.Queries = append(result.Queries, cq)
	}

	if p.JSON {
		response := Envelope{Status: "ok", Data: result}
		if result.Failed > 0 {
			response.Status = "error"
			response.Error = &Problem{Code: ErrCodeCheckFailed, Message: fmt.Sprintf("%d statement(s) failed to prepare", result.Failed)}
		}
		if err := p.Emit(response); err != nil {
			return err
		}
	} else {
		w := p.Out
		for _, q := range result.Queries {
			if q.OK {
				fmt.Fprintf(w, "✓ %s\n", q.Name)
				continue
			}
			fmt.Fprintf(w, "✗ %s\n", q.Name)
			fmt.Fprintf(w, "  %s\n", q.Error)
			fmt.Fprintf(w, "  SQL: %s\n", q.SQL)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%d passed, %d failed\n", result.Passed, result.Failed)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d statement(s) failed to prepare", ErrCodeCheckFailed, result.Failed))
	}
	return nil
}
